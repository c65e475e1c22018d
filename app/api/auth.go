package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mvillarin/campus-lostfound/app/auth"
	"github.com/mvillarin/campus-lostfound/app/cfg"
	"github.com/mvillarin/campus-lostfound/app/database"
)

type registerRequest struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	StudentID     string `json:"student_id"`
	ContactNumber string `json:"contact_number"`
	Department    string `json:"department"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register. Only university addresses are
// accepted.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	if !auth.ValidEmail(req.Email, cfg.Get().EmailDomain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a university email address is required"})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		slog.Error("Database error", "operation", "register", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "an account with this email already exists"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("Password hashing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	user := database.User{
		Email:         req.Email,
		PasswordHash:  hash,
		FullName:      req.FullName,
		StudentID:     req.StudentID,
		ContactNumber: req.ContactNumber,
		Department:    req.Department,
	}
	if err := h.users.Create(&user); err != nil {
		slog.Error("Database error", "operation", "register", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	token, err := auth.GenerateToken(cfg.Get().JWTSecret, user.ID, user.Email, user.Role)
	if err != nil {
		slog.Error("Token generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	slog.Info("User registered", "user", user.ID, "email", user.Email)

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		slog.Error("Database error", "operation", "login", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		slog.Warn("Login failed", "email", req.Email, "remote", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(cfg.Get().JWTSecret, user.ID, user.Email, user.Role)
	if err != nil {
		slog.Error("Token generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	slog.Info("User logged in", "user", user.ID, "role", user.Role)

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// GetProfile handles GET /api/profile for the authenticated user.
func (h *Handler) GetProfile(c *gin.Context) {
	claims := authClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	user, err := h.users.Get(claims.UserID)
	if err != nil {
		slog.Error("Database error", "operation", "get_profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /api/profile with a partial update.
func (h *Handler) UpdateProfile(c *gin.Context) {
	claims := authClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var upd database.UserUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Update(claims.UserID, upd)
	if err != nil {
		slog.Error("Database error", "operation", "update_profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// AssignRole handles PUT /api/users/:user_id/role. Only admins may change
// roles, and only to the operational roles.
func (h *Handler) AssignRole(c *gin.Context) {
	claims := authClaims(c)
	if claims == nil || claims.Role != database.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil ||
		(req.Role != database.RoleSecurity && req.Role != database.RoleUniversityMember) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	user, err := h.users.SetRole(c.Param("user_id"), req.Role)
	if err != nil {
		slog.Error("Database error", "operation", "assign_role", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update role"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	slog.Info("User role updated", "user", user.ID, "role", user.Role)

	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user": user})
}
