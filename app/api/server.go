package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mvillarin/campus-lostfound/app/auth"
	"github.com/mvillarin/campus-lostfound/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for the dashboard and mobile clients
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Expose-Headers", "X-Notification-Diagnostics")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	// Health and realtime endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/ws", handler.ServeWS)

	// Stored item images
	r.Static("/uploads", cfg.Get().UploadDir)

	api := r.Group("/api")
	{
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)

		api.POST("/report", handler.CreateReport)
		api.GET("/reports", handler.ListReports)

		api.GET("/items", handler.ListItems)
		api.POST("/items", handler.CreateItem)
		api.GET("/items/search", handler.SearchItems)
		api.GET("/items/:id", handler.GetItem)
		api.PUT("/items/:id", handler.UpdateItem)
		api.PUT("/items/:id/status", handler.UpdateItemStatus)
		api.DELETE("/items/:id", handler.DeleteItem)

		api.POST("/claims", handler.CreateClaim)
		api.POST("/claims/item/:item_id", handler.CreateClaimForItem)
		api.PUT("/claims/:claim_id/approve", handler.ApproveClaim)
		api.PUT("/claims/:claim_id/reject", handler.RejectClaim)
		api.GET("/claims/user/:user_id", handler.ListUserClaims)
		api.GET("/claims/item/:item_id", handler.ListItemClaims)
		api.GET("/claims/security/all", handler.ListAllClaims)
		api.GET("/claims/pending/count", handler.PendingClaimCount)

		api.GET("/notifications/:user_id", handler.ListNotifications)
		api.PUT("/notifications/:id/read", handler.MarkNotificationRead)
		api.PUT("/notifications/:id/claim", handler.ClaimFromNotification)

		api.PUT("/users/:user_id/role", authMiddleware(), handler.AssignRole)
	}

	profile := api.Group("/profile")
	profile.Use(authMiddleware())
	{
		profile.GET("", handler.GetProfile)
		profile.PUT("", handler.UpdateProfile)
	}

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware validates the bearer token and stores its claims on the
// request context.
func authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Provide a token in the Authorization: Bearer <token> header",
			})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(cfg.Get().JWTSecret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid token",
				"message": "The provided token is not valid",
			})
			c.Abort()
			return
		}

		c.Set("auth_claims", claims)
		c.Next()
	}
}

// authClaims returns the validated token claims set by authMiddleware.
func authClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get("auth_claims")
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
