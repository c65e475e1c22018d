package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mvillarin/campus-lostfound/app/claims"
	"github.com/mvillarin/campus-lostfound/app/database"
)

type claimRequest struct {
	UserID         string `json:"user_id"`
	ItemID         string `json:"item_id"`
	NotificationID string `json:"notification_id"`
	Message        string `json:"message"`
}

// CreateClaim handles POST /api/claims. A duplicate claim over the item's
// match closure is a conflict here.
func (h *Handler) CreateClaim(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claim, err := h.workflow.Create(claims.Request{
		UserID:         req.UserID,
		ItemID:         req.ItemID,
		NotificationID: req.NotificationID,
		Message:        req.Message,
	})
	switch {
	case errors.Is(err, claims.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{
			"error": "claim already exists for this item",
			"claim": claim,
		})
	case errors.Is(err, claims.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case err != nil:
		if req.UserID == "" || req.ItemID == "" || req.NotificationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Claim creation failed", "item", req.ItemID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create claim"})
	default:
		c.JSON(http.StatusCreated, gin.H{"message": "Claim submitted", "claim": claim})
	}
}

// CreateClaimForItem handles POST /api/claims/item/:item_id. Unlike
// POST /api/claims, resubmitting here is idempotent: the existing claim
// comes back with a 200. This route also notifies the claimant that the
// claim was received.
func (h *Handler) CreateClaimForItem(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.ItemID = c.Param("item_id")

	claim, err := h.workflow.Create(claims.Request{
		UserID:         req.UserID,
		ItemID:         req.ItemID,
		NotificationID: req.NotificationID,
		Message:        req.Message,
		NotifyClaimant: true,
	})
	switch {
	case errors.Is(err, claims.ErrDuplicate):
		c.JSON(http.StatusOK, gin.H{"message": "Claim already submitted", "claim": claim})
	case errors.Is(err, claims.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case err != nil:
		if req.UserID == "" || req.NotificationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Claim creation failed", "item", req.ItemID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create claim"})
	default:
		c.JSON(http.StatusCreated, gin.H{"message": "Claim submitted", "claim": claim})
	}
}

func (h *Handler) ApproveClaim(c *gin.Context) {
	h.decideClaim(c, true)
}

func (h *Handler) RejectClaim(c *gin.Context) {
	h.decideClaim(c, false)
}

func (h *Handler) decideClaim(c *gin.Context, approve bool) {
	claim, err := h.workflow.Decide(c.Param("claim_id"), approve)
	switch {
	case errors.Is(err, claims.ErrDecided):
		c.JSON(http.StatusConflict, gin.H{"error": "claim has already been decided"})
	case errors.Is(err, claims.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "claim not found"})
	case err != nil:
		slog.Error("Claim decision failed", "claim", c.Param("claim_id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update claim"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Claim updated", "claim": claim})
	}
}

func (h *Handler) ListUserClaims(c *gin.Context) {
	list, err := h.workflow.ListForUser(c.Param("user_id"))
	if err != nil {
		slog.Error("Database error", "operation", "list_user_claims", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list claims"})
		return
	}
	if list == nil {
		list = []database.Claim{}
	}
	c.JSON(http.StatusOK, list)
}

// ListItemClaims handles GET /api/claims/item/:item_id: claims on the item
// and everything matched to it, with claimant contact details.
func (h *Handler) ListItemClaims(c *gin.Context) {
	list, err := h.workflow.ListForItem(c.Param("item_id"))
	if err != nil {
		slog.Error("Database error", "operation", "list_item_claims", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list claims"})
		return
	}
	if list == nil {
		list = []database.ClaimDetail{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListAllClaims(c *gin.Context) {
	list, err := h.workflow.ListAll()
	if err != nil {
		slog.Error("Database error", "operation", "list_all_claims", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list claims"})
		return
	}
	if list == nil {
		list = []database.ClaimDetail{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) PendingClaimCount(c *gin.Context) {
	count, err := h.workflow.PendingCount()
	if err != nil {
		slog.Error("Database error", "operation", "pending_claim_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count claims"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
