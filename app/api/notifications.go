package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mvillarin/campus-lostfound/app/claims"
	"github.com/mvillarin/campus-lostfound/app/database"
)

// ListNotifications handles GET /api/notifications/:user_id: the user's
// stored notifications merged with synthesized rows for un-notified matches.
func (h *Handler) ListNotifications(c *gin.Context) {
	views, err := h.fanout.ListForUser(c.Param("user_id"))
	if err != nil {
		slog.Error("Database error", "operation", "list_notifications", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	if views == nil {
		views = []database.NotificationView{}
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	n, err := h.fanout.MarkRead(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "mark_notification_read", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification"})
		return
	}
	if n == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, n)
}

// ClaimFromNotification handles PUT /api/notifications/:id/claim: the
// recipient claims the item behind the notification, which records them as
// the claimant the security desk should expect.
func (h *Handler) ClaimFromNotification(c *gin.Context) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	item, err := h.workflow.ClaimFromNotification(c.Param("id"), body.UserID)
	switch {
	case errors.Is(err, claims.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
	case err != nil:
		slog.Error("Claim from notification failed", "notification", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim item"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Claim recorded", "item": item})
	}
}
