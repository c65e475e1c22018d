package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mvillarin/campus-lostfound/app/cfg"
)

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   cfg.Get().Version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.workflow.PendingCount(); err == nil {
		health["pending_claims"] = count
	}
	health["ws_clients"] = h.hub.ClientCount()

	c.JSON(http.StatusOK, health)
}

// ServeWS upgrades the request to a websocket and registers the client for
// dashboard events.
func (h *Handler) ServeWS(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
