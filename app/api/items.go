package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mvillarin/campus-lostfound/app/database"
	"github.com/mvillarin/campus-lostfound/app/matching"
	"github.com/mvillarin/campus-lostfound/app/realtime"
)

// CreateReport handles POST /api/report: a multipart item report with an
// optional image. Matching runs inline and the paired counterpart, if any,
// is included in the response.
func (h *Handler) CreateReport(c *gin.Context) {
	item := database.Item{
		ReporterID:  c.PostForm("reporter_id"),
		Type:        c.PostForm("type"),
		Category:    h.registry.Normalize(c.PostForm("category")),
		Name:        c.PostForm("name"),
		Brand:       c.PostForm("brand"),
		Color:       c.PostForm("color"),
		Course:      c.PostForm("course"),
		Location:    c.PostForm("location"),
		Datetime:    c.PostForm("datetime"),
		Description: c.PostForm("description"),
		Cover:       c.PostForm("cover"),
		StudentID:   c.PostForm("student_id"),
	}

	if item.Type != database.ItemTypeLost && item.Type != database.ItemTypeFound {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be lost or found"})
		return
	}
	if item.Name == "" && item.StudentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name or student_id is required"})
		return
	}

	if file, err := c.FormFile("image"); err == nil {
		url, err := h.store.Save(file)
		if err != nil {
			slog.Error("Image upload failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
			return
		}
		item.ImageURL = url
	}

	if err := h.items.CreateItem(&item); err != nil {
		slog.Error("Database error", "operation", "create_report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
		return
	}

	match := h.engine.MatchReport(&item)

	h.hub.Publish(realtime.EventNewReport, item)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Report submitted",
		"data":    h.withReporter(item),
		"match":   match,
	})
}

// CreateItem handles POST /api/items: a plain JSON item create without the
// report pipeline.
func (h *Handler) CreateItem(c *gin.Context) {
	var item database.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if item.Type != database.ItemTypeLost && item.Type != database.ItemTypeFound {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be lost or found"})
		return
	}
	item.Category = h.registry.Normalize(item.Category)

	if err := h.items.CreateItem(&item); err != nil {
		slog.Error("Database error", "operation", "create_item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create item"})
		return
	}

	h.hub.Publish(realtime.EventNewReport, item)

	c.JSON(http.StatusCreated, item)
}

// ListItems handles GET /api/items with optional type, category, reporter_id
// and status filters.
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.items.ListItems(database.ItemFilter{
		Type:       c.Query("type"),
		Category:   h.registry.Normalize(c.Query("category")),
		ReporterID: c.Query("reporter_id"),
		Status:     c.Query("status"),
	})
	if err != nil {
		slog.Error("Database error", "operation", "list_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list items"})
		return
	}
	if items == nil {
		items = []database.Item{}
	}
	c.JSON(http.StatusOK, items)
}

// ListReports handles GET /api/reports: every item joined with its
// reporter's public info, for the security dashboard.
func (h *Handler) ListReports(c *gin.Context) {
	reports, err := h.items.ListReported()
	if err != nil {
		slog.Error("Database error", "operation", "list_reports", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}
	if reports == nil {
		reports = []database.ReportedItem{}
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) GetItem(c *gin.Context) {
	item, err := h.items.GetItem(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get item"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem handles PUT /api/items/:id with a partial update.
func (h *Handler) UpdateItem(c *gin.Context) {
	var upd database.ItemUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if upd.Category != nil {
		normalized := h.registry.Normalize(*upd.Category)
		upd.Category = &normalized
	}

	item, err := h.items.UpdateItem(c.Param("id"), upd)
	if err != nil {
		slog.Error("Database error", "operation", "update_item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update item"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	h.hub.Publish(realtime.EventReportUpdated, item)

	c.JSON(http.StatusOK, item)
}

// UpdateItemStatus handles PUT /api/items/:id/status.
func (h *Handler) UpdateItemStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	switch body.Status {
	case database.StatusReportedLost, database.StatusInCustody, database.StatusReturned:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	item, err := h.items.UpdateStatus(c.Param("id"), body.Status)
	if err != nil {
		slog.Error("Database error", "operation", "update_item_status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	h.hub.Publish(realtime.EventReportUpdated, item)

	c.JSON(http.StatusOK, item)
}

// SearchItems handles GET /api/items/search. The body is always the list of
// found items in custody matching the filter; search-triggered matching runs
// as a side effect and its decisions travel in the
// X-Notification-Diagnostics header.
func (h *Handler) SearchItems(c *gin.Context) {
	filter := database.SearchFilter{
		StudentID: c.Query("studentId"),
		Name:      c.Query("itemName"),
		Query:     c.Query("query"),
	}

	items, err := h.items.SearchInCustody(filter)
	if err != nil {
		slog.Error("Database error", "operation", "search_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search items"})
		return
	}
	if items == nil {
		items = []database.Item{}
	}

	diags := h.engine.MatchSearch(matching.SearchQuery{
		SourceItemID: c.Query("sourceItemId"),
		ReporterID:   c.Query("reporterId"),
		Query:        filter.Query,
		ItemName:     filter.Name,
		StudentID:    filter.StudentID,
	}, items)
	if encoded, err := json.Marshal(diags); err == nil {
		c.Header("X-Notification-Diagnostics", string(encoded))
	}

	c.JSON(http.StatusOK, items)
}

// DeleteItem handles DELETE /api/items/:id: the transactional cascade over
// matches, notifications and claims. Stored images are removed only after
// the delete committed.
func (h *Handler) DeleteItem(c *gin.Context) {
	result, err := h.items.DeleteCascade(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "delete_item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete item"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	for _, id := range result.DeletedIDs {
		h.hub.Publish(realtime.EventReportDeleted, gin.H{"item_id": id})
	}
	for _, url := range result.ImageURLs {
		if err := h.store.Remove(url); err != nil {
			slog.Error("Failed to remove stored image", "url", url, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Item deleted",
		"deleted_ids": result.DeletedIDs,
		"cascaded":    result.Cascaded,
	})
}

// withReporter joins the reporter's public info onto an item for the report
// response.
func (h *Handler) withReporter(item database.Item) database.ReportedItem {
	ri := database.ReportedItem{Item: item}
	if item.ReporterID == "" {
		return ri
	}
	reporter, err := h.users.Get(item.ReporterID)
	if err != nil || reporter == nil {
		return ri
	}
	ri.ReporterName = reporter.FullName
	ri.ReporterEmail = reporter.Email
	ri.ReporterProfilePicture = reporter.ProfilePicture
	return ri
}
