package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemRepository handles database operations for lost/found items
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, reporter_id, claimant_id, type, category, name, brand, color, course,
	location, datetime, description, cover, image_url, student_id, status,
	user_claim_status, created_at, updated_at`

func scanItem(row interface{ Scan(...interface{}) error }) (*Item, error) {
	var item Item
	var reporterID, claimantID sql.NullString
	err := row.Scan(
		&item.ID, &reporterID, &claimantID, &item.Type, &item.Category,
		&item.Name, &item.Brand, &item.Color, &item.Course, &item.Location,
		&item.Datetime, &item.Description, &item.Cover, &item.ImageURL,
		&item.StudentID, &item.Status, &item.UserClaimStatus,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.ReporterID = reporterID.String
	item.ClaimantID = claimantID.String
	return &item, nil
}

// CreateItem inserts a new item. The ID, timestamps and default status are
// filled in when absent; found items enter security custody, lost items are
// recorded as reported_lost.
func (r *ItemRepository) CreateItem(item *Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		if item.Type == ItemTypeFound {
			item.Status = StatusInCustody
		} else {
			item.Status = StatusReportedLost
		}
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO items (
			id, reporter_id, claimant_id, type, category, name, brand, color, course,
			location, datetime, description, cover, image_url, student_id, status,
			user_claim_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, nullable(item.ReporterID), nullable(item.ClaimantID), item.Type,
		item.Category, item.Name, item.Brand, item.Color, item.Course,
		item.Location, item.Datetime, item.Description, item.Cover, item.ImageURL,
		item.StudentID, item.Status, item.UserClaimStatus, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// GetItem returns an item by ID, or nil when it does not exist.
func (r *ItemRepository) GetItem(id string) (*Item, error) {
	item, err := scanItem(r.db.QueryRow(
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the filter, newest first.
func (r *ItemRepository) ListItems(filter ItemFilter) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []interface{}

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.ReporterID != "" {
		query += ` AND reporter_id = ?`
		args = append(args, filter.ReporterID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// ListReported returns all items joined with reporter info, newest first.
func (r *ItemRepository) ListReported() ([]ReportedItem, error) {
	rows, err := r.db.Query(`
		SELECT ` + prefixed("i", itemColumns) + `,
		       COALESCE(u.full_name, ''), COALESCE(u.email, ''), COALESCE(u.profile_picture, '')
		FROM items i
		LEFT JOIN users u ON i.reporter_id = u.id
		ORDER BY i.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reported items: %w", err)
	}
	defer rows.Close()

	var items []ReportedItem
	for rows.Next() {
		var ri ReportedItem
		var reporterID, claimantID sql.NullString
		err := rows.Scan(
			&ri.ID, &reporterID, &claimantID, &ri.Type, &ri.Category,
			&ri.Name, &ri.Brand, &ri.Color, &ri.Course, &ri.Location,
			&ri.Datetime, &ri.Description, &ri.Cover, &ri.ImageURL,
			&ri.StudentID, &ri.Status, &ri.UserClaimStatus,
			&ri.CreatedAt, &ri.UpdatedAt,
			&ri.ReporterName, &ri.ReporterEmail, &ri.ReporterProfilePicture,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reported item row: %w", err)
		}
		ri.ReporterID = reporterID.String
		ri.ClaimantID = claimantID.String
		items = append(items, ri)
	}

	return items, rows.Err()
}

// ItemUpdate carries optional field updates; nil fields are left unchanged.
type ItemUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Brand       *string `json:"brand"`
	Color       *string `json:"color"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
	Type        *string `json:"type"`
	ImageURL    *string `json:"image_url"`
}

// UpdateItem applies a partial update and returns the updated item, or nil
// when the item does not exist.
func (r *ItemRepository) UpdateItem(id string, upd ItemUpdate) (*Item, error) {
	res, err := r.db.Exec(`
		UPDATE items
		SET name = COALESCE(?, name),
		    description = COALESCE(?, description),
		    category = COALESCE(?, category),
		    brand = COALESCE(?, brand),
		    color = COALESCE(?, color),
		    location = COALESCE(?, location),
		    status = COALESCE(?, status),
		    type = COALESCE(?, type),
		    image_url = COALESCE(?, image_url),
		    updated_at = ?
		WHERE id = ?
	`, upd.Name, upd.Description, upd.Category, upd.Brand, upd.Color,
		upd.Location, upd.Status, upd.Type, upd.ImageURL, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.GetItem(id)
}

// UpdateStatus sets the lifecycle status and returns the updated item, or
// nil when the item does not exist.
func (r *ItemRepository) UpdateStatus(id, status string) (*Item, error) {
	res, err := r.db.Exec(
		`UPDATE items SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update item status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.GetItem(id)
}

// SetUserClaimStatus syncs the claim workflow state onto the item.
func (r *ItemRepository) SetUserClaimStatus(id, claimStatus string) error {
	_, err := r.db.Exec(
		`UPDATE items SET user_claim_status = ?, updated_at = ? WHERE id = ?`,
		claimStatus, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set user claim status: %w", err)
	}
	return nil
}

// SetClaimant marks the item as pending claim by the given user and returns
// the updated item, or nil when the item does not exist.
func (r *ItemRepository) SetClaimant(id, claimantID string) (*Item, error) {
	res, err := r.db.Exec(`
		UPDATE items
		SET user_claim_status = ?, claimant_id = ?, updated_at = ?
		WHERE id = ?
	`, ClaimStatusPending, claimantID, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to set claimant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.GetItem(id)
}

// OldestCandidate returns the oldest item of the given type and category in
// security custody, excluding excludeID. Returns nil when no candidate exists.
func (r *ItemRepository) OldestCandidate(itemType, category, excludeID string) (*Item, error) {
	item, err := scanItem(r.db.QueryRow(`
		SELECT `+itemColumns+`
		FROM items
		WHERE type = ?
		  AND category = ?
		  AND status = ?
		  AND id != ?
		ORDER BY created_at ASC
		LIMIT 1
	`, itemType, category, StatusInCustody, excludeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate item: %w", err)
	}
	return item, nil
}

// SearchFilter narrows the custody search. StudentID takes precedence over
// Name; Query is the legacy single-box input.
type SearchFilter struct {
	StudentID string
	Name      string
	Query     string
}

// SearchInCustody returns found items in security custody matching the
// filter, newest first.
func (r *ItemRepository) SearchInCustody(filter SearchFilter) ([]Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM items
		WHERE type = ? AND status = ?`
	args := []interface{}{ItemTypeFound, StatusInCustody}

	switch {
	case filter.StudentID != "":
		query += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	case filter.Name != "":
		query += ` AND LOWER(name) = LOWER(?)`
		args = append(args, filter.Name)
	case filter.Query != "":
		if IsStudentIDPattern(filter.Query) {
			query += ` AND student_id = ?`
			args = append(args, filter.Query)
		} else {
			query += ` AND LOWER(name) LIKE LOWER(?)`
			args = append(args, "%"+filter.Query+"%")
		}
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// LostItemsByReporter returns all lost items owned by a reporter,
// oldest first.
func (r *ItemRepository) LostItemsByReporter(reporterID string) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		WHERE reporter_id = ? AND type = ?
		ORDER BY created_at ASC
	`, reporterID, ItemTypeLost)
	if err != nil {
		return nil, fmt.Errorf("failed to get reporter lost items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// LostItemsByName returns lost items whose name equals the given name,
// case-insensitively, oldest first.
func (r *ItemRepository) LostItemsByName(name string) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		WHERE type = ? AND LOWER(name) = LOWER(?)
		ORDER BY created_at ASC
	`, ItemTypeLost, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get lost items by name: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// LostItemsByStudentID returns lost items whose student id equals the key
// (trimmed, case-insensitive) or whose digits equal compact, oldest first.
func (r *ItemRepository) LostItemsByStudentID(key, compact string) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		WHERE type = ?
		  AND (TRIM(LOWER(student_id)) = ?
		       OR REPLACE(REPLACE(REPLACE(student_id, '-', ''), ' ', ''), '.', '') = ?)
		ORDER BY created_at ASC
	`, ItemTypeLost, strings.ToLower(strings.TrimSpace(key)), compact)
	if err != nil {
		return nil, fmt.Errorf("failed to get lost items by student id: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// CascadeResult reports what a DeleteCascade removed.
type CascadeResult struct {
	DeletedIDs []string
	ImageURLs  []string
	Cascaded   bool
}

// DeleteCascade removes an item together with its matches, the notifications
// referencing those matches or the item, and its claims, in one transaction.
// When the item status is "returned" the same per-item cascade also runs for
// every one-hop matched counterpart. Returns nil when the item does not
// exist.
func (r *ItemRepository) DeleteCascade(id string) (*CascadeResult, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := scanItem(tx.QueryRow(
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item for deletion: %w", err)
	}

	result := &CascadeResult{Cascaded: item.Status == StatusReturned}
	deleted := make(map[string]bool)

	counterparts, err := deleteSingleCascade(tx, item, result, deleted)
	if err != nil {
		return nil, err
	}

	if result.Cascaded {
		for _, counterpartID := range counterparts {
			if counterpartID == "" || deleted[counterpartID] {
				continue
			}
			counterpart, err := scanItem(tx.QueryRow(
				`SELECT `+itemColumns+` FROM items WHERE id = ?`, counterpartID))
			if err == sql.ErrNoRows {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to load counterpart item: %w", err)
			}
			if _, err := deleteSingleCascade(tx, counterpart, result, deleted); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cascade delete: %w", err)
	}

	return result, nil
}

// deleteSingleCascade removes one item and its directly attached rows,
// returning the ids of items matched to it.
func deleteSingleCascade(tx *sql.Tx, item *Item, result *CascadeResult, deleted map[string]bool) ([]string, error) {
	if deleted[item.ID] {
		return nil, nil
	}
	deleted[item.ID] = true
	result.DeletedIDs = append(result.DeletedIDs, item.ID)
	if item.ImageURL != "" {
		result.ImageURLs = append(result.ImageURLs, item.ImageURL)
	}

	rows, err := tx.Query(`
		SELECT id, lost_item_id, found_item_id
		FROM matches
		WHERE lost_item_id = ? OR found_item_id = ?
	`, item.ID, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for deletion: %w", err)
	}

	var matchIDs, counterparts []string
	for rows.Next() {
		var matchID, lostID, foundID string
		if err := rows.Scan(&matchID, &lostID, &foundID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matchIDs = append(matchIDs, matchID)
		if lostID == item.ID {
			counterparts = append(counterparts, foundID)
		} else {
			counterparts = append(counterparts, lostID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}

	for _, matchID := range matchIDs {
		if _, err := tx.Exec(`DELETE FROM notifications WHERE match_id = ?`, matchID); err != nil {
			return nil, fmt.Errorf("failed to delete match notifications: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM matches WHERE id = ?`, matchID); err != nil {
			return nil, fmt.Errorf("failed to delete match: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM notifications WHERE item_id = ?`, item.ID); err != nil {
		return nil, fmt.Errorf("failed to delete item notifications: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM claims WHERE item_id = ?`, item.ID); err != nil {
		return nil, fmt.Errorf("failed to delete item claims: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM items WHERE id = ?`, item.ID); err != nil {
		return nil, fmt.Errorf("failed to delete item: %w", err)
	}

	return counterparts, nil
}

func collectItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// IsStudentIDPattern reports whether the value looks like a student id
// (NNN-NNNNN).
func IsStudentIDPattern(value string) bool {
	parts := strings.Split(value, "-")
	if len(parts) != 2 || len(parts[0]) != 3 || len(parts[1]) != 5 {
		return false
	}
	for _, part := range parts {
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
