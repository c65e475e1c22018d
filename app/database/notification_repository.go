package database

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// HasForMatch reports whether a notification already exists for the given
// (match, user) pair.
func (r *NotificationRepository) HasForMatch(matchID, userID string) (bool, error) {
	var one int
	err := r.db.QueryRow(`
		SELECT 1 FROM notifications
		WHERE match_id = ? AND user_id = ?
		LIMIT 1
	`, matchID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existing notification: %w", err)
	}
	return true, nil
}

// Create inserts a notification row, filling in the ID and timestamp.
func (r *NotificationRepository) Create(n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO notifications (id, user_id, item_id, match_id, category, type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, nullable(n.ItemID), nullable(n.MatchID),
		n.Category, n.Type, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// Get returns a notification by ID, or nil when it does not exist.
func (r *NotificationRepository) Get(id string) (*Notification, error) {
	var n Notification
	var itemID, matchID sql.NullString
	err := r.db.QueryRow(`
		SELECT id, user_id, item_id, match_id, category, type, is_read, created_at
		FROM notifications WHERE id = ?
	`, id).Scan(&n.ID, &n.UserID, &itemID, &matchID, &n.Category, &n.Type, &n.IsRead, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	n.ItemID = itemID.String
	n.MatchID = matchID.String
	return &n, nil
}

// MarkRead flags a notification as read and returns it, or nil when it does
// not exist.
func (r *NotificationRepository) MarkRead(id string) (*Notification, error) {
	res, err := r.db.Exec(`UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.Get(id)
}

// NotificationView is a stored or synthesized notification enriched with the
// user's item and the matched counterpart, shaped for the dashboard.
type NotificationView struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	MatchID   string    `json:"match_id,omitempty"`
	Category  string    `json:"category"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`

	ItemName      string `json:"item_name"`
	Brand         string `json:"brand"`
	Color         string `json:"color"`
	ItemLocation  string `json:"item_location"`
	ItemType      string `json:"item_type"`
	ItemImageURL  string `json:"item_image_url"`
	ItemStudentID string `json:"item_student_id"`

	MatchedItemID          string `json:"matched_item_id,omitempty"`
	MatchedItemName        string `json:"matched_item_name"`
	MatchedType            string `json:"matched_type"`
	MatchedImageURL        string `json:"matched_image_url"`
	MatchedStatus          string `json:"matched_status"`
	MatchedStudentID       string `json:"matched_student_id"`
	MatchedLocation        string `json:"matched_location"`
	MatchedDescription     string `json:"matched_description"`
	BaseUserClaimStatus    string `json:"base_user_claim_status"`
	MatchedUserClaimStatus string `json:"matched_user_claim_status"`
}

// ListForUser returns the user's stored notifications merged with
// synthesized rows for matches that touch the user's items but have no
// stored notification yet. Synthesized rows are read-only: empty ID, unread,
// timestamped by match creation, and are never persisted here.
func (r *NotificationRepository) ListForUser(userID string) ([]NotificationView, error) {
	stored, err := r.listStored(userID)
	if err != nil {
		return nil, err
	}

	virtual, err := r.listVirtual(userID)
	if err != nil {
		return nil, err
	}

	views := append(stored, virtual...)
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})

	return views, nil
}

func (r *NotificationRepository) listStored(userID string) ([]NotificationView, error) {
	rows, err := r.db.Query(`
		SELECT
			n.id, n.user_id, COALESCE(n.item_id, ''), COALESCE(n.match_id, ''),
			n.category, n.type, n.is_read, n.created_at,
			COALESCE(i.name, ''), COALESCE(i.brand, ''), COALESCE(i.color, ''),
			COALESCE(i.location, ''), COALESCE(i.type, ''), COALESCE(i.image_url, ''),
			COALESCE(i.student_id, ''), COALESCE(i.user_claim_status, ''),
			COALESCE(matched_i.id, ''), COALESCE(matched_i.name, ''),
			COALESCE(matched_i.type, ''), COALESCE(matched_i.image_url, ''),
			COALESCE(matched_i.status, ''), COALESCE(matched_i.student_id, ''),
			COALESCE(matched_i.location, ''), COALESCE(matched_i.description, ''),
			COALESCE(matched_i.user_claim_status, '')
		FROM notifications n
		LEFT JOIN items i ON n.item_id = i.id
		LEFT JOIN matches m ON n.match_id = m.id
		LEFT JOIN items matched_i ON (
			CASE WHEN i.type = 'lost' THEN m.found_item_id ELSE m.lost_item_id END = matched_i.id
		)
		WHERE n.user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored notifications: %w", err)
	}
	defer rows.Close()

	var views []NotificationView
	for rows.Next() {
		var v NotificationView
		err := rows.Scan(
			&v.ID, &v.UserID, &v.ItemID, &v.MatchID,
			&v.Category, &v.Type, &v.IsRead, &v.CreatedAt,
			&v.ItemName, &v.Brand, &v.Color,
			&v.ItemLocation, &v.ItemType, &v.ItemImageURL,
			&v.ItemStudentID, &v.BaseUserClaimStatus,
			&v.MatchedItemID, &v.MatchedItemName,
			&v.MatchedType, &v.MatchedImageURL,
			&v.MatchedStatus, &v.MatchedStudentID,
			&v.MatchedLocation, &v.MatchedDescription,
			&v.MatchedUserClaimStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

func (r *NotificationRepository) listVirtual(userID string) ([]NotificationView, error) {
	rows, err := r.db.Query(`
		SELECT
			ui.id, m.id, m.created_at,
			ui.name, ui.brand, ui.color, ui.location, ui.type,
			ui.image_url, ui.student_id, ui.user_claim_status,
			matched_i.id, matched_i.name, matched_i.type, matched_i.image_url,
			matched_i.status, matched_i.student_id, matched_i.location,
			matched_i.description, matched_i.user_claim_status
		FROM matches m
		JOIN items ui ON (ui.id = m.lost_item_id OR ui.id = m.found_item_id)
			AND ui.reporter_id = ?
		JOIN items matched_i ON (
			CASE WHEN ui.id = m.lost_item_id THEN m.found_item_id ELSE m.lost_item_id END = matched_i.id
		)
		WHERE m.id NOT IN (
			SELECT match_id FROM notifications WHERE user_id = ? AND match_id IS NOT NULL
		)
		AND (matched_i.name != '' OR matched_i.student_id != '' OR matched_i.image_url != '')
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list virtual notifications: %w", err)
	}
	defer rows.Close()

	var views []NotificationView
	for rows.Next() {
		v := NotificationView{
			UserID: userID,
			Type:   NotificationMatchGenerated,
		}
		err := rows.Scan(
			&v.ItemID, &v.MatchID, &v.CreatedAt,
			&v.ItemName, &v.Brand, &v.Color, &v.ItemLocation, &v.ItemType,
			&v.ItemImageURL, &v.ItemStudentID, &v.BaseUserClaimStatus,
			&v.MatchedItemID, &v.MatchedItemName, &v.MatchedType, &v.MatchedImageURL,
			&v.MatchedStatus, &v.MatchedStudentID, &v.MatchedLocation,
			&v.MatchedDescription, &v.MatchedUserClaimStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan virtual notification row: %w", err)
		}
		if v.MatchedStudentID != "" {
			v.Category = "id"
		} else {
			v.Category = "general"
		}
		views = append(views, v)
	}

	return views, rows.Err()
}
