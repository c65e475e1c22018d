package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClaimRepository handles database operations for pickup claims
type ClaimRepository struct {
	db *DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func scanClaim(row interface{ Scan(...interface{}) error }) (*Claim, error) {
	var c Claim
	var notificationID sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.ItemID, &notificationID,
		&c.ClaimantMessage, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.NotificationID = notificationID.String
	return &c, nil
}

const claimColumns = `id, user_id, item_id, notification_id, claimant_message, status, created_at, updated_at`

// Create inserts a pending claim, filling in the ID and timestamps.
func (r *ClaimRepository) Create(c *Claim) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = ClaimPending
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO claims (id, user_id, item_id, notification_id, claimant_message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.ItemID, nullable(c.NotificationID),
		c.ClaimantMessage, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}

	return nil
}

// Get returns a claim by ID, or nil when it does not exist.
func (r *ClaimRepository) Get(id string) (*Claim, error) {
	claim, err := scanClaim(r.db.QueryRow(
		`SELECT `+claimColumns+` FROM claims WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

// FindByUserAndItems returns the newest claim by the user against any of the
// given item ids, or nil when none exists.
func (r *ClaimRepository) FindByUserAndItems(userID string, itemIDs []string) (*Claim, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(itemIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(itemIDs)+1)
	args = append(args, userID)
	for _, id := range itemIDs {
		args = append(args, id)
	}

	claim, err := scanClaim(r.db.QueryRow(`
		SELECT `+claimColumns+`
		FROM claims
		WHERE user_id = ? AND item_id IN (`+placeholders+`)
		ORDER BY created_at DESC
		LIMIT 1
	`, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find claim: %w", err)
	}
	return claim, nil
}

// SetStatus transitions a claim out of pending. Returns the updated claim,
// nil when the claim does not exist, and ErrTerminalClaim when the claim has
// already been decided.
func (r *ClaimRepository) SetStatus(id, status string) (*Claim, error) {
	res, err := r.db.Exec(`
		UPDATE claims SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, status, time.Now().UTC(), id, ClaimPending)
	if err != nil {
		return nil, fmt.Errorf("failed to update claim status: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		existing, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, nil
		}
		return nil, ErrTerminalClaim
	}

	return r.Get(id)
}

// ErrTerminalClaim is returned when approving or rejecting a claim that has
// already reached a terminal state.
var ErrTerminalClaim = fmt.Errorf("claim already decided")

// ListByUser returns all claims by a user, newest first.
func (r *ClaimRepository) ListByUser(userID string) ([]Claim, error) {
	rows, err := r.db.Query(`
		SELECT `+claimColumns+`
		FROM claims
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user claims: %w", err)
	}
	defer rows.Close()

	return collectClaims(rows)
}

// PendingCount returns the number of pending claims.
func (r *ClaimRepository) PendingCount() (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM claims WHERE status = ?`, ClaimPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending claims: %w", err)
	}
	return count, nil
}

// ClaimDetail is a claim joined with claimant contact, item summary and
// match context, shaped for the security dashboard.
type ClaimDetail struct {
	ClaimID         string    `json:"claim_id"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	ClaimantMessage string    `json:"claimant_message"`

	ClaimantName       string `json:"claimant_name"`
	ClaimantEmail      string `json:"claimant_email"`
	ClaimantContact    string `json:"claimant_contact,omitempty"`
	ClaimantDepartment string `json:"claimant_department,omitempty"`

	ItemID       string `json:"item_id"`
	ItemType     string `json:"item_type"`
	ItemCategory string `json:"item_category"`
	ItemImage    string `json:"item_image"`

	NotificationID        string `json:"notification_id,omitempty"`
	NotificationItemID    string `json:"notification_item_id,omitempty"`
	MatchedItemID         string `json:"notification_matched_item_id,omitempty"`
	MatchLostItemID       string `json:"lost_item_id,omitempty"`
	MatchFoundItemID      string `json:"found_item_id,omitempty"`
}

const claimDetailQuery = `
	SELECT
		c.id, c.status, c.created_at, c.claimant_message,
		COALESCE(u.full_name, ''), COALESCE(u.email, ''),
		COALESCE(u.contact_number, ''), COALESCE(u.department, ''),
		i.id, i.type, i.category, i.image_url,
		COALESCE(n.id, ''), COALESCE(n.item_id, ''),
		COALESCE(CASE
			WHEN m.lost_item_id = c.item_id THEN m.found_item_id
			WHEN m.found_item_id = c.item_id THEN m.lost_item_id
		END, ''),
		COALESCE(m.lost_item_id, ''), COALESCE(m.found_item_id, '')
	FROM claims c
	JOIN users u ON c.user_id = u.id
	JOIN items i ON c.item_id = i.id
	LEFT JOIN notifications n ON c.notification_id = n.id
	LEFT JOIN matches m ON m.id = (
		SELECT id FROM matches
		WHERE c.item_id IN (lost_item_id, found_item_id)
		LIMIT 1
	)`

func scanClaimDetail(row interface{ Scan(...interface{}) error }) (*ClaimDetail, error) {
	var d ClaimDetail
	err := row.Scan(
		&d.ClaimID, &d.Status, &d.CreatedAt, &d.ClaimantMessage,
		&d.ClaimantName, &d.ClaimantEmail,
		&d.ClaimantContact, &d.ClaimantDepartment,
		&d.ItemID, &d.ItemType, &d.ItemCategory, &d.ItemImage,
		&d.NotificationID, &d.NotificationItemID,
		&d.MatchedItemID, &d.MatchLostItemID, &d.MatchFoundItemID,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDetail returns the dashboard view of a single claim, or nil when the
// claim does not exist.
func (r *ClaimRepository) GetDetail(claimID string) (*ClaimDetail, error) {
	detail, err := scanClaimDetail(r.db.QueryRow(
		claimDetailQuery+` WHERE c.id = ? LIMIT 1`, claimID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim detail: %w", err)
	}
	return detail, nil
}

// ListDetails returns the dashboard view of every claim, newest first.
func (r *ClaimRepository) ListDetails() ([]ClaimDetail, error) {
	rows, err := r.db.Query(claimDetailQuery + ` ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list claim details: %w", err)
	}
	defer rows.Close()

	return collectClaimDetails(rows)
}

// ListDetailsForItems returns the dashboard view of claims against any of
// the given item ids, newest first.
func (r *ClaimRepository) ListDetailsForItems(itemIDs []string) ([]ClaimDetail, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(itemIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(itemIDs))
	for _, id := range itemIDs {
		args = append(args, id)
	}

	rows, err := r.db.Query(
		claimDetailQuery+` WHERE c.item_id IN (`+placeholders+`) ORDER BY c.created_at DESC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list item claim details: %w", err)
	}
	defer rows.Close()

	return collectClaimDetails(rows)
}

func collectClaims(rows *sql.Rows) ([]Claim, error) {
	var claims []Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim row: %w", err)
		}
		claims = append(claims, *claim)
	}
	return claims, rows.Err()
}

func collectClaimDetails(rows *sql.Rows) ([]ClaimDetail, error) {
	var details []ClaimDetail
	for rows.Next() {
		detail, err := scanClaimDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim detail row: %w", err)
		}
		details = append(details, *detail)
	}
	return details, rows.Err()
}
