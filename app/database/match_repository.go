package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MatchRepository handles database operations for lost/found pairings
type MatchRepository struct {
	db *DB
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// FindExisting returns the match between two items regardless of which side
// is lost and which is found, or nil when no match exists.
func (r *MatchRepository) FindExisting(itemA, itemB string) (*Match, error) {
	var match Match
	err := r.db.QueryRow(`
		SELECT id, lost_item_id, found_item_id, confidence, created_at
		FROM matches
		WHERE (lost_item_id = ? AND found_item_id = ?)
		   OR (lost_item_id = ? AND found_item_id = ?)
		LIMIT 1
	`, itemA, itemB, itemB, itemA).Scan(
		&match.ID, &match.LostItemID, &match.FoundItemID,
		&match.Confidence, &match.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find existing match: %w", err)
	}
	return &match, nil
}

// Create inserts a new match row. Callers are expected to have checked
// FindExisting first; a lost duplicate race is tolerated and caught on the
// next lookup.
func (r *MatchRepository) Create(lostItemID, foundItemID string, confidence float64) (*Match, error) {
	match := &Match{
		ID:          uuid.NewString(),
		LostItemID:  lostItemID,
		FoundItemID: foundItemID,
		Confidence:  confidence,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := r.db.Exec(`
		INSERT INTO matches (id, lost_item_id, found_item_id, confidence, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, match.ID, match.LostItemID, match.FoundItemID, match.Confidence, match.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	return match, nil
}

// ListForItem returns all matches touching the given item.
func (r *MatchRepository) ListForItem(itemID string) ([]Match, error) {
	rows, err := r.db.Query(`
		SELECT id, lost_item_id, found_item_id, confidence, created_at
		FROM matches
		WHERE lost_item_id = ? OR found_item_id = ?
		ORDER BY created_at ASC
	`, itemID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var match Match
		if err := rows.Scan(&match.ID, &match.LostItemID, &match.FoundItemID,
			&match.Confidence, &match.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, rows.Err()
}

// RelatedItemIDs returns the one-hop match-equivalence set of an item: the
// item itself, every item paired with it in a match, and every item
// referenced by a notification tied to those pairings. A claim against any
// id in this set counts as a claim for the same physical hand-off.
func (r *MatchRepository) RelatedItemIDs(itemID string) ([]string, error) {
	ids := []string{itemID}
	seen := map[string]bool{itemID: true}

	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	rows, err := r.db.Query(`
		SELECT lost_item_id, found_item_id
		FROM matches
		WHERE lost_item_id = ? OR found_item_id = ?
	`, itemID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load related matches: %w", err)
	}
	for rows.Next() {
		var lostID, foundID string
		if err := rows.Scan(&lostID, &foundID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		add(lostID)
		add(foundID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}

	rows, err = r.db.Query(`
		SELECT n.item_id, COALESCE(m.lost_item_id, ''), COALESCE(m.found_item_id, '')
		FROM notifications n
		LEFT JOIN matches m ON n.match_id = m.id
		WHERE n.item_id = ? OR m.lost_item_id = ? OR m.found_item_id = ?
	`, itemID, itemID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load related notifications: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var notifItemID sql.NullString
		var lostID, foundID string
		if err := rows.Scan(&notifItemID, &lostID, &foundID); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		add(notifItemID.String)
		add(lostID)
		add(foundID)
	}

	return ids, rows.Err()
}
