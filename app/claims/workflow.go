package claims

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mvillarin/campus-lostfound/app/database"
	"github.com/mvillarin/campus-lostfound/app/notification"
	"github.com/mvillarin/campus-lostfound/app/realtime"
)

// ErrDuplicate is returned when the user already has a claim on the item or
// anything linked to it through matches.
var ErrDuplicate = errors.New("claim already exists for this item")

// ErrNotFound is returned when the claimed item or notification is missing.
var ErrNotFound = errors.New("not found")

// ErrDecided is returned when approving or rejecting a claim that is no
// longer pending.
var ErrDecided = database.ErrTerminalClaim

// Workflow coordinates the claim lifecycle: submission with duplicate
// detection over the match closure, security review, and the claim status
// mirrored onto the item. Real-time events are best effort.
type Workflow struct {
	claims    *database.ClaimRepository
	items     *database.ItemRepository
	matches   *database.MatchRepository
	users     *database.UserRepository
	fanout    *notification.Fanout
	publisher realtime.Publisher
}

func NewWorkflow(claims *database.ClaimRepository, items *database.ItemRepository, matches *database.MatchRepository, users *database.UserRepository, fanout *notification.Fanout, publisher realtime.Publisher) *Workflow {
	return &Workflow{claims: claims, items: items, matches: matches, users: users, fanout: fanout, publisher: publisher}
}

// Request is a claim submission. NotifyClaimant makes the submission also
// insert a claim_submitted notification for the claimant; only the
// item-scoped route does that.
type Request struct {
	UserID         string
	ItemID         string
	NotificationID string
	Message        string
	NotifyClaimant bool
}

// Create submits a claim. The duplicate check spans every item reachable
// from the claimed one through matches and their notifications, so claiming
// a lost report and then its matched found item counts as one claim. When
// a duplicate exists it is returned alongside ErrDuplicate; callers decide
// whether that is a conflict or an idempotent success.
func (w *Workflow) Create(req Request) (*database.Claim, error) {
	if req.UserID == "" || req.ItemID == "" || req.NotificationID == "" {
		return nil, fmt.Errorf("user_id, item_id and notification_id are required")
	}

	item, err := w.items.GetItem(req.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	related, err := w.matches.RelatedItemIDs(req.ItemID)
	if err != nil {
		return nil, err
	}
	existing, err := w.claims.FindByUserAndItems(req.UserID, related)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, ErrDuplicate
	}

	claim := &database.Claim{
		UserID:          req.UserID,
		ItemID:          req.ItemID,
		NotificationID:  req.NotificationID,
		ClaimantMessage: req.Message,
	}
	if err := w.claims.Create(claim); err != nil {
		return nil, err
	}

	if err := w.items.SetUserClaimStatus(req.ItemID, database.ClaimStatusPending); err != nil {
		slog.Error("Failed to flag item as pending claim", "item", req.ItemID, "error", err)
	}

	if req.NotifyClaimant {
		w.notifySubmitted(claim, item)
	}

	// The security dashboard wants the claim with claimant contact and match
	// context attached; fall back to the bare claim when the join fails.
	var event interface{} = claim
	if detail, err := w.claims.GetDetail(claim.ID); err != nil {
		slog.Error("Claim detail lookup failed", "claim", claim.ID, "error", err)
	} else if detail != nil {
		event = detail
	}
	w.publisher.Publish(realtime.EventNewClaimRequest, event)
	w.publisher.Publish(realtime.EventItemMatched, map[string]string{
		"item_id":           item.ID,
		"user_claim_status": database.ClaimStatusPending,
	})

	slog.Info("Claim submitted", "claim", claim.ID, "item", req.ItemID, "user", req.UserID)

	return claim, nil
}

// notifySubmitted tells the claimant their claim was received. Failures are
// logged and absorbed; the claim itself already stands.
func (w *Workflow) notifySubmitted(claim *database.Claim, item *database.Item) {
	if _, err := w.fanout.Notify(claim.UserID, item.ID, "", "general", database.NotificationClaimSubmitted); err != nil {
		slog.Error("Claim submission notification failed", "claim", claim.ID, "error", err)
	}
}

// Decide approves or rejects a pending claim and mirrors the decision onto
// the item. Returns ErrNotFound for unknown claims and ErrDecided when the
// claim already left the pending state.
func (w *Workflow) Decide(claimID string, approve bool) (*database.Claim, error) {
	status := database.ClaimRejected
	itemStatus := database.ClaimStatusRejected
	if approve {
		status = database.ClaimApproved
		itemStatus = database.ClaimStatusConfirmed
	}

	claim, err := w.claims.SetStatus(claimID, status)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrNotFound
	}

	if err := w.items.SetUserClaimStatus(claim.ItemID, itemStatus); err != nil {
		slog.Error("Failed to sync item claim status", "item", claim.ItemID, "error", err)
	}

	w.publisher.Publish(realtime.EventClaimStatusUpdated, map[string]string{
		"claim_id":          claim.ID,
		"item_id":           claim.ItemID,
		"status":            claim.Status,
		"user_claim_status": itemStatus,
	})

	slog.Info("Claim decided", "claim", claim.ID, "status", claim.Status)

	return claim, nil
}

// ClaimFromNotification marks the matched item from a notification as
// claimed by the notification's recipient: the item is flagged pending and
// the claimant is recorded on it, so the security desk sees who is coming
// for the item.
func (w *Workflow) ClaimFromNotification(notificationID, claimantID string) (*database.Item, error) {
	n, err := w.fanoutNotification(notificationID)
	if err != nil {
		return nil, err
	}
	if n.ItemID == "" {
		return nil, fmt.Errorf("notification has no item")
	}

	item, err := w.items.SetClaimant(n.ItemID, claimantID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	payload := map[string]interface{}{
		"item_id":           item.ID,
		"claimant_id":       claimantID,
		"user_claim_status": item.UserClaimStatus,
	}
	if claimant, err := w.users.Get(claimantID); err != nil {
		slog.Error("Claimant lookup failed", "user", claimantID, "error", err)
	} else if claimant != nil {
		payload["claimant_name"] = claimant.FullName
		payload["claimant_email"] = claimant.Email
		payload["claimant_contact_number"] = claimant.ContactNumber
	}
	w.publisher.Publish(realtime.EventClaimStatusUpdated, payload)

	return item, nil
}

func (w *Workflow) fanoutNotification(id string) (*database.Notification, error) {
	n, err := w.fanout.Get(id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotFound
	}
	return n, nil
}

// ListForItem returns claims on the item and everything matched to it,
// enriched with claimant contact details and match context.
func (w *Workflow) ListForItem(itemID string) ([]database.ClaimDetail, error) {
	related, err := w.matches.RelatedItemIDs(itemID)
	if err != nil {
		return nil, err
	}
	return w.claims.ListDetailsForItems(related)
}

// ListForUser returns the user's own claims.
func (w *Workflow) ListForUser(userID string) ([]database.Claim, error) {
	return w.claims.ListByUser(userID)
}

// ListAll returns every claim with full context, for the security dashboard.
func (w *Workflow) ListAll() ([]database.ClaimDetail, error) {
	return w.claims.ListDetails()
}

// PendingCount returns the number of undecided claims.
func (w *Workflow) PendingCount() (int, error) {
	return w.claims.PendingCount()
}
