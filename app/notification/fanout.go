package notification

import (
	"fmt"
	"log/slog"

	"github.com/mvillarin/campus-lostfound/app/database"
	"github.com/mvillarin/campus-lostfound/app/realtime"
)

// Fanout creates per-user notification records and publishes the matching
// real-time event. The publisher is injected at construction; there is no
// process-global channel registry.
type Fanout struct {
	notifications *database.NotificationRepository
	publisher     realtime.Publisher
}

func NewFanout(notifications *database.NotificationRepository, publisher realtime.Publisher) *Fanout {
	return &Fanout{notifications: notifications, publisher: publisher}
}

// Event is the payload broadcast for a new notification.
type Event struct {
	UserID   string `json:"user_id"`
	ItemID   string `json:"item_id"`
	MatchID  string `json:"match_id,omitempty"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

// Notify inserts a notification for the user, at most once per
// (match, user) pair. An already-notified pair is reported as success with
// created=false. The real-time event is published only after the insert is
// durable, and only for freshly created rows.
func (f *Fanout) Notify(userID, itemID, matchID, category, typ string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("notification requires a recipient")
	}

	if matchID != "" {
		exists, err := f.notifications.HasForMatch(matchID, userID)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}

	n := &database.Notification{
		UserID:   userID,
		ItemID:   itemID,
		MatchID:  matchID,
		Category: category,
		Type:     typ,
	}
	if err := f.notifications.Create(n); err != nil {
		return false, err
	}

	f.publisher.Publish(realtime.EventNewNotification, Event{
		UserID:   userID,
		ItemID:   itemID,
		MatchID:  matchID,
		Category: category,
		Type:     typ,
	})

	slog.Debug("Notification created", "user", userID, "item", itemID, "match", matchID, "type", typ)

	return true, nil
}

// Get returns a stored notification, or nil when it does not exist.
func (f *Fanout) Get(id string) (*database.Notification, error) {
	return f.notifications.Get(id)
}

// MarkRead flags a stored notification as read. Returns nil when the
// notification does not exist.
func (f *Fanout) MarkRead(id string) (*database.Notification, error) {
	return f.notifications.MarkRead(id)
}

// ListForUser returns the merged stored + synthesized notification view.
func (f *Fanout) ListForUser(userID string) ([]database.NotificationView, error) {
	return f.notifications.ListForUser(userID)
}
