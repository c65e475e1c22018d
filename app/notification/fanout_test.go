package notification

import (
	"testing"

	"github.com/mvillarin/campus-lostfound/app/database"
)

type capturePublisher struct {
	events []string
}

func (p *capturePublisher) Publish(event string, payload interface{}) {
	p.events = append(p.events, event)
}

func setup(t *testing.T) (*database.DB, *Fanout, *capturePublisher) {
	t.Helper()
	db := database.NewTestDB(t)
	pub := &capturePublisher{}
	return db, NewFanout(database.NewNotificationRepository(db), pub), pub
}

func seedMatch(t *testing.T, db *database.DB) (string, string, string, string) {
	t.Helper()
	users := database.NewUserRepository(db)
	items := database.NewItemRepository(db)
	matches := database.NewMatchRepository(db)

	u := &database.User{FullName: "Ana", Email: "ana@carsu.edu.ph"}
	if err := users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	lost := &database.Item{Name: "Wallet", Type: database.ItemTypeLost, Category: "Wallets", ReporterID: u.ID}
	if err := items.CreateItem(lost); err != nil {
		t.Fatalf("create lost: %v", err)
	}
	found := &database.Item{Name: "Wallet", Type: database.ItemTypeFound, Category: "Wallets", ReporterID: u.ID}
	if err := items.CreateItem(found); err != nil {
		t.Fatalf("create found: %v", err)
	}
	m, err := matches.Create(lost.ID, found.ID, 100.0)
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	return u.ID, lost.ID, found.ID, m.ID
}

func TestNotify_CreatesOncePerMatchAndUser(t *testing.T) {
	db, fanout, pub := setup(t)
	userID, lostID, _, matchID := seedMatch(t, db)

	created, err := fanout.Notify(userID, lostID, matchID, "general", database.NotificationMatchFound)
	if err != nil {
		t.Fatalf("Notify() error: %v", err)
	}
	if !created {
		t.Error("expected first Notify() to create a row")
	}

	created, err = fanout.Notify(userID, lostID, matchID, "general", database.NotificationMatchFound)
	if err != nil {
		t.Fatalf("repeat Notify() error: %v", err)
	}
	if created {
		t.Error("expected repeat Notify() for the same match and user to be a no-op")
	}

	views, err := fanout.ListForUser(userID)
	if err != nil {
		t.Fatalf("ListForUser() error: %v", err)
	}
	stored := 0
	for _, v := range views {
		if v.ID != "" {
			stored++
		}
	}
	if stored != 1 {
		t.Errorf("expected 1 stored notification, got %d", stored)
	}
	if len(pub.events) != 1 {
		t.Errorf("expected 1 published event, got %d", len(pub.events))
	}
}

func TestNotify_RequiresRecipient(t *testing.T) {
	_, fanout, pub := setup(t)

	if _, err := fanout.Notify("", "item", "", "general", database.NotificationMatchFound); err == nil {
		t.Error("expected error for empty recipient")
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no published events, got %d", len(pub.events))
	}
}

func TestMarkRead_MissingNotification(t *testing.T) {
	_, fanout, _ := setup(t)

	n, err := fanout.MarkRead("does-not-exist")
	if err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	if n != nil {
		t.Errorf("expected nil for missing notification, got %+v", n)
	}
}
