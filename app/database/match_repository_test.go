package database

import (
	"sort"
	"testing"
)

func TestFindExisting_OrderIndependent(t *testing.T) {
	db := NewTestDB(t)
	items := NewItemRepository(db)
	matches := NewMatchRepository(db)
	user := seedUser(t, db, "ana@carsu.edu.ph")

	lost := seedItem(t, items, Item{Name: "Keys", Type: ItemTypeLost, Category: "Keys", ReporterID: user.ID})
	found := seedItem(t, items, Item{Name: "Keys", Type: ItemTypeFound, Category: "Keys", ReporterID: user.ID})

	created, err := matches.Create(lost.ID, found.ID, 100.0)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	forward, err := matches.FindExisting(lost.ID, found.ID)
	if err != nil {
		t.Fatalf("FindExisting() error: %v", err)
	}
	reverse, err := matches.FindExisting(found.ID, lost.ID)
	if err != nil {
		t.Fatalf("FindExisting() reversed error: %v", err)
	}
	if forward == nil || reverse == nil {
		t.Fatal("expected the match in both argument orders")
	}
	if forward.ID != created.ID || reverse.ID != created.ID {
		t.Errorf("forward = %s, reverse = %s, want %s", forward.ID, reverse.ID, created.ID)
	}

	missing, err := matches.FindExisting(lost.ID, "unrelated")
	if err != nil {
		t.Fatalf("FindExisting() error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for an unmatched pair, got %+v", missing)
	}
}

func TestRelatedItemIDs(t *testing.T) {
	db := NewTestDB(t)
	items := NewItemRepository(db)
	matches := NewMatchRepository(db)
	notifications := NewNotificationRepository(db)
	user := seedUser(t, db, "ana@carsu.edu.ph")

	lost := seedItem(t, items, Item{Name: "Phone", Type: ItemTypeLost, Category: "Electronics", ReporterID: user.ID})
	found := seedItem(t, items, Item{Name: "Phone", Type: ItemTypeFound, Category: "Electronics", ReporterID: user.ID})
	unrelated := seedItem(t, items, Item{Name: "Cap", Type: ItemTypeFound, Category: "Accessories", ReporterID: user.ID})

	m, err := matches.Create(lost.ID, found.ID, 100.0)
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	n := &Notification{UserID: user.ID, ItemID: lost.ID, MatchID: m.ID, Category: "general", Type: NotificationMatchFound}
	if err := notifications.Create(n); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	ids, err := matches.RelatedItemIDs(found.ID)
	if err != nil {
		t.Fatalf("RelatedItemIDs() error: %v", err)
	}
	sort.Strings(ids)
	want := []string{lost.ID, found.ID}
	sort.Strings(want)
	if len(ids) != len(want) {
		t.Fatalf("related ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("related ids = %v, want %v", ids, want)
			break
		}
	}

	for _, id := range ids {
		if id == unrelated.ID {
			t.Error("unrelated item must not appear in the closure")
		}
	}

	// An item with no matches is only related to itself.
	ids, err = matches.RelatedItemIDs(unrelated.ID)
	if err != nil {
		t.Fatalf("RelatedItemIDs() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != unrelated.ID {
		t.Errorf("related ids = %v, want just the item", ids)
	}
}
