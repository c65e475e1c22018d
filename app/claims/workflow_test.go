package claims

import (
	"errors"
	"testing"

	"github.com/mvillarin/campus-lostfound/app/database"
	"github.com/mvillarin/campus-lostfound/app/notification"
	"github.com/mvillarin/campus-lostfound/app/realtime"
)

type capturePublisher struct {
	events   []string
	payloads []interface{}
}

func (p *capturePublisher) Publish(event string, payload interface{}) {
	p.events = append(p.events, event)
	p.payloads = append(p.payloads, payload)
}

func (p *capturePublisher) payload(event string) interface{} {
	for i, e := range p.events {
		if e == event {
			return p.payloads[i]
		}
	}
	return nil
}

type fixture struct {
	db       *database.DB
	items    *database.ItemRepository
	matches  *database.MatchRepository
	workflow *Workflow
	pub      *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewTestDB(t)
	items := database.NewItemRepository(db)
	matches := database.NewMatchRepository(db)
	pub := &capturePublisher{}
	fanout := notification.NewFanout(database.NewNotificationRepository(db), pub)
	return &fixture{
		db:       db,
		items:    items,
		matches:  matches,
		workflow: NewWorkflow(database.NewClaimRepository(db), items, matches, database.NewUserRepository(db), fanout, pub),
		pub:      pub,
	}
}

func (f *fixture) user(t *testing.T, email string) *database.User {
	t.Helper()
	u := &database.User{FullName: "Test User", Email: email}
	if err := database.NewUserRepository(f.db).Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) item(t *testing.T, it database.Item) *database.Item {
	t.Helper()
	if err := f.items.CreateItem(&it); err != nil {
		t.Fatalf("create item: %v", err)
	}
	return &it
}

func (f *fixture) notify(t *testing.T, userID, itemID string) *database.Notification {
	t.Helper()
	n := &database.Notification{UserID: userID, ItemID: itemID, Category: "general", Type: database.NotificationMatchFound}
	if err := database.NewNotificationRepository(f.db).Create(n); err != nil {
		t.Fatalf("create notification: %v", err)
	}
	return n
}

func TestCreate_SetsItemPending(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@carsu.edu.ph")
	guard := f.user(t, "guard@carsu.edu.ph")
	found := f.item(t, database.Item{Name: "Wallet", Type: database.ItemTypeFound, Category: "Wallets", ReporterID: guard.ID})
	n := f.notify(t, owner.ID, found.ID)

	claim, err := f.workflow.Create(Request{UserID: owner.ID, ItemID: found.ID, NotificationID: n.ID, Message: "mine"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if claim.Status != database.ClaimPending {
		t.Errorf("status = %q, want %q", claim.Status, database.ClaimPending)
	}

	item, err := f.items.GetItem(found.ID)
	if err != nil {
		t.Fatalf("GetItem() error: %v", err)
	}
	if item.UserClaimStatus != database.ClaimStatusPending {
		t.Errorf("user_claim_status = %q, want %q", item.UserClaimStatus, database.ClaimStatusPending)
	}
	if len(f.pub.events) < 2 {
		t.Errorf("expected claim events to be published, got %v", f.pub.events)
	}

	// The security dashboard event carries the claim with claimant contact
	// and item context, not the bare row.
	detail, ok := f.pub.payload(realtime.EventNewClaimRequest).(*database.ClaimDetail)
	if !ok {
		t.Fatalf("expected a claim detail payload, got %T", f.pub.payload(realtime.EventNewClaimRequest))
	}
	if detail.ClaimID != claim.ID {
		t.Errorf("event claim_id = %q, want %q", detail.ClaimID, claim.ID)
	}
	if detail.ClaimantName != "Test User" {
		t.Errorf("event claimant_name = %q, want the claimant's name", detail.ClaimantName)
	}
}

func TestCreate_RequiresFields(t *testing.T) {
	f := newFixture(t)
	if _, err := f.workflow.Create(Request{}); err == nil {
		t.Error("expected error for missing fields")
	}
	// A claim without the notification that prompted it is rejected too.
	if _, err := f.workflow.Create(Request{UserID: "u", ItemID: "i"}); err == nil {
		t.Error("expected error for missing notification_id")
	}
}

func TestCreate_MissingItem(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@carsu.edu.ph")
	if _, err := f.workflow.Create(Request{UserID: owner.ID, ItemID: "nope", NotificationID: "n"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate_ClaimantNotifiedOnlyWhenRequested(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@carsu.edu.ph")
	other := f.user(t, "other@carsu.edu.ph")
	guard := f.user(t, "guard@carsu.edu.ph")
	notifications := database.NewNotificationRepository(f.db)

	first := f.item(t, database.Item{Name: "Wallet", Type: database.ItemTypeFound, Category: "Wallets", ReporterID: guard.ID})
	n1 := f.notify(t, owner.ID, first.ID)
	if _, err := f.workflow.Create(Request{UserID: owner.ID, ItemID: first.ID, NotificationID: n1.ID}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	views, err := notifications.ListForUser(owner.ID)
	if err != nil {
		t.Fatalf("ListForUser() error: %v", err)
	}
	for _, v := range views {
		if v.Type == database.NotificationClaimSubmitted {
			t.Error("plain claim creation must not notify the claimant")
		}
	}

	second := f.item(t, database.Item{Name: "Cap", Type: database.ItemTypeFound, Category: "Accessories", ReporterID: guard.ID})
	n2 := f.notify(t, other.ID, second.ID)
	if _, err := f.workflow.Create(Request{UserID: other.ID, ItemID: second.ID, NotificationID: n2.ID, NotifyClaimant: true}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	views, err = notifications.ListForUser(other.ID)
	if err != nil {
		t.Fatalf("ListForUser() error: %v", err)
	}
	submitted := 0
	for _, v := range views {
		if v.Type == database.NotificationClaimSubmitted {
			submitted++
		}
	}
	if submitted != 1 {
		t.Errorf("expected 1 claim_submitted notification on the item route, got %d", submitted)
	}
}

func TestCreate_DuplicateOverMatchClosure(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@carsu.edu.ph")
	guard := f.user(t, "guard@carsu.edu.ph")

	lost := f.item(t, database.Item{Name: "Phone", Type: database.ItemTypeLost, Category: "Electronics", ReporterID: owner.ID})
	found := f.item(t, database.Item{Name: "Phone", Type: database.ItemTypeFound, Category: "Electronics", ReporterID: guard.ID})
	if _, err := f.matches.Create(lost.ID, found.ID, 100.0); err != nil {
		t.Fatalf("create match: %v", err)
	}

	n := f.notify(t, owner.ID, lost.ID)
	first, err := f.workflow.Create(Request{UserID: owner.ID, ItemID: lost.ID, NotificationID: n.ID})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	// The counterpart is reachable through the match, so claiming it is the
	// same claim.
	dup, err := f.workflow.Create(Request{UserID: owner.ID, ItemID: found.ID, NotificationID: n.ID})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if dup == nil || dup.ID != first.ID {
		t.Errorf("expected the existing claim back, got %+v", dup)
	}

	// A different user can still claim.
	other := f.user(t, "other@carsu.edu.ph")
	on := f.notify(t, other.ID, found.ID)
	if _, err := f.workflow.Create(Request{UserID: other.ID, ItemID: found.ID, NotificationID: on.ID}); err != nil {
		t.Errorf("Create() for another user error: %v", err)
	}
}

func TestDecide_ApproveSyncsItem(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@carsu.edu.ph")
	guard := f.user(t, "guard@carsu.edu.ph")
	found := f.item(t, database.Item{Name: "Bag", Type: database.ItemTypeFound, Category: "Bags", ReporterID: guard.ID})
	n := f.notify(t, owner.ID, found.ID)

	claim, err := f.workflow.Create(Request{UserID: owner.ID, ItemID: found.ID, NotificationID: n.ID})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	decided, err := f.workflow.Decide(claim.ID, true)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if decided.Status != database.ClaimApproved {
		t.Errorf("status = %q, want %q", decided.Status, database.ClaimApproved)
	}

	item, err := f.items.GetItem(found.ID)
	if err != nil {
		t.Fatalf("GetItem() error: %v", err)
	}
	if item.UserClaimStatus != database.ClaimStatusConfirmed {
		t.Errorf("user_claim_status = %q, want %q", item.UserClaimStatus, database.ClaimStatusConfirmed)
	}
}

func TestDecide_RejectAfterApproveConflicts(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@carsu.edu.ph")
	guard := f.user(t, "guard@carsu.edu.ph")
	found := f.item(t, database.Item{Name: "Cap", Type: database.ItemTypeFound, Category: "Accessories", ReporterID: guard.ID})
	n := f.notify(t, owner.ID, found.ID)

	claim, err := f.workflow.Create(Request{UserID: owner.ID, ItemID: found.ID, NotificationID: n.ID})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := f.workflow.Decide(claim.ID, true); err != nil {
		t.Fatalf("approve error: %v", err)
	}

	if _, err := f.workflow.Decide(claim.ID, false); !errors.Is(err, ErrDecided) {
		t.Errorf("expected ErrDecided, got %v", err)
	}
}

func TestDecide_MissingClaim(t *testing.T) {
	f := newFixture(t)
	if _, err := f.workflow.Decide("nope", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClaimFromNotification(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@carsu.edu.ph")
	guard := f.user(t, "guard@carsu.edu.ph")
	found := f.item(t, database.Item{Name: "Watch", Type: database.ItemTypeFound, Category: "Accessories", ReporterID: guard.ID})

	notifications := database.NewNotificationRepository(f.db)
	n := &database.Notification{UserID: owner.ID, ItemID: found.ID, Category: "general", Type: database.NotificationMatchFound}
	if err := notifications.Create(n); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	item, err := f.workflow.ClaimFromNotification(n.ID, owner.ID)
	if err != nil {
		t.Fatalf("ClaimFromNotification() error: %v", err)
	}
	if item.ClaimantID != owner.ID {
		t.Errorf("claimant_id = %q, want %q", item.ClaimantID, owner.ID)
	}
	if item.UserClaimStatus != database.ClaimStatusPending {
		t.Errorf("user_claim_status = %q, want %q", item.UserClaimStatus, database.ClaimStatusPending)
	}
}

func TestClaimFromNotification_Missing(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@carsu.edu.ph")
	if _, err := f.workflow.ClaimFromNotification("nope", owner.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
