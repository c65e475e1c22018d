package database

import (
	"errors"
	"testing"
)

func TestClaimSetStatus_OnlyFromPending(t *testing.T) {
	db := NewTestDB(t)
	items := NewItemRepository(db)
	claims := NewClaimRepository(db)
	user := seedUser(t, db, "ana@carsu.edu.ph")
	item := seedItem(t, items, Item{Name: "Wallet", Type: ItemTypeFound, Category: "Wallets", ReporterID: user.ID})

	claim := &Claim{UserID: user.ID, ItemID: item.ID}
	if err := claims.Create(claim); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if claim.Status != ClaimPending {
		t.Errorf("status = %q, want %q", claim.Status, ClaimPending)
	}

	approved, err := claims.SetStatus(claim.ID, ClaimApproved)
	if err != nil {
		t.Fatalf("SetStatus() error: %v", err)
	}
	if approved.Status != ClaimApproved {
		t.Errorf("status = %q, want %q", approved.Status, ClaimApproved)
	}

	if _, err := claims.SetStatus(claim.ID, ClaimRejected); !errors.Is(err, ErrTerminalClaim) {
		t.Errorf("expected ErrTerminalClaim, got %v", err)
	}

	got, err := claims.Get(claim.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Status != ClaimApproved {
		t.Errorf("status after failed rejection = %q, want %q", got.Status, ClaimApproved)
	}
}

func TestClaimSetStatus_Missing(t *testing.T) {
	db := NewTestDB(t)
	claims := NewClaimRepository(db)

	claim, err := claims.SetStatus("nope", ClaimApproved)
	if err != nil {
		t.Fatalf("SetStatus() error: %v", err)
	}
	if claim != nil {
		t.Errorf("expected nil for a missing claim, got %+v", claim)
	}
}

func TestFindByUserAndItems(t *testing.T) {
	db := NewTestDB(t)
	items := NewItemRepository(db)
	claims := NewClaimRepository(db)
	user := seedUser(t, db, "ana@carsu.edu.ph")
	other := seedUser(t, db, "ben@carsu.edu.ph")
	item := seedItem(t, items, Item{Name: "Bag", Type: ItemTypeFound, Category: "Bags", ReporterID: user.ID})

	claim := &Claim{UserID: user.ID, ItemID: item.ID}
	if err := claims.Create(claim); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := claims.FindByUserAndItems(user.ID, []string{item.ID, "other"})
	if err != nil {
		t.Fatalf("FindByUserAndItems() error: %v", err)
	}
	if got == nil || got.ID != claim.ID {
		t.Errorf("expected the claim, got %+v", got)
	}

	got, err = claims.FindByUserAndItems(other.ID, []string{item.ID})
	if err != nil {
		t.Fatalf("FindByUserAndItems() error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for another user, got %+v", got)
	}

	got, err = claims.FindByUserAndItems(user.ID, nil)
	if err != nil {
		t.Fatalf("FindByUserAndItems() error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for an empty id set, got %+v", got)
	}
}

func TestPendingCount(t *testing.T) {
	db := NewTestDB(t)
	items := NewItemRepository(db)
	claims := NewClaimRepository(db)
	user := seedUser(t, db, "ana@carsu.edu.ph")
	item := seedItem(t, items, Item{Name: "Cap", Type: ItemTypeFound, Category: "Accessories", ReporterID: user.ID})

	count, err := claims.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount() error: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	claim := &Claim{UserID: user.ID, ItemID: item.ID}
	if err := claims.Create(claim); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	count, err = claims.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount() error: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if _, err := claims.SetStatus(claim.ID, ClaimApproved); err != nil {
		t.Fatalf("SetStatus() error: %v", err)
	}
	count, err = claims.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount() error: %v", err)
	}
	if count != 0 {
		t.Errorf("count after approval = %d, want 0", count)
	}
}
