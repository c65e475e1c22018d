package database

import (
	"time"
)

// Item types.
const (
	ItemTypeLost  = "lost"
	ItemTypeFound = "found"
)

// Item statuses.
const (
	StatusReportedLost = "reported_lost"
	StatusInCustody    = "in_security_custody"
	StatusReturned     = "returned"
)

// Per-item claim statuses, synced from the claim workflow.
const (
	ClaimStatusNone      = ""
	ClaimStatusPending   = "pending_claim"
	ClaimStatusConfirmed = "confirmed_claim"
	ClaimStatusRejected  = "rejected_claim"
)

// Claim row statuses.
const (
	ClaimPending  = "pending"
	ClaimApproved = "approved"
	ClaimRejected = "rejected"
)

// Notification types.
const (
	NotificationMatchFound     = "match_found"
	NotificationMatchGenerated = "match_generated"
	NotificationClaimSubmitted = "claim_submitted"
)

// User roles.
const (
	RoleUniversityMember = "university_member"
	RoleSecurity         = "security"
	RoleAdmin            = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	StudentID      string    `json:"student_id"`
	ContactNumber  string    `json:"contact_number"`
	Department     string    `json:"department"`
	ProfilePicture string    `json:"profile_picture"`
	OnDuty         bool      `json:"on_duty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Item struct {
	ID              string    `json:"id"`
	ReporterID      string    `json:"reporter_id"`
	ClaimantID      string    `json:"claimant_id,omitempty"`
	Type            string    `json:"type"`
	Category        string    `json:"category"`
	Name            string    `json:"name"`
	Brand           string    `json:"brand"`
	Color           string    `json:"color"`
	Course          string    `json:"course"`
	Location        string    `json:"location"`
	Datetime        string    `json:"datetime"`
	Description     string    `json:"description"`
	Cover           string    `json:"cover"`
	ImageURL        string    `json:"image_url"`
	StudentID       string    `json:"student_id"`
	Status          string    `json:"status"`
	UserClaimStatus string    `json:"user_claim_status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Match struct {
	ID          string    `json:"id"`
	LostItemID  string    `json:"lost_item_id"`
	FoundItemID string    `json:"found_item_id"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	MatchID   string    `json:"match_id,omitempty"`
	Category  string    `json:"category"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type Claim struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ItemID          string    `json:"item_id"`
	NotificationID  string    `json:"notification_id,omitempty"`
	ClaimantMessage string    `json:"claimant_message"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ItemFilter narrows item listings. Zero values mean "no constraint".
type ItemFilter struct {
	Type       string
	Category   string
	ReporterID string
	Status     string
}

// ReportedItem is an item joined with its reporter's public info.
type ReportedItem struct {
	Item
	ReporterName           string `json:"reporter_name"`
	ReporterEmail          string `json:"reporter_email"`
	ReporterProfilePicture string `json:"reporter_profile_picture,omitempty"`
}
