package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, role, student_id, contact_number, department, profile_picture, on_duty, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.StudentID,
		&u.ContactNumber, &u.Department, &u.ProfilePicture, &u.OnDuty, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user, filling in the ID and timestamp.
func (r *UserRepository) Create(u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUniversityMember
	}
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO users (id, email, password_hash, full_name, role, student_id, contact_number, department, profile_picture, on_duty, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, u.StudentID,
		u.ContactNumber, u.Department, u.ProfilePicture, u.OnDuty, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Get returns a user by ID, or nil when it does not exist.
func (r *UserRepository) Get(id string) (*User, error) {
	user, err := scanUser(r.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail returns a user by email, or nil when it does not exist.
func (r *UserRepository) GetByEmail(email string) (*User, error) {
	user, err := scanUser(r.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// UserUpdate carries optional profile updates; nil fields are left
// unchanged.
type UserUpdate struct {
	FullName       *string `json:"full_name"`
	StudentID      *string `json:"student_id"`
	ContactNumber  *string `json:"contact_number"`
	Department     *string `json:"department"`
	ProfilePicture *string `json:"profile_picture"`
	OnDuty         *bool   `json:"on_duty"`
}

// Update applies a partial profile update and returns the updated user, or
// nil when the user does not exist.
func (r *UserRepository) Update(id string, upd UserUpdate) (*User, error) {
	res, err := r.db.Exec(`
		UPDATE users
		SET full_name = COALESCE(?, full_name),
		    student_id = COALESCE(?, student_id),
		    contact_number = COALESCE(?, contact_number),
		    department = COALESCE(?, department),
		    profile_picture = COALESCE(?, profile_picture),
		    on_duty = COALESCE(?, on_duty)
		WHERE id = ?
	`, upd.FullName, upd.StudentID, upd.ContactNumber,
		upd.Department, upd.ProfilePicture, upd.OnDuty, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.Get(id)
}

// SetRole updates a user's role and returns the updated user, or nil when
// the user does not exist.
func (r *UserRepository) SetRole(id, role string) (*User, error) {
	res, err := r.db.Exec(`UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return nil, fmt.Errorf("failed to set user role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.Get(id)
}
