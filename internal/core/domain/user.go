// internal/core/domain/user.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role controls what an authenticated user may do
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// User is a dashboard account
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Validate performs domain validation on the user
func (u *User) Validate() error {
	var msgs []string
	if strings.TrimSpace(u.Name) == "" {
		msgs = append(msgs, "name is required")
	}
	if !ValidEmail(u.Email) {
		msgs = append(msgs, "email must be a valid address")
	}
	if !u.Role.Valid() {
		msgs = append(msgs, "role must be admin or viewer")
	}
	if u.PasswordHash == "" {
		msgs = append(msgs, "password is required")
	}
	return NewValidationError(msgs...)
}

// PrepareForStorage sets identifiers and defaults before a write
func (u *User) PrepareForStorage() {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleViewer
	}

	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

// SetPassword hashes password with bcrypt
func (u *User) SetPassword(password string, cost int) error {
	if len(password) < MinPasswordLength {
		return NewValidationError("password must be at least 6 characters long")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserStats summarises the account table
type UserStats struct {
	Total         int64          `json:"total"`
	ByRole        map[Role]int64 `json:"byRole"`
	RecentSignups int64          `json:"recentSignups"`
}
