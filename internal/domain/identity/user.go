package identity

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/izakgestao/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

// Password cost for bcrypt
const bcryptCost = 12

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User represents an operator of the system.
// It is the aggregate root for authentication operations.
type User struct {
	shared.BaseAggregateRoot
	Name              string
	Email             string
	PasswordHash      string
	Status            UserStatus
	LastLoginAt       *time.Time
	ResetToken        string
	ResetTokenExpires *time.Time
}

// NewUser creates a new active user
func NewUser(name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Name cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Failed to hash password")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:      passwordHash,
		Status:            UserStatusActive,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsActive returns true if the user may log in
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// RecordLogin stamps a successful login
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// BeginPasswordReset issues a one-time reset token valid for the given window
func (u *User) BeginPasswordReset(ttl time.Duration) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	token := hex.EncodeToString(buf)
	expires := time.Now().Add(ttl)

	u.ResetToken = token
	u.ResetTokenExpires = &expires
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return token, nil
}

// CompletePasswordReset consumes a reset token and sets the new password
func (u *User) CompletePasswordReset(token, newPassword string) error {
	if u.ResetToken == "" || u.ResetToken != token {
		return shared.NewDomainError(shared.CodeValidation, "Reset token is not valid")
	}
	if u.ResetTokenExpires == nil || time.Now().After(*u.ResetTokenExpires) {
		return shared.NewDomainError(shared.CodeValidation, "Reset token has expired")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError(shared.CodeValidation, "Failed to hash password")
	}

	u.PasswordHash = passwordHash
	u.ResetToken = ""
	u.ResetTokenExpires = nil
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return shared.NewDomainError(shared.CodeValidation, "Email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError(shared.CodeValidation, "Email format is not valid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return shared.NewDomainError(shared.CodeValidation, "Password must have at least 6 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError(shared.CodeValidation, "Password cannot exceed 72 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
