// Package user provides the User catalog.
package user

import (
	"context"
	"encoding/json"
	"net/mail"

	"golang.org/x/crypto/bcrypt"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/entity"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// User is an account that can sign in to the admin console.
type User struct {
	entity.BaseEntity

	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	Role  string `db:"role" json:"role"`

	PasswordHash string `db:"password_hash" json:"-"`
}

// New creates an active user with a bcrypt-hashed password.
func New(email, name, role, password string) (*User, error) {
	u := &User{
		BaseEntity: entity.NewBaseEntity(),
		Email:      email,
		Name:       name,
		Role:       role,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword stores the bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return apperror.NewFieldValidation("password", "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal(err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Validate checks required fields.
func (u *User) Validate(ctx context.Context) error {
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return apperror.NewFieldValidation("email", "email is invalid")
	}
	switch u.Role {
	case RoleAdmin, RoleEditor, RoleViewer:
	default:
		return apperror.NewFieldValidation("role", "unknown role").WithDetail("role", u.Role)
	}
	return nil
}

// storedUser is the persisted form; unlike the public JSON it keeps the hash.
type storedUser struct {
	*User
	PasswordHash string `json:"passwordHash"`
}

// MarshalStorage encodes the user including its password hash.
func (u *User) MarshalStorage() ([]byte, error) {
	return json.Marshal(storedUser{User: u, PasswordHash: u.PasswordHash})
}

// UnmarshalStorage decodes the form written by MarshalStorage.
func (u *User) UnmarshalStorage(data []byte) error {
	s := storedUser{User: u}
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	u.PasswordHash = s.PasswordHash
	return nil
}
