package model

import (
	"net/mail"
	"strings"
	"time"

	"egas-delivery/internal/domain"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Address is the delivery address kept on the customer profile and copied
// onto every order.
type Address struct {
	Street string `json:"address"`
	City   string `json:"city"`
	State  string `json:"state"`
}

func (a Address) IsZero() bool { return a.Street == "" && a.City == "" && a.State == "" }

// User is an account of any role. Wallet balance is kept in minor units.
type User struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	PasswordHash  string     `json:"-"`
	Role          Role       `json:"role"`
	Address       Address    `json:"address"`
	WalletBalance int64      `json:"walletBalance"`
	IsActive      bool       `json:"isActive"`
	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func NewUser(id, firstName, lastName, email, phone string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email = NormalizeEmail(email)
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:        id,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     email,
		Phone:     strings.TrimSpace(phone),
		Role:      RoleCustomer,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

func (u *User) FullName() string { return strings.TrimSpace(u.FirstName + " " + u.LastName) }

// IsLocked reports whether failed logins have locked the account at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// RegisterFailedLogin bumps the attempt counter and locks the account once
// maxAttempts is reached. The counter restarts after the lock.
func (u *User) RegisterFailedLogin(now time.Time, maxAttempts int, lockFor time.Duration) {
	u.LoginAttempts++
	if maxAttempts > 0 && u.LoginAttempts >= maxAttempts {
		until := now.Add(lockFor)
		u.LockUntil = &until
		u.LoginAttempts = 0
	}
}

func (u *User) ResetLoginAttempts() {
	u.LoginAttempts = 0
	u.LockUntil = nil
}
