package usecase

import (
	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
)

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID string
	Role   model.Role
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// IsSupport reports whether the actor handles other customers' records.
func (a Actor) IsSupport() bool { return a.Role == model.RoleAdmin || a.Role == model.RoleStaff }

// canAccess allows owners and admins.
func (a Actor) canAccess(ownerID string) error {
	if a.UserID == "" {
		return domain.ErrUnauthorized
	}
	if a.IsAdmin() || a.UserID == ownerID {
		return nil
	}
	return domain.ErrForbidden
}

// Page clamps offset/limit to sane bounds.
func Page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
