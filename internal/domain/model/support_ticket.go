package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"egas-delivery/internal/domain"
)

const MaxTicketSubjectLen = 100

type TicketCategory string

const (
	TicketCategoryDelivery TicketCategory = "delivery"
	TicketCategoryPayment  TicketCategory = "payment"
	TicketCategoryProduct  TicketCategory = "product"
	TicketCategoryAccount  TicketCategory = "account"
	TicketCategoryOther    TicketCategory = "other"
)

func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryDelivery, TicketCategoryPayment, TicketCategoryProduct, TicketCategoryAccount, TicketCategoryOther:
		return true
	}
	return false
}

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

type TicketResponse struct {
	UserID    string    `json:"user"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type SupportTicket struct {
	ID          string           `json:"id"`
	TicketID    string           `json:"ticketId"`
	UserID      string           `json:"user"`
	Subject     string           `json:"subject"`
	Category    TicketCategory   `json:"category"`
	Description string           `json:"description"`
	Status      TicketStatus     `json:"status"`
	Attachments []string         `json:"attachments"`
	Responses   []TicketResponse `json:"responses"`
	AssignedTo  *string          `json:"assignedTo,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func NewSupportTicket(id, userID, subject string, category TicketCategory, description string, now time.Time) (*SupportTicket, error) {
	subject = strings.TrimSpace(subject)
	description = strings.TrimSpace(description)
	if id == "" || userID == "" || subject == "" || description == "" {
		return nil, domain.ErrInvalidArgument
	}
	if utf8.RuneCountInString(subject) > MaxTicketSubjectLen {
		return nil, domain.ErrInvalidArgument
	}
	if category == "" {
		category = TicketCategoryOther
	}
	if !category.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return &SupportTicket{
		ID:          id,
		TicketID:    NewCode(TicketCodePrefix),
		UserID:      userID,
		Subject:     subject,
		Category:    category,
		Description: description,
		Status:      TicketStatusOpen,
		Attachments: []string{},
		Responses:   []TicketResponse{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AddResponse appends a message. A response from support staff on an open
// ticket moves it to in-progress.
func (t *SupportTicket) AddResponse(userID string, role Role, message string, now time.Time) error {
	message = strings.TrimSpace(message)
	if userID == "" || message == "" {
		return domain.ErrInvalidArgument
	}
	t.Responses = append(t.Responses, TicketResponse{UserID: userID, Message: message, CreatedAt: now})
	if role != RoleCustomer && t.Status == TicketStatusOpen {
		t.Status = TicketStatusInProgress
	}
	t.UpdatedAt = now
	return nil
}
