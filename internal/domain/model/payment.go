package model

import (
	"time"

	"egas-delivery/internal/domain"
)

type PaymentType string

const (
	PaymentTypeCredit PaymentType = "credit"
	PaymentTypeDebit  PaymentType = "debit"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment records money moving in or out of a customer account.
type Payment struct {
	ID             string        `json:"id"`
	TransactionID  string        `json:"transactionId"`
	UserID         string        `json:"user"`
	Amount         int64         `json:"amount"` // minor units
	Description    string        `json:"description"`
	Reference      string        `json:"reference,omitempty"`
	Type           PaymentType   `json:"type"`
	Method         PaymentMethod `json:"paymentMethod"`
	Status         PaymentStatus `json:"status"`
	OrderID        *string       `json:"order,omitempty"`
	SubscriptionID *string       `json:"subscription,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

func NewPayment(id, userID string, amount int64, typ PaymentType, method PaymentMethod, description string, now time.Time) (*Payment, error) {
	if id == "" || userID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if typ != PaymentTypeCredit && typ != PaymentTypeDebit {
		return nil, domain.ErrInvalidArgument
	}
	if !method.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return &Payment{
		ID:            id,
		TransactionID: NewCode(PaymentCodePrefix),
		UserID:        userID,
		Amount:        amount,
		Description:   description,
		Type:          typ,
		Method:        method,
		Status:        PaymentStatusCompleted,
		CreatedAt:     now,
	}, nil
}

// TopsUpWallet reports whether the payment credits the user's wallet.
func (p *Payment) TopsUpWallet() bool {
	return p.Type == PaymentTypeCredit && p.Method == PaymentMethodWallet && p.Status == PaymentStatusCompleted
}
