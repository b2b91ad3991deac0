package model

import (
	"strings"
	"time"

	"egas-delivery/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusPaused, SubscriptionStatusCancelled:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// ParseFrequency normalizes user input; empty input defaults to monthly.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FrequencyMonthly, nil
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly:
		return f, nil
	}
	return "", domain.ErrInvalidArgument
}

// Advance returns the date that is n periods after anchor.
// Weekly periods are 7 days; monthly and quarterly periods keep the anchor's
// day-of-month, clamped to the last day of the target month.
func (f Frequency) Advance(anchor time.Time, n int) time.Time {
	switch f {
	case FrequencyWeekly:
		return anchor.AddDate(0, 0, 7*n)
	case FrequencyQuarterly:
		return AddMonthsClamped(anchor, 3*n)
	default:
		return AddMonthsClamped(anchor, n)
	}
}

// AddMonthsClamped adds months to t without the overflow normalization of
// time.AddDate: Jan 31 + 1 month is Feb 28 (or 29), never Mar 3.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	first := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// Subscription is a customer's recurring purchase of a single product.
type Subscription struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user"`
	ProductID    string    `json:"product"`
	Price        int64     `json:"price"` // snapshot taken at creation
	Frequency    Frequency `json:"frequency"`
	NextDelivery time.Time `json:"nextDelivery"`
	// BillingAnchor is the due date every period is counted from, so a
	// short month never shifts later due dates.
	BillingAnchor time.Time          `json:"-"`
	Status        SubscriptionStatus `json:"status"`
	AutoRenew     bool               `json:"isAutoRenew"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// NewSubscription snapshots the product price and schedules the first delivery
// one period after now.
func NewSubscription(id, userID string, product *Product, freq Frequency, now time.Time) (*Subscription, error) {
	if id == "" || userID == "" || product == nil || product.ID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if freq == "" {
		freq = FrequencyMonthly
	}
	next := freq.Advance(now, 1)
	return &Subscription{
		ID:            id,
		UserID:        userID,
		ProductID:     product.ID,
		Price:         product.Price,
		Frequency:     freq,
		NextDelivery:  next,
		BillingAnchor: next,
		Status:        SubscriptionStatusActive,
		AutoRenew:     true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsDue reports whether the subscription must be billed at now.
func (s *Subscription) IsDue(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && !s.NextDelivery.After(now)
}

// SchedulePolicy decides what the next due date is computed from.
type SchedulePolicy string

const (
	// ScheduleFromPrevious keeps the billing anchor: whole periods are added to
	// the previous due date until the result is after now.
	ScheduleFromPrevious SchedulePolicy = "previous"
	// ScheduleFromNow restarts the period at the processing time.
	ScheduleFromNow SchedulePolicy = "now"
)

func ParseSchedulePolicy(s string) (SchedulePolicy, error) {
	switch p := SchedulePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ScheduleFromPrevious, nil
	case ScheduleFromPrevious, ScheduleFromNow:
		return p, nil
	}
	return "", domain.ErrInvalidArgument
}

// Anchor returns the billing anchor, falling back to the current due date
// for rows written before anchors were stored.
func (s *Subscription) Anchor() time.Time {
	if s.BillingAnchor.IsZero() {
		return s.NextDelivery
	}
	return s.BillingAnchor
}

// Reschedule restarts the schedule one period after now.
func (s *Subscription) Reschedule(now time.Time) {
	s.NextDelivery = s.Frequency.Advance(now, 1)
	s.BillingAnchor = s.NextDelivery
}

// NextDeliveryAfter returns the next due date strictly after now together
// with the anchor to store alongside it. With ScheduleFromPrevious the k-th
// period is anchor + k periods, clamped per month; the anchor is kept.
func (s *Subscription) NextDeliveryAfter(now time.Time, policy SchedulePolicy) (next, anchor time.Time) {
	if policy == ScheduleFromNow {
		next = s.Frequency.Advance(now, 1)
		return next, next
	}
	anchor = s.Anchor()
	for n := 1; ; n++ {
		next = s.Frequency.Advance(anchor, n)
		if next.After(now) && next.After(s.NextDelivery) {
			return next, anchor
		}
	}
}
