package model

import "time"

// Failure reasons reported per subscription.
const (
	ReasonProductNotFound  = "product not found"
	ReasonCustomerNotFound = "customer not found"
	ReasonConflict         = "conflict, skipped"
)

type BillingSuccess struct {
	SubscriptionID string `json:"subscriptionId"`
	OrderID        string `json:"orderId"`
}

type BillingFailure struct {
	SubscriptionID string `json:"subscriptionId"`
	Reason         string `json:"reason"`
}

// BillingResult is the outcome of one billing cycle.
type BillingResult struct {
	RunID          string           `json:"runId"`
	AsOf           time.Time        `json:"asOf"`
	ProcessedCount int              `json:"processedCount"`
	Successes      []BillingSuccess `json:"successes"`
	Failures       []BillingFailure `json:"failures"`
}

func NewBillingResult(runID string, asOf time.Time) *BillingResult {
	return &BillingResult{
		RunID:     runID,
		AsOf:      asOf,
		Successes: []BillingSuccess{},
		Failures:  []BillingFailure{},
	}
}
