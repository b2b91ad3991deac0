package model

import (
	"github.com/oklog/ulid/v2"
)

// Human readable reference prefixes.
const (
	OrderCodePrefix   = "EG"
	PaymentCodePrefix = "TX"
	TicketCodePrefix  = "TCK"
)

// NewCode returns a short reference such as "EG-7ZQ4K1MA" built from the
// random part of a ULID.
func NewCode(prefix string) string {
	s := ulid.Make().String()
	return prefix + "-" + s[len(s)-8:]
}

// NewRunID returns a sortable identifier for a billing run.
func NewRunID() string { return ulid.Make().String() }
