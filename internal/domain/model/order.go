package model

import (
	"time"

	"egas-delivery/internal/domain"
)

type DeliveryOption string

const (
	DeliveryStandard DeliveryOption = "standard"
	DeliveryExpress  DeliveryOption = "express"
)

// DefaultExpressFee is the surcharge for express delivery in minor units.
const DefaultExpressFee int64 = 1500

type PaymentMethod string

const (
	PaymentMethodWallet   PaymentMethod = "wallet"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodUSSD     PaymentMethod = "ussd"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodWallet, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodUSSD:
		return true
	}
	return false
}

type OrderPaymentStatus string

const (
	OrderPaymentPending   OrderPaymentStatus = "pending"
	OrderPaymentCompleted OrderPaymentStatus = "completed"
	OrderPaymentFailed    OrderPaymentStatus = "failed"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusInTransit  OrderStatus = "in-transit"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusInTransit, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusInTransit, OrderStatusDelivered},
	OrderStatusInTransit:  {OrderStatusDelivered, OrderStatusCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusInTransit, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition reports whether an order in status s may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// trackingProgress is the progress percentage shown for each status.
var trackingProgress = map[OrderStatus]int{
	OrderStatusProcessing: 10,
	OrderStatusShipped:    40,
	OrderStatusInTransit:  70,
	OrderStatusDelivered:  100,
	OrderStatusCancelled:  0,
}

type Tracking struct {
	Status   OrderStatus `json:"status"`
	Location string      `json:"location"`
	Progress int         `json:"progress"`
}

type OrderItem struct {
	ProductID string `json:"product"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"price"`
}

func (i OrderItem) Subtotal() int64 { return i.UnitPrice * int64(i.Quantity) }

// OrderDraft carries everything needed to materialize an order.
type OrderDraft struct {
	UserID         string
	Items          []OrderItem
	Address        Address
	DeliveryOption DeliveryOption
	ExpressFee     int64
	PaymentMethod  PaymentMethod
	PaymentStatus  OrderPaymentStatus
	SubscriptionID *string
	BillingPeriod  *time.Time
}

type Order struct {
	ID             string             `json:"id"`
	Code           string             `json:"orderId"`
	UserID         string             `json:"user"`
	Items          []OrderItem        `json:"products"`
	Address        Address            `json:"deliveryAddress"`
	DeliveryOption DeliveryOption     `json:"deliveryOption"`
	DeliveryFee    int64              `json:"deliveryFee"`
	TotalAmount    int64              `json:"totalAmount"`
	PaymentMethod  PaymentMethod      `json:"paymentMethod"`
	PaymentStatus  OrderPaymentStatus `json:"paymentStatus"`
	Status         OrderStatus        `json:"orderStatus"`
	Tracking       Tracking           `json:"tracking"`
	SubscriptionID *string            `json:"subscription,omitempty"`
	// BillingPeriod is the due date a subscription order was billed for.
	BillingPeriod *time.Time `json:"billingPeriod,omitempty"`
	AssignedTo    *string    `json:"assignedTo,omitempty"`
	DeliveryDate  *time.Time `json:"deliveryDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// NewOrder validates the draft and computes the total once. The total is
// never recomputed after creation.
func NewOrder(id string, d OrderDraft, now time.Time) (*Order, error) {
	if id == "" || d.UserID == "" || len(d.Items) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	var total int64
	for _, it := range d.Items {
		if it.ProductID == "" || it.Quantity <= 0 || it.UnitPrice < 0 {
			return nil, domain.ErrInvalidArgument
		}
		total += it.Subtotal()
	}
	opt := d.DeliveryOption
	if opt == "" {
		opt = DeliveryStandard
	}
	var fee int64
	switch opt {
	case DeliveryStandard:
	case DeliveryExpress:
		fee = d.ExpressFee
		if fee == 0 {
			fee = DefaultExpressFee
		}
	default:
		return nil, domain.ErrInvalidArgument
	}
	method := d.PaymentMethod
	if method == "" {
		method = PaymentMethodWallet
	}
	if !method.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	payStatus := d.PaymentStatus
	if payStatus == "" {
		payStatus = OrderPaymentPending
	}
	items := make([]OrderItem, len(d.Items))
	copy(items, d.Items)
	return &Order{
		ID:             id,
		Code:           NewCode(OrderCodePrefix),
		UserID:         d.UserID,
		Items:          items,
		Address:        d.Address,
		DeliveryOption: opt,
		DeliveryFee:    fee,
		TotalAmount:    total + fee,
		PaymentMethod:  method,
		PaymentStatus:  payStatus,
		Status:         OrderStatusProcessing,
		Tracking:       Tracking{Status: OrderStatusProcessing, Progress: trackingProgress[OrderStatusProcessing]},
		SubscriptionID: d.SubscriptionID,
		BillingPeriod:  d.BillingPeriod,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Transition moves the order to next, updating tracking. Delivered orders
// get a delivery date.
func (o *Order) Transition(next OrderStatus, location string, now time.Time) error {
	if !next.Valid() {
		return domain.ErrInvalidArgument
	}
	if !o.Status.CanTransition(next) {
		return domain.ErrInvalidTransition
	}
	o.Status = next
	o.Tracking.Status = next
	o.Tracking.Progress = trackingProgress[next]
	if location != "" {
		o.Tracking.Location = location
	}
	if next == OrderStatusDelivered {
		o.DeliveryDate = &now
	}
	o.UpdatedAt = now
	return nil
}

func (o *Order) IsAssignedTo(userID string) bool {
	return o.AssignedTo != nil && *o.AssignedTo == userID
}

// DailyStat is one day of an aggregate time series.
type DailyStat struct {
	Date   string `json:"date"`
	Count  int    `json:"count"`
	Amount int64  `json:"amount"`
}
