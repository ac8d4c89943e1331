package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusPaid       OrderStatus = "paid"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
	StatusFailed     OrderStatus = "failed"
)

// PaymentStatus tracks the gateway side of an order independently of fulfillment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSuccess    PaymentStatus = "success"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

// ValidOrderStatus reports whether value is a known fulfillment state.
func ValidOrderStatus(value string) bool {
	switch OrderStatus(value) {
	case StatusPending, StatusPaid, StatusConfirmed, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded, StatusFailed:
		return true
	}
	return false
}

// Order is one checkout. All monetary fields are kobo (NGN minor units);
// total = subtotal + shipping + tax - loyalty discount. The customer snapshot
// is captured at creation and never follows later profile edits.
type Order struct {
	ID          uuid.UUID  `json:"id"`
	OrderNumber string     `json:"order_number"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`

	CustomerEmail     string `json:"customer_email"`
	CustomerFirstName string `json:"customer_first_name"`
	CustomerLastName  string `json:"customer_last_name"`
	CustomerPhone     string `json:"customer_phone"`

	ShippingAddressLine1 string `json:"shipping_address_line1"`
	ShippingAddressLine2 string `json:"shipping_address_line2"`
	ShippingCity         string `json:"shipping_city"`
	ShippingState        string `json:"shipping_state"`
	ShippingPostalCode   string `json:"shipping_postal_code"`
	ShippingCountry      string `json:"shipping_country"`

	SubtotalKobo        int64  `json:"subtotal_kobo"`
	ShippingFeeKobo     int64  `json:"shipping_fee_kobo"`
	TaxKobo             int64  `json:"tax_kobo"`
	LoyaltyDiscountKobo int64  `json:"loyalty_discount_kobo"`
	TotalKobo           int64  `json:"total_kobo"`
	Currency            string `json:"currency"`

	PaymentStatus     PaymentStatus `json:"payment_status"`
	PaymentReference  string        `json:"payment_reference"`
	GatewayReference  string        `json:"gateway_reference"`
	GatewayAccessCode string        `json:"gateway_access_code"`
	PaymentMethod     string        `json:"payment_method"`
	PaidAmountKobo    int64         `json:"paid_amount_kobo"`
	PaymentDate       time.Time     `json:"payment_date"`

	Status         OrderStatus `json:"status"`
	Notes          string      `json:"notes"`
	TrackingNumber string      `json:"tracking_number"`

	LoyaltyPointsEarned  int  `json:"loyalty_points_earned"`
	LoyaltyPointsUsed    int  `json:"loyalty_points_used"`
	LoyaltyPointsAwarded bool `json:"loyalty_points_awarded"`

	Items []OrderItem `json:"items,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ConfirmedAt time.Time `json:"confirmed_at"`
	ShippedAt   time.Time `json:"shipped_at"`
	DeliveredAt time.Time `json:"delivered_at"`
}

func (o *Order) CustomerFullName() string {
	return strings.TrimSpace(o.CustomerFirstName + " " + o.CustomerLastName)
}

// ShippingAddress renders the snapshot as a single display line.
func (o *Order) ShippingAddress() string {
	address := o.ShippingAddressLine1
	if o.ShippingAddressLine2 != "" {
		address += ", " + o.ShippingAddressLine2
	}
	return address + ", " + o.ShippingCity + ", " + o.ShippingState + " " + o.ShippingPostalCode + ", " + o.ShippingCountry
}

// OrderItem is an immutable snapshot of one product line at purchase time.
type OrderItem struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"order_id"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	UnitPriceKobo int64     `json:"unit_price_kobo"`
	Quantity      int       `json:"quantity"`
	Color         string    `json:"color"`
	Size          string    `json:"size"`
	LineTotalKobo int64     `json:"line_total_kobo"`
}
