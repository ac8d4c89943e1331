package db

import "github.com/maviecommerce/mavie/internal/models"

type Order = models.Order
type OrderItem = models.OrderItem
type OrderStatus = models.OrderStatus
type PaymentStatus = models.PaymentStatus
type LoyaltyAccount = models.LoyaltyAccount
type LoyaltyTransaction = models.LoyaltyTransaction
type PaystackEvent = models.PaystackEvent
type PaymentTransaction = models.PaymentTransaction
type Product = models.Product

const (
	StatusPending    = models.StatusPending
	StatusPaid       = models.StatusPaid
	StatusConfirmed  = models.StatusConfirmed
	StatusProcessing = models.StatusProcessing
	StatusShipped    = models.StatusShipped
	StatusDelivered  = models.StatusDelivered
	StatusCancelled  = models.StatusCancelled
	StatusRefunded   = models.StatusRefunded
	StatusFailed     = models.StatusFailed
)

const (
	PaymentPending    = models.PaymentPending
	PaymentProcessing = models.PaymentProcessing
	PaymentSuccess    = models.PaymentSuccess
	PaymentFailed     = models.PaymentFailed
	PaymentCancelled  = models.PaymentCancelled
	PaymentRefunded   = models.PaymentRefunded
)
