package services

import (
	"context"
	"strings"

	"github.com/maviecommerce/mavie/internal/email"
	"github.com/maviecommerce/mavie/internal/models"
)

type OrderEmailSender interface {
	SendPaymentConfirmation(ctx context.Context, order *models.Order) error
	SendPaymentFailed(ctx context.Context, order *models.Order, reason string) error
	SendOrderShipped(ctx context.Context, order *models.Order) error
}

// ProviderEmailSender renders order emails and delivers them through the
// configured provider.
type ProviderEmailSender struct {
	provider email.Provider
	shopName string
	shopURL  string
}

func NewProviderEmailSender(provider email.Provider, shopName, shopURL string) *ProviderEmailSender {
	return &ProviderEmailSender{
		provider: provider,
		shopName: shopName,
		shopURL:  shopURL,
	}
}

func (s *ProviderEmailSender) SendPaymentConfirmation(ctx context.Context, order *models.Order) error {
	info := s.buildOrderInfo(order)
	info.LoyaltyPointsEarned = order.LoyaltyPointsEarned
	return email.SendPaymentConfirmation(ctx, s.provider, info)
}

func (s *ProviderEmailSender) SendPaymentFailed(ctx context.Context, order *models.Order, reason string) error {
	info := s.buildOrderInfo(order)
	info.FailureReason = reason
	return email.SendPaymentFailed(ctx, s.provider, info)
}

func (s *ProviderEmailSender) SendOrderShipped(ctx context.Context, order *models.Order) error {
	info := s.buildOrderInfo(order)
	if !order.ShippedAt.IsZero() {
		info.OrderDate = order.ShippedAt.Format("January 2, 2006")
	}
	return email.SendOrderShipped(ctx, s.provider, info)
}

func (s *ProviderEmailSender) buildOrderInfo(order *models.Order) *email.OrderInfo {
	items := make([]email.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		options := make([]string, 0, 2)
		if item.Color != "" {
			options = append(options, item.Color)
		}
		if item.Size != "" {
			options = append(options, item.Size)
		}
		items = append(items, email.OrderItem{
			Name:       item.ProductName,
			Quantity:   item.Quantity,
			UnitPrice:  FormatNaira(item.UnitPriceKobo),
			TotalPrice: FormatNaira(item.LineTotalKobo),
			Options:    strings.Join(options, ", "),
		})
	}

	loyaltyDiscount := ""
	if order.LoyaltyDiscountKobo > 0 {
		loyaltyDiscount = FormatNaira(order.LoyaltyDiscountKobo)
	}

	return &email.OrderInfo{
		OrderNumber:     order.OrderNumber,
		CustomerName:    order.CustomerFullName(),
		CustomerEmail:   order.CustomerEmail,
		ShopName:        s.shopName,
		ShopURL:         s.shopURL,
		OrderDate:       order.CreatedAt.Format("January 2, 2006"),
		Items:           items,
		Subtotal:        FormatNaira(order.SubtotalKobo),
		Shipping:        FormatNaira(order.ShippingFeeKobo),
		Tax:             FormatNaira(order.TaxKobo),
		LoyaltyDiscount: loyaltyDiscount,
		Total:           FormatNaira(order.TotalKobo),
		PaymentMethod:   order.PaymentMethod,
		TrackingNumber:  order.TrackingNumber,
		ShippingAddress: order.ShippingAddress(),
	}
}

type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendPaymentConfirmation(context.Context, *models.Order) error {
	return nil
}

func (noopOrderEmailSender) SendPaymentFailed(context.Context, *models.Order, string) error {
	return nil
}

func (noopOrderEmailSender) SendOrderShipped(context.Context, *models.Order) error {
	return nil
}
