package services

import "fmt"

// Storefront pricing policy. All amounts are kobo.
const (
	// FlatShippingFeeKobo is charged on orders below the free-shipping
	// threshold (₦10,000).
	FlatShippingFeeKobo int64 = 1_000_000

	// FreeShippingThresholdKobo waives shipping at or above this subtotal
	// (₦100,000).
	FreeShippingThresholdKobo int64 = 10_000_000

	// taxRatePercent is applied to the subtotal.
	taxRatePercent int64 = 3

	// loyaltyEarnPercent of the subtotal comes back as points, at one point
	// per naira.
	loyaltyEarnPercent int64 = 5

	// LoyaltyPointValueKobo is the redemption value of one point (₦1).
	LoyaltyPointValueKobo int64 = 100
)

// PricingBreakdown is the monetary decomposition of one order.
// Total = Subtotal + ShippingFee + Tax - LoyaltyDiscount.
type PricingBreakdown struct {
	SubtotalKobo        int64 `json:"subtotal_kobo"`
	ShippingFeeKobo     int64 `json:"shipping_fee_kobo"`
	TaxKobo             int64 `json:"tax_kobo"`
	LoyaltyDiscountKobo int64 `json:"loyalty_discount_kobo"`
	TotalKobo           int64 `json:"total_kobo"`
	LoyaltyPointsUsed   int   `json:"loyalty_points_used"`
}

// ComputeTotals prices an order from its subtotal and redeemed points.
// Callers validate that the points are actually available and that the
// discount does not exceed the subtotal.
func ComputeTotals(subtotalKobo int64, loyaltyPointsToUse int) PricingBreakdown {
	shipping := FlatShippingFeeKobo
	if subtotalKobo >= FreeShippingThresholdKobo {
		shipping = 0
	}
	tax := subtotalKobo * taxRatePercent / 100
	discount := LoyaltyDiscountKobo(loyaltyPointsToUse)

	return PricingBreakdown{
		SubtotalKobo:        subtotalKobo,
		ShippingFeeKobo:     shipping,
		TaxKobo:             tax,
		LoyaltyDiscountKobo: discount,
		TotalKobo:           subtotalKobo + shipping + tax - discount,
		LoyaltyPointsUsed:   loyaltyPointsToUse,
	}
}

// EarnedPoints converts a subtotal to award points: loyaltyEarnPercent of
// the naira value, truncated.
func EarnedPoints(subtotalKobo int64) int {
	return int(subtotalKobo * loyaltyEarnPercent / 100 / 100)
}

// LoyaltyDiscountKobo converts redeemed points to their kobo value.
func LoyaltyDiscountKobo(points int) int64 {
	if points <= 0 {
		return 0
	}
	return int64(points) * LoyaltyPointValueKobo
}

// FormatNaira renders kobo as a display amount, e.g. 1133050 -> "₦11,330.50".
func FormatNaira(kobo int64) string {
	negative := kobo < 0
	if negative {
		kobo = -kobo
	}

	naira := kobo / 100
	minor := kobo % 100

	digits := fmt.Sprintf("%d", naira)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s₦%s.%02d", sign, grouped, minor)
}
