// Package email provides email templates.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"
)

// OrderInfo carries everything the order email templates render. Monetary
// values arrive pre-formatted as display strings.
type OrderInfo struct {
	OrderNumber         string
	CustomerName        string
	CustomerEmail       string
	ShopName            string
	ShopURL             string
	OrderDate           string
	Items               []OrderItem
	Subtotal            string
	Shipping            string
	Tax                 string
	LoyaltyDiscount     string
	Total               string
	PaymentMethod       string
	LoyaltyPointsEarned int
	FailureReason       string
	TrackingNumber      string
	ShippingAddress     string
}

// OrderItem represents a single item in an order
type OrderItem struct {
	Name       string
	Quantity   int
	UnitPrice  string
	TotalPrice string
	Options    string
}

// EmailTemplate defines a named email template
type EmailTemplate struct {
	Name string
	HTML string
	Text string
}

// Renderer provides methods to render email templates
type Renderer struct {
	templates *template.Template
}

// NewRenderer creates a new email template renderer with built-in templates
func NewRenderer() (*Renderer, error) {
	templates := map[string]EmailTemplate{
		"payment_confirmation": {
			Name: "Payment Confirmation",
			HTML: paymentConfirmationHTML,
			Text: paymentConfirmationText,
		},
		"payment_failed": {
			Name: "Payment Failed",
			HTML: paymentFailedHTML,
			Text: paymentFailedText,
		},
		"order_shipped": {
			Name: "Order Shipped",
			HTML: orderShippedHTML,
			Text: orderShippedText,
		},
	}

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
	}

	tmpl := template.New("email").Funcs(funcMap)

	for key, t := range templates {
		_, err := tmpl.New(key + "_html").Parse(t.HTML)
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML template %s: %w", key, err)
		}
		_, err = tmpl.New(key + "_text").Parse(t.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", key, err)
		}
	}

	return &Renderer{
		templates: tmpl,
	}, nil
}

// Render renders an email template with the given data
func (r *Renderer) Render(ctx context.Context, templateName string, data *OrderInfo) (*Email, error) {
	var htmlBuf, textBuf bytes.Buffer

	err := r.templates.ExecuteTemplate(&htmlBuf, templateName+"_html", data)
	if err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	err = r.templates.ExecuteTemplate(&textBuf, templateName+"_text", data)
	if err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}

	subject := ""
	switch templateName {
	case "payment_confirmation":
		subject = fmt.Sprintf("Payment Received - %s - %s", data.OrderNumber, data.ShopName)
	case "payment_failed":
		subject = fmt.Sprintf("Payment Failed - %s - %s", data.OrderNumber, data.ShopName)
	case "order_shipped":
		subject = fmt.Sprintf("Your Order Has Shipped - %s - %s", data.OrderNumber, data.ShopName)
	}

	return &Email{
		To:      data.CustomerEmail,
		Subject: subject,
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}

// SendPaymentConfirmation sends the payment received email
func SendPaymentConfirmation(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	if p == nil {
		return nil
	}

	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	email, err := renderer.Render(ctx, "payment_confirmation", orderInfo)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return p.SendEmail(ctx, email)
}

// SendPaymentFailed sends the payment failed email
func SendPaymentFailed(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	if p == nil {
		return nil
	}

	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	email, err := renderer.Render(ctx, "payment_failed", orderInfo)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return p.SendEmail(ctx, email)
}

// SendOrderShipped sends the order shipped email
func SendOrderShipped(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	if p == nil {
		return nil
	}

	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	email, err := renderer.Render(ctx, "order_shipped", orderInfo)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return p.SendEmail(ctx, email)
}

// Template text content - Payment Confirmation
const paymentConfirmationText = `Your payment has been received!

Order Number: {{.OrderNumber}}
Order Date: {{.OrderDate}}
{{if .PaymentMethod}}Payment Method: {{.PaymentMethod}}{{end}}

Items:
{{range .Items}}
- {{.Name}}{{if .Options}} ({{.Options}}){{end}} x{{.Quantity}} - {{.TotalPrice}}
{{end}}

Subtotal: {{.Subtotal}}
Shipping: {{.Shipping}}
Tax: {{.Tax}}
{{if .LoyaltyDiscount}}Loyalty Discount: -{{.LoyaltyDiscount}}{{end}}
Total Paid: {{.Total}}

{{if .LoyaltyPointsEarned}}You earned {{.LoyaltyPointsEarned}} loyalty points on this order.{{end}}

We'll send you another email when your order ships.

Thank you for shopping with {{.ShopName}}!
{{.ShopURL}}
`

// Template HTML content - Payment Confirmation
const paymentConfirmationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Payment Confirmation</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #16a34a; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .order-info { background: white; padding: 15px; border-radius: 6px; margin: 15px 0; }
    .items-table { width: 100%; border-collapse: collapse; margin: 15px 0; }
    .items-table th { text-align: left; padding: 10px; background: #f3f4f6; border-bottom: 2px solid #e5e7eb; }
    .items-table td { padding: 10px; border-bottom: 1px solid #e5e7eb; }
    .total { font-size: 18px; font-weight: bold; text-align: right; padding: 15px 0; }
    .points { background: #fef9c3; padding: 12px; border-radius: 6px; margin: 15px 0; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Payment Received!</h1>
    <p>Thank you for your order, {{.CustomerName}}</p>
  </div>
  <div class="content">
    <div class="order-info">
      <strong>Order Number:</strong> {{.OrderNumber}}<br>
      <strong>Order Date:</strong> {{.OrderDate}}{{if .PaymentMethod}}<br>
      <strong>Payment Method:</strong> {{.PaymentMethod}}{{end}}
    </div>

    <h3>Order Summary</h3>
    <table class="items-table">
      <thead>
        <tr>
          <th>Item</th>
          <th>Qty</th>
          <th>Price</th>
        </tr>
      </thead>
      <tbody>
        {{range .Items}}
        <tr>
          <td>{{.Name}}{{if .Options}} <br><small>{{.Options}}</small>{{end}}</td>
          <td>{{.Quantity}}</td>
          <td>{{.TotalPrice}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="total">
      <p>Subtotal: {{.Subtotal}}</p>
      <p>Shipping: {{.Shipping}}</p>
      <p>Tax: {{.Tax}}</p>
      {{if .LoyaltyDiscount}}<p>Loyalty Discount: -{{.LoyaltyDiscount}}</p>{{end}}
      <p>Total Paid: {{.Total}}</p>
    </div>

    {{if .LoyaltyPointsEarned}}<div class="points">You earned <strong>{{.LoyaltyPointsEarned}} loyalty points</strong> on this order.</div>{{end}}

    <p>We'll send you another email when your order ships.</p>
  </div>
  <div class="footer">
    <p>Thank you for shopping with <a href="{{.ShopURL}}">{{.ShopName}}</a></p>
  </div>
</body>
</html>
`

// Template text content - Payment Failed
const paymentFailedText = `We couldn't process your payment.

Order Number: {{.OrderNumber}}
Order Date: {{.OrderDate}}
{{if .FailureReason}}Reason: {{.FailureReason}}{{end}}

Order Total: {{.Total}}

No money has left your account for this order. You can retry the payment
from your order page, or contact us if you keep running into trouble.

{{.ShopName}}
{{.ShopURL}}
`

// Template HTML content - Payment Failed
const paymentFailedHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Payment Failed</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #dc2626; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .reason { background: #fef2f2; padding: 15px; border-radius: 6px; margin: 15px 0; border-left: 4px solid #dc2626; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Payment Failed</h1>
    <p>Sorry, {{.CustomerName}}, we couldn't process your payment.</p>
  </div>
  <div class="content">
    <p><strong>Order Number:</strong> {{.OrderNumber}}</p>
    <p><strong>Order Total:</strong> {{.Total}}</p>

    {{if .FailureReason}}
    <div class="reason">
      <strong>Reason:</strong> {{.FailureReason}}
    </div>
    {{end}}

    <p>No money has left your account for this order. You can retry the payment from your order page, or contact us if you keep running into trouble.</p>
  </div>
  <div class="footer">
    <p><a href="{{.ShopURL}}">{{.ShopName}}</a></p>
  </div>
</body>
</html>
`

// Template text content - Order Shipped
const orderShippedText = `Great news! Your order has shipped!

Order Number: {{.OrderNumber}}
Shipped Date: {{.OrderDate}}

{{if .TrackingNumber}}
Tracking Number: {{.TrackingNumber}}
{{end}}

Shipping Address:
{{.ShippingAddress}}

We'll let you know when your package is delivered!

Thank you for shopping with {{.ShopName}}!
{{.ShopURL}}
`

// Template HTML content - Order Shipped
const orderShippedHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Order Shipped</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #059669; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .tracking { background: white; padding: 20px; border-radius: 6px; margin: 15px 0; border-left: 4px solid #059669; }
    .tracking-number { font-size: 24px; font-weight: bold; color: #059669; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Your Order Has Shipped!</h1>
    <p>Great news, {{.CustomerName}}! Your order is on its way.</p>
  </div>
  <div class="content">
    <p><strong>Order Number:</strong> {{.OrderNumber}}</p>
    <p><strong>Shipped Date:</strong> {{.OrderDate}}</p>

    {{if .TrackingNumber}}
    <div class="tracking">
      <p><strong>Tracking Number</strong></p>
      <p class="tracking-number">{{.TrackingNumber}}</p>
    </div>
    {{end}}

    <h3>Shipping Address</h3>
    <p>{{.ShippingAddress}}</p>

    <p>We'll let you know when your package is delivered!</p>
  </div>
  <div class="footer">
    <p>Thank you for shopping with <a href="{{.ShopURL}}">{{.ShopName}}</a></p>
  </div>
</body>
</html>
`
