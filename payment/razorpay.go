// Package payment creates gateway orders for checkout and verifies the signatures the gateway
// returns after a successful payment.
package payment

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/shopspring/decimal"
)

// ErrInvalidSignature is returned when a payment callback does not carry a valid signature.
var ErrInvalidSignature = errors.New("invalid payment signature")

// Order is the gateway-side order a checkout pays against.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway is the subset of the payment provider used by checkout.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// Razorpay implements Gateway with the Razorpay REST API.
type Razorpay struct {
	client *razorpay.Client
	keyID  string
	secret string
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
		secret: keySecret,
	}
}

// KeyID is the public key the checkout widget is opened with.
func (r *Razorpay) KeyID() string { return r.keyID }

func (r *Razorpay) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (Order, error) {
	if amountPaise <= 0 {
		return Order{}, fmt.Errorf("amount must be positive, got %d", amountPaise)
	}
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	if currency == "" {
		currency = "INR"
	}
	body, err := r.client.Order.Create(map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return Order{}, fmt.Errorf("razorpay order creation failed: %w", err)
	}

	order := Order{Amount: amountPaise, Currency: currency, Receipt: receipt}
	order.ID, _ = body["id"].(string)
	order.Status, _ = body["status"].(string)
	if amount, ok := body["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if order.ID == "" {
		return Order{}, errors.New("razorpay returned an order without id")
	}
	return order, nil
}

// VerifySignature checks the HMAC-SHA256 of "<orderID>|<paymentID>" keyed with the API secret.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, r.secret)
}

// ToPaise converts a rupee amount to the smallest currency unit, rounding half away from zero.
func ToPaise(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}
