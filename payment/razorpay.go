package payment

import (
	"context"
	"fmt"

	"github.com/razorpay/razorpay-go"
)

// Razorpay implements Gateway with the official client.
type Razorpay struct {
	client *razorpay.Client
	keyID  string
	secret string
}

func NewRazorpay(keyID, secret string) *Razorpay {
	return &Razorpay{
		client: razorpay.NewClient(keyID, secret),
		keyID:  keyID,
		secret: secret,
	}
}

func (r *Razorpay) KeyID() string { return r.keyID }

func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	capture := 0
	if req.Capture {
		capture = 1
	}
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":          req.AmountMinor,
		"currency":        req.Currency,
		"payment_capture": capture,
		"receipt":         req.Receipt,
		"notes":           notes,
	}

	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		return Order{}, fmt.Errorf("razorpay create order: %w", err)
	}
	return decodeOrder(body)
}

func (r *Razorpay) FetchOrder(ctx context.Context, orderID string) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	body, err := r.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return Order{}, fmt.Errorf("razorpay fetch order %s: %w", orderID, err)
	}
	return decodeOrder(body)
}

func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, r.secret)
}

func decodeOrder(body map[string]interface{}) (Order, error) {
	id, ok := body["id"].(string)
	if !ok || id == "" {
		return Order{}, ErrMalformedResponse
	}
	order := Order{ID: id}
	order.Status, _ = body["status"].(string)
	order.Currency, _ = body["currency"].(string)
	// An order without notes comes back as an empty JSON array.
	if notes, ok := body["notes"].(map[string]interface{}); ok {
		order.Notes = make(map[string]string, len(notes))
		for k, v := range notes {
			if s, ok := v.(string); ok {
				order.Notes[k] = s
			}
		}
	}
	// The client decodes JSON numbers as float64.
	switch amount := body["amount"].(type) {
	case float64:
		order.AmountMinor = int64(amount)
	case int64:
		order.AmountMinor = amount
	case int:
		order.AmountMinor = int64(amount)
	}
	return order, nil
}
