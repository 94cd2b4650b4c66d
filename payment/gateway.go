// Package payment talks to the payment gateway that collects consultation fees.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// OrderPaid is the remote status of an order whose payment was captured.
const OrderPaid = "paid"

var ErrMalformedResponse = errors.New("payment: malformed gateway response")

type OrderRequest struct {
	// AmountMinor is the amount in the smallest currency unit (paise for INR).
	AmountMinor int64
	Currency    string
	Capture     bool
	Receipt     string
	Notes       map[string]string
}

type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
	Notes       map[string]string
}

func (o Order) Paid() bool {
	return o.Status == OrderPaid
}

// Gateway is the subset of the gateway API the booking flow relies on.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	FetchOrder(ctx context.Context, orderID string) (Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// Sign computes the checkout callback signature: hex HMAC-SHA256 of
// "<order id>|<payment id>" keyed with the account secret.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time; razorpay-go's utils package
// compares with != and drags its test helpers into the build.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
