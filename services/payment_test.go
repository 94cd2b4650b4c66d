package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"doc-booking/models"
	"doc-booking/payment"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	svc     *PaymentService
	gateway *fakeGateway
	mailer  *fakeMailer
	user    *models.User
	doctor  *models.Doctor
}

func newPaymentFixture(t *testing.T) (*paymentFixture, func(status models.AppointmentStatus) *models.Appointment) {
	t.Helper()
	db := newTestDB(t)
	f := &paymentFixture{
		gateway: newFakeGateway(),
		mailer:  &fakeMailer{},
		user:    seedUser(t, db, "asha"),
		doctor:  seedDoctor(t, db, "Dr. Rao", models.Cardiology, "499.50"),
	}
	f.svc = NewPaymentService(db, f.gateway, f.mailer, zerolog.Nop())
	hour := 9
	return f, func(status models.AppointmentStatus) *models.Appointment {
		hour++
		return seedAppointment(t, db, f.user.ID, f.doctor.ID, "2026-03-11", slotHour(hour), status)
	}
}

func slotHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

func TestMinorUnits(t *testing.T) {
	assert.EqualValues(t, 49950, MinorUnits(decimal.RequireFromString("499.50")))
	assert.EqualValues(t, 50000, MinorUnits(decimal.NewFromInt(500)))
	assert.EqualValues(t, 0, MinorUnits(decimal.Zero))
}

func TestCreatePaymentOrder(t *testing.T) {
	f, book := newPaymentFixture(t)
	ctx := context.Background()
	a := book(models.StatusPendingPayment)

	order, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, order.Confirmed)
	assert.Equal(t, "order_1", order.OrderID)
	assert.EqualValues(t, 49950, order.AmountMinor)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "rzp_test_key", order.KeyID)

	require.Len(t, f.gateway.created, 1)
	req := f.gateway.created[0]
	assert.True(t, req.Capture)
	assert.Contains(t, req.Receipt, "appt_")
	assert.Equal(t, "Dr. Rao", req.Notes["doctor_name"])

	stored := reload(t, f.svc.db, a.ID)
	assert.Equal(t, "order_1", stored.RazorpayOrderID)
	assert.Equal(t, models.StatusPendingPayment, stored.Status)
}

func TestCreatePaymentOrderAlreadyPaid(t *testing.T) {
	f, book := newPaymentFixture(t)
	ctx := context.Background()

	confirmed := book(models.StatusConfirmed)
	order, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, confirmed.ID)
	require.NoError(t, err)
	assert.True(t, order.Confirmed)
	assert.Empty(t, f.gateway.created)

	// An order paid at the gateway but never called back confirms on reuse.
	pending := book(models.StatusPendingPayment)
	first, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, pending.ID)
	require.NoError(t, err)
	f.gateway.markPaid(first.OrderID)

	again, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, pending.ID)
	require.NoError(t, err)
	assert.True(t, again.Confirmed)
	assert.Equal(t, models.StatusConfirmed, reload(t, f.svc.db, pending.ID).Status)
	assert.Len(t, f.gateway.created, 1)
}

func TestCreatePaymentOrderRejectsTerminal(t *testing.T) {
	f, book := newPaymentFixture(t)
	for _, s := range []models.AppointmentStatus{models.StatusCancelled, models.StatusCompleted} {
		a := book(s)
		_, err := f.svc.CreatePaymentOrder(context.Background(), f.user.ID, a.ID)
		assert.ErrorIs(t, err, ErrNotPayable, s)
	}
	assert.Empty(t, f.gateway.created)
}

func TestCreatePaymentOrderGatewayFailure(t *testing.T) {
	f, book := newPaymentFixture(t)
	f.gateway.createErr = errors.New("connection reset")
	a := book(models.StatusPendingPayment)

	_, err := f.svc.CreatePaymentOrder(context.Background(), f.user.ID, a.ID)
	assert.ErrorIs(t, err, ErrPaymentGateway)
	assert.Equal(t, KindExternal, KindOf(err))

	stored := reload(t, f.svc.db, a.ID)
	assert.Empty(t, stored.RazorpayOrderID)
	assert.Equal(t, models.StatusPendingPayment, stored.Status)
}

func TestVerifyPayment(t *testing.T) {
	f, book := newPaymentFixture(t)
	ctx := context.Background()
	a := book(models.StatusPendingPayment)
	order, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, a.ID)
	require.NoError(t, err)

	cb := PaymentCallback{
		AppointmentID: a.ID,
		OrderID:       order.OrderID,
		PaymentID:     "pay_1",
		Signature:     payment.Sign(order.OrderID, "pay_1", testSecret),
	}
	got, err := f.svc.VerifyPayment(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, "pay_1", got.PaymentID)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "asha@example.com", f.mailer.sent[0].To)

	// A replayed callback succeeds without touching the record.
	before := reload(t, f.svc.db, a.ID)
	again, err := f.svc.VerifyPayment(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, again.Status)
	after := reload(t, f.svc.db, a.ID)
	assert.Equal(t, before.PaymentID, after.PaymentID)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Len(t, f.mailer.sent, 1, "no second confirmation mail")
}

func TestVerifyPaymentRejections(t *testing.T) {
	f, book := newPaymentFixture(t)
	ctx := context.Background()
	a := book(models.StatusPendingPayment)
	order, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, a.ID)
	require.NoError(t, err)
	other, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, book(models.StatusPendingPayment).ID)
	require.NoError(t, err)
	f.gateway.markPaid(other.OrderID)
	sign := func(orderID, paymentID string) string { return payment.Sign(orderID, paymentID, testSecret) }

	tests := []struct {
		name string
		cb   PaymentCallback
		want error
	}{
		{"missing payment id", PaymentCallback{AppointmentID: a.ID, OrderID: order.OrderID, Signature: "x"}, ErrMissingPaymentParams},
		{"missing appointment", PaymentCallback{OrderID: order.OrderID, PaymentID: "pay_1", Signature: "x"}, ErrMissingPaymentParams},
		{"tampered signature", PaymentCallback{AppointmentID: a.ID, OrderID: order.OrderID, PaymentID: "pay_1", Signature: sign(order.OrderID, "pay_2")}, ErrSignatureMismatch},
		{"wrong secret", PaymentCallback{AppointmentID: a.ID, OrderID: order.OrderID, PaymentID: "pay_1", Signature: payment.Sign(order.OrderID, "pay_1", "other")}, ErrSignatureMismatch},
		{"unknown appointment", PaymentCallback{AppointmentID: 999, OrderID: order.OrderID, PaymentID: "pay_1", Signature: sign(order.OrderID, "pay_1")}, ErrAppointmentNotFound},
		{"foreign order", PaymentCallback{AppointmentID: a.ID, OrderID: other.OrderID, PaymentID: "pay_1", Signature: sign(other.OrderID, "pay_1")}, ErrOrderMismatch},
		{"unknown order", PaymentCallback{AppointmentID: a.ID, OrderID: "order_x", PaymentID: "pay_1", Signature: sign("order_x", "pay_1")}, ErrPaymentGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.VerifyPayment(ctx, tt.cb)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	stored := reload(t, f.svc.db, a.ID)
	assert.Equal(t, models.StatusPendingPayment, stored.Status)
	assert.Empty(t, stored.PaymentID)
	assert.Empty(t, f.mailer.sent)
}

func TestVerifyPaymentCancelledAppointment(t *testing.T) {
	f, book := newPaymentFixture(t)
	ctx := context.Background()
	a := book(models.StatusPendingPayment)
	order, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, a.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.db.Model(&models.Appointment{}).Where("id = ?", a.ID).
		Update("status", models.StatusCancelled).Error)

	_, err = f.svc.VerifyPayment(ctx, PaymentCallback{
		AppointmentID: a.ID, OrderID: order.OrderID, PaymentID: "pay_9", Signature: payment.Sign(order.OrderID, "pay_9", testSecret),
	})
	assert.ErrorIs(t, err, ErrNotPayable)
	assert.Equal(t, models.StatusCancelled, reload(t, f.svc.db, a.ID).Status)
}

func TestVerifyPaymentForReplacedOrder(t *testing.T) {
	f, book := newPaymentFixture(t)
	ctx := context.Background()
	a := book(models.StatusPendingPayment)
	first, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, a.ID)
	require.NoError(t, err)
	second, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, a.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.OrderID, second.OrderID)
	assert.Equal(t, second.OrderID, reload(t, f.svc.db, a.ID).RazorpayOrderID)

	cb := PaymentCallback{
		AppointmentID: a.ID, OrderID: first.OrderID, PaymentID: "pay_1", Signature: payment.Sign(first.OrderID, "pay_1", testSecret),
	}
	// Not yet captured at the gateway.
	_, err = f.svc.VerifyPayment(ctx, cb)
	assert.ErrorIs(t, err, ErrOrderMismatch)

	f.gateway.markPaid(first.OrderID)
	got, err := f.svc.VerifyPayment(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	stored := reload(t, f.svc.db, a.ID)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	assert.Equal(t, first.OrderID, stored.RazorpayOrderID)
	assert.Equal(t, "pay_1", stored.PaymentID)
	assert.Len(t, f.mailer.sent, 1)
}

func TestVerifyPaymentRejectsCallbackFromAnotherAppointment(t *testing.T) {
	f, book := newPaymentFixture(t)
	ctx := context.Background()
	a := book(models.StatusPendingPayment)
	// b never had an order issued.
	b := book(models.StatusPendingPayment)

	order, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, a.ID)
	require.NoError(t, err)
	f.gateway.markPaid(order.OrderID)
	cb := PaymentCallback{
		AppointmentID: a.ID, OrderID: order.OrderID, PaymentID: "pay_a", Signature: payment.Sign(order.OrderID, "pay_a", testSecret),
	}
	_, err = f.svc.VerifyPayment(ctx, cb)
	require.NoError(t, err)

	cb.AppointmentID = b.ID
	_, err = f.svc.VerifyPayment(ctx, cb)
	assert.ErrorIs(t, err, ErrOrderMismatch)
	assert.Equal(t, KindConflict, KindOf(err))

	stored := reload(t, f.svc.db, b.ID)
	assert.Equal(t, models.StatusPendingPayment, stored.Status)
	assert.Empty(t, stored.PaymentID)
	assert.Len(t, f.mailer.sent, 1)
}

func TestVerifyPaymentRejectsReusedPaymentID(t *testing.T) {
	f, book := newPaymentFixture(t)
	ctx := context.Background()
	a := book(models.StatusPendingPayment)
	b := book(models.StatusPendingPayment)
	orderA, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, a.ID)
	require.NoError(t, err)
	orderB, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, b.ID)
	require.NoError(t, err)

	_, err = f.svc.VerifyPayment(ctx, PaymentCallback{
		AppointmentID: a.ID, OrderID: orderA.OrderID, PaymentID: "pay_1", Signature: payment.Sign(orderA.OrderID, "pay_1", testSecret),
	})
	require.NoError(t, err)

	_, err = f.svc.VerifyPayment(ctx, PaymentCallback{
		AppointmentID: b.ID, OrderID: orderB.OrderID, PaymentID: "pay_1", Signature: payment.Sign(orderB.OrderID, "pay_1", testSecret),
	})
	assert.ErrorIs(t, err, ErrPaymentReused)
	assert.Equal(t, models.StatusPendingPayment, reload(t, f.svc.db, b.ID).Status)
}

func TestVerifyPaymentMailFailureKeepsConfirmation(t *testing.T) {
	f, book := newPaymentFixture(t)
	f.mailer.err = errors.New("smtp down")
	ctx := context.Background()
	a := book(models.StatusPendingPayment)
	order, err := f.svc.CreatePaymentOrder(ctx, f.user.ID, a.ID)
	require.NoError(t, err)

	_, err = f.svc.VerifyPayment(ctx, PaymentCallback{
		AppointmentID: a.ID, OrderID: order.OrderID, PaymentID: "pay_1", Signature: payment.Sign(order.OrderID, "pay_1", testSecret),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, reload(t, f.svc.db, a.ID).Status)
}
