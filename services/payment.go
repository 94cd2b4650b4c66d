package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"doc-booking/models"
	"doc-booking/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const Currency = "INR"

var hundred = decimal.NewFromInt(100)

// MinorUnits converts a rupee amount to paise, dropping any fraction of a paisa.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).IntPart()
}

// PaymentOrder is what the checkout page needs to collect a payment.
type PaymentOrder struct {
	AppointmentID uint   `json:"appointment_id"`
	OrderID       string `json:"razorpay_order_id,omitempty"`
	AmountMinor   int64  `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	KeyID         string `json:"razorpay_key_id,omitempty"`
	// Confirmed is set when there is nothing left to pay.
	Confirmed bool `json:"confirmed"`
}

// PaymentCallback is the checkout callback payload.
type PaymentCallback struct {
	AppointmentID uint
	PaymentID     string
	OrderID       string
	Signature     string
}

type PaymentService struct {
	db      *gorm.DB
	gateway payment.Gateway
	mailer  Mailer
	log     zerolog.Logger
}

func NewPaymentService(db *gorm.DB, gateway payment.Gateway, mailer Mailer, log zerolog.Logger) *PaymentService {
	if mailer == nil {
		mailer = NoopMailer{}
	}
	return &PaymentService{db: db, gateway: gateway, mailer: mailer, log: log}
}

// CreatePaymentOrder opens (or reuses) a gateway order for the appointment fee.
func (s *PaymentService) CreatePaymentOrder(ctx context.Context, userID, appointmentID uint) (*PaymentOrder, error) {
	appt, err := findOwnedAppointment(ctx, s.db, userID, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status == models.StatusConfirmed {
		return &PaymentOrder{AppointmentID: appt.ID, Confirmed: true}, nil
	}
	if appt.Status.Terminal() {
		return nil, ErrNotPayable
	}

	if appt.RazorpayOrderID != "" {
		order, err := s.gateway.FetchOrder(ctx, appt.RazorpayOrderID)
		switch {
		case err != nil:
			// Expired or unknown orders are replaced below.
			s.log.Warn().Err(err).Uint("appointment_id", appt.ID).Str("order_id", appt.RazorpayOrderID).Msg("fetch payment order failed")
		case order.Paid():
			if _, err := s.confirm(ctx, appt, "", order.ID); err != nil {
				return nil, err
			}
			return &PaymentOrder{AppointmentID: appt.ID, OrderID: order.ID, Confirmed: true}, nil
		}
	}

	amount := MinorUnits(appt.Fee)
	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		AmountMinor: amount,
		Currency:    Currency,
		Capture:     true,
		Receipt:     "appt_" + strconv.FormatUint(uint64(appt.ID), 10) + "_" + uuid.NewString()[:8],
		Notes: map[string]string{
			"appointment_id": strconv.FormatUint(uint64(appt.ID), 10),
			"doctor_name":    appt.Doctor.Name,
		},
	})
	if err != nil {
		s.log.Error().Err(err).Uint("appointment_id", appt.ID).Msg("create payment order failed")
		return nil, ErrPaymentGateway
	}

	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appt.ID, appt.Status).
		Updates(map[string]interface{}{
			"razorpay_order_id": order.ID,
			"status":            models.StatusPendingPayment,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("store payment order for appointment %d: %w", appt.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotPayable
	}

	s.log.Info().Uint("appointment_id", appt.ID).Str("order_id", order.ID).Int64("amount", amount).Msg("payment order created")
	return &PaymentOrder{
		AppointmentID: appt.ID,
		OrderID:       order.ID,
		AmountMinor:   amount,
		Currency:      Currency,
		KeyID:         s.gateway.KeyID(),
	}, nil
}

// VerifyPayment confirms an appointment from a signed checkout callback. The
// gateway may deliver a callback more than once; repeats are no-op successes.
func (s *PaymentService) VerifyPayment(ctx context.Context, cb PaymentCallback) (*models.Appointment, error) {
	if cb.AppointmentID == 0 || cb.PaymentID == "" || cb.OrderID == "" || cb.Signature == "" {
		return nil, ErrMissingPaymentParams
	}
	if !s.gateway.VerifySignature(cb.OrderID, cb.PaymentID, cb.Signature) {
		s.log.Warn().Uint("appointment_id", cb.AppointmentID).Str("order_id", cb.OrderID).Msg("payment signature mismatch")
		return nil, ErrSignatureMismatch
	}

	var appt models.Appointment
	if err := s.db.WithContext(ctx).Preload("Doctor").First(&appt, cb.AppointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("load appointment %d: %w", cb.AppointmentID, err)
	}
	// A checkout opened before the order was replaced still calls back with
	// the earlier order id, so ownership is settled by the gateway.
	if appt.RazorpayOrderID != cb.OrderID {
		if err := s.checkOrderOwner(ctx, &appt, cb.OrderID); err != nil {
			return nil, err
		}
	}
	if err := s.checkPaymentUnused(ctx, &appt, cb.PaymentID); err != nil {
		return nil, err
	}

	confirmed, err := s.confirm(ctx, &appt, cb.PaymentID, cb.OrderID)
	if err != nil {
		return nil, err
	}
	if confirmed {
		s.notify(ctx, &appt)
	}
	return &appt, nil
}

// checkOrderOwner accepts an order the appointment does not hold only when
// the gateway reports it paid and tagged with the appointment id.
func (s *PaymentService) checkOrderOwner(ctx context.Context, appt *models.Appointment, orderID string) error {
	order, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		s.log.Error().Err(err).Uint("appointment_id", appt.ID).Str("order_id", orderID).Msg("fetch callback order failed")
		return ErrPaymentGateway
	}
	if order.Notes["appointment_id"] != strconv.FormatUint(uint64(appt.ID), 10) || !order.Paid() {
		s.log.Warn().Uint("appointment_id", appt.ID).Str("order_id", orderID).Str("order_status", order.Status).Msg("callback order belongs elsewhere")
		return ErrOrderMismatch
	}
	return nil
}

func (s *PaymentService) checkPaymentUnused(ctx context.Context, appt *models.Appointment, paymentID string) error {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("payment_id = ? AND id <> ?", paymentID, appt.ID).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check payment %s: %w", paymentID, err)
	}
	if n > 0 {
		s.log.Warn().Uint("appointment_id", appt.ID).Str("payment_id", paymentID).Msg("payment already settles another appointment")
		return ErrPaymentReused
	}
	return nil
}

// confirm moves a pending appointment to confirmed. An appointment that is
// already confirmed is left untouched and reported as not changed.
func (s *PaymentService) confirm(ctx context.Context, appt *models.Appointment, paymentID, orderID string) (bool, error) {
	switch appt.Status {
	case models.StatusConfirmed:
		return false, nil
	case models.StatusPendingPayment:
	default:
		return false, ErrNotPayable
	}

	updates := map[string]interface{}{
		"status":            models.StatusConfirmed,
		"razorpay_order_id": orderID,
	}
	if paymentID != "" {
		updates["payment_id"] = paymentID
	}
	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appt.ID, models.StatusPendingPayment).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("confirm appointment %d: %w", appt.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// A concurrent delivery may have won; re-read to find out.
		var current models.Appointment
		if err := s.db.WithContext(ctx).First(&current, appt.ID).Error; err != nil {
			return false, fmt.Errorf("reload appointment %d: %w", appt.ID, err)
		}
		if current.Status == models.StatusConfirmed {
			appt.Status, appt.PaymentID, appt.RazorpayOrderID = current.Status, current.PaymentID, current.RazorpayOrderID
			return false, nil
		}
		return false, ErrNotPayable
	}

	appt.Status = models.StatusConfirmed
	appt.RazorpayOrderID = orderID
	if paymentID != "" {
		appt.PaymentID = paymentID
	}
	s.log.Info().Uint("appointment_id", appt.ID).Str("order_id", orderID).Str("payment_id", paymentID).Msg("appointment confirmed by payment")
	return true, nil
}

// notify mails the owner; failures are logged and never undo the confirmation.
func (s *PaymentService) notify(ctx context.Context, appt *models.Appointment) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "email").First(&user, appt.UserID).Error; err != nil || user.Email == "" {
		return
	}
	body := fmt.Sprintf("Your appointment #%d with Dr. %s on %s at %s is confirmed.\nPayment ID: %s",
		appt.ID, appt.Doctor.Name, appt.AppointmentDate, appt.AppointmentTime, appt.PaymentID)
	if err := s.mailer.Send(ctx, user.Email, "Appointment confirmed", body); err != nil {
		s.log.Warn().Err(err).Uint("appointment_id", appt.ID).Msg("confirmation mail not sent")
	}
}
