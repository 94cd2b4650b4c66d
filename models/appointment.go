package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPendingPayment AppointmentStatus = "pending_payment"
	StatusConfirmed      AppointmentStatus = "confirmed"
	StatusCompleted      AppointmentStatus = "completed"
	StatusCancelled      AppointmentStatus = "cancelled"
)

// ActiveStatuses hold a slot; at most one appointment per slot may be in one of them.
var ActiveStatuses = []AppointmentStatus{StatusConfirmed, StatusPendingPayment}

// Layouts the appointment date and time are stored and accepted in.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

const (
	CancelCutoff  = 2 * time.Hour
	ReceiptWindow = time.Hour
)

// Terminal reports whether no transition leaves s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Label is the upper-case display form used on receipts.
func (s AppointmentStatus) Label() string {
	switch s {
	case StatusPendingPayment:
		return "PENDING PAYMENT"
	case StatusConfirmed:
		return "CONFIRMED"
	case StatusCompleted:
		return "COMPLETED"
	case StatusCancelled:
		return "CANCELLED"
	}
	return string(s)
}

type Appointment struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          uint              `gorm:"not null;index" json:"user_id"`
	DoctorID        uint              `gorm:"not null;index" json:"doctor_id"`
	Doctor          Doctor            `gorm:"constraint:OnDelete:CASCADE" json:"doctor"`
	PatientName     string            `gorm:"size:100;not null" json:"patient_name"`
	AppointmentDate string            `gorm:"size:10;not null" json:"date"`
	AppointmentTime string            `gorm:"size:5;not null" json:"time"`
	Fee             decimal.Decimal   `gorm:"type:decimal(8,2);not null" json:"fee"`
	Notes           string            `gorm:"type:text" json:"notes"`
	Status          AppointmentStatus `gorm:"size:20;not null;default:pending_payment;index" json:"status"`
	RazorpayOrderID string            `gorm:"size:255" json:"razorpay_order_id,omitempty"`
	PaymentID       string            `gorm:"size:255" json:"payment_id,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate copies the doctor's fee when none was set.
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if !a.Fee.IsZero() {
		return nil
	}
	if a.Doctor.ID != 0 {
		a.Fee = a.Doctor.Fee
		return nil
	}
	var doctor Doctor
	if err := tx.Session(&gorm.Session{NewDB: true}).Select("fee").First(&doctor, a.DoctorID).Error; err != nil {
		return err
	}
	a.Fee = doctor.Fee
	return nil
}

// ScheduledAt combines the stored date and time in loc.
func (a Appointment) ScheduledAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, a.AppointmentDate+" "+a.AppointmentTime, loc)
}

// The predicates below interpret the slot in now's location. A slot that
// cannot be parsed is never due, cancellable or downloadable.

// IsDue reports whether now is past the scheduled instant.
func (a Appointment) IsDue(now time.Time) bool {
	at, err := a.ScheduledAt(now.Location())
	if err != nil {
		return false
	}
	return now.After(at)
}

// EffectiveStatus is the status to show at now without persisting anything:
// a confirmed appointment whose time has passed reads as completed.
func (a Appointment) EffectiveStatus(now time.Time) AppointmentStatus {
	if a.Status == StatusConfirmed && a.IsDue(now) {
		return StatusCompleted
	}
	return a.Status
}

// CanCancel holds for confirmed appointments until two hours before the slot, inclusive.
func (a Appointment) CanCancel(now time.Time) bool {
	if a.Status != StatusConfirmed {
		return false
	}
	at, err := a.ScheduledAt(now.Location())
	if err != nil {
		return false
	}
	return !now.After(at.Add(-CancelCutoff))
}

// CanDownloadReceipt holds for confirmed or completed appointments from one
// hour before the slot onwards.
func (a Appointment) CanDownloadReceipt(now time.Time) bool {
	if a.Status != StatusConfirmed && a.Status != StatusCompleted {
		return false
	}
	at, err := a.ScheduledAt(now.Location())
	if err != nil {
		return false
	}
	return !now.Before(at.Add(-ReceiptWindow))
}
