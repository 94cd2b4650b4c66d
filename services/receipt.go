package services

import (
	"context"
	"fmt"

	"doc-booking/models"
	"doc-booking/receipt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Receipt is a rendered document ready to be sent as an attachment.
type Receipt struct {
	Filename    string
	ContentType string
	Body        []byte
}

type ReceiptService struct {
	db       *gorm.DB
	renderer receipt.Renderer
	clock    Clock
	log      zerolog.Logger
}

func NewReceiptService(db *gorm.DB, renderer receipt.Renderer, clock Clock, log zerolog.Logger) *ReceiptService {
	if renderer == nil {
		renderer = receipt.PDF{}
	}
	return &ReceiptService{db: db, renderer: renderer, clock: clock, log: log}
}

// Download renders the receipt of the user's appointment once it may be downloaded.
func (s *ReceiptService) Download(ctx context.Context, userID, appointmentID uint) (*Receipt, error) {
	appt, err := findOwnedAppointment(ctx, s.db, userID, appointmentID)
	if err != nil {
		return nil, err
	}
	now := s.clock.now()
	if !appt.CanDownloadReceipt(now) {
		return nil, ErrTooEarlyReceipt
	}

	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "email").First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	data := receipt.Data{
		AppointmentID:  appt.ID,
		IssuedAt:       now,
		Status:         appt.EffectiveStatus(now).Label(),
		PatientName:    appt.PatientName,
		PatientEmail:   user.Email,
		Date:           appt.AppointmentDate,
		Time:           appt.AppointmentTime,
		DoctorName:     appt.Doctor.Name,
		Specialization: appt.Doctor.Specialization.DisplayName(),
		Hospital:       appt.Doctor.Hospital,
		Address:        appt.Doctor.Address,
		Experience:     appt.Doctor.Experience,
		Fee:            "INR " + appt.Fee.StringFixed(2),
		PaymentID:      appt.PaymentID,
		OrderID:        appt.RazorpayOrderID,
	}
	if at, err := appt.ScheduledAt(now.Location()); err == nil {
		data.Time = at.Format("03:04 PM")
	}

	body, err := s.renderer.Render(data)
	if err != nil {
		s.log.Error().Err(err).Uint("appointment_id", appt.ID).Msg("receipt rendering failed")
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return &Receipt{
		Filename:    receipt.Filename(appt.ID),
		ContentType: receipt.ContentType,
		Body:        body,
	}, nil
}
