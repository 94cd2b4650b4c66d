package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"doc-booking/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinLeadTime is how far ahead of the slot a booking must be made.
const MinLeadTime = 2 * time.Hour

type BookingRequest struct {
	UserID      uint
	DoctorID    uint
	PatientName string
	Date        string
	Time        string
	Notes       string
	// PayOnline books the slot as pending_payment so the gateway flow can confirm it.
	PayOnline bool
}

type BookingService struct {
	db     *gorm.DB
	locker SlotLocker
	clock  Clock
	log    zerolog.Logger
}

func NewBookingService(db *gorm.DB, locker SlotLocker, clock Clock, log zerolog.Logger) *BookingService {
	if locker == nil {
		locker = NoopSlotLocker{}
	}
	return &BookingService{db: db, locker: locker, clock: clock, log: log}
}

// Book validates the requested slot and stores a new appointment for it.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	name := strings.TrimSpace(req.PatientName)
	if name == "" {
		return nil, ErrPatientNameRequired
	}

	day, err := time.Parse(models.DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, ErrInvalidDateTime
	}
	clock, err := time.Parse(models.TimeLayout, strings.TrimSpace(req.Time))
	if err != nil {
		return nil, ErrInvalidDateTime
	}
	date, hhmm := day.Format(models.DateLayout), clock.Format(models.TimeLayout)

	now := s.clock.now()
	if date < now.Format(models.DateLayout) {
		return nil, ErrPastDate
	}
	scheduled := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if scheduled.Sub(now) < MinLeadTime {
		return nil, ErrTooSoon
	}

	doctor, err := findDoctor(ctx, s.db, req.DoctorID)
	if err != nil {
		return nil, err
	}

	key := SlotKey(doctor.ID, date, hhmm)
	release, err := s.locker.Lock(ctx, key)
	switch {
	case errors.Is(err, ErrSlotBusy):
		return nil, ErrSlotTaken
	case err != nil:
		// The unique slot index still guards the insert.
		s.log.Warn().Err(err).Str("slot", key).Msg("slot lock unavailable")
		release = func() {}
	}
	defer release()

	taken, err := s.slotTaken(ctx, doctor.ID, date, hhmm)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	status := models.StatusConfirmed
	if req.PayOnline {
		status = models.StatusPendingPayment
	}
	appt := &models.Appointment{
		UserID:          req.UserID,
		DoctorID:        doctor.ID,
		PatientName:     name,
		AppointmentDate: date,
		AppointmentTime: hhmm,
		Fee:             doctor.Fee,
		Notes:           req.Notes,
		Status:          status,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(appt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotTaken
		}
		if taken, terr := s.slotTaken(ctx, doctor.ID, date, hhmm); terr == nil && taken {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	appt.Doctor = *doctor

	s.log.Info().
		Uint("appointment_id", appt.ID).
		Uint("doctor_id", doctor.ID).
		Uint("user_id", req.UserID).
		Str("slot", date+" "+hhmm).
		Str("status", string(appt.Status)).
		Msg("appointment booked")
	return appt, nil
}

// slotTaken reports whether a live appointment already holds the slot.
func (s *BookingService) slotTaken(ctx context.Context, doctorID uint, date, hhmm string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status IN ?",
			doctorID, date, hhmm, models.ActiveStatuses).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return count > 0, nil
}
