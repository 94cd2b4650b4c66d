// Package services holds the booking, payment, review and receipt rules.
// Every exported operation either succeeds or returns an error with the
// stored data exactly as it was.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doc-booking/models"

	"gorm.io/gorm"
)

// Clock yields the current instant in the zone slots are interpreted in.
type Clock struct {
	Loc *time.Location
	// Now overrides time.Now, for tests.
	Now func() time.Time
}

func NewClock(loc *time.Location) Clock {
	return Clock{Loc: loc}
}

func (c Clock) now() time.Time {
	loc := c.Loc
	if loc == nil {
		loc = time.Local
	}
	if c.Now != nil {
		return c.Now().In(loc)
	}
	return time.Now().In(loc)
}

func findDoctor(ctx context.Context, db *gorm.DB, id uint) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := db.WithContext(ctx).First(&doctor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor %d: %w", id, err)
	}
	return &doctor, nil
}

// findOwnedAppointment loads an appointment only if it belongs to userID.
func findOwnedAppointment(ctx context.Context, db *gorm.DB, userID, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := db.WithContext(ctx).Preload("Doctor").
		Where("id = ? AND user_id = ?", id, userID).
		First(&appt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("load appointment %d: %w", id, err)
	}
	return &appt, nil
}

// hasConsulted reports whether the user has an appointment with the doctor
// that has taken place, whether or not the completion was persisted yet.
func hasConsulted(ctx context.Context, db *gorm.DB, userID, doctorID uint, now time.Time) (bool, error) {
	var appts []models.Appointment
	err := db.WithContext(ctx).
		Where("user_id = ? AND doctor_id = ? AND status IN ?", userID, doctorID,
			[]models.AppointmentStatus{models.StatusCompleted, models.StatusConfirmed}).
		Find(&appts).Error
	if err != nil {
		return false, fmt.Errorf("load consultations: %w", err)
	}
	for _, a := range appts {
		if a.EffectiveStatus(now) == models.StatusCompleted {
			return true, nil
		}
	}
	return false, nil
}
