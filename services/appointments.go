package services

import (
	"context"
	"fmt"
	"time"

	"doc-booking/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AppointmentView is an appointment as shown to its owner at a given instant.
type AppointmentView struct {
	models.Appointment
	EffectiveStatus    models.AppointmentStatus `json:"effective_status"`
	CanCancel          bool                     `json:"can_cancel"`
	CanDownloadReceipt bool                     `json:"can_download_receipt"`
	HasReviewed        bool                     `json:"has_reviewed"`
}

type AppointmentSummary struct {
	Appointments   []AppointmentView `json:"appointments"`
	UpcomingCount  int               `json:"upcoming_count"`
	CompletedCount int               `json:"completed_count"`
	CancelledCount int               `json:"cancelled_count"`
	Today          string            `json:"today"`
}

type AppointmentService struct {
	db    *gorm.DB
	clock Clock
	log   zerolog.Logger
}

func NewAppointmentService(db *gorm.DB, clock Clock, log zerolog.Logger) *AppointmentService {
	return &AppointmentService{db: db, clock: clock, log: log}
}

// ListForUser returns the user's appointments, latest slot first. Statuses
// are evaluated at read time; nothing is written.
func (s *AppointmentService) ListForUser(ctx context.Context, userID uint) (*AppointmentSummary, error) {
	var appts []models.Appointment
	err := s.db.WithContext(ctx).Preload("Doctor").
		Where("user_id = ?", userID).
		Order("appointment_date DESC, appointment_time DESC").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	reviewed, err := s.reviewedDoctors(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.now()
	summary := &AppointmentSummary{
		Appointments: make([]AppointmentView, 0, len(appts)),
		Today:        now.Format(models.DateLayout),
	}
	for _, a := range appts {
		view := s.view(a, now)
		view.HasReviewed = reviewed[a.DoctorID]
		switch view.EffectiveStatus {
		case models.StatusConfirmed:
			if a.AppointmentDate >= summary.Today {
				summary.UpcomingCount++
			}
		case models.StatusCompleted:
			summary.CompletedCount++
		case models.StatusCancelled:
			summary.CancelledCount++
		}
		summary.Appointments = append(summary.Appointments, view)
	}
	return summary, nil
}

// Get returns one of the user's appointments.
func (s *AppointmentService) Get(ctx context.Context, userID, id uint) (*AppointmentView, error) {
	appt, err := findOwnedAppointment(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}
	reviewed, err := s.reviewedDoctors(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := s.view(*appt, s.clock.now())
	view.HasReviewed = reviewed[appt.DoctorID]
	return &view, nil
}

func (s *AppointmentService) view(a models.Appointment, now time.Time) AppointmentView {
	return AppointmentView{
		Appointment:        a,
		EffectiveStatus:    a.EffectiveStatus(now),
		CanCancel:          a.CanCancel(now),
		CanDownloadReceipt: a.CanDownloadReceipt(now),
	}
}

func (s *AppointmentService) reviewedDoctors(ctx context.Context, userID uint) (map[uint]bool, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("user_id = ?", userID).
		Pluck("doctor_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load reviewed doctors: %w", err)
	}
	reviewed := make(map[uint]bool, len(ids))
	for _, id := range ids {
		reviewed[id] = true
	}
	return reviewed, nil
}

// Cancel cancels a confirmed appointment up to two hours before its slot, or
// an appointment still awaiting payment at any time.
func (s *AppointmentService) Cancel(ctx context.Context, userID, id uint) (*models.Appointment, error) {
	appt, err := findOwnedAppointment(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.now()
	from := appt.Status
	switch {
	case appt.CanCancel(now):
	case appt.Status == models.StatusPendingPayment:
	default:
		return nil, ErrCannotCancel
	}

	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appt.ID, from).
		Update("status", models.StatusCancelled)
	if res.Error != nil {
		return nil, fmt.Errorf("cancel appointment %d: %w", appt.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Status moved underneath us, e.g. a payment confirmation.
		return nil, ErrCannotCancel
	}
	appt.Status = models.StatusCancelled

	s.log.Info().Uint("appointment_id", appt.ID).Str("from", string(from)).Msg("appointment cancelled")
	return appt, nil
}

// MarkCompletedIfDue persists the completion of a confirmed appointment whose
// slot has passed. It reports whether this call made the change.
func (s *AppointmentService) MarkCompletedIfDue(ctx context.Context, appt *models.Appointment) (bool, error) {
	if appt.Status != models.StatusConfirmed || !appt.IsDue(s.clock.now()) {
		return false, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appt.ID, models.StatusConfirmed).
		Update("status", models.StatusCompleted)
	if res.Error != nil {
		return false, fmt.Errorf("complete appointment %d: %w", appt.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	appt.Status = models.StatusCompleted
	return true, nil
}

// CompleteDue sweeps every confirmed appointment whose slot has passed.
func (s *AppointmentService) CompleteDue(ctx context.Context) (int, error) {
	now := s.clock.now()
	var appts []models.Appointment
	err := s.db.WithContext(ctx).
		Where("status = ? AND appointment_date <= ?", models.StatusConfirmed, now.Format(models.DateLayout)).
		Find(&appts).Error
	if err != nil {
		return 0, fmt.Errorf("load due appointments: %w", err)
	}

	completed := 0
	for i := range appts {
		done, err := s.MarkCompletedIfDue(ctx, &appts[i])
		if err != nil {
			return completed, err
		}
		if done {
			completed++
		}
	}
	if completed > 0 {
		s.log.Info().Int("completed", completed).Msg("completed past appointments")
	}
	return completed, nil
}
