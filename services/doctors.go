package services

import (
	"context"
	"fmt"
	"strings"

	"doc-booking/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	featuredLimit      = 3
	recentReviewsLimit = 3
)

// DoctorInput is the administrator's view of an editable doctor record.
type DoctorInput struct {
	Name           string                `json:"name" validate:"required,max=100"`
	Specialization models.Specialization `json:"specialization" validate:"omitempty,specialization"`
	Experience     int                   `json:"experience" validate:"gte=0"`
	Hospital       string                `json:"hospital" validate:"max=200"`
	Address        string                `json:"address"`
	City           string                `json:"city" validate:"max=100"`
	Fee            decimal.Decimal       `json:"fee"`
	Description    string                `json:"description"`
	IsAvailable    *bool                 `json:"is_available"`
}

type DoctorDetail struct {
	models.Doctor
	DisplayFee         string          `json:"display_fee"`
	SpecializationName string          `json:"specialization_name"`
	RecentReviews      []models.Review `json:"recent_reviews"`
	HasConsulted       bool            `json:"has_consulted"`
}

type BookingStats struct {
	Total          int64 `json:"total_bookings"`
	PendingPayment int64 `json:"pending_payment_bookings"`
	Confirmed      int64 `json:"confirmed_bookings"`
	Completed      int64 `json:"completed_bookings"`
	Cancelled      int64 `json:"cancelled_bookings"`
}

type DoctorBookings struct {
	DoctorID     uint            `json:"doctor_id"`
	Name         string          `json:"name"`
	BookingCount int64           `json:"booking_count"`
	Revenue      decimal.Decimal `json:"total_revenue"`
}

type DoctorService struct {
	db       *gorm.DB
	reviews  *ReviewService
	clock    Clock
	validate *validator.Validate
	log      zerolog.Logger
}

func NewDoctorService(db *gorm.DB, reviews *ReviewService, clock Clock, log zerolog.Logger) *DoctorService {
	v := validator.New()
	_ = v.RegisterValidation("specialization", func(fl validator.FieldLevel) bool {
		return models.Specialization(fl.Field().String()).Valid()
	})
	return &DoctorService{db: db, reviews: reviews, clock: clock, validate: v, log: log}
}

// List returns doctors by name, optionally of one specialization.
func (s *DoctorService) List(ctx context.Context, specialization string) ([]models.Doctor, error) {
	q := s.db.WithContext(ctx).Order("name")
	if specialization != "" {
		q = q.Where("specialization = ?", specialization)
	}
	var doctors []models.Doctor
	if err := q.Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// Featured picks the best rated available doctors, preferring the
// specializations the user has booked before. userID 0 is an anonymous visitor.
func (s *DoctorService) Featured(ctx context.Context, userID uint) ([]models.Doctor, error) {
	var specs []string
	if userID != 0 {
		err := s.db.WithContext(ctx).Model(&models.Appointment{}).
			Joins("JOIN doctors ON doctors.id = appointments.doctor_id").
			Where("appointments.user_id = ?", userID).
			Distinct().
			Pluck("doctors.specialization", &specs).Error
		if err != nil {
			return nil, fmt.Errorf("load booked specializations: %w", err)
		}
	}

	q := s.db.WithContext(ctx).Where("is_available = ?", true)
	if len(specs) > 0 {
		q = q.Where("specialization IN ?", specs)
	}
	var doctors []models.Doctor
	if err := q.Order("rating DESC, experience DESC").Limit(featuredLimit).Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("list featured doctors: %w", err)
	}
	return doctors, nil
}

// Search matches the query against name, specialization, hospital, city and
// address, case-insensitively. An empty query returns every doctor.
func (s *DoctorService) Search(ctx context.Context, query string) ([]models.Doctor, error) {
	q := s.db.WithContext(ctx).Order("name")
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(specialization) LIKE ? OR LOWER(hospital) LIKE ? OR LOWER(city) LIKE ? OR LOWER(address) LIKE ?",
			like, like, like, like, like)
	}
	var doctors []models.Doctor
	if err := q.Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}
	return doctors, nil
}

// Detail returns a doctor's page; userID 0 is an anonymous visitor.
func (s *DoctorService) Detail(ctx context.Context, id, userID uint) (*DoctorDetail, error) {
	doctor, err := findDoctor(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	recent, err := s.reviews.recent(ctx, id, recentReviewsLimit)
	if err != nil {
		return nil, err
	}
	detail := &DoctorDetail{
		Doctor:             *doctor,
		DisplayFee:         doctor.DisplayFee(),
		SpecializationName: doctor.Specialization.DisplayName(),
		RecentReviews:      recent,
	}
	if userID != 0 {
		if detail.HasConsulted, err = hasConsulted(ctx, s.db, userID, id, s.clock.now()); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (s *DoctorService) check(in *DoctorInput) error {
	if err := s.validate.Struct(in); err != nil {
		return &Error{Kind: KindValidation, Message: ErrInvalidDoctor.Message + ": " + err.Error()}
	}
	if in.Fee.IsNegative() {
		return &Error{Kind: KindValidation, Message: ErrInvalidDoctor.Message + ": fee must not be negative"}
	}
	if in.Specialization == "" {
		in.Specialization = models.General
	}
	return nil
}

// Create adds a doctor; doctors are available unless stated otherwise.
func (s *DoctorService) Create(ctx context.Context, in DoctorInput) (*models.Doctor, error) {
	if err := s.check(&in); err != nil {
		return nil, err
	}
	doctor := &models.Doctor{
		Name:           in.Name,
		Specialization: in.Specialization,
		Experience:     in.Experience,
		Hospital:       in.Hospital,
		Address:        in.Address,
		City:           in.City,
		Fee:            in.Fee,
		Description:    in.Description,
		IsAvailable:    in.IsAvailable == nil || *in.IsAvailable,
	}
	if err := s.db.WithContext(ctx).Create(doctor).Error; err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	s.log.Info().Uint("doctor_id", doctor.ID).Str("name", doctor.Name).Msg("doctor created")
	return doctor, nil
}

// Update replaces the editable fields of a doctor. Ratings are derived and
// existing appointments keep the fee they were booked with.
func (s *DoctorService) Update(ctx context.Context, id uint, in DoctorInput) (*models.Doctor, error) {
	if err := s.check(&in); err != nil {
		return nil, err
	}
	doctor, err := findDoctor(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"name":           in.Name,
		"specialization": in.Specialization,
		"experience":     in.Experience,
		"hospital":       in.Hospital,
		"address":        in.Address,
		"city":           in.City,
		"fee":            in.Fee,
		"description":    in.Description,
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}
	if err := s.db.WithContext(ctx).Model(doctor).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update doctor %d: %w", id, err)
	}
	return findDoctor(ctx, s.db, id)
}

// Stats counts bookings per status.
func (s *DoctorService) Stats(ctx context.Context) (*BookingStats, error) {
	var rows []struct {
		Status models.AppointmentStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	stats := &BookingStats{}
	for _, r := range rows {
		stats.Total += r.Count
		switch r.Status {
		case models.StatusPendingPayment:
			stats.PendingPayment = r.Count
		case models.StatusConfirmed:
			stats.Confirmed = r.Count
		case models.StatusCompleted:
			stats.Completed = r.Count
		case models.StatusCancelled:
			stats.Cancelled = r.Count
		}
	}
	return stats, nil
}

// DoctorWise reports confirmed and completed bookings and their fees per doctor.
func (s *DoctorService) DoctorWise(ctx context.Context) ([]DoctorBookings, error) {
	var rows []DoctorBookings
	err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Select("appointments.doctor_id, doctors.name, COUNT(*) AS booking_count, COALESCE(SUM(appointments.fee), 0) AS revenue").
		Joins("JOIN doctors ON doctors.id = appointments.doctor_id").
		Where("appointments.status IN ?", []models.AppointmentStatus{models.StatusConfirmed, models.StatusCompleted}).
		Group("appointments.doctor_id, doctors.name").
		Order("appointments.doctor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("doctor-wise bookings: %w", err)
	}
	return rows, nil
}
