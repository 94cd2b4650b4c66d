package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"doc-booking/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewInput struct {
	Rating  int
	Comment string
}

// DoctorReviews is a doctor's review page.
type DoctorReviews struct {
	Doctor       models.Doctor   `json:"doctor"`
	Reviews      []models.Review `json:"reviews"`
	AvgRating    decimal.Decimal `json:"avg_rating"`
	TotalReviews int             `json:"total_reviews"`
}

type ReviewService struct {
	db    *gorm.DB
	clock Clock
	log   zerolog.Logger
}

func NewReviewService(db *gorm.DB, clock Clock, log zerolog.Logger) *ReviewService {
	return &ReviewService{db: db, clock: clock, log: log}
}

// Submit stores the user's review of a doctor they have consulted. A second
// submission for the same doctor replaces the first. created is false on update.
func (s *ReviewService) Submit(ctx context.Context, userID, doctorID uint, in ReviewInput) (review *models.Review, created bool, err error) {
	if _, err := findDoctor(ctx, s.db, doctorID); err != nil {
		return nil, false, err
	}
	consulted, err := hasConsulted(ctx, s.db, userID, doctorID, s.clock.now())
	if err != nil {
		return nil, false, err
	}
	if !consulted {
		return nil, false, ErrConsultationRequired
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, false, ErrInvalidRating
	}
	if utf8.RuneCountInString(in.Comment) > models.MaxCommentLength {
		return nil, false, ErrCommentTooLong
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Review
		err := tx.Where("user_id = ? AND doctor_id = ?", userID, doctorID).First(&existing).Error
		switch {
		case err == nil:
			existing.Rating = in.Rating
			existing.Comment = in.Comment
			if err := tx.Model(&existing).Select("rating", "comment", "updated_at").Updates(&existing).Error; err != nil {
				return fmt.Errorf("update review: %w", err)
			}
			review = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = &models.Review{UserID: userID, DoctorID: doctorID, Rating: in.Rating, Comment: in.Comment}
			if err := tx.Omit(clause.Associations).Create(review).Error; err != nil {
				return fmt.Errorf("create review: %w", err)
			}
			created = true
		default:
			return fmt.Errorf("load review: %w", err)
		}
		return refreshDoctorRating(tx, doctorID)
	})
	if err != nil {
		return nil, false, err
	}

	s.log.Info().Uint("doctor_id", doctorID).Uint("user_id", userID).Int("rating", in.Rating).Bool("created", created).Msg("review saved")
	return review, created, nil
}

// refreshDoctorRating recomputes the doctor's aggregate from its reviews.
func refreshDoctorRating(tx *gorm.DB, doctorID uint) error {
	var agg struct {
		Total int64
		Count int64
	}
	err := tx.Model(&models.Review{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
		Where("doctor_id = ?", doctorID).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("aggregate ratings: %w", err)
	}
	rating := averageRating(agg.Total, agg.Count)
	err = tx.Model(&models.Doctor{}).Where("id = ?", doctorID).
		Updates(map[string]interface{}{"rating": rating, "review_count": agg.Count}).Error
	if err != nil {
		return fmt.Errorf("update doctor rating: %w", err)
	}
	return nil
}

func averageRating(total, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(count)).Round(1)
}

// ForDoctor lists a doctor's reviews, newest first, with their average.
func (s *ReviewService) ForDoctor(ctx context.Context, doctorID uint) (*DoctorReviews, error) {
	doctor, err := findDoctor(ctx, s.db, doctorID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.recent(ctx, doctorID, -1)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, r := range reviews {
		total += int64(r.Rating)
	}
	return &DoctorReviews{
		Doctor:       *doctor,
		Reviews:      reviews,
		AvgRating:    averageRating(total, int64(len(reviews))),
		TotalReviews: len(reviews),
	}, nil
}

// recent returns up to limit reviews of the doctor, newest first; -1 means all.
func (s *ReviewService) recent(ctx context.Context, doctorID uint, limit int) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).Preload("User").
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	for i := range reviews {
		if reviews[i].User != nil {
			reviews[i].Reviewer = reviews[i].User.Username
		}
	}
	return reviews, nil
}

// ForUser lists the reviews the user wrote, newest first.
func (s *ReviewService) ForUser(ctx context.Context, userID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).Preload("Doctor").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	return reviews, nil
}
