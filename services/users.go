package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"doc-booking/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const recentAppointmentsLimit = 5

type ProfileInput struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=15"`
	DateOfBirth *string `json:"date_of_birth"`
	Address     *string `json:"address"`
}

// ProfileView is the profile page of the signed-in user.
type ProfileView struct {
	User               models.User          `json:"user"`
	Profile            models.UserProfile   `json:"profile"`
	Reviews            []models.Review      `json:"reviews"`
	RecentAppointments []models.Appointment `json:"recent_appointments"`
}

type UserService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewUserService(db *gorm.DB, log zerolog.Logger) *UserService {
	return &UserService{db: db, log: log}
}

// Signup registers a user with a bcrypt hashed password.
func (s *UserService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Username: username, Email: strings.TrimSpace(req.Email), PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *UserService) Authenticate(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Profile returns the user's profile page, creating the profile record on first access.
func (s *UserService) Profile(ctx context.Context, userID uint) (*ProfileView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{User: user, Profile: *profile}
	if err := s.db.WithContext(ctx).Preload("Doctor").Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Find(&view.Reviews).Error; err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	if err := s.db.WithContext(ctx).Preload("Doctor").Where("user_id = ?", userID).
		Order("appointment_date DESC, appointment_time DESC").
		Limit(recentAppointmentsLimit).Find(&view.RecentAppointments).Error; err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	return view, nil
}

func (s *UserService) profile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).
		Where(models.UserProfile{UserID: userID}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile changes the given profile fields and the account email.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*ProfileView, error) {
	updates := map[string]interface{}{}
	if in.PhoneNumber != nil {
		updates["phone_number"] = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.DateOfBirth != nil {
		if *in.DateOfBirth == "" {
			updates["date_of_birth"] = nil
		} else {
			dob, err := time.Parse(models.DateLayout, *in.DateOfBirth)
			if err != nil {
				return nil, ErrInvalidProfileInput
			}
			updates["date_of_birth"] = dob
		}
	}

	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(profile).Updates(updates).Error; err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
		}
		if in.Email != nil {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).
				Update("email", strings.TrimSpace(*in.Email)).Error; err != nil {
				return fmt.Errorf("update email: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID)
}

// CreateAdmin registers an administrator account, or promotes the existing
// user of that name after checking its password.
func (s *UserService) CreateAdmin(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	user, err := s.Signup(ctx, req)
	if errors.Is(err, ErrUsernameTaken) {
		user, err = s.Authenticate(ctx, models.LoginRequest{Username: req.Username, Password: req.Password})
	}
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_admin", true).Error; err != nil {
		return nil, fmt.Errorf("promote user %d: %w", user.ID, err)
	}
	user.IsAdmin = true
	s.log.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("admin account ready")
	return user, nil
}
