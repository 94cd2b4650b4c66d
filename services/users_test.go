package services

import (
	"context"
	"testing"

	"doc-booking/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndAuthenticate(t *testing.T) {
	svc := NewUserService(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	u, err := svc.Signup(ctx, models.SignupRequest{Username: "asha", Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	_, err = svc.Signup(ctx, models.SignupRequest{Username: "asha", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	got, err := svc.Authenticate(ctx, models.LoginRequest{Username: "asha", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, models.LoginRequest{Username: "asha", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, models.LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfileCreatedLazily(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "asha")
	doctor := seedDoctor(t, db, "Dr. Rao", models.Cardiology, "500")
	for _, date := range []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"} {
		seedAppointment(t, db, user.ID, doctor.ID, date, "10:00", models.StatusCompleted)
	}
	svc := NewUserService(db, zerolog.Nop())
	ctx := context.Background()

	view, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, view.Profile.UserID)
	assert.Len(t, view.RecentAppointments, 5)
	assert.Equal(t, "2026-03-06", view.RecentAppointments[0].AppointmentDate)

	again, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Profile.ID, again.Profile.ID)

	var count int64
	require.NoError(t, db.Model(&models.UserProfile{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = svc.Profile(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "asha")
	svc := NewUserService(db, zerolog.Nop())
	ctx := context.Background()

	email, phone, dob := "new@example.com", "9876543210", "1990-05-17"
	view, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{Email: &email, PhoneNumber: &phone, DateOfBirth: &dob})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", view.User.Email)
	assert.Equal(t, "9876543210", view.Profile.PhoneNumber)
	require.NotNil(t, view.Profile.DateOfBirth)
	assert.Equal(t, "1990-05-17", view.Profile.DateOfBirth.Format(models.DateLayout))

	bad := "17/05/1990"
	_, err = svc.UpdateProfile(ctx, user.ID, ProfileInput{DateOfBirth: &bad})
	assert.ErrorIs(t, err, ErrInvalidProfileInput)
}

func TestCreateAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, zerolog.Nop())
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, models.SignupRequest{Username: "root", Password: "root-pass-1"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	_, err = svc.Signup(ctx, models.SignupRequest{Username: "asha", Password: "asha-pass-1"})
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, models.SignupRequest{Username: "asha", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	promoted, err := svc.CreateAdmin(ctx, models.SignupRequest{Username: "asha", Password: "asha-pass-1"})
	require.NoError(t, err)
	var stored models.User
	require.NoError(t, db.First(&stored, promoted.ID).Error)
	assert.True(t, stored.IsAdmin)
}
