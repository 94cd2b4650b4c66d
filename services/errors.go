package services

import "errors"

// Kind groups service errors by how callers should treat them.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindPolicy
	KindNotFound
	KindExternal
	KindUnauthorized
)

// Error is a rejection that left stored data untouched.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrPatientNameRequired = newError(KindValidation, "patient name required")
	ErrInvalidDateTime     = newError(KindValidation, "invalid date or time format")
	ErrPastDate            = newError(KindValidation, "past date not allowed")
	ErrTooSoon             = newError(KindValidation, "must book ≥2 hours in advance")
	ErrSlotTaken           = newError(KindConflict, "slot already booked")

	ErrDoctorNotFound      = newError(KindNotFound, "doctor not found")
	ErrAppointmentNotFound = newError(KindNotFound, "appointment not found")
	ErrUserNotFound        = newError(KindNotFound, "user not found")

	ErrCannotCancel    = newError(KindPolicy, "cannot cancel this appointment")
	ErrTooEarlyReceipt = newError(KindPolicy, "too early to download")
	ErrNotPayable      = newError(KindPolicy, "appointment can no longer be paid")

	ErrMissingPaymentParams = newError(KindValidation, "missing payment parameters")
	ErrSignatureMismatch    = newError(KindValidation, "payment signature verification failed")
	ErrOrderMismatch        = newError(KindConflict, "payment order does not match appointment")
	ErrPaymentReused        = newError(KindConflict, "payment already used for another appointment")
	ErrPaymentGateway       = newError(KindExternal, "payment gateway error")

	ErrConsultationRequired = newError(KindPolicy, "must complete consultation first")
	ErrInvalidRating        = newError(KindValidation, "rating must be between 1 and 5")
	ErrCommentTooLong       = newError(KindValidation, "comment must be at most 1000 characters")

	ErrUsernameTaken       = newError(KindConflict, "username already taken")
	ErrInvalidCredentials  = newError(KindUnauthorized, "invalid username or password")
	ErrInvalidDoctor       = newError(KindValidation, "invalid doctor details")
	ErrInvalidProfileInput = newError(KindValidation, "invalid date of birth")
)

// KindOf reports the kind of a service error, or 0 for anything else.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
