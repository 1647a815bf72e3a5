package service

import "errors"

// Error kinds.  Every error returned by this package wraps exactly one
// of these, so callers can branch with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Error is a classified failure with a stable machine code.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Is matches another *Error with the same code, so a copy produced by
// WithMessage still compares equal to its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg}
}

func newError(kind error, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Code returns the machine code of err, or "internal" when err is not
// a classified service error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// Validation builds an ad hoc validation error.
func Validation(code, msg string) *Error { return newError(ErrValidation, code, msg) }

var (
	ErrAccommodationNotFound = newError(ErrNotFound, "accommodation_not_found", "accommodation not found")
	ErrMemberNotFound        = newError(ErrNotFound, "member_not_found", "member not found")
	ErrSpecialistNotFound    = newError(ErrNotFound, "specialist_not_found", "specialist not found")
	ErrOwnerNotFound         = newError(ErrNotFound, "owner_not_found", "owner not found")
	ErrReservationNotFound   = newError(ErrNotFound, "reservation_not_found", "reservation not found")
	ErrRatingNotFound        = newError(ErrNotFound, "rating_not_found", "rating not found")
	ErrCampusNotFound        = newError(ErrNotFound, "campus_not_found", "campus not found")
	ErrNotificationNotFound  = newError(ErrNotFound, "notification_not_found", "notification not found")
	ErrPhotoNotFound         = newError(ErrNotFound, "photo_not_found", "photo not found")
	ErrLocationNotFound      = newError(ErrNotFound, "location_not_found", "no address found for this building name or service unavailable")

	ErrInvalidRange  = newError(ErrValidation, "invalid_range", "start date must not be after end date")
	ErrPastDate      = newError(ErrValidation, "past_date", "reservation cannot start in the past")
	ErrOutsideWindow = newError(ErrValidation, "outside_window", "requested dates are outside the accommodation's availability window")
	ErrInvalidScore  = newError(ErrValidation, "invalid_score", "score must be between 0 and 5")
	ErrInvalidStatus = newError(ErrValidation, "invalid_status", "status must be one of PENDING, CONFIRMED, CANCELLED, COMPLETED")

	ErrUnavailable        = newError(ErrConflict, "unavailable", "accommodation is not available")
	ErrAlreadyAvailable   = newError(ErrConflict, "already_available", "accommodation is already available")
	ErrAlreadyRated       = newError(ErrConflict, "already_rated", "this reservation has already been rated")
	ErrNotCompleted       = newError(ErrConflict, "not_completed", "only completed reservations can be rated")
	ErrInvalidTransition  = newError(ErrConflict, "invalid_transition", "reservation status transition not allowed")
	ErrActiveReservations = newError(ErrConflict, "active_reservations", "accommodation has pending or confirmed reservations")
	ErrEmailTaken         = newError(ErrConflict, "email_taken", "email is already registered")

	ErrLocationRequired = newError(ErrUpstreamUnavailable, "location_required", "could not resolve building location; please supply latitude, longitude and geo_address")
)
