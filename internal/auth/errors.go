package auth

import "errors"

var (
	// ErrValidation marks user-correctable input errors. The wrapping message is safe to show.
	ErrValidation = errors.New("validation error")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUseGoogleLogin is returned when a password login targets a Google-only account.
	ErrUseGoogleLogin = errors.New("account uses google login")
	// ErrForbidden is returned when a request carries no valid session.
	ErrForbidden = errors.New("forbidden")
	// ErrOpenIDRequired is returned when an upsert is attempted without an openId.
	ErrOpenIDRequired = errors.New("user openId is required for upsert")
	// ErrSigningNotConfigured is returned when no session secret is configured.
	ErrSigningNotConfigured = errors.New("session signing is not configured")
	// ErrGoogleNotConfigured is returned when Google OAuth credentials are missing.
	ErrGoogleNotConfigured = errors.New("google oauth is not configured")
	// ErrStoreUnavailable is logged when the credential store has no backing database.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// validationError carries a client-facing message and matches ErrValidation.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

func newValidationError(msg string) error {
	return &validationError{msg: msg}
}
