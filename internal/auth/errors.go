package auth

import "errors"

var (
	ErrInvalidCredentials   = errors.New("auth: invalid credentials")
	ErrAlreadyAuthenticated = errors.New("auth: already authenticated")
	ErrNotAuthenticated     = errors.New("auth: not authenticated")
	ErrInvalidToken         = errors.New("auth: invalid token")
	ErrAccessDenied         = errors.New("auth: access denied")
	ErrNotFound             = errors.New("auth: not found")
	ErrEmailExists          = errors.New("auth: email already exists")
	ErrInvalidOldPassword   = errors.New("auth: invalid old password")
	ErrPasswordMismatch     = errors.New("auth: passwords do not match")
)

// DeniedError is an access denial that names the rejected field, when one
// applies. It matches ErrAccessDenied under errors.Is.
type DeniedError struct {
	Field string
}

func (e *DeniedError) Error() string {
	if e.Field == "" {
		return "auth: access denied"
	}
	return "auth: access denied on " + e.Field
}

func (e *DeniedError) Is(target error) bool { return target == ErrAccessDenied }

// Denied constructs an access-denied error carrying the rejected field name.
func Denied(field string) error {
	if field == "" {
		return ErrAccessDenied
	}
	return &DeniedError{Field: field}
}

// DeniedField extracts the rejected field from an access-denied error.
func DeniedField(err error) string {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Field
	}
	return ""
}
