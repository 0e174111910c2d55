package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the account services. Handlers map these to
// HTTP responses; anything else is treated as transient, logged with
// detail, and surfaced to the client as a generic failure notice.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrTokenInvalid       = errors.New("reset token is invalid")
	ErrTokenExpired       = errors.New("reset token has expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmailTaken         = errors.New("email already in use")
)

// ValidationErrors carries per-field messages for malformed input; the
// request is re-rendered with them rather than failing generically.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// AsValidation unwraps err into ValidationErrors when possible.
func AsValidation(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
