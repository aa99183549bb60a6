package service

import (
	"errors"
	"time"
)

// OAuth error codes. The message of each sentinel is the RFC 6749 error
// code written to the wire.
var (
	ErrInvalidRequest          = errors.New("invalid_request")
	ErrInvalidClient           = errors.New("invalid_client")
	ErrInvalidGrant            = errors.New("invalid_grant")
	ErrUnsupportedGrantType    = errors.New("unsupported_grant_type")
	ErrUnsupportedResponseType = errors.New("unsupported_response_type")
	ErrInvalidClientMetadata   = errors.New("invalid_client_metadata")
	ErrInvalidToken            = errors.New("invalid_token")
)

// Error attaches a human readable description to one of the sentinel errors
// above. errors.Is matches against the sentinel.
type Error struct {
	Code        error
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Code.Error()
	}
	return e.Code.Error() + ": " + e.Description
}

func (e *Error) Unwrap() error { return e.Code }

func oauthError(code error, description string) error {
	return &Error{Code: code, Description: description}
}

// Describe returns the description carried by err, or "" if there is none.
func Describe(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Description
	}
	return ""
}

// nowOr returns fn() when set and time.Now otherwise.
func nowOr(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now()
}
