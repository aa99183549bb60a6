package influx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	ihttp "github.com/influxdata/influxdb-client-go/v2/api/http"
	"github.com/influxdata/influxdb-client-go/v2/domain"
)

// Error classes reported by the InfluxDB adapter. Every error returned by
// Client wraps exactly one of these alongside the upstream error.
var (
	ErrInvalidArgument = errors.New("influx: invalid argument")
	ErrUnauthorized    = errors.New("influx: unauthorized")
	ErrUnavailable     = errors.New("influx: unavailable")
	ErrNotConfigured   = errors.New("INFLUXDB_TOKEN environment variable is required")
	ErrUpstream        = errors.New("influx: upstream error")
)

// classify maps an error from influxdb-client-go onto one of the classes above.
//
// Write and query calls surface *http.Error with a status code. The generated
// management API (buckets, orgs) only returns "<code>: <message>" strings, so
// those are matched on the InfluxDB error code prefix.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrInvalidArgument, ErrUnauthorized, ErrUnavailable, ErrNotConfigured, ErrUpstream} {
		if errors.Is(err, known) {
			return err
		}
	}

	var httpErr *ihttp.Error
	if errors.As(err, &httpErr) && httpErr.StatusCode != 0 {
		return fmt.Errorf("%w: %s", classForStatus(httpErr.StatusCode), describe(err))
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	}

	msg := err.Error()
	return fmt.Errorf("%w: %s", classForMessage(msg), msg)
}

func classForStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrUnauthorized
	case status == 429 || status == 502 || status == 503 || status == 504:
		return ErrUnavailable
	case status >= 400 && status < 500:
		return ErrInvalidArgument
	default:
		return ErrUpstream
	}
}

func classForMessage(msg string) error {
	code, _, _ := strings.Cut(msg, ":")
	code = strings.TrimSpace(code)

	// Non-JSON error bodies start with the HTTP status line, e.g. "401 Unauthorized".
	if fields := strings.Fields(code); len(fields) > 0 {
		if status, err := strconv.Atoi(fields[0]); err == nil {
			return classForStatus(status)
		}
	}

	switch domain.ErrorCode(code) {
	case domain.ErrorCodeUnauthorized, domain.ErrorCodeForbidden:
		return ErrUnauthorized
	case domain.ErrorCodeUnavailable, domain.ErrorCodeTooManyRequests:
		return ErrUnavailable
	case domain.ErrorCodeInvalid, domain.ErrorCodeNotFound, domain.ErrorCodeConflict,
		domain.ErrorCodeEmptyValue, domain.ErrorCodeUnprocessableEntity, domain.ErrorCodeRequestTooLarge:
		return ErrInvalidArgument
	}

	lower := strings.ToLower(msg)
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") || strings.Contains(lower, "timeout") {
		return ErrUnavailable
	}
	return ErrUpstream
}

func describe(err error) string {
	var httpErr *ihttp.Error
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return err.Error()
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
