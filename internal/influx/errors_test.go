package influx

import (
	"context"
	"errors"
	"fmt"
	"testing"

	ihttp "github.com/influxdata/influxdb-client-go/v2/api/http"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"http 401", &ihttp.Error{StatusCode: 401, Code: "unauthorized", Message: "unauthorized access"}, ErrUnauthorized},
		{"http 403", &ihttp.Error{StatusCode: 403}, ErrUnauthorized},
		{"http 400", &ihttp.Error{StatusCode: 400, Code: "invalid", Message: "bad line protocol"}, ErrInvalidArgument},
		{"http 404", &ihttp.Error{StatusCode: 404, Message: "bucket not found"}, ErrInvalidArgument},
		{"http 429", &ihttp.Error{StatusCode: 429}, ErrUnavailable},
		{"http 503", &ihttp.Error{StatusCode: 503}, ErrUnavailable},
		{"http 500", &ihttp.Error{StatusCode: 500}, ErrUpstream},
		{"management unauthorized", errors.New("unauthorized: unauthorized access"), ErrUnauthorized},
		{"management conflict", errors.New("conflict: bucket with name b already exists"), ErrInvalidArgument},
		{"management unavailable", errors.New("unavailable: try later"), ErrUnavailable},
		{"status line body", errors.New("401 Unauthorized: nope"), ErrUnauthorized},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), ErrUnavailable},
		{"connection refused", errors.New("dial tcp 127.0.0.1:8086: connect: connection refused"), ErrUnavailable},
		{"anything else", errors.New("boom"), ErrUpstream},
		{"already classified", invalidArgument("x"), ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			require.ErrorIs(t, got, tt.want)
		})
	}

	require.NoError(t, classify(nil))
}

func TestClassifyKeepsUpstreamMessage(t *testing.T) {
	err := classify(&ihttp.Error{StatusCode: 400, Code: "invalid", Message: "unable to parse 'cpu value=': missing field value"})
	require.Contains(t, err.Error(), "missing field value")
}

func TestFluxString(t *testing.T) {
	require.Equal(t, `"plain"`, fluxString("plain"))
	require.Equal(t, `"a\"b\\c"`, fluxString(`a"b\c`))
	require.Equal(t, `"\${x}"`, fluxString("${x}"))
}
