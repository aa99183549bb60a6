package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/influxmcp/internal/server/service"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
)

// oauthErrors maps service sentinels onto wire errors.
var oauthErrors = []struct {
	sentinel error
	wire     *mcpsdk.OAuth2Error
}{
	{service.ErrInvalidRequest, mcpsdk.ErrInvalidRequest},
	{service.ErrInvalidClient, mcpsdk.ErrInvalidClient},
	{service.ErrInvalidGrant, mcpsdk.ErrInvalidGrant},
	{service.ErrUnsupportedGrantType, mcpsdk.ErrUnsupportedGrantType},
	{service.ErrUnsupportedResponseType, mcpsdk.ErrUnsupportedResponseType},
	{service.ErrInvalidClientMetadata, mcpsdk.ErrInvalidClientMetadata},
	{service.ErrInvalidToken, mcpsdk.ErrInvalidToken},
}

// writeServiceError answers with the OAuth error matching err. Anything
// unrecognised is logged and reported as server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	for _, m := range oauthErrors {
		if errors.Is(err, m.sentinel) {
			slogx.FromContext(r.Context()).Debug(msg, "err", err)
			m.wire.WithDescription(service.Describe(err)).WriteError(w)
			return
		}
	}

	slogx.FromContext(r.Context()).Error(msg, "err", err)
	mcpsdk.ErrServerError.WriteError(w)
}

// parseForm parses an OAuth endpoint body into r.Form. Form encoding is the
// norm; a flat JSON object is accepted too. It writes the error response
// itself and reports whether the handler may continue.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/json"):
		if err := parseJSONForm(r); err != nil {
			slogx.FromContext(r.Context()).Debug("invalid json form body", "err", err)
			mcpsdk.ErrInvalidFormBody.WriteError(w)
			return false
		}
		return true
	case ct != "" && !strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		mcpsdk.ErrInvalidContentType.WriteError(w)
		return false
	}

	if err := r.ParseForm(); err != nil {
		mcpsdk.ErrInvalidFormBody.WriteError(w)
		return false
	}
	return true
}

// parseJSONForm merges the scalar members of a JSON object body into the
// query parameters, the way ParseForm merges a form body.
func parseJSONForm(r *http.Request) error {
	var body map[string]any
	if err := httpx.DecodeJSON(r, &body); err != nil {
		return err
	}

	form := r.URL.Query()
	for k, v := range body {
		switch v := v.(type) {
		case string:
			form.Set(k, v)
		case float64, bool:
			form.Set(k, fmt.Sprint(v))
		case nil:
		default:
			return fmt.Errorf("member %q is not a scalar", k)
		}
	}
	r.Form = form
	r.PostForm = form
	return nil
}
