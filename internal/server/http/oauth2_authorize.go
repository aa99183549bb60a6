package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/influxmcp/internal/server/service"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
)

// AuthorizeHandler processes OAuth2 authorization requests (authorization code flow).
// There is no end-user login: a valid request is granted immediately.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService

	// Issuer returns the value of the iss redirect parameter.
	Issuer func(*http.Request) string
}

// HandleGet processes GET requests to the authorization endpoint.
//
//	@Summary		OAuth2 authorization endpoint (GET)
//	@Description	Issues an authorization code bound to a PKCE challenge and redirects to redirect_uri with code, state and iss.
//	@Description	Unknown clients are registered on the fly when the server allows it.
//	@Description
//	@Description	**Response:**
//	@Description	- Accept contains text/html: 200 page that redirects to the callback
//	@Description	- Otherwise: 302 redirect
//	@Description	- Error: JSON error response, never a redirect
//	@Tags			OAuth2
//	@Produce		json,html
//	@Param			response_type			query		string					true	"Must be 'code'"	default(code)
//	@Param			client_id				query		string					true	"OAuth2 client identifier"
//	@Param			redirect_uri			query		string					true	"Callback URI"
//	@Param			scope					query		string					false	"Space-delimited list of scopes"	example("mcp:tools influxdb:read")
//	@Param			state					query		string					false	"Opaque value echoed back to the client"
//	@Param			code_challenge			query		string					true	"PKCE code challenge"	example("E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM")
//	@Param			code_challenge_method	query		string					false	"PKCE method (defaults to S256)"	default(S256)	Enums(S256, plain)
//	@Success		302						{string}	string					"Redirect to redirect_uri with code, state and iss"
//	@Failure		400						{object}	mcpsdk.ErrorResponse	"error, error_description"
//	@Failure		401						{object}	mcpsdk.ErrorResponse	"error, error_description"
//	@Router			/api/oauth/authorize [get]
func (h *AuthorizeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.processAuthorize(w, r, r.URL.Query())
}

// HandlePost accepts the same parameters as HandleGet in the query string or
// a form body.
//
//	@Summary		OAuth2 authorization endpoint (POST)
//	@Description	Same as the GET form. Parameters may be sent as application/x-www-form-urlencoded.
//	@Tags			OAuth2
//	@Accept			x-www-form-urlencoded
//	@Produce		json,html
//	@Param			response_type			formData	string					true	"Must be 'code'"	default(code)
//	@Param			client_id				formData	string					true	"OAuth2 client identifier"
//	@Param			redirect_uri			formData	string					true	"Callback URI"
//	@Param			scope					formData	string					false	"Space-delimited list of scopes"
//	@Param			state					formData	string					false	"Opaque value echoed back to the client"
//	@Param			code_challenge			formData	string					true	"PKCE code challenge"
//	@Param			code_challenge_method	formData	string					false	"PKCE method (defaults to S256)"	Enums(S256, plain)
//	@Success		302						{string}	string					"Redirect to redirect_uri with code, state and iss"
//	@Failure		400						{object}	mcpsdk.ErrorResponse	"error, error_description"
//	@Failure		401						{object}	mcpsdk.ErrorResponse	"error, error_description"
//	@Router			/api/oauth/authorize [post]
func (h *AuthorizeHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	h.processAuthorize(w, r, r.Form)
}

func (h *AuthorizeHandler) processAuthorize(w http.ResponseWriter, r *http.Request, params url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if h.AuthorizeService == nil {
		mcpsdk.ErrServerError.WriteError(w)
		return
	}

	req := service.AuthorizeRequest{
		ResponseType:        params.Get("response_type"),
		ClientID:            params.Get("client_id"),
		RedirectURI:         params.Get("redirect_uri"),
		Scope:               httpx.ParseSpaceDelimitedFields(params.Get("scope")),
		State:               params.Get("state"),
		CodeChallenge:       params.Get("code_challenge"),
		CodeChallengeMethod: params.Get("code_challenge_method"),
	}

	// Errors are never redirected: the redirect URI is only trustworthy once
	// the service has matched it against the client.
	resp, err := h.AuthorizeService.IssueAuthorizationCode(ctx, req)
	if err != nil {
		writeServiceError(w, r, err, "authorize request failed")
		return
	}

	redirectURL, err := buildAuthorizeRedirect(resp.RedirectURI, resp.Code, resp.State, h.Issuer(r))
	if err != nil {
		log.Warn("authorize: unusable redirect_uri", slog.String("client_id", req.ClientID), "err", err)
		mcpsdk.ErrInvalidRequest.WithDescription("redirect_uri is not a valid URL").WriteError(w)
		return
	}

	httpx.NoCache(w)
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := redirectPage.Execute(w, template.URL(redirectURL)); err != nil {
			log.Error("authorize: render redirect page", "err", err)
		}
		return
	}

	w.Header().Set("Location", redirectURL)
	w.WriteHeader(http.StatusFound)
}

// buildAuthorizeRedirect constructs a redirect URL for a successful authorization.
func buildAuthorizeRedirect(baseURI, code, state, issuer string) (string, error) {
	u, err := url.Parse(baseURI)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	q.Set("iss", issuer)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

var redirectPage = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Authorization Successful</title>
  <meta http-equiv="refresh" content="0;url={{.}}">
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #f5f5f5; }
    .container { text-align: center; padding: 2rem; background: white; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
    h1 { color: #333; }
    p { color: #666; }
    a { color: #0066cc; }
  </style>
</head>
<body>
  <div class="container">
    <h1>Authorization Successful</h1>
    <p>Redirecting back to your client...</p>
    <p>If you are not redirected automatically, <a href="{{.}}">click here</a>.</p>
  </div>
  <script>window.location.replace({{.}});</script>
</body>
</html>
`))
