package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/mcp"
	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/service"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"

	_ "github.com/aussiebroadwan/influxmcp/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// InfluxStatus reports whether the InfluxDB collaborator can serve requests.
type InfluxStatus interface {
	Configured() bool
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	publicBaseURL string
	buildVersion  string
	startTime     time.Time
	logger        *slog.Logger

	store               store.Store
	AuthorizeService    *service.AuthorizeService
	TokenService        *service.TokenService
	RegistrationService *service.RegistrationService
	Dispatcher          *mcp.Dispatcher
	Influx              InfluxStatus

	// RequireAuth demands a bearer access token on the MCP transports.
	RequireAuth bool

	// KeepAlive is the SSE ping period. Zero means 30 seconds.
	KeepAlive time.Duration

	// Closing ends open SSE streams once closed, typically at server shutdown.
	Closing <-chan struct{}
}

// NewRouter creates a router. publicBaseURL pins the issuer and endpoint
// URLs; when empty they are derived from each request's forwarding headers.
func NewRouter(publicBaseURL, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slogx.Discard()
	}

	r := &Router{
		Mux:           http.NewServeMux(),
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		store:         st,
		logger:        logger,
	}

	// Set default middleware chain. CORS sits outside the mux so preflight
	// requests never reach the method-bound patterns.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS("GET, POST, DELETE, OPTIONS"),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerDiscovery()
	r.registerMCP()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			InfluxDB MCP Server API
//	@version		1.0.0
//	@description	Model Context Protocol server exposing InfluxDB writes, Flux queries, bucket and organization management.
//	@description
//	@description				Clients obtain opaque bearer tokens through OAuth 2.1 (dynamic registration, authorization code with PKCE, refresh).
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/influxmcp
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Opaque access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// baseURL is the issuer identifier and the prefix of every advertised endpoint.
func (r *Router) baseURL(req *http.Request) string {
	if r.publicBaseURL != "" {
		return r.publicBaseURL
	}
	return httpx.RequestOrigin(req)
}

func (r *Router) resourceMetadataURL(req *http.Request) string {
	return r.baseURL(req) + mcpsdk.PathProtectedResourceDoc
}

func (r *Router) registerOAuth2() {
	authorizeHandler := &AuthorizeHandler{
		AuthorizeService: r.AuthorizeService,
		Issuer:           r.baseURL,
	}

	// GET /authorize - moderate rate limit per IP and client
	r.Mux.Handle("GET "+mcpsdk.PathAuthorize,
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandleGet),
			httpx.RateLimitByIPAndFormField(httpx.ModerateLimit, "client_id"),
		),
	)
	r.Mux.Handle("POST "+mcpsdk.PathAuthorize,
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandlePost),
			httpx.RateLimitByIPAndFormField(httpx.ModerateLimit, "client_id"),
		),
	)

	// POST /token - strict rate limit per IP and client, so clients behind a
	// shared address keep separate budgets. Requests without client_id
	// share the address bucket.
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST "+mcpsdk.PathToken,
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "client_id"),
		),
	)

	// POST /register - strict rate limit by IP (anyone can register)
	registerHandler := &RegisterHandler{
		RegistrationService: r.RegistrationService,
		BaseURL:             r.baseURL,
	}
	r.Mux.Handle("POST "+mcpsdk.PathRegister,
		httpx.Chain(http.HandlerFunc(registerHandler.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET "+mcpsdk.PathClients+"{client_id}",
		httpx.Chain(http.HandlerFunc(registerHandler.HandleGet),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	revokeHandler := &RevokeHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST "+mcpsdk.PathRevoke,
		httpx.Chain(revokeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	introspectHandler := &IntrospectHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST "+mcpsdk.PathIntrospect,
		httpx.Chain(introspectHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerDiscovery() {
	as := AuthorizationServerMetadataHandler(r.baseURL)
	pr := ProtectedResourceMetadataHandler(r.baseURL)

	r.Mux.Handle("GET "+mcpsdk.PathAuthServerMetadata, httpx.Chain(as, httpx.RateLimitByIP(httpx.PublicLimit)))
	r.Mux.Handle("GET "+mcpsdk.PathProtectedResourceDoc, httpx.Chain(pr, httpx.RateLimitByIP(httpx.PublicLimit)))

	// Path-suffixed form used by clients that append the resource path.
	r.Mux.Handle("GET "+mcpsdk.PathProtectedResourceDoc+"/", httpx.Chain(pr, httpx.RateLimitByIP(httpx.PublicLimit)))
}

func (r *Router) registerMCP() {
	h := &MCPHandler{
		Dispatcher: r.Dispatcher,
		BaseURL:    r.baseURL,
		KeepAlive:  r.KeepAlive,
		Closing:    r.Closing,
	}

	mws := []httpx.Middleware{}
	if r.RequireAuth {
		mws = append(mws,
			httpx.AuthnMiddleware(r.TokenService, r.resourceMetadataURL),
			httpx.RequireAnyScope(domain.ScopeMCPTools, domain.ScopeMCPResources, domain.ScopeMCPPrompts),
		)
	}
	mws = append(mws,
		RequireInfluxToken(r.Influx),
		httpx.RateLimitByClient(httpx.LenientLimit),
	)

	// Methods are matched inside the handlers so unsupported ones get the
	// JSON 405 body instead of the mux's plain text one.
	streamable := httpx.Chain(http.HandlerFunc(h.HandleStreamable), mws...)
	r.Mux.Handle("/mcp", streamable)
	r.Mux.Handle(mcpsdk.PathMCP, streamable)

	r.Mux.Handle("/sse", httpx.Chain(http.HandlerFunc(h.HandleSSE), mws...))
	r.Mux.Handle("/messages", httpx.Chain(http.HandlerFunc(h.HandleMessages), mws...))
}

func (r *Router) registerSystem() {
	// Health check endpoints - public rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET "+mcpsdk.PathHealth,
		httpx.Chain(HealthHandler(),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET "+mcpsdk.PathLivez,
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET "+mcpsdk.PathReadyz,
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Influx),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
