package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/store"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
)

// HealthHandler godoc
//
//	@Summary		Service Status
//	@Description	Static status document pointing clients at the MCP endpoint.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	mcpsdk.StatusResponse	"status, message, endpoint"
//	@Router			/health [get]
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, mcpsdk.StatusResponse{
			Status:   "ok",
			Message:  "InfluxDB MCP Server is running",
			Endpoint: mcpsdk.PathMCP,
		})
	}
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe endpoint returning basic service health status, uptime, and version information
//	@Description	This endpoint always returns 200 OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	mcpsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := mcpsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and the status of the token store and InfluxDB
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	mcpsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	mcpsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get]
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	influx InfluxStatus,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := &mcpsdk.HealthChecks{
			Store:    "ok",
			InfluxDB: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check store connectivity
		if err := st.Ping(ctx); err != nil {
			checks.Store = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Check InfluxDB credentials and reachability
		switch {
		case influx == nil || !influx.Configured():
			checks.InfluxDB = "error: not configured"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		default:
			if err := influx.Ping(ctx); err != nil {
				checks.InfluxDB = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response := mcpsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
