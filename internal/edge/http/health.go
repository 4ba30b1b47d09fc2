package http

import (
	"context"
	"net/http"
	"time"

	"github.com/otsembank/otsem/pkg/httpx"
	"github.com/otsembank/otsem/pkg/jwtx"
	"github.com/otsembank/otsem/pkg/otsemsdk"
)

// HealthResponse is the body of /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the edge's dependencies.
type HealthChecks struct {
	API  string `json:"api"`
	Keys string `json:"keys,omitempty"`
}

// UpstreamProbe reports whether the banking API answers.
type UpstreamProbe interface {
	Status() otsemsdk.HealthStatus
	Check(ctx context.Context) bool
}

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Always 200 while the edge process is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks that the banking API answers and, when signatures are verified, that keys are loaded
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	HealthResponse	"edge not ready"
//	@Router			/readyz [get]
func ReadyzHandler(
	startTime time.Time,
	version string,
	upstream UpstreamProbe,
	keys *jwtx.KeySet,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{API: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Until the background monitor has an answer, ask directly.
		healthy := false
		if st := upstream.Status(); st.Healthy != nil {
			healthy = *st.Healthy
		} else {
			healthy = upstream.Check(r.Context())
		}
		if !healthy {
			checks.API = "error: api unreachable"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// nil in decode mode
		if keys != nil {
			checks.Keys = "ok"
			if !keys.IsReady() {
				checks.Keys = "error: no keys loaded"
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
