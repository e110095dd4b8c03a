package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/cohort-retention/internal/analytics"
	"github.com/ignite/cohort-retention/internal/cohort"
	"github.com/ignite/cohort-retention/internal/pkg/httputil"
	"github.com/ignite/cohort-retention/internal/pkg/logger"
	"github.com/ignite/cohort-retention/internal/retention"
)

// Runner executes one report pipeline
type Runner interface {
	Run(ctx context.Context, variant string) (*cohort.ChartPayload, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	runner Runner
}

// NewHandlers creates a new Handlers instance
func NewHandlers(runner Runner) *Handlers {
	return &Handlers{runner: runner}
}

// HealthCheck reports liveness. It does not call the reporting API.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// RetentionWidget runs the requested variant and returns its chart payload.
// Every request is an independent run; nothing is cached.
func (h *Handlers) RetentionWidget(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	if _, err := retention.ParseVariant(variant); err != nil {
		httputil.NotFound(w, "unknown retention variant: "+variant)
		return
	}

	payload, err := h.runner.Run(r.Context(), variant)
	if err != nil {
		logger.Warn("widget request failed", "request_id", middleware.GetReqID(r.Context()), "variant", variant)
		httputil.BadGateway(w, errorCode(err), err)
		return
	}

	httputil.OK(w, payload)
}

// errorCode maps pipeline failures to the code exposed to clients
func errorCode(err error) string {
	switch {
	case errors.Is(err, analytics.ErrAuthentication):
		return "authentication"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, analytics.ErrRequest):
		return "request"
	case errors.Is(err, cohort.ErrParse):
		return "parse"
	case errors.Is(err, cohort.ErrDataIntegrity):
		return "data_integrity"
	case errors.Is(err, cohort.ErrAlignment):
		return "alignment"
	default:
		return "internal"
	}
}
