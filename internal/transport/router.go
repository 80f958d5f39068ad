package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/medipause/certserve/internal/config"
	"github.com/medipause/certserve/internal/fulfillment"
	"github.com/medipause/certserve/internal/observability"
	"github.com/medipause/certserve/internal/payment"
	"github.com/medipause/certserve/internal/wizard"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Steps     *wizard.StepSet
	Initiator *payment.Initiator
	Pipeline  *fulfillment.Pipeline
	Readiness observability.ReadinessChecks
}

// Handlers carries the handler dependencies.
type Handlers struct {
	log       *zap.Logger
	metrics   *observability.Metrics
	steps     *wizard.StepSet
	initiator *payment.Initiator
	pipeline  *fulfillment.Pipeline
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// API middleware; the webhook route bypasses the handler timeout because its
// acknowledgement must not race a request deadline.
func NewRouter(deps Dependencies) chi.Router {
	h := &Handlers{
		log:       deps.Logger,
		metrics:   deps.Metrics,
		steps:     deps.Steps,
		initiator: deps.Initiator,
		pipeline:  deps.Pipeline,
	}

	r := chi.NewRouter()

	r.Use(Recovery(deps.Logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	r.Get("/healthz", observability.HandleHealth())
	r.Get("/readyz", observability.HandleReady(deps.Readiness))
	if deps.Config.Observability.Metrics.Enabled {
		r.Method(http.MethodGet, deps.Config.Observability.Metrics.Path, observability.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(observability.TracingMiddleware)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(deps.Logger))
		r.Use(deps.Metrics.MetricsMiddleware)

		r.Get("/api/intake/steps", h.handleSteps)
		r.Post("/api/intake/validate", h.handleValidateIntake)
		r.Post("/api/checkout/sessions", h.handleCreateCheckout)
	})

	r.Group(func(r chi.Router) {
		r.Use(observability.TracingMiddleware)
		r.Use(RequestLogging(deps.Logger))
		r.Use(deps.Metrics.MetricsMiddleware)

		r.Post("/webhooks/payment", h.handlePaymentWebhook)
	})

	return r
}
