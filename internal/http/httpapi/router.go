package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"usagesummary/internal/http/handlers"
	"usagesummary/internal/middleware"
	"usagesummary/internal/telemetry"
)

// Options configures the router middleware.
type Options struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	Locales         []language.Tag
	CountryLookup   middleware.CountryLookup
	Logger          zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/v1/usage", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Get("/summaries", app.ListSummaries)
		r.With(middleware.I18N(opts.Locales, opts.CountryLookup)).Post("/events", app.RecordEvent)
		r.With(middleware.RequireRole(opts.JWTSecret, middleware.RoleOperator)).Post("/summaries/generate", app.GenerateSummaries)
	})

	return r
}
