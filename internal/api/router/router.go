package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/eyeclinic-web/internal/http/middleware"
	"github.com/wolfman30/eyeclinic-web/internal/web"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Web            *web.Handler
	MetricsHandler http.Handler

	// CORSAllowedOrigins may call the slot JSON endpoint from another origin.
	CORSAllowedOrigins []string
	// PublicBaseURL is accepted as a form Origin in addition to the request host.
	PublicBaseURL string
	// FormLimiter throttles form posts per client IP. Nil disables it.
	FormLimiter *httpmiddleware.RateLimiter
}

// New creates the site router.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	h := cfg.Web

	r.Get("/health", h.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", staticCache(web.StaticHandler())))

	r.Get("/", h.Home)
	r.Get("/about", h.About)
	r.Route("/services", func(r chi.Router) {
		r.Get("/", h.Services)
		r.Get("/{id}", h.ServiceDetail)
	})
	r.Route("/doctors", func(r chi.Router) {
		r.Get("/", h.Doctors)
		r.Get("/{id}", h.DoctorDetail)
	})

	// Form posts are same-origin and throttled.
	forms := []func(http.Handler) http.Handler{requireSameOrigin(cfg.PublicBaseURL)}
	if cfg.FormLimiter != nil {
		forms = append(forms, httpmiddleware.RateLimit(cfg.FormLimiter))
	}

	r.Get("/contact", h.Contact)
	r.With(forms...).Post("/contact", h.SubmitContact)

	r.Route("/book-appointment", func(r chi.Router) {
		r.Get("/", h.BookAppointment)
		r.With(forms...).Post("/", h.UpdateBooking)
		r.Route("/slots", func(r chi.Router) {
			r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
			r.Get("/", h.Slots)
		})
	})
	r.Get("/appointment-confirmation", h.Confirmation)

	r.NotFound(h.NotFound)
	return r
}

func staticCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
