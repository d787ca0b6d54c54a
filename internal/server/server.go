// Package server exposes single-contact enrichment over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/person-enricher/internal/enrich"
	"github.com/sells-group/person-enricher/internal/metrics"
	"github.com/sells-group/person-enricher/internal/model"
)

// maxBodyBytes caps the size of an enrichment request.
const maxBodyBytes = 1 << 20

// Enricher runs one enrichment pass over a contact.
type Enricher interface {
	Enrich(ctx context.Context, c model.Contact) (*enrich.Outcome, error)
}

// Options configures the router.
type Options struct {
	// CORSOrigins lists allowed browser origins. Empty allows none.
	CORSOrigins []string
	// Timeout bounds a single enrichment request. Zero means no limit.
	Timeout time.Duration
	// Metrics is served on /metrics when set.
	Metrics *metrics.Manager
}

// contactRequest is the accepted request body. Status, cost and enriched
// fields are owned by the server and never read from the client.
type contactRequest struct {
	ID                 string `json:"id"`
	FullName           string `json:"full_name"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Title              string `json:"title"`
	Email              string `json:"email"`
	LinkedInURL        string `json:"linkedin_url"`
	CompanyName        string `json:"company_name"`
	CompanyDomain      string `json:"company_domain"`
	CompanyDescription string `json:"company_description"`
}

func (r contactRequest) contact() model.Contact {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	c := model.NewContact(id)
	c.Set(model.FieldFullName, r.FullName)
	c.Set(model.FieldFirstName, r.FirstName)
	c.Set(model.FieldLastName, r.LastName)
	c.Set(model.FieldTitle, r.Title)
	c.Set(model.FieldEmail, r.Email)
	c.Set(model.FieldLinkedInURL, r.LinkedInURL)
	c.Set(model.FieldCompanyName, r.CompanyName)
	c.Set(model.FieldCompanyDomain, r.CompanyDomain)
	c.Set(model.FieldCompanyDescription, r.CompanyDescription)
	return c
}

// NewRouter builds the HTTP routes:
//
//	POST /api/enrich  enrich one contact
//	GET  /health      liveness
//	GET  /metrics     Prometheus exposition
func NewRouter(e Enricher, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Post("/api/enrich", handleEnrich(e, opts.Timeout))
	return r
}

func handleEnrich(e Enricher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contactRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		c := req.contact()
		if !c.HasAnyName() {
			writeError(w, http.StatusBadRequest, "a name is required")
			return
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		log := zap.L().With(
			zap.String("contact", c.ID),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)

		out, err := e.Enrich(ctx, c)
		if err != nil {
			log.Error("server: enrichment failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		log.Info("server: contact enriched",
			zap.String("status", string(out.Contact.Status)),
			zap.Float64("cost", out.Cost),
			zap.Int("calls", len(out.Invoked)),
		)
		writeJSON(w, http.StatusOK, out.Contact)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}
