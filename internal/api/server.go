// Package api exposes the domain over a small HTTP surface: cached
// collections, lending and reservation transitions, and a manual
// refresh trigger.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lendhub/internal/cache"
	"lendhub/internal/config"
	"lendhub/internal/domain"
	"lendhub/internal/metrics"
	"lendhub/internal/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var apiJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type Server struct {
	cfg          config.APIConfig
	store        *cache.Store
	refresher    domain.Refresher
	loans        domain.LoanManager
	reservations domain.ReservationManager
	resources    ResourceManager
	logger       zerolog.Logger
	server       *http.Server
	auth         *Auth
}

// ResourceManager is the catalog-editing surface the API needs.
type ResourceManager interface {
	Create(ctx context.Context, r models.Resource) (*models.Resource, error)
	Update(ctx context.Context, r models.Resource) (*models.Resource, error)
	Delete(ctx context.Context, id string) error
}

func NewServer(
	cfg config.APIConfig,
	store *cache.Store,
	refresher domain.Refresher,
	loans domain.LoanManager,
	reservations domain.ReservationManager,
	resources ResourceManager,
	logger zerolog.Logger,
) *Server {
	srv := &Server{
		cfg:          cfg,
		store:        store,
		refresher:    refresher,
		loans:        loans,
		reservations: reservations,
		resources:    resources,
		logger:       logger,
	}
	srv.auth = NewAuth(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.HandleFunc("GET /api/v1/{entity}", srv.handleCollection)
	mux.HandleFunc("POST /api/v1/refresh", srv.handleRefresh)
	mux.HandleFunc("POST /api/v1/loans", srv.handleLoanCreate)
	mux.HandleFunc("POST /api/v1/loans/{id}/approve", srv.handleLoanApprove)
	mux.HandleFunc("POST /api/v1/loans/{id}/reject", srv.handleLoanReject)
	mux.HandleFunc("POST /api/v1/loans/{id}/return", srv.handleLoanReturn)
	mux.HandleFunc("POST /api/v1/reservations", srv.handleReservationCreate)
	mux.HandleFunc("POST /api/v1/reservations/{id}/status", srv.handleReservationStatus)
	mux.HandleFunc("POST /api/v1/resources", srv.handleResourceCreate)
	mux.HandleFunc("PUT /api/v1/resources/{id}", srv.handleResourceUpdate)
	mux.HandleFunc("DELETE /api/v1/resources/{id}", srv.handleResourceDelete)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		metrics.IncHTTP(r.Method, r.URL.Path, recorder.status)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = apiJSON.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
