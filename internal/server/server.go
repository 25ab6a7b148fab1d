// Package server exposes the chat service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bank-chatbot/internal/chat"
	"bank-chatbot/internal/common/config"
	"bank-chatbot/internal/common/logger"
	"bank-chatbot/internal/common/observability"
	"bank-chatbot/internal/models"
)

// ChatService answers a single chat message with a reply envelope.
type ChatService interface {
	Respond(ctx context.Context, message string) chat.Envelope
}

// CustomerLister backs the read-only customer directory endpoint.
type CustomerLister interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
}

type chatRequest struct {
	Message string `json:"message"`
}

// Server wires the HTTP routes, middleware and the underlying http.Server.
type Server struct {
	httpServer *http.Server
	service    ChatService
	customers  CustomerLister
	limiter    *RateLimiter
	obs        *observability.Observability
	logger     logger.Logger
	cfg        config.ServerConfig
}

func New(cfg config.ServerConfig, service ChatService, customers CustomerLister, limiter *RateLimiter, obs *observability.Observability, log logger.Logger) *Server {
	s := &Server{
		service:   service,
		customers: customers,
		limiter:   limiter,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "server"}),
		cfg:       cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /customers", s.handleCustomers)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	if limiter != nil {
		handler = limiter.Middleware(handler)
	}
	handler = s.requestID(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}

	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the full middleware chain, used by the tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// A malformed body gets the same conversational treatment as a
		// blank message: a well-formed envelope, not a transport error.
		req.Message = ""
	}

	env := s.service.Respond(r.Context(), req.Message)

	if s.obs != nil {
		s.obs.RecordRequest(r.Context(), "ok")
		s.obs.RecordDuration(r.Context(), time.Since(start))
	}

	s.writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.customers.ListCustomers(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("customer listing failed", nil)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "customer listing unavailable",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"customers": customers,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("response encoding failed", nil)
	}
}

// requestID tags every request with a correlation ID, echoed back in the
// X-Request-ID header and attached to the request logs.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		s.logger.Debug("request received", map[string]interface{}{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		next.ServeHTTP(w, r)
	})
}
