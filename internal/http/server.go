package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spendcast/internal/core"
	"spendcast/internal/log"
	"spendcast/internal/middleware/ratelimit"
	"spendcast/internal/middleware/security"
	"spendcast/internal/middleware/trace"
)

// PredictionAPI is the prediction use case the server exposes.
type PredictionAPI interface {
	PredictNextMonth(ctx context.Context, category core.Category) (core.Prediction, error)
	ListPredictions(ctx context.Context, category core.Category, limit int) ([]core.Prediction, error)
}

// TransactionAPI is the transaction use case the server exposes.
type TransactionAPI interface {
	Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	List(ctx context.Context) ([]core.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// Options configures NewServer.
type Options struct {
	Addr         string
	Dev          bool
	RateLimitRPM int
	// Ready checks backing services for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server

	predictions  PredictionAPI
	transactions TransactionAPI
	ready        func(ctx context.Context) error
	dev          bool

	logger      *log.Logger
	structured  *log.StructuredLogger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware and returns a server ready for
// ListenAndServe. Shutdown must be called to stop the rate limiter.
func NewServer(opts Options, predictions PredictionAPI, transactions TransactionAPI, logger *log.Logger) *Server {
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		predictions:  predictions,
		transactions: transactions,
		ready:        opts.Ready,
		dev:          opts.Dev,
		logger:       logger,
		structured:   log.NewStructuredLogger(logger),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		tracer:       trace.NewMiddleware(extractClientIP, logger),
		started:      time.Now(),
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /api/v1/transactions", s.handleListTransactions)
	api.HandleFunc("DELETE /api/v1/transactions/{id}", s.handleDeleteTransaction)
	api.HandleFunc("POST /api/v1/predictions/next-month", s.handlePredictNextMonth)
	api.HandleFunc("GET /api/v1/predictions", s.handleListPredictions)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/", s.rateLimiter.Middleware(extractClientIP, s.handleRateLimited)(api))

	var handler http.Handler = mux
	handler = log.RequestIDMiddleware(trace.RequestID)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, extractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil).Write(w)
}

// writeError logs server-side failures and writes the mapped error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := errorResponseFor(err, r.URL.Path, s.dev)
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, op, nil)
	}
	resp.Write(w)
}
