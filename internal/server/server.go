// Package server exposes the recommendation engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/blackwell-systems/cropflow/internal/distance"
	"github.com/blackwell-systems/cropflow/internal/store"
	"github.com/blackwell-systems/cropflow/internal/suggest"
)

// Recommender is the engine surface served over HTTP.
type Recommender interface {
	GenerateStrategies(ctx context.Context, region, cropYear, cropName string) (*suggest.StrategyResult, error)
	GenerateTransactions(ctx context.Context, cropYear, cropName string) (*suggest.TransactionResult, error)
	AnalyzeTrade(ctx context.Context, region, cropYear string) (*suggest.TradeAnalysis, error)
}

// RouteFinder returns road routes with human-readable text.
type RouteFinder interface {
	Route(ctx context.Context, origin, destination string) (*distance.Route, error)
}

// History lists persisted recommendations.
type History interface {
	ListStrategies(ctx context.Context, region, cropYear string) ([]store.StrategyRow, error)
	ListTransactions(ctx context.Context, cropYear, cropName string) ([]store.TransactionRow, error)
}

// Options configures a Server. Every field is optional.
type Options struct {
	Distances      distance.Provider
	Routes         RouteFinder
	History        History
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Server handles the HTTP API.
type Server struct {
	engine Recommender
	opts   Options
	log    *slog.Logger
}

// New creates a Server for the engine.
func New(engine Recommender, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	return &Server{engine: engine, opts: opts, log: opts.Logger}
}

// Routes wires middlewares and endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/strategies", s.handleStrategies)
		api.Post("/strategies", s.handleStrategies)
		api.Get("/transactions", s.handleTransactions)
		api.Post("/transactions", s.handleTransactions)
		api.Get("/trade", s.handleTrade)
		api.Post("/trade", s.handleTrade)
		api.Get("/distance", s.handleDistance)
		api.Post("/distance", s.handleDistance)

		api.Route("/history", func(hr chi.Router) {
			hr.Get("/strategies", s.handleStrategyHistory)
			hr.Get("/transactions", s.handleTransactionHistory)
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("cropflow API listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// MaxBodyBytes caps the size of a POST request body.
const MaxBodyBytes = 64 << 10

// params merges a JSON body (POST) over query parameters (GET).
type params map[string]string

func invalidBody(msg string, err error) *suggest.RequestError {
	return &suggest.RequestError{
		Reason:  suggest.ReasonInvalidRequest,
		Message: msg,
		Err:     fmt.Errorf("%w: %w", suggest.ErrInvalidRequest, err),
	}
}

func readParams(w http.ResponseWriter, r *http.Request) (params, error) {
	p := params{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			p[k] = v[0]
		}
	}
	if r.Method != http.MethodPost || r.ContentLength == 0 {
		return p, nil
	}
	var body map[string]any
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&body)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return p, nil
	case errors.As(err, &tooLarge):
		return nil, invalidBody(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), err)
	case err != nil:
		return nil, invalidBody("request body must be a JSON object: "+err.Error(), err)
	}
	for k, v := range body {
		switch val := v.(type) {
		case string:
			p[k] = val
		case float64:
			p[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return p, nil
}

// get returns the first non-empty value among the given keys.
func (p params) get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(p[k]); v != "" {
			return v
		}
	}
	return ""
}
