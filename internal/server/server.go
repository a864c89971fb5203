package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/paywall-split/paywall-split/internal/billing"
	"github.com/paywall-split/paywall-split/internal/content"
	"github.com/paywall-split/paywall-split/internal/event"
	"github.com/paywall-split/paywall-split/internal/metrics"
	"github.com/paywall-split/paywall-split/internal/notify"
	"github.com/paywall-split/paywall-split/internal/paywall"
	"github.com/paywall-split/paywall-split/internal/store"
	"github.com/paywall-split/paywall-split/internal/variant"
)

// Recorder persists accepted events. The collector works without one.
type Recorder interface {
	RecordEvent(ctx context.Context, e *store.Event) error
}

type Options struct {
	Port     int
	Variants variant.Set
	Catalog  *content.Catalog

	// Recorder, Fanout, Webhooks and Paywall are optional.
	Recorder Recorder
	Fanout   *notify.Fanout
	Webhooks *billing.Processor
	Paywall  *paywall.Controller

	Metrics        *metrics.Metrics
	Script         ScriptConfig
	AllowedOrigins []string
	Logger         *zap.Logger
}

type Server struct {
	port      int
	variants  variant.Set
	validator *event.Validator
	catalog   *content.Catalog
	recorder  Recorder
	fanout    *notify.Fanout
	webhooks  *billing.Processor
	paywall   *paywall.Controller
	metrics   *metrics.Metrics
	script    ScriptConfig
	cors      *cors.Cors
	log       *zap.Logger
	router    *mux.Router
	startTime time.Time
}

func New(opts Options) (*Server, error) {
	if opts.Catalog == nil {
		return nil, errors.New("server needs a content catalog")
	}
	if opts.Variants.Len() == 0 {
		opts.Variants = variant.DefaultSet()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Fanout == nil {
		opts.Fanout = notify.NewFanout(opts.Logger)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	srv := &Server{
		port:      opts.Port,
		variants:  opts.Variants,
		validator: event.NewValidator(opts.Variants),
		catalog:   opts.Catalog,
		recorder:  opts.Recorder,
		fanout:    opts.Fanout,
		webhooks:  opts.Webhooks,
		paywall:   opts.Paywall,
		metrics:   opts.Metrics,
		script:    opts.Script,
		cors:      newCORS(opts.AllowedOrigins),
		log:       opts.Logger,
		router:    mux.NewRouter(),
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.instrument, newSecurityHeaders().Handler)

	// Public endpoints
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/paywall-split.js", s.handleScript).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	// Cross-origin endpoints used by the client script
	s.router.Handle("/events", s.cors.Handler(http.HandlerFunc(s.handleEvents))).
		Methods(http.MethodPost, http.MethodOptions)
	s.router.Handle("/variant", s.cors.Handler(http.HandlerFunc(s.handleVariant))).
		Methods(http.MethodGet, http.MethodOptions)
	s.router.Handle("/styles/paywall-{variant:[A-Za-z0-9_-]+}.css", s.cors.Handler(http.HandlerFunc(s.handleStyles))).
		Methods(http.MethodGet, http.MethodOptions)

	// Billing provider
	s.router.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)

	if s.paywall != nil {
		s.router.HandleFunc("/demo", s.handleDemo).Methods(http.MethodGet)
		s.router.HandleFunc("/demo/subscribe", s.handleDemoSubscribe).Methods(http.MethodPost)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("collector listening", zap.Int("port", s.port), zap.String("variants", s.variants.String()))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down collector")
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) StartTime() time.Time {
	return s.startTime
}
