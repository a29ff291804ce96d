// Package web serves the browser widget: the page, the same-origin relay and
// the websocket session that runs one page's state and display components.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ka2n/sitelens/config"
	"github.com/ka2n/sitelens/log"
	"github.com/ka2n/sitelens/render"
	"github.com/ka2n/sitelens/state"
)

// Route paths
const (
	RelayPath   = "/relay"
	SessionPath = "/ws"
)

// Widget is what the page and its sessions need
type Widget struct {
	Templates *render.Templates
	// Fetcher is shared by every session; each session has its own store
	Fetcher state.Fetcher
}

// Server is the sitelens HTTP server
type Server struct {
	cfg        *config.Config
	relay      http.Handler
	widget     *Widget
	router     chi.Router
	httpServer *http.Server
}

// New creates a server mounting relay and, when widget is non-nil, the page
// and session routes.
func New(cfg *config.Config, relay http.Handler, widget *Widget) *Server {
	s := &Server{
		cfg:    cfg,
		relay:  relay,
		widget: widget,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	var relayMiddlewares chi.Middlewares
	if len(s.cfg.AllowedOrigins) > 0 {
		relayMiddlewares = append(relayMiddlewares, cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet},
			MaxAge:         300,
		}))
	}
	r.With(relayMiddlewares...).Get(RelayPath, s.relay.ServeHTTP)

	if s.widget != nil {
		r.Get("/", s.handleIndex)
		r.Get(SessionPath, s.handleSession)
	}

	return r
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.widget.Templates.Page(w, render.PageData{
		Title:       "sitelens",
		SessionPath: SessionPath,
	})
	if err != nil {
		log.Error("Page render failed", "error", err)
	}
}

// Start listens on the configured address until Shutdown
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("sitelens listening", "addr", s.cfg.Listen)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// accessLog logs one line per request
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			log.Info("HTTP",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
