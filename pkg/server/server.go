// Package server exposes the co-canvas sync core over HTTP: the WebSocket
// gateway, the health and metrics endpoints, and the asset upload surface.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NachoEstevo/co-canvas-google-hackathon/internal/config"
	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/room"
	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/storage"
)

// Server is the HTTP/WebSocket server for co-canvas.
type Server struct {
	config   *config.Config
	registry *room.Registry
	blobs    storage.BlobStore
	snapshot *storage.SnapshotDB

	upgrader   websocket.Upgrader
	router     chi.Router
	httpServer *http.Server
	metrics    *Metrics
	promReg    *prometheus.Registry
	logger     *slog.Logger
}

// New assembles a Server from configuration: blob store backend, optional
// snapshot persistence, room registry, metrics, and routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	for _, warning := range cfg.Warnings() {
		logger.Warn("config warning", "warning", warning)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		return nil, err
	}

	var snapshotDB *storage.SnapshotDB
	var snapshots room.SnapshotStore
	if cfg.Room.SnapshotDB != "" {
		snapshotDB, err = storage.OpenSnapshotDB(cfg.Room.SnapshotDB)
		if err != nil {
			return nil, err
		}
		snapshots = snapshotDB
	}

	roomConfig := &room.Config{
		WriteTimeout:   cfg.Room.WriteTimeout,
		PongTimeout:    cfg.Room.PongTimeout,
		PingInterval:   cfg.Room.PingInterval,
		MaxMessageSize: cfg.Room.MaxMessageSize,
		SendQueueSize:  cfg.Room.SendQueueSize,
		GracePeriod:    cfg.Room.GracePeriod,
	}
	registry := room.NewRegistry(roomConfig, snapshots, logger)

	// Per-server registry keeps instances (and tests) from colliding on
	// the global registerer.
	promRegistry := prometheus.NewRegistry()
	metrics := NewMetrics(promRegistry)
	registry.SetHooks(metrics.RegistryHooks())

	s := &Server{
		config:   cfg,
		registry: registry,
		blobs:    blobs,
		snapshot: snapshotDB,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		metrics: metrics,
		promReg: promRegistry,
		logger:  logger,
	}
	s.router = s.routes()
	return s, nil
}

func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		client, err := storage.NewR2Client(context.Background(),
			cfg.Storage.R2AccountID,
			cfg.Storage.R2AccessKeyID,
			cfg.Storage.R2SecretKey,
		)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(client,
			cfg.Storage.R2Bucket,
			cfg.Storage.R2PublicBaseURL,
			cfg.Storage.MaxUploadSize,
		), nil
	default:
		return storage.NewDiskStore(
			cfg.Storage.DiskDir,
			cfg.Storage.DiskBaseURL,
			cfg.Storage.MaxUploadSize,
		)
	}
}

// originChecker builds the upgrader origin policy from config. "*" allows
// any origin; otherwise the Origin header must match an entry exactly.
func originChecker(allowed []string) func(*http.Request) bool {
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		originURL, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, candidate := range allowed {
			candidateURL, err := url.Parse(candidate)
			if err != nil {
				continue
			}
			if originURL.Host == candidateURL.Host && originURL.Scheme == candidateURL.Scheme {
				return true
			}
		}
		return false
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)
	r.Use(tracing("co-canvas"))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{}))
	r.Get("/api/sync", s.handleSync)
	r.Post("/api/upload/asset", s.handleAssetUpload)
	r.Post("/api/upload/audio", s.handleAudioUpload)
	r.Post("/api/canvas/save", s.handleCanvasSave)
	r.Post("/api/image/generate", s.handleGenerate)

	if s.config.Storage.Backend == "disk" {
		prefix := s.config.Storage.DiskBaseURL
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/",
			http.FileServer(http.Dir(s.config.Storage.DiskDir))))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Registry returns the room registry.
func (s *Server) Registry() *room.Registry {
	return s.registry
}

// Run starts the server and blocks until a shutdown signal or listen error.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Addr,
		Handler: s,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil

	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown drains the registry, persists room documents, and stops the HTTP
// server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.registry.Shutdown(ctx)

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	if s.snapshot != nil {
		s.snapshot.Close()
	}

	s.logger.Info("server shutdown complete")
	return nil
}
