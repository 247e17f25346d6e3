package main

import (
	"cmp"
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stationdocs/internal/blobstore"
	"stationdocs/internal/config"
	"stationdocs/internal/handler"
	"stationdocs/internal/metrics"
	"stationdocs/internal/middleware"
	"stationdocs/internal/seed"
	"stationdocs/internal/service/hierarchy"
	"stationdocs/internal/service/scans"
	"stationdocs/internal/service/viewer"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"root_label", cfg.RootLabel,
		"blob_backend", cfg.BlobBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hierarchy
	store := hierarchy.NewStore(hierarchy.Config{RootLabel: cfg.RootLabel}, logger)
	if cfg.SeedDisabled {
		logger.Info("seeding disabled, starting with an empty tree")
	} else {
		data, err := seed.ReadFile(cfg.SeedFile)
		if err != nil {
			log.Fatalf("Failed to read seed: %v", err)
		}
		stats, err := seed.Load(store, data)
		if err != nil {
			log.Fatalf("Failed to seed hierarchy: %v", err)
		}
		logger.Info("hierarchy seeded",
			"source", cmp.Or(cfg.SeedFile, "embedded"),
			"folders", stats.Folders,
			"files", stats.Files,
		)
	}

	// Viewer: transient URLs are served by this process under BlobURLBase
	registry := viewer.NewBlobRegistry(cfg.BlobURLBase)
	session := viewer.NewSession(store, registry, logger)
	defer session.Teardown()

	// Saved scan history
	blobs, err := blobstore.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}
	defer blobs.Close()
	history := scans.NewRepository(blobs, logger)

	// Routes
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Handlers{
		Tree:   handler.NewTreeHandler(store, logger),
		Drop:   handler.NewDropHandler(store, logger),
		Viewer: handler.NewViewerHandler(session, registry, logger),
		Scans:  handler.NewScanHandler(history, logger),
	})

	logger.Info("services initialized")

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → RequestLogger → Recovery → Metrics → Routes
	var h http.Handler = mux
	h = metrics.Middleware(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  30 * time.Second, // Multipart uploads
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}

	logger.Info("server stopped")
}

