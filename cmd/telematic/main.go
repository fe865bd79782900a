// Command telematic runs the admin console for Telegram subscription-gate
// bots: the HTTP API, the bot supervisor and the dashboard status feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"telematic/internal/config"
	"telematic/internal/database"
	"telematic/internal/logging"
	"telematic/internal/manager"
	"telematic/internal/server"
	"telematic/internal/storage"
	"telematic/internal/telemetry"
	"telematic/internal/version"
)

func main() {
	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		info := version.Get()
		fmt.Printf("telematic %s (commit %s, built %s, %s)\n",
			info.Version, info.Commit, info.BuildDate, info.GoVersion)
		return
	}

	if err := run(); err != nil {
		log.Fatalf("Fatal: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logging.Initialize("logs"); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Close()

	log.Printf("Telematic %s starting", version.Get().Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if shutdown, err := telemetry.Initialize(ctx, version.Get().Version); err != nil {
		log.Printf("Warning: telemetry disabled: %v", err)
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf("Failed to shut down telemetry: %v", err)
			}
		}()
	}

	if err := database.Initialize(cfg.DatabasePath); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	store := connectStorage(ctx, cfg)

	mgr := manager.New(manager.TelegramRunner{})
	defer mgr.StopAll()

	// The server registers the manager's change hook, so it must exist
	// before any bot starts transitioning states.
	srv, err := server.New(cfg, mgr, store)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	bots, err := database.ListBots()
	if err != nil {
		return fmt.Errorf("failed to list bots: %w", err)
	}
	mgr.StartAll(ctx, bots)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Printf("Shutdown complete")
	return nil
}

// connectStorage connects to MinIO, falling back to in-memory storage so
// the console stays usable without an object store. Assets then do not
// survive a restart.
func connectStorage(ctx context.Context, cfg *config.Config) storage.ObjectStore {
	minioStore, err := storage.NewMinio(cfg.MinioEndpoint, cfg.MinioAccess, cfg.MinioSecret, cfg.MinioBucket, cfg.MinioUseSSL)
	if err == nil {
		err = minioStore.EnsureBucket(ctx)
	}
	if err != nil {
		log.Printf("Warning: object storage unavailable, using in-memory store: %v", err)
		return storage.NewMemory()
	}
	log.Printf("Object storage connected: %s/%s", cfg.MinioEndpoint, cfg.MinioBucket)
	return minioStore
}
