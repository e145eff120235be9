package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/tubegrab-go/api"
	"github.com/yourusername/tubegrab-go/api/handlers"
	"github.com/yourusername/tubegrab-go/internal/app"
	"github.com/yourusername/tubegrab-go/internal/infrastructure"
	"github.com/yourusername/tubegrab-go/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	foreground = flag.Bool("foreground", false, "Run in the foreground instead of detaching")
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// If not in server mode, run as daemon
	if !*serverMode && !*foreground {
		startAsDaemon()
		return
	}

	if err := runServer(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// startAsDaemon re-executes the current binary in server mode and detaches from it
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}

	pid, err := spawnDetached(execPath, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", pid)
}

func runServer() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	general, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Categorized log files: job, reaper, error, extractor
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.LogsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize multi-logger: %w", err)
	}
	defer multiLog.Close()

	logAdapter := logger.NewLoggerAdapter(multiLog, general)
	defer logAdapter.Sync()
	log := logAdapter.General()

	log.Info("Starting TubeGrab server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("download_dir", config.Download.Dir),
		zap.Duration("grace_period", config.Download.GracePeriod))

	files, err := infrastructure.NewFileStore(config.Download.Dir)
	if err != nil {
		return err
	}
	if err := files.Ensure(); err != nil {
		return fmt.Errorf("download directory unusable: %w", err)
	}

	repo, err := infrastructure.NewSQLiteJobRepository(config.Ledger.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize job ledger: %w", err)
	}
	defer repo.Close()

	extractor := infrastructure.NewYtDlpExtractor(&config.Extractor, multiLog)
	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	orchestrator := app.NewOrchestrator(extractor, files, repo, notifier, config, logAdapter)
	reaper := app.NewReaper(files, repo, &config.Download, logAdapter)

	router, err := api.SetupRouter(api.Dependencies{
		Orchestrator: orchestrator,
		Reaper:       reaper,
		Files:        files,
		Logger:       logAdapter,
		LogsDir:      config.Logging.LogsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := reaper.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start reaper: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// The reaper stops only after in-flight downloads have returned, so files
	// they schedule are still drained.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr := server.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			log.Error("Server forced to shutdown", zap.Error(shutdownErr))
		}

		if err := reaper.Stop(); err != nil {
			log.Error("Failed to stop reaper", zap.Error(err))
		}
		return shutdownErr
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		return err
	}

	log.Info("Server exited")
	return nil
}
