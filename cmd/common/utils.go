package common

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/transit-ga/internal/logger"
	"github.com/ducminhle1904/transit-ga/internal/monitoring"
	"github.com/ducminhle1904/transit-ga/pkg/config"
	"github.com/ducminhle1904/transit-ga/pkg/store"
)

// LoadEnvFile loads environment variables from path. A missing file is not an
// error; it reports whether a file was loaded.
func LoadEnvFile(path string) (bool, error) {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("could not load environment file %s: %w", path, err)
	}
	return true, nil
}

// LoadExperiment builds the run configuration: defaults, then the config file,
// then GA_* environment variables, then explicitly set flags. The result is
// validated.
func LoadExperiment(flags *CommonFlags) (*config.ExperimentConfig, error) {
	manager := config.NewConfigManager()

	cfg, err := manager.Load(*flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	flags.ApplyOverrides(cfg)

	if err := manager.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// NewRunLogger creates the console and file logger of a run writing to dir/log.txt
func NewRunLogger(dir, name string, flags *CommonFlags) (*logger.Logger, error) {
	return logger.NewLogger(dir, name,
		logger.LevelFromVerbosity(*flags.Verbosity),
		logger.LevelFromVerbosity(*flags.FileVerbosity))
}

// StartMonitoring serves /metrics and, when health is set, /health on addr.
// It returns nil when addr is empty.
func StartMonitoring(addr string, health *monitoring.HealthChecker, log *logger.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	if health != nil {
		mux.Handle("/health", health)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Monitoring server failed: %v", err)
		}
	}()

	log.Info("Serving metrics on http://%s/metrics", addr)
	return server
}

// StopMonitoring shuts down a server started by StartMonitoring
func StopMonitoring(server *http.Server) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

// OpenHistory opens the run history database, returning nil when path is empty
func OpenHistory(ctx context.Context, path string, log *logger.Logger) (*store.DB, error) {
	if path == "" {
		return nil, nil
	}

	db, err := store.Open(path, log)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
