/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Initialize SQLite store
  3. Build the holiday calendar (built-in, optional file, admin holidays)
  4. Build working days, salary engine and payroll service
  5. Start the holiday cache warmer
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the cache warmer
  4. Close database connection

EXAMPLES:
  ./server -db="./data/payroll.db"
  HOLIDAY_COUNTRY=US HOLIDAY_STATE=CA ./server -port=3000

SEE ALSO:
  - config/config.go: Environment keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
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

	"github.com/sirupsen/logrus"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/salary"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/workdays"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.DBPath = *dbPath

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	logger := cfg.NewLogger()

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Holiday calendar
	cal, err := buildCalendar(cfg, store, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize holiday calendar: %v", err)
	}

	// Calculation core
	wd := workdays.NewCalculator(cal, workdays.WithLogger(logger))
	salaryCfg := salary.DefaultConfig()
	salaryCfg.ExcludeSaturdays = cfg.ExcludeSaturdays
	salaryCfg.ClampDailyWage = cfg.ClampDailyWage
	engine := salary.NewEngine(wd, salaryCfg, salary.WithLogger(logger))
	service := payroll.NewService(store, engine, nil,
		payroll.WithWorkers(cfg.Workers),
		payroll.WithLogger(logger),
	)

	// Handler and router
	handler := api.NewHandler(store, service, cal, wd, logger)
	handler.MaxUploadBytes = cfg.MaxUploadBytes
	router := api.NewRouter(handler, api.RouterOptions{CORSOrigins: cfg.CORSOrigins, Logger: logger})

	warmer := api.NewCacheWarmer(cal, logger)
	warmer.Interval = cfg.CacheWarmInterval
	warmer.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"db":       cfg.DBPath,
			"location": cal.Location().String(),
			"workers":  cfg.Workers,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	warmer.Stop()

	logger.Info("Server stopped")
}

// buildCalendar chains the built-in tables, the optional holiday file and the
// admin holidays, and restores the persisted location.
func buildCalendar(cfg *config.Config, store *sqlite.Store, logger logrus.FieldLogger) (*calendar.Calendar, error) {
	providers := []calendar.Provider{calendar.NewStaticProvider()}
	if cfg.HolidayFile != "" {
		fp, err := calendar.NewFileProvider(cfg.HolidayFile)
		if err != nil {
			return nil, err
		}
		providers = append(providers, fp)
		logger.WithField("file", cfg.HolidayFile).Info("Holiday file loaded")
	}
	providers = append(providers, store)

	loc := calendar.NewLocation(cfg.HolidayCountry, cfg.HolidayState)
	saved, ok, err := store.HolidayLocation(context.Background())
	if err != nil {
		return nil, err
	}
	if ok {
		loc = saved
	}

	return calendar.New(
		calendar.NewChainProvider(providers...),
		loc,
		calendar.WithCache(calendar.NewMemoryCache()),
		calendar.WithLogger(logger),
	), nil
}
