package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	invoice "github.com/elmehdiayad/volo-sub001"
	"github.com/elmehdiayad/volo-sub001/internal/assets"
	"github.com/elmehdiayad/volo-sub001/internal/config"
	"github.com/elmehdiayad/volo-sub001/internal/httpapi"
	"github.com/elmehdiayad/volo-sub001/internal/logger"
	"github.com/elmehdiayad/volo-sub001/internal/metrics"
	"github.com/elmehdiayad/volo-sub001/internal/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		verbose    bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "force debug logging")
	pflag.Parse()

	// Missing .env is fine; the config file and environment still apply.
	_ = godotenv.Load()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.Logs.Level
	if verbose {
		level = "debug"
	}
	base, err := logger.New(level, cfg.Logs.Format)
	if err != nil {
		return err
	}
	log := base.With().Str("version", Version).Logger()

	// Error ignored: maxprocs.Set only fails on an invalid GOMAXPROCS env
	// value, in which case runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		log.Debug().Msgf(format, args...)
	}))

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	store, err := assets.NewStore(cfg.Assets.BasePath)
	if err != nil {
		return err
	}

	service := invoice.NewService(
		storage.NewRepository(db),
		store,
		invoice.WithTimeout(time.Duration(cfg.Invoice.RenderTimeout)*time.Second),
		invoice.WithCurrencySymbol(cfg.Invoice.CurrencySymbol),
		invoice.WithPlace(cfg.Invoice.Place),
		invoice.WithLogger(log),
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New("voloinvoice")
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", httpapi.Health).Methods(http.MethodGet)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(httpapi.LoggingMiddleware(log))
	if m != nil {
		api.Use(httpapi.MetricsMiddleware(m))
	}
	httpapi.NewHandler(service, log, m).Register(api)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
