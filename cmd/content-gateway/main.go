package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/safevoice/content-gateway/internal/cms"
	"github.com/safevoice/content-gateway/internal/config"
	gwhttp "github.com/safevoice/content-gateway/internal/http"
	"github.com/safevoice/content-gateway/internal/http/handlers"
	"github.com/safevoice/content-gateway/internal/render"
	"github.com/safevoice/content-gateway/internal/service"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting content-gateway", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	creds, err := setupCredentials(cfg.Credentials)
	if err != nil {
		log.Error("credentials_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if cerr := creds.Close(); cerr != nil {
			log.Warn("credentials_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	cmsClient := cms.New(cms.Options{
		BaseURL:        cfg.CMS.BaseURL,
		MaxAttempts:    cfg.CMS.MaxAttempts,
		BackoffBase:    cfg.CMS.BackoffBase,
		AttemptTimeout: cfg.CMS.AttemptTimeout,
	}, creds)

	loader := service.NewLoader(cmsClient, service.MediaOptions{
		BaseURL:     cfg.CMS.MediaBaseURL,
		Placeholder: cfg.CMS.PlaceholderImage,
	})

	h := handlers.New(loader, render.New(cfg.CMS.MediaBaseURL), cmsClient)

	log.Info("cms_client_initialized", slog.String("base_url", cfg.CMS.BaseURL))

	opts := gwhttp.Options{
		Logger:   log,
		Timeout:  cfg.Timeouts.Service,
		BasePath: "",
	}

	apiHandler := gwhttp.NewRouter(h, opts)

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Метрики на отдельном листенере: публичный порт их не отдаёт.
	metricsSrv := &http.Server{
		Addr:              cfg.Metrics.Addr(),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics_serve_failed", slog.String("err", err.Error()))
		}
	}()

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("gateway_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics_shutdown_incomplete", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

// setupCredentials выбирает стор токена: Redis при заданном URL,
// иначе статический токен из конфига.
func setupCredentials(cfg config.CredentialsConfig) (cms.CredentialStore, error) {
	if cfg.RedisURL != "" {
		return cms.NewRedisStore(cfg.RedisURL, cfg.RedisKey)
	}

	return cms.NewStaticStore(cfg.Token), nil
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
