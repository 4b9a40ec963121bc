package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"pratyaksh/internal/adapters/amqp"
	httpadapter "pratyaksh/internal/adapters/http"
	"pratyaksh/internal/config"
	"pratyaksh/internal/logging"
	"pratyaksh/internal/observability"
	"pratyaksh/internal/wiring"
	"pratyaksh/internal/workers/verifyrunner"
)

func main() {
	cfg, err := config.Load()
	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	log := logging.New("server")
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, "pratyaksh")
	if err != nil {
		log.Warn("tracing disabled", "error", err)
		shutdownTracer = func(context.Context) {}
	}
	defer shutdownTracer(context.Background())

	app, err := wiring.Build(ctx, cfg)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.DB != nil {
		if err := app.DB.Migrate(ctx); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	var archive httpadapter.Archive
	if app.Archive != nil {
		archive = app.Archive
	}
	srv := httpadapter.New(app.Verifier, archive, app.Store, app.Registry, cfg.MaxUploadBytes)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	// Optional background verification workers
	workersDone := make(chan struct{})
	if cfg.VerifyWorkers > 0 && cfg.AMQPURL != "" {
		queue, err := amqp.Dial(cfg.AMQPURL, cfg.JobQueue, cfg.ResultQueue, cfg.VerifyWorkers)
		if err != nil {
			log.Error("job queue unavailable", "error", err)
			os.Exit(1)
		}
		defer queue.Close()
		processor := verifyrunner.VerifyProcessor{
			Verifier: app.Verifier,
			HTTP:     &http.Client{Timeout: cfg.AdapterTimeout},
			MaxBytes: cfg.MaxUploadBytes,
			Timeout:  cfg.JobTimeout,
		}
		go func() {
			defer close(workersDone)
			if err := verifyrunner.Run(ctx, queue, processor, cfg.VerifyWorkers); err != nil {
				log.Error("verify workers stopped", "error", err)
			}
		}()
		log.Info("verify workers started", "count", cfg.VerifyWorkers, "queue", cfg.JobQueue)
	} else {
		close(workersDone)
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info("listening", "addr", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", slog.Any("error", err))
	}
	cancel()
	<-workersDone
}
