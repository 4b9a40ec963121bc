// Package wiring builds the process-lifetime collaborators from config. The
// server and the CLI share it so both run the same pipeline.
package wiring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pratyaksh/internal/adapters/classifier"
	"pratyaksh/internal/adapters/ela"
	"pratyaksh/internal/adapters/groundtruth"
	"pratyaksh/internal/adapters/mediastore"
	pg "pratyaksh/internal/adapters/postgres"
	"pratyaksh/internal/config"
	"pratyaksh/internal/logging"
	"pratyaksh/internal/observability"
	"pratyaksh/internal/ports"
	"pratyaksh/internal/services/archive"
	"pratyaksh/internal/services/evidence"
	"pratyaksh/internal/services/verification"
)

type App struct {
	Config   config.Config
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Store    *mediastore.Store
	Verifier *verification.Service

	// DB and Archive are nil when no database is configured.
	DB      *pg.DB
	Archive *archive.Service
}

// Build connects optional backends and assembles the verifier. Missing
// collaborators are logged and leave their evidence kind unavailable.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	log := logging.New("wiring")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	store, err := mediastore.New(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Registry: reg, Metrics: metrics, Store: store}

	src := evidence.Sources{Tamper: ela.New()}
	if cfg.ClassifierURL != "" {
		src.Classifier = classifier.New(cfg.ClassifierURL, cfg.ClassifierToken, cfg.AdapterTimeout)
	} else {
		log.Warn("CLASSIFIER_URL not set; authenticity evidence will be unavailable")
	}
	if cfg.GroundTruthURL != "" {
		src.GroundTruth = groundtruth.New(cfg.GroundTruthURL, cfg.GroundTruthToken, cfg.AdapterTimeout, cfg.SatelliteRPS)
	} else {
		log.Warn("GROUND_TRUTH_URL not set; satellite evidence will be unavailable")
	}
	if cfg.DatabaseURL != "" {
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		var _ ports.FingerprintRepository = db
		app.DB = db
		app.Archive = archive.New(db, cfg.HistoryMaxDistance)
		src.History = app.Archive
	} else {
		log.Warn("DATABASE_URL not set; history lookups report nothing seen")
	}

	collector := evidence.NewCollector(src, evidence.Options{
		Timeout:         cfg.AdapterTimeout,
		SatelliteWindow: cfg.SatelliteWindow(),
		Metrics:         metrics,
		Logger:          logging.New("collector"),
	})
	app.Verifier = verification.New(store, collector, metrics)

	log.Info("pipeline ready",
		slog.Bool("classifier", src.Classifier != nil),
		slog.Bool("ground_truth", src.GroundTruth != nil),
		slog.Bool("archive", app.Archive != nil))
	return app, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
