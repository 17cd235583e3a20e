package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strafelab/filmdec/internal/adapters/blob"
	"github.com/strafelab/filmdec/internal/adapters/sink"
	"github.com/strafelab/filmdec/internal/app"
	"github.com/strafelab/filmdec/internal/config"
	"github.com/strafelab/filmdec/pkg/logger"
	"github.com/strafelab/filmdec/pkg/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store := blob.NewFSStore(cfg.FilmDir)
	out, err := sink.NewJSONSink(cfg.OutDir)
	if err != nil {
		log.Error(ctx, "failed to create output sink", logger.Error(err))
		return
	}

	svc := app.New(
		app.WithFetcher(store),
		app.WithSink(out),
		app.WithLogger(log.Named("app")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithTolerance(cfg.ToleranceMS),
		app.WithMinNameLength(cfg.MinNameLength),
		app.WithNameCacheSize(cfg.NameCacheSize),
		app.WithChunkPreference(cfg.Preference()),
		app.WithInflateLimit(cfg.MaxInflateBytes),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			log.Info(ctx, "serving metrics", logger.String("addr", cfg.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(ctx, "metrics server failed", logger.Error(err))
			}
		}()
	}

	matches, err := store.ListMatches()
	if err != nil {
		log.Error(ctx, "failed to list film directory", logger.Error(err))
		svc.Stop(ctx)
		return
	}
	log.Info(ctx, "decoding films",
		logger.Int("matches", len(matches)),
		logger.String("film_dir", cfg.FilmDir),
		logger.String("out_dir", cfg.OutDir),
	)

	enqueued := 0
	for _, dir := range matches {
		job, err := store.ReadManifest(dir)
		if err != nil {
			log.Warn(ctx, "skipping match with unreadable manifest", logger.String("dir", dir), logger.Error(err))
			continue
		}
		if !svc.EnqueueMatch(ctx, job) {
			log.Warn(ctx, "queue refused match", logger.String("match_id", job.MatchID))
		} else {
			enqueued++
		}
	}

	// Batch semantics: close the queue and let the workers drain it, but
	// bail out early on a signal.
	drained := make(chan error, 1)
	go func() { drained <- svc.Drain(ctx) }()
	select {
	case err := <-drained:
		if err != nil {
			log.Error(ctx, "drain interrupted", logger.Error(err))
		}
	case <-ctx.Done():
		log.Warn(ctx, "interrupted; abandoning remaining matches")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	svc.Stop(shutdownCtx)

	log.Info(context.Background(), "done", logger.Int("matches_enqueued", enqueued))
}
