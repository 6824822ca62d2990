package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/IgnisDa/trackona/internal/dedupe"
	"github.com/IgnisDa/trackona/internal/importer"
	"github.com/IgnisDa/trackona/internal/jobs"
	"github.com/IgnisDa/trackona/internal/notify"
	"github.com/IgnisDa/trackona/internal/platform/config"
	"github.com/IgnisDa/trackona/internal/platform/db"
	"github.com/IgnisDa/trackona/internal/platform/httpserver"
	"github.com/IgnisDa/trackona/internal/platform/logging"
	"github.com/IgnisDa/trackona/internal/platform/natsconn"
	"github.com/IgnisDa/trackona/internal/platform/run"
	"github.com/IgnisDa/trackona/internal/progress"
	"github.com/IgnisDa/trackona/internal/provider"
	"github.com/IgnisDa/trackona/internal/reviews"
	"github.com/IgnisDa/trackona/internal/statistics"
	"github.com/IgnisDa/trackona/internal/store"
	mediasync "github.com/IgnisDa/trackona/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connect", zap.Error(err))
		run.Exit(1)
	}
	defer pool.Close()

	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL})
	if err != nil {
		log.Error("nats connect", zap.Error(err))
		run.Exit(1)
	}
	defer nc.Close()

	queue, err := jobs.NewEnqueuer(nc, log)
	if err != nil {
		log.Error("jobs enqueuer init", zap.Error(err))
		run.Exit(1)
	}

	js, err := nc.JetStream()
	if err != nil {
		log.Error("jetstream", zap.Error(err))
		run.Exit(1)
	}
	notifier := notify.New(js, log)

	cache, err := dedupe.NewCache(cfg.RedisDSN, cfg.ProgressCacheTTL, cfg.IsProduction())
	if err != nil {
		log.Error("dedupe cache init", zap.Error(err))
		run.Exit(1)
	}

	seen := store.NewPostgresSeenRepository(pool)
	metadata := store.NewPostgresMetadataRepository(pool)
	persons := store.NewPostgresPersonRepository(pool)
	associations := store.NewPostgresAssociationRepository(pool)
	groups := store.NewPostgresGroupRepository(pool)
	collections := store.NewPostgresCollectionRepository(pool)
	monitored := store.NewPostgresMonitoredRepository(pool)
	preferences := store.NewPostgresPreferencesRepository(pool)
	reviewRepo := store.NewPostgresReviewRepository(pool)
	workouts := store.NewPostgresWorkoutRepository(pool)
	measurements := store.NewPostgresMeasurementRepository(pool)
	summaries := store.NewPostgresSummaryRepository(pool)
	interactions := store.NewPostgresInteractionRepository(pool)
	activities := store.NewPostgresActivityRepository(pool)

	// Concrete provider clients register themselves here; none ship with
	// the core.
	providers := provider.NewRegistry()

	engine := progress.NewEngine(log, seen, metadata, collections, cache, queue, progress.Options{
		Timezone:       cfg.Timezone,
		SpecialSeasons: cfg.SpecialSeasonNames,
	})
	syncService := mediasync.NewService(log, metadata, associations, groups, monitored, preferences, providers, queue, mediasync.Options{
		SpecialSeasons: cfg.SpecialSeasonNames,
	})
	statsService := statistics.NewService(log, seen, reviewRepo, workouts, measurements, summaries, interactions, activities, cfg.Timezone)
	reviewService := reviews.NewService(log, reviewRepo, preferences)
	importService := importer.New(log, syncService, engine, reviewService, persons, collections, workouts, measurements, preferences)

	worker, err := jobs.NewWorker(log, nc, jobs.Handlers{
		RefreshMetadata: func(ctx context.Context, job jobs.RefreshMetadataJob) error {
			return syncService.RefreshAndNotify(ctx, job.MetadataID, job.Force)
		},
		AssociateGroup: func(ctx context.Context, job jobs.AssociateGroupJob) error {
			return syncService.AssociateGroup(ctx, job.Lot, job.Source, job.Identifier)
		},
		RecalculateUserStats: func(ctx context.Context, job jobs.RecalculateUserStatsJob) error {
			return statsService.CalculateUserActivitiesAndSummary(ctx, job.UserID, job.FromBeginning)
		},
		DeliverNotification: func(_ context.Context, job jobs.DeliverNotificationJob) error {
			notifier.Publish(job.UserID, job.Message, job.Kind)
			return nil
		},
	})
	if err != nil {
		log.Error("worker init", zap.Error(err))
		run.Exit(1)
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error { return pool.Ping(context.Background()) },
	})

	// Optional HTTP trigger for local debugging. Production imports arrive
	// through the transport layer.
	if strings.TrimSpace(os.Getenv("ENABLE_DEBUG_ENDPOINTS")) == "true" {
		r.Post("/debug/import", func(w http.ResponseWriter, req *http.Request) {
			userID := req.URL.Query().Get("user_id")
			if userID == "" {
				http.Error(w, "user_id is required", http.StatusBadRequest)
				return
			}
			var batch importer.Result
			if err := json.NewDecoder(req.Body).Decode(&batch); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			outcome, err := importService.Process(req.Context(), userID, batch)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(outcome)
		})
	}

	srv := httpserver.New(httpserver.Options{
		Addr:        cfg.HTTP.Addr,
		ServiceName: cfg.ServiceName,
		Logger:      log,
		Router:      r,
	})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			if err := worker.Run(ctx); err != nil {
				log.Error("worker stopped", zap.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
