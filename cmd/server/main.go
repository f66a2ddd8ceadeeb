// main wires the caseflow server: storage, cache, event feed, services,
// router, and the background workers. Business logic lives in the internal
// packages; this file only composes them.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	casemetrics "caseflow/internal/cases/metrics"
	casesservice "caseflow/internal/cases/service"
	"caseflow/internal/cases/store/caserepo"
	"caseflow/internal/catalog"
	"caseflow/internal/identity"
	"caseflow/internal/notify"
	partiesservice "caseflow/internal/parties/service"
	"caseflow/internal/parties/store/partyrepo"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/httpserver"
	"caseflow/internal/platform/logger"
	platformmetrics "caseflow/internal/platform/metrics"
	platformredis "caseflow/internal/platform/redis"
	transporthttp "caseflow/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: postgres when configured, in-memory otherwise (dev and tests).
	var (
		db        *sql.DB
		caseStore caserepo.Store
		partyRepo partyrepo.Store
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		caseStore = caserepo.NewPostgres(db)
		partyRepo = partyrepo.NewPostgres(db)
	} else {
		log.Warn("no postgres configured, using in-memory stores")
		caseStore = caserepo.NewInMemory()
		partyRepo = partyrepo.NewInMemory()
	}

	// Snapshot cache is optional; a missing redis only slows reads down.
	cache, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}

	caseMetrics := casemetrics.New()
	if cache != nil {
		defer cache.Close()
		caseStore = caserepo.NewSnapshotCache(caseStore, cache.Client, cfg.Redis.SnapshotTTL, log, caseMetrics)
	}

	// Event feed: kafka when brokers are configured, otherwise dropped.
	var emitter notify.Emitter = notify.Discard{}
	var kafkaEmitter *notify.KafkaEmitter
	if len(cfg.KafkaBrokers) > 0 {
		kafkaEmitter, err = notify.NewKafkaEmitter(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaEmitter.Close()
		emitter = kafkaEmitter
	}

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		log.Error("load requirement catalog", "error", err)
		os.Exit(1)
	}

	partySvc := partiesservice.NewPartyService(partyRepo, partiesservice.WithLogger(log))
	caseSvc := casesservice.NewCaseService(caseStore,
		casesservice.WithLogger(log),
		casesservice.WithMetrics(caseMetrics),
		casesservice.WithEmitter(emitter),
		casesservice.WithPartyDirectory(partySvc),
		casesservice.WithCatalog(cat),
	)

	jwtSvc := identity.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := transporthttp.New(transporthttp.Deps{
		Cases:     caseSvc,
		Parties:   partySvc,
		Validator: jwtSvc,
		Logger:    log,
		Metrics:   platformmetrics.New(),
		DB:        db,
		Cache:     cache,
	})
	srv := httpserver.New(cfg.HTTP, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting caseflow", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if kafkaEmitter != nil {
		group.Go(func() error {
			return kafkaEmitter.Run(groupCtx)
		})
	}

	group.Go(func() error {
		return runExpirySweep(groupCtx, log, caseSvc, cfg.SubmissionValidity, cfg.SweepInterval)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// runExpirySweep periodically expires verified submissions past their
// validity window.
func runExpirySweep(ctx context.Context, log *slog.Logger, svc *casesservice.CaseService, validity, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			count, err := svc.ExpireStaleSubmissions(ctx, validity)
			if err != nil {
				log.Error("submission expiry sweep failed", "error", err)
				continue
			}
			if count > 0 {
				log.Info("submission expiry sweep", "expired", count)
			}
		}
	}
}
