// cmd/retention/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/retainly/retention-engine/internal/braze"
	"github.com/retainly/retention-engine/internal/config"
	"github.com/retainly/retention-engine/internal/db"
	"github.com/retainly/retention-engine/internal/events"
	"github.com/retainly/retention-engine/internal/repository"
	"github.com/retainly/retention-engine/internal/runlock"
	"github.com/retainly/retention-engine/internal/service"
)

const lockTTL = 10 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	if err := run(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

// run is split out of main so that deferred cleanup executes on every
// exit path, fatal errors included.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	query, err := cfg.LoadQuery()
	if err != nil {
		return err
	}

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	lock := runlock.New(redisClient, store, cfg.CampaignID, lockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		log.Printf("another run holds the lock for campaign %s; skipping", cfg.CampaignID)
		return nil
	}
	defer lock.Release(context.Background())

	var dispatcher braze.Dispatcher
	if cfg.APIKey != "" {
		dispatcher = braze.NewClient(cfg.BrazeBaseURL, cfg.APIKey)
	} else {
		log.Println("API_KEY not set; using mocked Braze client")
		dispatcher = braze.NewMockClient()
	}

	var ledger repository.Ledger
	if cfg.LedgerEnabled {
		l := &repository.EnrollmentLedger{DB: store}
		if err := l.EnsureSchema(ctx); err != nil {
			return err
		}
		ledger = l
	}

	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		p, err := events.Dial(cfg.AMQPURL)
		if err != nil {
			// Eventing is an output sink; losing it does not stop the run.
			log.Printf("⚠️ enrollment events disabled: %v", err)
		} else {
			publisher = p
			defer p.Close()
		}
	}

	svc := &service.RetentionService{
		Users:      &repository.UserRepository{DB: store, Query: query},
		Dispatcher: dispatcher,
		Ledger:     ledger,
		Events:     publisher,
		CampaignID: cfg.CampaignID,
		Criteria:   cfg.Criteria,
		Workers:    cfg.DispatchWorkers,
	}

	summary, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	log.Printf("✅ run %s complete: %d segmented, %d dispatched, %d failed, %d skipped",
		summary.RunID, summary.SegmentSize, summary.Dispatched, summary.Failed, summary.Skipped)
	return nil
}
