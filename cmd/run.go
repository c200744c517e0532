package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"bookie/config"
	"bookie/database"
	"bookie/events"
	"bookie/metrics"
	"bookie/provider"
	"bookie/repository"
	"bookie/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting bookie...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()
	subscribeAuditLog(eventBus)
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	wagerService := service.NewWagerService(uowFactory)
	resultProvider := buildProvider(cfg)
	settlementService := service.NewSettlementService(uowFactory, wagerService, resultProvider, cfg.SettlementWorkers)

	metricsServer := metrics.StartServer(cfg.MetricsPort, func(healthCtx context.Context) error {
		return db.Ping(healthCtx)
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Metrics server shutdown failed")
		}
	}()

	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"interval":    cfg.SettlementInterval,
		"workers":     cfg.SettlementWorkers,
	}).Info("Settlement scheduler running")

	ticker := time.NewTicker(cfg.SettlementInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down...")
			return nil
		case <-ticker.C:
			report, err := settlementService.SettleOpenWagers(ctx, nil)
			if err != nil {
				log.WithError(err).Error("Settlement run failed")
				continue
			}
			for _, issue := range report.Issues {
				log.WithFields(log.Fields{
					"wagerID":   issue.WagerID,
					"fixtureID": issue.FixtureID,
					"reason":    issue.Reason,
				}).Debug("Wager left unresolved")
			}
		}
	}
}

// subscribeAuditLog logs settlement and funding events as they leave the
// transactional bus.
func subscribeAuditLog(bus *events.Bus) {
	bus.Subscribe(events.EventTypeWagerSettled, func(ctx context.Context, e events.Event) {
		ev := e.(events.WagerSettledEvent)
		log.WithFields(log.Fields{
			"wagerID":   ev.WagerID,
			"accountID": ev.AccountID,
			"status":    ev.Status,
			"winAmount": ev.WinAmount,
		}).Info("Wager settled")
	})
	bus.Subscribe(events.EventTypeDepositApproved, func(ctx context.Context, e events.Event) {
		ev := e.(events.DepositApprovedEvent)
		log.WithFields(log.Fields{
			"depositID":  ev.DepositID,
			"accountID":  ev.AccountID,
			"amount":     ev.Amount,
			"debtOffset": ev.DebtOffset,
		}).Info("Deposit approved")
	})
	bus.Subscribe(events.EventTypeCreditLimitChanged, func(ctx context.Context, e events.Event) {
		ev := e.(events.CreditLimitChangedEvent)
		log.WithFields(log.Fields{
			"accountID": ev.AccountID,
			"oldLimit":  ev.OldLimit,
			"newLimit":  ev.NewLimit,
		}).Info("Credit limit changed")
	})
}

// buildProvider assembles the result provider chain: the HTTP client, plus a
// Redis cache for finished fixtures when an address is configured.
func buildProvider(cfg *config.Config) provider.ResultProvider {
	base := provider.NewHTTPProvider(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderTimeout)
	if cfg.RedisAddr == "" {
		return base
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	log.WithField("addr", cfg.RedisAddr).Info("Fixture result cache enabled")
	return provider.NewCachedProvider(base, rdb, cfg.FixtureCacheTTL)
}
