package service

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"bookie/metrics"
	"bookie/models"
	"bookie/outcome"
	"bookie/provider"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	wagers     WagerService
	provider   provider.ResultProvider
	workers    int
}

// NewSettlementService creates a new settlement service. workers bounds how
// many wagers are evaluated concurrently; every final ledger transition is
// still a single serialized transaction per wager.
func NewSettlementService(uowFactory UnitOfWorkFactory, wagers WagerService, resultProvider provider.ResultProvider, workers int) SettlementService {
	if workers < 1 {
		workers = 1
	}
	return &settlementService{
		uowFactory: uowFactory,
		wagers:     wagers,
		provider:   resultProvider,
		workers:    workers,
	}
}

// reportCollector accumulates the per-run report across workers.
type reportCollector struct {
	mu     sync.Mutex
	report models.SettlementReport
}

func (c *reportCollector) settled(verdict outcome.Verdict) {
	c.mu.Lock()
	c.report.Settled++
	c.mu.Unlock()
	metrics.WagersSettled.WithLabelValues(string(verdict)).Inc()
}

func (c *reportCollector) skipped(issue models.SettlementIssue, reason string) {
	c.mu.Lock()
	c.report.Skipped++
	c.report.Issues = append(c.report.Issues, issue)
	c.mu.Unlock()
	metrics.WagersSkipped.WithLabelValues(reason).Inc()
}

func (c *reportCollector) failed(issue models.SettlementIssue) {
	c.mu.Lock()
	c.report.Issues = append(c.report.Issues, issue)
	c.mu.Unlock()
	metrics.SettlementErrors.Inc()
}

// SettleOpenWagers iterates wagers with status pending or active, fetches
// their fixtures from the result provider, evaluates each leg, and applies
// any aggregate verdict reached. Per-wager failures are collected into the
// returned report and never abort the run.
func (s *settlementService) SettleOpenWagers(ctx context.Context, accountID *int64) (*models.SettlementReport, error) {
	open, err := s.loadOpenWagers(ctx, accountID)
	if err != nil {
		return nil, err
	}

	collector := &reportCollector{}
	collector.report.Examined = len(open)

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for _, wager := range open {
		wg.Add(1)
		sem <- struct{}{}
		go func(w *models.Wager) {
			defer wg.Done()
			defer func() { <-sem }()
			s.settleWager(ctx, w, collector)
		}(wager)
	}
	wg.Wait()

	log.WithFields(log.Fields{
		"examined": collector.report.Examined,
		"settled":  collector.report.Settled,
		"skipped":  collector.report.Skipped,
	}).Info("Settlement run finished")

	return &collector.report, nil
}

func (s *settlementService) loadOpenWagers(ctx context.Context, accountID *int64) ([]*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	open, err := uow.WagerRepository().GetOpen(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open wagers: %w", err)
	}
	return open, nil
}

// settleWager evaluates one wager's legs and applies the aggregate verdict
// if one is reached.
func (s *settlementService) settleWager(ctx context.Context, wager *models.Wager, collector *reportCollector) {
	verdicts := make([]outcome.Verdict, 0, len(wager.Legs))

	for _, leg := range wager.Legs {
		result, err := s.provider.FetchFixture(ctx, leg.FixtureID)
		if err != nil {
			metrics.ProviderFetches.WithLabelValues("error").Inc()
			collector.skipped(models.SettlementIssue{
				WagerID:   wager.ID,
				FixtureID: leg.FixtureID,
				Reason:    fmt.Sprintf("fixture fetch failed: %v", err),
			}, "fetch_failed")
			return
		}
		metrics.ProviderFetches.WithLabelValues("ok").Inc()

		if !result.Finished() {
			collector.skipped(models.SettlementIssue{
				WagerID:        wager.ID,
				FixtureID:      leg.FixtureID,
				ProviderStatus: result.Status,
				Reason:         "fixture not finished",
			}, "not_finished")
			return
		}

		verdict, err := outcome.EvaluateLeg(leg, result)
		if verdict == outcome.VerdictUndetermined {
			reason := "leg verdict undetermined"
			if err != nil {
				reason = fmt.Sprintf("leg outcome unrecognized: %v", err)
			}
			// Undetermined never defaults to a verdict; flag for manual review.
			log.WithFields(log.Fields{
				"wagerID":   wager.ID,
				"fixtureID": leg.FixtureID,
				"market":    leg.MarketType,
				"key":       leg.OutcomeKey,
			}).Warn("Leg could not be evaluated, leaving wager unresolved")
			collector.skipped(models.SettlementIssue{
				WagerID:        wager.ID,
				FixtureID:      leg.FixtureID,
				ProviderStatus: result.Status,
				Verdict:        string(verdict),
				Reason:         reason,
			}, "undetermined")
			return
		}
		verdicts = append(verdicts, verdict)
	}

	target, ok := aggregateVerdict(verdicts)
	if !ok {
		collector.skipped(models.SettlementIssue{
			WagerID: wager.ID,
			Reason:  "no aggregate verdict",
		}, "undetermined")
		return
	}

	if err := s.wagers.SetWagerStatus(ctx, wager.ID, target, nil, ""); err != nil {
		collector.failed(models.SettlementIssue{
			WagerID: wager.ID,
			Verdict: string(verdictForStatus(target)),
			Reason:  fmt.Sprintf("status transition failed: %v", err),
		})
		return
	}

	collector.settled(verdictForStatus(target))
}

// aggregateVerdict folds leg verdicts into a wager-level status. Any lost
// leg loses the wager; otherwise every leg is won or refunded, and a single
// refunded leg turns the whole wager into a refund. A one-leg wager's
// aggregate is its leg's verdict.
func aggregateVerdict(verdicts []outcome.Verdict) (models.WagerStatus, bool) {
	if len(verdicts) == 0 {
		return "", false
	}

	refunded := false
	for _, v := range verdicts {
		switch v {
		case outcome.VerdictLost:
			return models.WagerStatusLost, true
		case outcome.VerdictRefunded:
			refunded = true
		case outcome.VerdictWon:
		default:
			return "", false
		}
	}

	if refunded {
		return models.WagerStatusRefunded, true
	}
	return models.WagerStatusWon, true
}

func verdictForStatus(status models.WagerStatus) outcome.Verdict {
	switch status {
	case models.WagerStatusWon:
		return outcome.VerdictWon
	case models.WagerStatusLost:
		return outcome.VerdictLost
	case models.WagerStatusRefunded:
		return outcome.VerdictRefunded
	default:
		return outcome.VerdictUndetermined
	}
}
