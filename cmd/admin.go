package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bookie/config"
	"bookie/database"
	"bookie/events"
	"bookie/models"
	"bookie/repository"
	"bookie/service"
)

// RunAdmin executes a one-shot operator command against the ledgers and
// exits. This is the review surface for funding requests and manual wager
// corrections:
//
//	bookie settle
//	bookie account show <id>
//	bookie wager open [account]
//	bookie wager set-status <id> <status> [notes]
//	bookie deposit approve|reject <id>
//	bookie withdrawal approve|reject <id>
//	bookie credit approve|reject <id>
func RunAdmin(ctx context.Context, args []string) error {
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	wagerService := service.NewWagerService(uowFactory)
	fundingService := service.NewFundingService(uowFactory)
	accountService := service.NewAccountService(uowFactory)

	switch args[0] {
	case "settle":
		resultProvider := buildProvider(cfg)
		settlementService := service.NewSettlementService(uowFactory, wagerService, resultProvider, cfg.SettlementWorkers)
		report, err := settlementService.SettleOpenWagers(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Printf("examined=%d settled=%d skipped=%d\n", report.Examined, report.Settled, report.Skipped)
		for _, issue := range report.Issues {
			fmt.Printf("  wager %d: %s\n", issue.WagerID, issue.Reason)
		}
		return nil

	case "account":
		if len(args) < 3 || args[1] != "show" {
			return fmt.Errorf("usage: bookie account show <id>")
		}
		id, err := parseID(args[2])
		if err != nil {
			return err
		}
		account, err := accountService.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("account %d: balance=%s credit_limit=%s debt=%s total_staked=%s\n",
			account.ID, account.Balance, account.CreditLimit, account.CurrentDebt, account.TotalStaked)
		history, err := accountService.GetBalanceHistory(ctx, id, 10)
		if err != nil {
			return err
		}
		for _, h := range history {
			fmt.Printf("  %s %s %s -> %s\n", h.CreatedAt.Format("2006-01-02 15:04:05"),
				h.TransactionType, h.BalanceBefore, h.BalanceAfter)
		}
		return nil

	case "wager":
		if len(args) >= 2 && args[1] == "open" {
			var accountID *int64
			if len(args) > 2 {
				id, err := parseID(args[2])
				if err != nil {
					return err
				}
				accountID = &id
			}
			wagers, err := wagerService.GetOpenWagers(ctx, accountID)
			if err != nil {
				return err
			}
			for _, w := range wagers {
				fmt.Printf("wager %d account=%d stake=%s potential_win=%s legs=%d\n",
					w.ID, w.AccountID, w.Stake, w.PotentialWin, len(w.Legs))
			}
			return nil
		}
		if len(args) < 4 || args[1] != "set-status" {
			return fmt.Errorf("usage: bookie wager open [account] | set-status <id> <status> [notes]")
		}
		id, err := parseID(args[2])
		if err != nil {
			return err
		}
		notes := ""
		if len(args) > 4 {
			notes = args[4]
		}
		var winAmount *decimal.Decimal
		if len(args) > 5 {
			parsed, err := decimal.NewFromString(args[5])
			if err != nil {
				return fmt.Errorf("invalid win amount %q", args[5])
			}
			winAmount = &parsed
		}
		return wagerService.SetWagerStatus(ctx, id, models.WagerStatus(args[3]), winAmount, notes)

	case "deposit":
		return runReview(ctx, args, fundingService.ApproveDeposit, fundingService.RejectDeposit)

	case "withdrawal":
		return runReview(ctx, args, fundingService.ApproveWithdrawal, fundingService.RejectWithdrawal)

	case "credit":
		return runReview(ctx, args, fundingService.ApproveCreditRequest, fundingService.RejectCreditRequest)

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func runReview(ctx context.Context, args []string, approve, reject func(context.Context, int64) error) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: bookie %s approve|reject <id>", args[0])
	}
	id, err := parseID(args[2])
	if err != nil {
		return err
	}
	switch args[1] {
	case "approve":
		err = approve(ctx, id)
	case "reject":
		err = reject(ctx, id)
	default:
		return fmt.Errorf("usage: bookie %s approve|reject <id>", args[0])
	}
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"kind": args[0], "action": args[1], "id": id}).Info("Request processed")
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
