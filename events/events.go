package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bookie/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeWagerPlaced         EventType = "wager_placed"
	EventTypeWagerSettled        EventType = "wager_settled"
	EventTypeDepositApproved     EventType = "deposit_approved"
	EventTypeWithdrawalProcessed EventType = "withdrawal_processed"
	EventTypeCreditLimitChanged  EventType = "credit_limit_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	AccountID       int64
	OldBalance      decimal.Decimal
	NewBalance      decimal.Decimal
	TransactionType models.TransactionType
	ChangeAmount    decimal.Decimal
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// WagerPlacedEvent represents a newly created wager
type WagerPlacedEvent struct {
	WagerID      int64
	AccountID    int64
	Stake        decimal.Decimal
	PotentialWin decimal.Decimal
	LegCount     int
}

func (e WagerPlacedEvent) Type() EventType {
	return EventTypeWagerPlaced
}

// WagerSettledEvent represents a wager reaching a terminal status
type WagerSettledEvent struct {
	WagerID   int64
	AccountID int64
	Status    models.WagerStatus
	WinAmount decimal.Decimal
}

func (e WagerSettledEvent) Type() EventType {
	return EventTypeWagerSettled
}

// DepositApprovedEvent represents an approved deposit, including how much of
// it was consumed by debt offset.
type DepositApprovedEvent struct {
	DepositID  int64
	AccountID  int64
	Amount     decimal.Decimal
	DebtOffset decimal.Decimal
}

func (e DepositApprovedEvent) Type() EventType {
	return EventTypeDepositApproved
}

// WithdrawalProcessedEvent represents a withdrawal approval or rejection
type WithdrawalProcessedEvent struct {
	WithdrawalID int64
	AccountID    int64
	Amount       decimal.Decimal
	Approved     bool
}

func (e WithdrawalProcessedEvent) Type() EventType {
	return EventTypeWithdrawalProcessed
}

// CreditLimitChangedEvent represents an approved credit limit raise
type CreditLimitChangedEvent struct {
	AccountID int64
	OldLimit  decimal.Decimal
	NewLimit  decimal.Decimal
}

func (e CreditLimitChangedEvent) Type() EventType {
	return EventTypeCreditLimitChanged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Handlers run asynchronously so a slow subscriber cannot block a commit path.
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and flushes
// them to the underlying bus only after a successful commit.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit. Events are emitted on a
// background context since the transaction context may already be done.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
