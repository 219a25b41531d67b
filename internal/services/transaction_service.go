package services

import (
	"context"
	"fmt"

	"aura/internal/amqp"
	"aura/internal/analytics"
	"aura/internal/cache"
	"aura/internal/core"
	"aura/internal/log"
	"aura/internal/ports"
)

// TransactionService orchestrates transaction writes across the store, the
// dashboard cache and the event broker.
type TransactionService struct {
	store     ports.TransactionStore
	publisher amqp.Publisher
	gens      *cache.Generations
	logger    *log.Logger
	events    *log.EventLogger
}

// NewTransactionService wires the service. publisher may be nil, in which
// case no events are emitted.
func NewTransactionService(store ports.TransactionStore, publisher amqp.Publisher, gens *cache.Generations, logger *log.Logger) *TransactionService {
	if gens == nil {
		gens = cache.NewGenerations()
	}
	logger = logger.WithComponent(log.ComponentApp)
	return &TransactionService{
		store:     store,
		publisher: publisher,
		gens:      gens,
		logger:    logger,
		events:    log.NewEventLogger(logger),
	}
}

// List returns the user's transactions matching f, newest first.
func (s *TransactionService) List(ctx context.Context, userID string, f analytics.Filter) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// Create saves a transaction and announces it. Publishing is best effort:
// the transaction is already stored when it fails.
func (s *TransactionService) Create(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.changed(ctx, amqp.ActionCreated, saved)
	return saved, nil
}

func (s *TransactionService) Update(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	saved, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.changed(ctx, amqp.ActionUpdated, saved)
	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.changed(ctx, amqp.ActionDeleted, core.Transaction{ID: id, UserID: userID})
	return nil
}

func (s *TransactionService) changed(ctx context.Context, action string, t core.Transaction) {
	s.gens.Bump(t.UserID)

	amount := ""
	if t.Amount.Valid {
		amount = t.Amount.Decimal.String()
	}
	s.events.TransactionSaved(ctx, action, t.UserID, t.ID, t.BankID, amount)

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not available, skipping transaction event",
			log.FieldTransactionID, t.ID)
		return
	}
	version := t.UpdatedAt.UnixMilli()
	if t.UpdatedAt.IsZero() {
		version = 0
	}
	evt := amqp.NewTransactionEvent(action, t.UserID, t.ID, version)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		// The write already succeeded; the worker catches up on the next
		// reindex.
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldTransactionID, t.ID,
			log.FieldEventAction, action,
			log.FieldError, err)
	}
}
