package worker

import (
	"context"
	"errors"
	"fmt"

	"aura/internal/amqp"
	"aura/internal/core"
	"aura/internal/log"
	"aura/internal/ports"
)

// Store is the read side the worker needs to rebuild a transaction from an
// event.
type Store interface {
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	GetBank(ctx context.Context, userID, id string) (core.Bank, error)
}

// Indexer mirrors transactions into the search index.
type Indexer interface {
	Index(ctx context.Context, t core.Transaction) error
	IndexAll(ctx context.Context, txs []core.Transaction) (int, error)
	Delete(ctx context.Context, id string) error
}

// Appender exports new transactions as spreadsheet rows.
type Appender interface {
	Append(ctx context.Context, t core.Transaction, bankName string) (string, error)
}

// SyncWorker fans transaction events out to the search index and the
// spreadsheet. Either sink may be nil.
type SyncWorker struct {
	store  Store
	index  Indexer
	sheet  Appender
	logger *log.Logger
}

func NewSyncWorker(store Store, index Indexer, sheet Appender, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		store:  store,
		index:  index,
		sheet:  sheet,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one transaction event. A returned error asks the
// consumer to redeliver the event.
func (w *SyncWorker) HandleEvent(ctx context.Context, evt amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldEventAction, evt.Action,
		log.FieldTransactionID, evt.TransactionID,
		log.FieldUserID, evt.UserID,
		"version", evt.Version)

	switch evt.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		return w.sync(ctx, evt)
	case amqp.ActionDeleted:
		return w.remove(ctx, evt.TransactionID)
	default:
		w.logger.WarnContext(ctx, "Dropping event with unknown action", log.FieldEventAction, evt.Action)
		return nil
	}
}

func (w *SyncWorker) sync(ctx context.Context, evt amqp.TransactionEvent) error {
	tx, err := w.store.GetTransaction(ctx, evt.UserID, evt.TransactionID)
	if errors.Is(err, ports.ErrNotFound) {
		// Deleted before we got to it; the delete event cleans up.
		w.logger.InfoContext(ctx, "Transaction no longer exists, skipping", log.FieldTransactionID, evt.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	// Indexing is idempotent, so it runs first: a failed append then
	// redelivers without duplicating anything.
	if w.index != nil {
		if err := w.index.Index(ctx, tx); err != nil {
			return fmt.Errorf("index transaction: %w", err)
		}
	}

	if w.sheet != nil && evt.Action == amqp.ActionCreated {
		bankName := ""
		if bank, err := w.store.GetBank(ctx, tx.UserID, tx.BankID); err == nil {
			bankName = bank.Name
		} else {
			w.logger.WarnContext(ctx, "Could not resolve bank name", log.FieldBankID, tx.BankID, log.FieldError, err)
		}
		ref, err := w.sheet.Append(ctx, tx, bankName)
		if err != nil {
			return fmt.Errorf("append transaction to sheet: %w", err)
		}
		w.logger.InfoContext(ctx, "Exported transaction", log.FieldTransactionID, tx.ID, "range", ref)
	}
	return nil
}

func (w *SyncWorker) remove(ctx context.Context, id string) error {
	if w.index == nil {
		return nil
	}
	if err := w.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove transaction from index: %w", err)
	}
	w.logger.InfoContext(ctx, "Removed transaction from index", log.FieldTransactionID, id)
	return nil
}

// Reindex rebuilds the search documents for one user's transactions.
func (w *SyncWorker) Reindex(ctx context.Context, userID string) (int, error) {
	if w.index == nil {
		return 0, errors.New("no search index configured")
	}
	txs, err := w.store.ListTransactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}
	n, err := w.index.IndexAll(ctx, txs)
	if err != nil {
		return n, err
	}
	w.logger.InfoContext(ctx, "Reindexed transactions", log.FieldUserID, userID, "count", n)
	return n, nil
}
