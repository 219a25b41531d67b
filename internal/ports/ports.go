// Package ports declares the storage interfaces the services depend on.
package ports

import (
	"context"
	"errors"

	"aura/internal/core"
	"aura/internal/layout"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Ports for outbound adapters. Every record is scoped to its owning user;
// looking up another user's record returns ErrNotFound.
type (
	UserStore interface {
		// CreateUser returns ErrConflict when the email is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
	}

	BankStore interface {
		ListBanks(ctx context.Context, userID string) ([]core.Bank, error)
		GetBank(ctx context.Context, userID, id string) (core.Bank, error)
		CreateBank(ctx context.Context, b core.Bank) (core.Bank, error)
		UpdateBank(ctx context.Context, b core.Bank) (core.Bank, error)
		// DeleteBank also removes the bank's accounts.
		DeleteBank(ctx context.Context, userID, id string) error
	}

	AccountStore interface {
		// ListAccounts returns the user's accounts, restricted to one bank
		// when bankID is not empty.
		ListAccounts(ctx context.Context, userID, bankID string) ([]core.BankAccount, error)
		GetAccount(ctx context.Context, userID, id string) (core.BankAccount, error)
		CreateAccount(ctx context.Context, a core.BankAccount) (core.BankAccount, error)
		UpdateAccount(ctx context.Context, a core.BankAccount) (core.BankAccount, error)
		DeleteAccount(ctx context.Context, userID, id string) error
	}

	TransactionStore interface {
		// ListTransactions returns the user's transactions, newest first.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	BillStore interface {
		ListBills(ctx context.Context, userID string) ([]core.Bill, error)
		GetBill(ctx context.Context, userID, id string) (core.Bill, error)
		CreateBill(ctx context.Context, b core.Bill) (core.Bill, error)
		UpdateBill(ctx context.Context, b core.Bill) (core.Bill, error)
		DeleteBill(ctx context.Context, userID, id string) error
	}

	// Store is a complete data backend.
	Store interface {
		UserStore
		BankStore
		AccountStore
		TransactionStore
		BillStore
		layout.KeyValue
		Ping(ctx context.Context) error
		Close() error
	}
)
