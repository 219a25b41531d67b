// Package graphql serves banks, accounts and transactions from a remote
// GraphQL API. Everything the API does not hold (users, bills, layouts)
// lives in an embedded in-memory store.
package graphql

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/machinebox/graphql"
	"github.com/shopspring/decimal"

	"aura/internal/core"
	"aura/internal/log"
	"aura/internal/memory"
	"aura/internal/ports"
)

// Config selects the remote endpoint.
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Store is a ports.Store backed by the remote API.
type Store struct {
	*memory.Store
	client *graphql.Client
	token  string
	logger *log.Logger
}

var _ ports.Store = (*Store)(nil)

func New(cfg Config, logger *log.Logger) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger = logger.WithComponent(log.ComponentGraphQL)
	client := graphql.NewClient(cfg.Endpoint, graphql.WithHTTPClient(&http.Client{Timeout: timeout}))
	client.Log = func(s string) { logger.Debug(s) }
	return &Store{
		Store:  memory.New(),
		client: client,
		token:  cfg.Token,
		logger: logger,
	}
}

func (s *Store) run(ctx context.Context, query string, vars map[string]any, out any) error {
	req := graphql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if err := s.client.Run(ctx, req, out); err != nil {
		return fmt.Errorf("graphql: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	var resp struct {
		Typename string `json:"__typename"`
	}
	return s.run(ctx, `query Ping { __typename }`, nil, &resp)
}

// Wire rows. Timestamps come back as strings because date-only columns do
// not parse as time.Time.

type bankRow struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	Color      string `json:"color"`
	IsFavorite bool   `json:"is_favorite"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func (r bankRow) toCore() core.Bank {
	return core.Bank{
		ID: r.ID, UserID: r.UserID, Name: r.Name, Code: r.Code, Color: r.Color,
		IsFavorite: r.IsFavorite, CreatedAt: parseTimestamp(r.CreatedAt), UpdatedAt: parseTimestamp(r.UpdatedAt),
	}
}

type accountRow struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	BankID        string          `json:"bank_id"`
	Name          string          `json:"name"`
	AccountNumber string          `json:"account_number"`
	Type          string          `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

func (r accountRow) toCore() core.BankAccount {
	return core.BankAccount{
		ID: r.ID, UserID: r.UserID, BankID: r.BankID, Name: r.Name, AccountNumber: r.AccountNumber,
		Type: core.AccountType(r.Type), Balance: r.Balance, Currency: r.Currency,
		CreatedAt: parseTimestamp(r.CreatedAt), UpdatedAt: parseTimestamp(r.UpdatedAt),
	}
}

type transactionRow struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	BankID          string              `json:"bank_id"`
	AccountID       *string             `json:"account_id"`
	Type            *string             `json:"type"`
	Amount          decimal.NullDecimal `json:"amount"`
	Currency        *string             `json:"currency"`
	Description     *string             `json:"description"`
	TransactionDate *string             `json:"transaction_date"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

func (r transactionRow) toCore() core.Transaction {
	t := core.Transaction{
		ID: r.ID, UserID: r.UserID, BankID: r.BankID,
		AccountID: deref(r.AccountID), Type: deref(r.Type), Amount: r.Amount,
		Currency: deref(r.Currency), Description: deref(r.Description),
		CreatedAt: parseTimestamp(r.CreatedAt), UpdatedAt: parseTimestamp(r.UpdatedAt),
	}
	if r.TransactionDate != nil {
		if d := parseTimestamp(*r.TransactionDate); !d.IsZero() {
			t.TransactionDate = &d
		}
	}
	return t
}

func transactionInput(t core.Transaction) map[string]any {
	in := map[string]any{
		"user_id":          t.UserID,
		"bank_id":          t.BankID,
		"account_id":       nullString(t.AccountID),
		"type":             nullString(t.Type),
		"currency":         nullString(t.Currency),
		"description":      nullString(t.Description),
		"amount":           nil,
		"transaction_date": nil,
	}
	if t.Amount.Valid {
		in["amount"] = t.Amount.Decimal.String()
	}
	if t.TransactionDate != nil {
		in["transaction_date"] = t.TransactionDate.Format(time.DateOnly)
	}
	return in
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ports.ErrNotFound)
}
