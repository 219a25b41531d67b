package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"aura/internal/cache"
	"aura/internal/core"
	"aura/internal/ports"
)

type BankStore interface {
	ports.BankStore
	ports.AccountStore
}

// BankService manages banks and their accounts.
type BankService struct {
	store BankStore
	gens  *cache.Generations
}

func NewBankService(store BankStore, gens *cache.Generations) *BankService {
	if gens == nil {
		gens = cache.NewGenerations()
	}
	return &BankService{store: store, gens: gens}
}

// Balance is the sum of account balances in one currency.
type Balance struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Accounts int             `json:"accounts"`
}

func (s *BankService) ListBanks(ctx context.Context, userID string) ([]core.Bank, error) {
	return s.store.ListBanks(ctx, userID)
}

func (s *BankService) GetBank(ctx context.Context, userID, id string) (core.Bank, error) {
	return s.store.GetBank(ctx, userID, id)
}

func (s *BankService) CreateBank(ctx context.Context, userID string, b core.Bank) (core.Bank, error) {
	b.UserID = userID
	saved, err := s.store.CreateBank(ctx, b)
	if err != nil {
		return core.Bank{}, fmt.Errorf("create bank: %w", err)
	}
	s.gens.Bump(userID)
	return saved, nil
}

func (s *BankService) UpdateBank(ctx context.Context, userID string, b core.Bank) (core.Bank, error) {
	b.UserID = userID
	saved, err := s.store.UpdateBank(ctx, b)
	if err != nil {
		return core.Bank{}, fmt.Errorf("update bank: %w", err)
	}
	s.gens.Bump(userID)
	return saved, nil
}

// DeleteBank removes the bank together with its accounts. Transactions
// keep their bank id.
func (s *BankService) DeleteBank(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteBank(ctx, userID, id); err != nil {
		return fmt.Errorf("delete bank: %w", err)
	}
	s.gens.Bump(userID)
	return nil
}

func (s *BankService) ListAccounts(ctx context.Context, userID, bankID string) ([]core.BankAccount, error) {
	return s.store.ListAccounts(ctx, userID, bankID)
}

func (s *BankService) GetAccount(ctx context.Context, userID, id string) (core.BankAccount, error) {
	return s.store.GetAccount(ctx, userID, id)
}

func (s *BankService) CreateAccount(ctx context.Context, userID string, a core.BankAccount) (core.BankAccount, error) {
	a.UserID = userID
	if a.Currency == "" {
		a.Currency = core.DefaultCurrency
	}
	saved, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("create account: %w", err)
	}
	s.gens.Bump(userID)
	return saved, nil
}

func (s *BankService) UpdateAccount(ctx context.Context, userID string, a core.BankAccount) (core.BankAccount, error) {
	a.UserID = userID
	if a.Currency == "" {
		a.Currency = core.DefaultCurrency
	}
	saved, err := s.store.UpdateAccount(ctx, a)
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("update account: %w", err)
	}
	s.gens.Bump(userID)
	return saved, nil
}

func (s *BankService) DeleteAccount(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteAccount(ctx, userID, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.gens.Bump(userID)
	return nil
}

// TotalBalance sums account balances per currency, sorted by currency.
func (s *BankService) TotalBalance(ctx context.Context, userID string) ([]Balance, error) {
	accounts, err := s.store.ListAccounts(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return SumBalances(accounts), nil
}

// SumBalances groups account balances by currency.
func SumBalances(accounts []core.BankAccount) []Balance {
	byCurrency := map[string]*Balance{}
	for _, a := range accounts {
		cur := a.Currency
		if cur == "" {
			cur = core.DefaultCurrency
		}
		b, ok := byCurrency[cur]
		if !ok {
			b = &Balance{Currency: cur, Total: decimal.Zero}
			byCurrency[cur] = b
		}
		b.Total = b.Total.Add(a.Balance)
		b.Accounts++
	}
	out := make([]Balance, 0, len(byCurrency))
	for _, b := range byCurrency {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
