// Package memory is the in-process data backend, used for development,
// demos and tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"aura/internal/core"
	"aura/internal/ports"
)

// Store keeps every record in maps guarded by one mutex.
type Store struct {
	mu       sync.RWMutex
	users    map[string]core.User
	banks    map[string]core.Bank
	accounts map[string]core.BankAccount
	txs      map[string]core.Transaction
	bills    map[string]core.Bill
	kv       map[string][]byte
	now      func() time.Time
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    map[string]core.User{},
		banks:    map[string]core.Bank{},
		accounts: map[string]core.BankAccount{},
		txs:      map[string]core.Transaction{},
		bills:    map[string]core.Bill{},
		kv:       map[string][]byte{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Seed is the JSON document accepted by NewFromFile.
type Seed struct {
	Users        []core.User        `json:"users"`
	Banks        []core.Bank        `json:"banks"`
	Accounts     []core.BankAccount `json:"accounts"`
	Transactions []core.Transaction `json:"transactions"`
	Bills        []core.Bill        `json:"bills"`
}

// NewFromFile returns a store preloaded from a seed file. A missing file
// yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for _, u := range seed.Users {
		s.users[u.ID] = u
	}
	for _, b := range seed.Banks {
		s.banks[b.ID] = b
	}
	for _, a := range seed.Accounts {
		s.accounts[a.ID] = a
	}
	for _, t := range seed.Transactions {
		s.txs[t.ID] = t
	}
	for _, b := range seed.Bills {
		s.bills[b.ID] = b
	}
	return s, nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// Users

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, fmt.Errorf("user %s: %w", u.Email, ports.ErrConflict)
		}
	}
	u.ID = newID(u.ID)
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %s: %w", email, ports.ErrNotFound)
}

// Banks

func (s *Store) ListBanks(_ context.Context, userID string) ([]core.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Bank{}
	for _, b := range s.banks {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFavorite != out[j].IsFavorite {
			return out[i].IsFavorite
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Store) GetBank(_ context.Context, userID, id string) (core.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.banks[id]
	if !ok || b.UserID != userID {
		return core.Bank{}, fmt.Errorf("bank %s: %w", id, ports.ErrNotFound)
	}
	return b, nil
}

func (s *Store) CreateBank(_ context.Context, b core.Bank) (core.Bank, error) {
	if err := b.Validate(); err != nil {
		return core.Bank{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = newID(b.ID)
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.banks[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBank(_ context.Context, b core.Bank) (core.Bank, error) {
	if err := b.Validate(); err != nil {
		return core.Bank{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.banks[b.ID]
	if !ok || old.UserID != b.UserID {
		return core.Bank{}, fmt.Errorf("bank %s: %w", b.ID, ports.ErrNotFound)
	}
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = s.now()
	s.banks[b.ID] = b
	return b, nil
}

func (s *Store) DeleteBank(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.banks[id]
	if !ok || b.UserID != userID {
		return fmt.Errorf("bank %s: %w", id, ports.ErrNotFound)
	}
	delete(s.banks, id)
	for aid, a := range s.accounts {
		if a.BankID == id {
			delete(s.accounts, aid)
		}
	}
	return nil
}

// Accounts

func (s *Store) ListAccounts(_ context.Context, userID, bankID string) ([]core.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.BankAccount{}
	for _, a := range s.accounts {
		if a.UserID == userID && (bankID == "" || a.BankID == bankID) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BankID != out[j].BankID {
			return out[i].BankID < out[j].BankID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, userID, id string) (core.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return core.BankAccount{}, fmt.Errorf("account %s: %w", id, ports.ErrNotFound)
	}
	return a, nil
}

func (s *Store) CreateAccount(_ context.Context, a core.BankAccount) (core.BankAccount, error) {
	if err := a.Validate(); err != nil {
		return core.BankAccount{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.banks[a.BankID]; !ok || b.UserID != a.UserID {
		return core.BankAccount{}, fmt.Errorf("bank %s: %w", a.BankID, ports.ErrNotFound)
	}
	a.ID = newID(a.ID)
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.BankAccount) (core.BankAccount, error) {
	if err := a.Validate(); err != nil {
		return core.BankAccount{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.accounts[a.ID]
	if !ok || old.UserID != a.UserID {
		return core.BankAccount{}, fmt.Errorf("account %s: %w", a.ID, ports.ErrNotFound)
	}
	if b, ok := s.banks[a.BankID]; !ok || b.UserID != a.UserID {
		return core.BankAccount{}, fmt.Errorf("bank %s: %w", a.BankID, ports.ErrNotFound)
	}
	a.CreatedAt = old.CreatedAt
	a.UpdatedAt = s.now()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) DeleteAccount(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return fmt.Errorf("account %s: %w", id, ports.ErrNotFound)
	}
	delete(s.accounts, id)
	return nil
}

// Transactions

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Transaction{}
	for _, t := range s.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	core.SortTransactions(out)
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.txs[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ports.ErrNotFound)
	}
	return t, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.banks[t.BankID]; !ok || b.UserID != t.UserID {
		return core.Transaction{}, fmt.Errorf("bank %s: %w", t.BankID, ports.ErrNotFound)
	}
	t.ID = newID(t.ID)
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	s.txs[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.txs[t.ID]
	if !ok || old.UserID != t.UserID {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, ports.ErrNotFound)
	}
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = s.now()
	s.txs[t.ID] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.UserID != userID {
		return fmt.Errorf("transaction %s: %w", id, ports.ErrNotFound)
	}
	delete(s.txs, id)
	return nil
}

// Bills

func (s *Store) ListBills(_ context.Context, userID string) ([]core.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Bill{}
	for _, b := range s.bills {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetBill(_ context.Context, userID, id string) (core.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bills[id]
	if !ok || b.UserID != userID {
		return core.Bill{}, fmt.Errorf("bill %s: %w", id, ports.ErrNotFound)
	}
	return b, nil
}

func (s *Store) CreateBill(_ context.Context, b core.Bill) (core.Bill, error) {
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = newID(b.ID)
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.bills[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBill(_ context.Context, b core.Bill) (core.Bill, error) {
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.bills[b.ID]
	if !ok || old.UserID != b.UserID {
		return core.Bill{}, fmt.Errorf("bill %s: %w", b.ID, ports.ErrNotFound)
	}
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = s.now()
	s.bills[b.ID] = b
	return b, nil
}

func (s *Store) DeleteBill(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[id]
	if !ok || b.UserID != userID {
		return fmt.Errorf("bill %s: %w", id, ports.ErrNotFound)
	}
	delete(s.bills, id)
	return nil
}

// Key/value

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = append([]byte(nil), value...)
	return nil
}
