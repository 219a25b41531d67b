package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/core"
	"aura/internal/ports"
)

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.CreateUser(ctx, core.User{Email: "ana@example.com", Name: "Ana"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = s.CreateUser(ctx, core.User{Email: "ANA@example.com", Name: "Other"})
	assert.ErrorIs(t, err, ports.ErrConflict)

	got, err := s.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestBanksAreUserScoped(t *testing.T) {
	ctx := context.Background()
	s := New()

	b, err := s.CreateBank(ctx, core.Bank{UserID: "u1", Name: "Nubank"})
	require.NoError(t, err)
	assert.False(t, b.IsFavorite)

	_, err = s.GetBank(ctx, "u2", b.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = s.UpdateBank(ctx, core.Bank{ID: b.ID, UserID: "u2", Name: "Stolen"})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	assert.ErrorIs(t, s.DeleteBank(ctx, "u2", b.ID), ports.ErrNotFound)

	list, err := s.ListBanks(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListBanksFavoritesFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, b := range []core.Bank{
		{UserID: "u1", Name: "b"},
		{UserID: "u1", Name: "A"},
		{UserID: "u1", Name: "z", IsFavorite: true},
	} {
		_, err := s.CreateBank(ctx, b)
		require.NoError(t, err)
	}

	list, err := s.ListBanks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"z", "A", "b"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestDeleteBankRemovesAccounts(t *testing.T) {
	ctx := context.Background()
	s := New()
	b, err := s.CreateBank(ctx, core.Bank{UserID: "u1", Name: "Itau"})
	require.NoError(t, err)
	_, err = s.CreateAccount(ctx, core.BankAccount{UserID: "u1", BankID: b.ID, Name: "Main", Type: core.AccountChecking, Balance: decimal.NewFromInt(10)})
	require.NoError(t, err)

	require.NoError(t, s.DeleteBank(ctx, "u1", b.ID))

	accounts, err := s.ListAccounts(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCreateAccountRequiresOwnedBank(t *testing.T) {
	ctx := context.Background()
	s := New()
	b, err := s.CreateBank(ctx, core.Bank{UserID: "u1", Name: "Itau"})
	require.NoError(t, err)

	_, err = s.CreateAccount(ctx, core.BankAccount{UserID: "u2", BankID: b.ID, Name: "x", Type: core.AccountSavings})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = s.CreateAccount(ctx, core.BankAccount{UserID: "u1", BankID: b.ID, Name: "x", Type: "weird"})
	assert.ErrorIs(t, err, core.ErrInvalidAccount)
}

func TestTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	b, err := s.CreateBank(ctx, core.Bank{UserID: "u1", Name: "Itau"})
	require.NoError(t, err)

	for i, day := range []int{3, 1, 2} {
		d := core.NewDate(2024, 1, day)
		_, err := s.CreateTransaction(ctx, core.Transaction{
			ID:              string(rune('a' + i)),
			UserID:          "u1",
			BankID:          b.ID,
			Amount:          decimal.NewNullDecimal(decimal.NewFromInt(-5)),
			TransactionDate: &d,
		})
		require.NoError(t, err)
	}

	txs, err := s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, []string{"a", "c", "b"}, []string{txs[0].ID, txs[1].ID, txs[2].ID})

	_, err = s.CreateTransaction(ctx, core.Transaction{UserID: "u1", BankID: "nope"})
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestUpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := New()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	b, err := s.CreateBill(ctx, core.Bill{UserID: "u1", Name: "Rent", Amount: decimal.NewFromInt(900), Every: core.Monthly, StartDate: core.NewDate(2024, 1, 5)})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	b.Name = "Rent (new flat)"
	updated, err := s.UpdateBill(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, b.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clock, updated.UpdatedAt)
}

func TestKeyValueCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := New()
	v := []byte("layout")
	require.NoError(t, s.Set(ctx, "k", v))
	v[0] = 'X'

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "layout", string(got))

	_, ok, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	banks, _ := s.ListBanks(context.Background(), "u1")
	assert.Empty(t, banks)

	path := filepath.Join(dir, "seed.json")
	seed := `{"banks":[{"id":"b1","userId":"u1","name":"Nubank","isFavorite":true}],
"transactions":[{"id":"t1","userId":"u1","bankId":"b1","amount":"-12.50","description":"Coffee"}]}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	s, err = NewFromFile(path)
	require.NoError(t, err)
	banks, err = s.ListBanks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.True(t, banks[0].IsFavorite)

	tx, err := s.GetTransaction(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.True(t, tx.Amount.Valid)
	assert.Equal(t, "-12.5", tx.Amount.Decimal.String())

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = NewFromFile(path)
	assert.Error(t, err)
}
