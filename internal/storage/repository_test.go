package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/core"
	"aura/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "aura.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aura.db")

	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, uint(1), v1)

	v, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, v1, v)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u, err := repo.CreateUser(ctx, core.User{Email: "bia@example.com", Name: "Bia", PasswordHash: "hash"})
	require.NoError(t, err)

	got, err := repo.GetUserByEmail(ctx, "BIA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Millisecond)

	_, err = repo.CreateUser(ctx, core.User{Email: "bia@example.com", Name: "Dup"})
	assert.ErrorIs(t, err, ports.ErrConflict)

	_, err = repo.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestBanksAndAccounts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	bank, err := repo.CreateBank(ctx, core.Bank{UserID: "u1", Name: "Nubank", Color: "#820ad1"})
	require.NoError(t, err)
	fav, err := repo.CreateBank(ctx, core.Bank{UserID: "u1", Name: "Itau", IsFavorite: true})
	require.NoError(t, err)

	banks, err := repo.ListBanks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, fav.ID, banks[0].ID)
	assert.True(t, banks[0].IsFavorite)
	assert.False(t, banks[1].IsFavorite)

	acc, err := repo.CreateAccount(ctx, core.BankAccount{
		UserID: "u1", BankID: bank.ID, Name: "Checking", Type: core.AccountChecking,
		Balance: decimal.RequireFromString("1520.35"), Currency: "BRL",
	})
	require.NoError(t, err)

	got, err := repo.GetAccount(ctx, "u1", acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("1520.35")))
	assert.Equal(t, core.AccountChecking, got.Type)

	_, err = repo.GetAccount(ctx, "u2", acc.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	bank.Name = "Nu"
	updated, err := repo.UpdateBank(ctx, bank)
	require.NoError(t, err)
	assert.Equal(t, "Nu", updated.Name)

	require.NoError(t, repo.DeleteBank(ctx, "u1", bank.ID))
	accounts, err := repo.ListAccounts(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, accounts, "accounts are removed with their bank")

	assert.ErrorIs(t, repo.DeleteBank(ctx, "u1", bank.ID), ports.ErrNotFound)
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	bank, err := repo.CreateBank(ctx, core.Bank{UserID: "u1", Name: "Nubank"})
	require.NoError(t, err)

	jan := core.NewDate(2024, 1, 10)
	feb := core.NewDate(2024, 2, 1)
	t1, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: "u1", BankID: bank.ID, Type: "food", Description: "Market",
		Amount: decimal.NewNullDecimal(decimal.RequireFromString("-40.10")), TransactionDate: &jan,
	})
	require.NoError(t, err)
	t2, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: "u1", BankID: bank.ID, Amount: decimal.NewNullDecimal(decimal.NewFromInt(100)), TransactionDate: &feb,
	})
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{UserID: "u1", BankID: bank.ID})
	require.NoError(t, err, "amount and date are optional")

	txs, err := repo.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, txs, 3)

	got, err := repo.GetTransaction(ctx, "u1", t1.ID)
	require.NoError(t, err)
	assert.Equal(t, "-40.1", got.Amount.Decimal.String())
	require.NotNil(t, got.TransactionDate)
	assert.True(t, got.TransactionDate.Equal(jan))

	t2.Description = "Salary"
	t2.Amount = decimal.NullDecimal{}
	_, err = repo.UpdateTransaction(ctx, t2)
	require.NoError(t, err)
	got, err = repo.GetTransaction(ctx, "u1", t2.ID)
	require.NoError(t, err)
	assert.False(t, got.Amount.Valid)
	assert.Equal(t, "Salary", got.Description)

	_, err = repo.CreateTransaction(ctx, core.Transaction{UserID: "u2", BankID: bank.ID})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, repo.DeleteTransaction(ctx, "u1", t1.ID))
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, "u1", t1.ID), ports.ErrNotFound)
}

func TestBills(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	end := core.NewDate(2025, 1, 1)

	b, err := repo.CreateBill(ctx, core.Bill{
		UserID: "u1", Name: "Internet", Amount: decimal.RequireFromString("99.90"), Currency: "BRL",
		Every: core.Monthly, StartDate: core.NewDate(2024, 1, 15), EndDate: &end,
	})
	require.NoError(t, err)

	paid := core.NewDate(2024, 2, 15)
	b.LastPaid = &paid
	_, err = repo.UpdateBill(ctx, b)
	require.NoError(t, err)

	bills, err := repo.ListBills(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, core.Monthly, bills[0].Every)
	require.NotNil(t, bills[0].LastPaid)
	assert.True(t, bills[0].LastPaid.Equal(paid))
	require.NotNil(t, bills[0].EndDate)
	assert.True(t, bills[0].StartDate.Equal(core.NewDate(2024, 1, 15)))

	require.NoError(t, repo.DeleteBill(ctx, "u1", b.ID))
	_, err = repo.GetBill(ctx, "u1", b.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestKeyValue(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, ok, err := repo.Get(ctx, "layout:u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "layout:u1", []byte(`{"v":1}`)))
	require.NoError(t, repo.Set(ctx, "layout:u1", []byte(`{"v":2}`)))

	v, ok, err := repo.Get(ctx, "layout:u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(v))
}
