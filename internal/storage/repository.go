// Package storage is the SQLite data backend.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"aura/internal/core"
	"aura/internal/ports"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if _, err := r.GetUserByEmail(ctx, u.Email); err == nil {
		return core.User{}, fmt.Errorf("user %s: %w", u.Email, ports.ErrConflict)
	} else if !errors.Is(err, ports.ErrNotFound) {
		return core.User{}, err
	}

	u.ID = newID(u.ID)
	u.CreatedAt = r.now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.getUser(ctx, `WHERE email = ? COLLATE NOCASE`, email)
}

func (r *SQLiteRepository) getUser(ctx context.Context, where string, arg string) (core.User, error) {
	var u core.User
	var created string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %s: %w", arg, ports.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

// Banks

const bankColumns = `id, user_id, name, code, color, is_favorite, created_at, updated_at`

func scanBank(row interface{ Scan(...any) error }) (core.Bank, error) {
	var b core.Bank
	var created, updated string
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Code, &b.Color, &b.IsFavorite, &created, &updated); err != nil {
		return core.Bank{}, err
	}
	b.CreatedAt, b.UpdatedAt = parseTime(created), parseTime(updated)
	return b, nil
}

func (r *SQLiteRepository) ListBanks(ctx context.Context, userID string) ([]core.Bank, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bankColumns+` FROM banks WHERE user_id = ? ORDER BY is_favorite DESC, name COLLATE NOCASE`, userID)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	defer rows.Close()

	out := []core.Bank{}
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetBank(ctx context.Context, userID, id string) (core.Bank, error) {
	b, err := scanBank(r.db.QueryRowContext(ctx,
		`SELECT `+bankColumns+` FROM banks WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bank{}, fmt.Errorf("bank %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.Bank{}, fmt.Errorf("get bank: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) CreateBank(ctx context.Context, b core.Bank) (core.Bank, error) {
	if err := b.Validate(); err != nil {
		return core.Bank{}, err
	}
	b.ID = newID(b.ID)
	b.CreatedAt = r.now()
	b.UpdatedAt = b.CreatedAt
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO banks (`+bankColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, b.Code, b.Color, b.IsFavorite, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return core.Bank{}, fmt.Errorf("create bank: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBank(ctx context.Context, b core.Bank) (core.Bank, error) {
	if err := b.Validate(); err != nil {
		return core.Bank{}, err
	}
	old, err := r.GetBank(ctx, b.UserID, b.ID)
	if err != nil {
		return core.Bank{}, err
	}
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = r.now()
	_, err = r.db.ExecContext(ctx,
		`UPDATE banks SET name = ?, code = ?, color = ?, is_favorite = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		b.Name, b.Code, b.Color, b.IsFavorite, formatTime(b.UpdatedAt), b.ID, b.UserID)
	if err != nil {
		return core.Bank{}, fmt.Errorf("update bank: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBank(ctx context.Context, userID, id string) error {
	return r.deleteOwned(ctx, "banks", "bank", userID, id)
}

// Accounts

const accountColumns = `id, user_id, bank_id, name, account_number, type, balance, currency, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (core.BankAccount, error) {
	var a core.BankAccount
	var balance, created, updated string
	if err := row.Scan(&a.ID, &a.UserID, &a.BankID, &a.Name, &a.AccountNumber, &a.Type, &balance, &a.Currency, &created, &updated); err != nil {
		return core.BankAccount{}, err
	}
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("account %s balance: %w", a.ID, err)
	}
	a.Balance = d
	a.CreatedAt, a.UpdatedAt = parseTime(created), parseTime(updated)
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID, bankID string) ([]core.BankAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM bank_accounts WHERE user_id = ?`
	args := []any{userID}
	if bankID != "" {
		query += ` AND bank_id = ?`
		args = append(args, bankID)
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY bank_id, name`, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []core.BankAccount{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id string) (core.BankAccount, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM bank_accounts WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.BankAccount{}, fmt.Errorf("account %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.BankAccount) (core.BankAccount, error) {
	if err := a.Validate(); err != nil {
		return core.BankAccount{}, err
	}
	if _, err := r.GetBank(ctx, a.UserID, a.BankID); err != nil {
		return core.BankAccount{}, err
	}
	a.ID = newID(a.ID)
	a.CreatedAt = r.now()
	a.UpdatedAt = a.CreatedAt
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bank_accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.BankID, a.Name, a.AccountNumber, string(a.Type), a.Balance.String(), a.Currency,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.BankAccount) (core.BankAccount, error) {
	if err := a.Validate(); err != nil {
		return core.BankAccount{}, err
	}
	old, err := r.GetAccount(ctx, a.UserID, a.ID)
	if err != nil {
		return core.BankAccount{}, err
	}
	if _, err := r.GetBank(ctx, a.UserID, a.BankID); err != nil {
		return core.BankAccount{}, err
	}
	a.CreatedAt = old.CreatedAt
	a.UpdatedAt = r.now()
	_, err = r.db.ExecContext(ctx,
		`UPDATE bank_accounts SET bank_id = ?, name = ?, account_number = ?, type = ?, balance = ?, currency = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		a.BankID, a.Name, a.AccountNumber, string(a.Type), a.Balance.String(), a.Currency, formatTime(a.UpdatedAt), a.ID, a.UserID)
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id string) error {
	return r.deleteOwned(ctx, "bank_accounts", "account", userID, id)
}

// Transactions

const transactionColumns = `id, user_id, bank_id, account_id, type, amount, currency, description, transaction_date, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var amount, date sql.NullString
	var created, updated string
	if err := row.Scan(&t.ID, &t.UserID, &t.BankID, &t.AccountID, &t.Type, &amount, &t.Currency, &t.Description, &date, &created, &updated); err != nil {
		return core.Transaction{}, err
	}
	if amount.Valid {
		d, err := decimal.NewFromString(amount.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
		}
		t.Amount = decimal.NewNullDecimal(d)
	}
	t.TransactionDate = parseNullTime(date)
	t.CreatedAt, t.UpdatedAt = parseTime(created), parseTime(updated)
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	core.SortTransactions(out)
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if _, err := r.GetBank(ctx, t.UserID, t.BankID); err != nil {
		return core.Transaction{}, err
	}
	t.ID = newID(t.ID)
	t.CreatedAt = r.now()
	t.UpdatedAt = t.CreatedAt
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.BankID, t.AccountID, t.Type, nullAmount(t.Amount), t.Currency, t.Description,
		nullTime(t.TransactionDate), formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	old, err := r.GetTransaction(ctx, t.UserID, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = r.now()
	_, err = r.db.ExecContext(ctx,
		`UPDATE transactions SET bank_id = ?, account_id = ?, type = ?, amount = ?, currency = ?, description = ?,
		 transaction_date = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		t.BankID, t.AccountID, t.Type, nullAmount(t.Amount), t.Currency, t.Description,
		nullTime(t.TransactionDate), formatTime(t.UpdatedAt), t.ID, t.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	return r.deleteOwned(ctx, "transactions", "transaction", userID, id)
}

// Bills

const billColumns = `id, user_id, name, amount, currency, category, every, start_date, end_date, last_paid, notes, created_at, updated_at`

func scanBill(row interface{ Scan(...any) error }) (core.Bill, error) {
	var b core.Bill
	var amount, start, created, updated string
	var end, paid sql.NullString
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &amount, &b.Currency, &b.Category, &b.Every, &start, &end, &paid, &b.Notes, &created, &updated); err != nil {
		return core.Bill{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %s amount: %w", b.ID, err)
	}
	b.Amount = d
	b.StartDate = parseTime(start)
	b.EndDate, b.LastPaid = parseNullTime(end), parseNullTime(paid)
	b.CreatedAt, b.UpdatedAt = parseTime(created), parseTime(updated)
	return b, nil
}

func (r *SQLiteRepository) ListBills(ctx context.Context, userID string) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE user_id = ? ORDER BY start_date, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	out := []core.Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetBill(ctx context.Context, userID, id string) (core.Bill, error) {
	b, err := scanBill(r.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, fmt.Errorf("bill %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	b.ID = newID(b.ID)
	b.CreatedAt = r.now()
	b.UpdatedAt = b.CreatedAt
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, b.Amount.String(), b.Currency, b.Category, string(b.Every),
		formatTime(b.StartDate), nullTime(b.EndDate), nullTime(b.LastPaid), b.Notes,
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	old, err := r.GetBill(ctx, b.UserID, b.ID)
	if err != nil {
		return core.Bill{}, err
	}
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = r.now()
	_, err = r.db.ExecContext(ctx,
		`UPDATE bills SET name = ?, amount = ?, currency = ?, category = ?, every = ?, start_date = ?, end_date = ?,
		 last_paid = ?, notes = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		b.Name, b.Amount.String(), b.Currency, b.Category, string(b.Every), formatTime(b.StartDate),
		nullTime(b.EndDate), nullTime(b.LastPaid), b.Notes, formatTime(b.UpdatedAt), b.ID, b.UserID)
	if err != nil {
		return core.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, userID, id string) error {
	return r.deleteOwned(ctx, "bills", "bill", userID, id)
}

// Key/value

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(r.now()))
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// deleteOwned removes a row by id, scoped to its owner. table is never user
// input.
func (r *SQLiteRepository) deleteOwned(ctx context.Context, table, kind, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ports.ErrNotFound)
	}
	return nil
}

func newID(id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return uuid.NewString()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullAmount(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}
