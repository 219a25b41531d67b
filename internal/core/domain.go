package core

import (
	"errors"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Once    Frequency = "once"
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
)

// DefaultCurrency is used when a record does not carry one.
const DefaultCurrency = "BRL"

type (
	Frequency   string
	AccountType string

	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Bank struct {
		ID         string    `json:"id"`
		UserID     string    `json:"userId"`
		Name       string    `json:"name"`
		Code       string    `json:"code,omitempty"`
		Color      string    `json:"color,omitempty"`
		IsFavorite bool      `json:"isFavorite"`
		CreatedAt  time.Time `json:"createdAt"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}

	BankAccount struct {
		ID            string          `json:"id"`
		UserID        string          `json:"userId"`
		BankID        string          `json:"bankId"`
		Name          string          `json:"name"`
		AccountNumber string          `json:"accountNumber"`
		Type          AccountType     `json:"type"`
		Balance       decimal.Decimal `json:"balance"`
		Currency      string          `json:"currency"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	// Transaction is a single bank movement. A positive amount is income,
	// a negative amount is an expense.
	Transaction struct {
		ID              string              `json:"id"`
		UserID          string              `json:"userId"`
		BankID          string              `json:"bankId"`
		AccountID       string              `json:"accountId,omitempty"`
		Type            string              `json:"type,omitempty"`
		Amount          decimal.NullDecimal `json:"amount"`
		Currency        string              `json:"currency,omitempty"`
		Description     string              `json:"description,omitempty"`
		TransactionDate *time.Time          `json:"transactionDate,omitempty"`
		CreatedAt       time.Time           `json:"createdAt"`
		UpdatedAt       time.Time           `json:"updatedAt"`
	}

	// Bill is a recurring (or one-off) payment tracked on the calendar.
	Bill struct {
		ID        string          `json:"id"`
		UserID    string          `json:"userId"`
		Name      string          `json:"name"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
		Category  string          `json:"category,omitempty"`
		Every     Frequency       `json:"every"`
		StartDate time.Time       `json:"startDate"`
		EndDate   *time.Time      `json:"endDate,omitempty"`
		LastPaid  *time.Time      `json:"lastPaid,omitempty"`
		Notes     string          `json:"notes,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyBank         = errors.New("empty bank id")
	ErrEmptyUser         = errors.New("empty user id")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidDateRange  = errors.New("end date must not be before start date")
	ErrEmptyStartDate    = errors.New("start date cannot be zero")
	ErrInvalidAccount    = errors.New("invalid account type")
	ErrDescriptionTooBig = errors.New("description too long (max 200 characters)")
)

// IsValid reports whether f is a known recurrence.
func (f Frequency) IsValid() bool {
	switch f {
	case Once, Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (t AccountType) IsValid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCredit, AccountInvestment:
		return true
	}
	return false
}

func (u User) Validate() error {
	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (b Bank) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (a BankAccount) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(a.BankID) == "" {
		return ErrEmptyBank
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.IsValid() {
		return ErrInvalidAccount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(t.BankID) == "" {
		return ErrEmptyBank
	}
	if t.Amount.Valid && t.Amount.Decimal.IsZero() {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooBig
	}
	return nil
}

// IsIncome reports whether the transaction carries a positive amount.
func (t Transaction) IsIncome() bool {
	return t.Amount.Valid && t.Amount.Decimal.IsPositive()
}

// IsExpense reports whether the transaction carries a negative amount.
func (t Transaction) IsExpense() bool {
	return t.Amount.Valid && t.Amount.Decimal.IsNegative()
}

// EffectiveDate returns the booking date, falling back to the creation time.
// The boolean is false when neither is known.
func (t Transaction) EffectiveDate() (time.Time, bool) {
	if t.TransactionDate != nil && !t.TransactionDate.IsZero() {
		return *t.TransactionDate, true
	}
	if !t.CreatedAt.IsZero() {
		return t.CreatedAt, true
	}
	return time.Time{}, false
}

// SortTransactions orders transactions newest first by effective date, then
// by id.
func SortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		di, _ := txs[i].EffectiveDate()
		dj, _ := txs[j].EffectiveDate()
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return txs[i].ID < txs[j].ID
	})
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !b.Every.IsValid() {
		return ErrInvalidFrequency
	}
	if b.StartDate.IsZero() {
		return ErrEmptyStartDate
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate creates a UTC midnight time from year, month, day.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
