package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{UserID: "u1", BankID: "b1", Amount: amount("-12.50"), Description: "coffee"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noAmount := Transaction{UserID: "u1", BankID: "b1"}
	if err := noAmount.Validate(); err != nil {
		t.Fatalf("amount is optional, got %v", err)
	}

	bads := []Transaction{
		{BankID: "b1", Amount: amount("1")},
		{UserID: "u1", Amount: amount("1")},
		{UserID: "u1", BankID: "b1", Amount: amount("0")},
		{UserID: "u1", BankID: "b1", Description: string(make([]byte, 201))},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionSign(t *testing.T) {
	in := Transaction{Amount: amount("100")}
	out := Transaction{Amount: amount("-40")}
	none := Transaction{}
	if !in.IsIncome() || in.IsExpense() {
		t.Fatalf("positive amount should be income")
	}
	if !out.IsExpense() || out.IsIncome() {
		t.Fatalf("negative amount should be expense")
	}
	if none.IsIncome() || none.IsExpense() {
		t.Fatalf("missing amount is neither income nor expense")
	}
}

func TestTransactionEffectiveDate(t *testing.T) {
	booked := NewDate(2024, 1, 10)
	created := NewDate(2024, 2, 1)

	d, ok := Transaction{TransactionDate: &booked, CreatedAt: created}.EffectiveDate()
	if !ok || !d.Equal(booked) {
		t.Fatalf("expected booking date, got %v %v", d, ok)
	}
	d, ok = Transaction{CreatedAt: created}.EffectiveDate()
	if !ok || !d.Equal(created) {
		t.Fatalf("expected creation fallback, got %v %v", d, ok)
	}
	if _, ok := (Transaction{}).EffectiveDate(); ok {
		t.Fatalf("expected no date")
	}
}

func TestBillValidate(t *testing.T) {
	end := NewDate(2023, 12, 31)
	good := Bill{UserID: "u", Name: "Rent", Amount: decimal.NewFromInt(1200), Every: Monthly, StartDate: NewDate(2024, 1, 5)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Bill{
		{UserID: "u", Name: "", Amount: decimal.NewFromInt(1), Every: Monthly, StartDate: time.Now()},
		{UserID: "u", Name: "x", Amount: decimal.Zero, Every: Monthly, StartDate: time.Now()},
		{UserID: "u", Name: "x", Amount: decimal.NewFromInt(1), Every: "fortnightly", StartDate: time.Now()},
		{UserID: "u", Name: "x", Amount: decimal.NewFromInt(1), Every: Monthly},
		{UserID: "u", Name: "x", Amount: decimal.NewFromInt(1), Every: Monthly, StartDate: NewDate(2024, 1, 1), EndDate: &end},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestUserValidate(t *testing.T) {
	if err := (User{Email: "ana@example.com", Name: "Ana"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, email := range []string{"", "ana", "Ana <ana@example.com>"} {
		if err := (User{Email: email, Name: "Ana"}).Validate(); err != ErrInvalidEmail {
			t.Fatalf("%q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestAccountValidate(t *testing.T) {
	good := BankAccount{UserID: "u", BankID: "b", Name: "Main", Type: AccountChecking}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Type = "wallet"
	if err := bad.Validate(); err != ErrInvalidAccount {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}
