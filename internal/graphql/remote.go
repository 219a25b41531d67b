package graphql

import (
	"context"
	"fmt"

	"aura/internal/core"
)

// Banks

func (s *Store) ListBanks(ctx context.Context, userID string) ([]core.Bank, error) {
	var resp struct {
		Banks []bankRow `json:"banks"`
	}
	if err := s.run(ctx, listBanksQuery, map[string]any{"userId": userID}, &resp); err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	out := make([]core.Bank, 0, len(resp.Banks))
	for _, r := range resp.Banks {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *Store) GetBank(ctx context.Context, userID, id string) (core.Bank, error) {
	var resp struct {
		Banks []bankRow `json:"banks"`
	}
	if err := s.run(ctx, getBankQuery, map[string]any{"userId": userID, "id": id}, &resp); err != nil {
		return core.Bank{}, fmt.Errorf("get bank: %w", err)
	}
	if len(resp.Banks) == 0 {
		return core.Bank{}, notFound("bank", id)
	}
	return resp.Banks[0].toCore(), nil
}

func (s *Store) CreateBank(ctx context.Context, b core.Bank) (core.Bank, error) {
	if err := b.Validate(); err != nil {
		return core.Bank{}, err
	}
	var resp struct {
		Bank bankRow `json:"insert_banks_one"`
	}
	object := map[string]any{
		"user_id": b.UserID, "name": b.Name, "code": b.Code, "color": b.Color, "is_favorite": b.IsFavorite,
	}
	if err := s.run(ctx, insertBankMutation, map[string]any{"object": object}, &resp); err != nil {
		return core.Bank{}, fmt.Errorf("create bank: %w", err)
	}
	return resp.Bank.toCore(), nil
}

func (s *Store) UpdateBank(ctx context.Context, b core.Bank) (core.Bank, error) {
	if err := b.Validate(); err != nil {
		return core.Bank{}, err
	}
	var resp struct {
		Update struct {
			Returning []bankRow `json:"returning"`
		} `json:"update_banks"`
	}
	set := map[string]any{"name": b.Name, "code": b.Code, "color": b.Color, "is_favorite": b.IsFavorite}
	if err := s.run(ctx, updateBankMutation, map[string]any{"userId": b.UserID, "id": b.ID, "set": set}, &resp); err != nil {
		return core.Bank{}, fmt.Errorf("update bank: %w", err)
	}
	if len(resp.Update.Returning) == 0 {
		return core.Bank{}, notFound("bank", b.ID)
	}
	return resp.Update.Returning[0].toCore(), nil
}

func (s *Store) DeleteBank(ctx context.Context, userID, id string) error {
	var resp struct {
		Banks affected `json:"delete_banks"`
	}
	if err := s.run(ctx, deleteBankMutation, map[string]any{"userId": userID, "id": id}, &resp); err != nil {
		return fmt.Errorf("delete bank: %w", err)
	}
	if resp.Banks.Rows == 0 {
		return notFound("bank", id)
	}
	return nil
}

type affected struct {
	Rows int `json:"affected_rows"`
}

// Accounts

func (s *Store) ListAccounts(ctx context.Context, userID, bankID string) ([]core.BankAccount, error) {
	where := map[string]any{"user_id": map[string]any{"_eq": userID}}
	if bankID != "" {
		where["bank_id"] = map[string]any{"_eq": bankID}
	}
	var resp struct {
		Accounts []accountRow `json:"bank_accounts"`
	}
	if err := s.run(ctx, listAccountsQuery, map[string]any{"where": where}, &resp); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.BankAccount, 0, len(resp.Accounts))
	for _, r := range resp.Accounts {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *Store) GetAccount(ctx context.Context, userID, id string) (core.BankAccount, error) {
	var resp struct {
		Accounts []accountRow `json:"bank_accounts"`
	}
	if err := s.run(ctx, getAccountQuery, map[string]any{"userId": userID, "id": id}, &resp); err != nil {
		return core.BankAccount{}, fmt.Errorf("get account: %w", err)
	}
	if len(resp.Accounts) == 0 {
		return core.BankAccount{}, notFound("account", id)
	}
	return resp.Accounts[0].toCore(), nil
}

func accountInput(a core.BankAccount) map[string]any {
	return map[string]any{
		"bank_id":        a.BankID,
		"name":           a.Name,
		"account_number": a.AccountNumber,
		"type":           string(a.Type),
		"balance":        a.Balance.String(),
		"currency":       a.Currency,
	}
}

func (s *Store) CreateAccount(ctx context.Context, a core.BankAccount) (core.BankAccount, error) {
	if err := a.Validate(); err != nil {
		return core.BankAccount{}, err
	}
	if _, err := s.GetBank(ctx, a.UserID, a.BankID); err != nil {
		return core.BankAccount{}, err
	}
	object := accountInput(a)
	object["user_id"] = a.UserID
	var resp struct {
		Account accountRow `json:"insert_bank_accounts_one"`
	}
	if err := s.run(ctx, insertAccountMutation, map[string]any{"object": object}, &resp); err != nil {
		return core.BankAccount{}, fmt.Errorf("create account: %w", err)
	}
	return resp.Account.toCore(), nil
}

func (s *Store) UpdateAccount(ctx context.Context, a core.BankAccount) (core.BankAccount, error) {
	if err := a.Validate(); err != nil {
		return core.BankAccount{}, err
	}
	if _, err := s.GetBank(ctx, a.UserID, a.BankID); err != nil {
		return core.BankAccount{}, err
	}
	var resp struct {
		Update struct {
			Returning []accountRow `json:"returning"`
		} `json:"update_bank_accounts"`
	}
	vars := map[string]any{"userId": a.UserID, "id": a.ID, "set": accountInput(a)}
	if err := s.run(ctx, updateAccountMutation, vars, &resp); err != nil {
		return core.BankAccount{}, fmt.Errorf("update account: %w", err)
	}
	if len(resp.Update.Returning) == 0 {
		return core.BankAccount{}, notFound("account", a.ID)
	}
	return resp.Update.Returning[0].toCore(), nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	var resp struct {
		Accounts affected `json:"delete_bank_accounts"`
	}
	if err := s.run(ctx, deleteAccountMutation, map[string]any{"userId": userID, "id": id}, &resp); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if resp.Accounts.Rows == 0 {
		return notFound("account", id)
	}
	return nil
}

// Transactions

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	var resp struct {
		Transactions []transactionRow `json:"transactions"`
	}
	if err := s.run(ctx, listTransactionsQuery, map[string]any{"userId": userID}, &resp); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(resp.Transactions))
	for _, r := range resp.Transactions {
		out = append(out, r.toCore())
	}
	core.SortTransactions(out)
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	var resp struct {
		Transactions []transactionRow `json:"transactions"`
	}
	if err := s.run(ctx, getTransactionQuery, map[string]any{"userId": userID, "id": id}, &resp); err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if len(resp.Transactions) == 0 {
		return core.Transaction{}, notFound("transaction", id)
	}
	return resp.Transactions[0].toCore(), nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if _, err := s.GetBank(ctx, t.UserID, t.BankID); err != nil {
		return core.Transaction{}, err
	}
	var resp struct {
		Transaction transactionRow `json:"insert_transactions_one"`
	}
	if err := s.run(ctx, insertTransactionMutation, map[string]any{"object": transactionInput(t)}, &resp); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return resp.Transaction.toCore(), nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if _, err := s.GetBank(ctx, t.UserID, t.BankID); err != nil {
		return core.Transaction{}, err
	}
	set := transactionInput(t)
	delete(set, "user_id")
	var resp struct {
		Update struct {
			Returning []transactionRow `json:"returning"`
		} `json:"update_transactions"`
	}
	vars := map[string]any{"userId": t.UserID, "id": t.ID, "set": set}
	if err := s.run(ctx, updateTransactionMutation, vars, &resp); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if len(resp.Update.Returning) == 0 {
		return core.Transaction{}, notFound("transaction", t.ID)
	}
	return resp.Update.Returning[0].toCore(), nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	var resp struct {
		Transactions affected `json:"delete_transactions"`
	}
	if err := s.run(ctx, deleteTransactionMutation, map[string]any{"userId": userID, "id": id}, &resp); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if resp.Transactions.Rows == 0 {
		return notFound("transaction", id)
	}
	return nil
}
