package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/core"
	"aura/internal/log"
	"aura/internal/ports"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// fakeAPI answers by operation name with canned data payloads.
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string]string
	seen      []gqlRequest
	auth      string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req gqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.seen = append(f.seen, req)
	f.auth = r.Header.Get("Authorization")
	f.mu.Unlock()

	for op, data := range f.responses {
		if strings.Contains(req.Query, op+"(") || strings.Contains(req.Query, op+" {") {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":` + data + `}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"unknown operation"}]}`))
}

func newTestStore(t *testing.T, responses map[string]string) (*Store, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{responses: responses}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
	return New(Config{Endpoint: srv.URL, Token: "secret"}, logger), api
}

func TestListBanks(t *testing.T) {
	s, api := newTestStore(t, map[string]string{
		"ListBanks": `{"banks":[
			{"id":"b1","user_id":"u1","name":"Nubank","is_favorite":true,"created_at":"2024-01-02T10:00:00Z","updated_at":"2024-01-02T10:00:00Z"},
			{"id":"b2","user_id":"u1","name":"Itau","is_favorite":false,"created_at":"2024-01-03T10:00:00.123456","updated_at":"2024-01-03T10:00:00Z"}]}`,
	})

	banks, err := s.ListBanks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "Nubank", banks[0].Name)
	assert.True(t, banks[0].IsFavorite)
	assert.Equal(t, 2024, banks[1].CreatedAt.Year())

	assert.Equal(t, "Bearer secret", api.auth)
	require.Len(t, api.seen, 1)
	assert.Equal(t, "u1", api.seen[0].Variables["userId"])
}

func TestGetBankNotFound(t *testing.T) {
	s, _ := newTestStore(t, map[string]string{"GetBank": `{"banks":[]}`})

	_, err := s.GetBank(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestTransactionsDecodeNullableColumns(t *testing.T) {
	s, _ := newTestStore(t, map[string]string{
		"ListTransactions": `{"transactions":[
			{"id":"t1","user_id":"u1","bank_id":"b1","amount":null,"transaction_date":null,"created_at":"2024-01-01T00:00:00Z"},
			{"id":"t2","user_id":"u1","bank_id":"b1","type":"food","amount":"-12.50","description":"Lunch","transaction_date":"2024-02-10","created_at":"2024-02-10T00:00:00Z"},
			{"id":"t3","user_id":"u1","bank_id":"b1","amount":3000,"transaction_date":"2024-02-01","created_at":"2024-02-01T00:00:00Z"}]}`,
	})

	txs, err := s.ListTransactions(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "t2", txs[0].ID, "newest first")
	assert.True(t, txs[0].Amount.Decimal.Equal(decimal.RequireFromString("-12.5")))
	assert.Equal(t, "food", txs[0].Type)
	require.NotNil(t, txs[0].TransactionDate)
	assert.True(t, txs[0].TransactionDate.Equal(core.NewDate(2024, 2, 10)))

	assert.Equal(t, "t3", txs[1].ID)
	assert.True(t, txs[1].Amount.Decimal.Equal(decimal.NewFromInt(3000)))

	assert.False(t, txs[2].Amount.Valid)
	assert.Nil(t, txs[2].TransactionDate)
}

func TestCreateTransactionChecksBankAndSendsInput(t *testing.T) {
	s, api := newTestStore(t, map[string]string{
		"GetBank":           `{"banks":[{"id":"b1","user_id":"u1","name":"Nubank"}]}`,
		"InsertTransaction": `{"insert_transactions_one":{"id":"t9","user_id":"u1","bank_id":"b1","amount":"-5","transaction_date":"2024-03-01"}}`,
	})

	d := core.NewDate(2024, 3, 1)
	tx, err := s.CreateTransaction(context.Background(), core.Transaction{
		UserID: "u1", BankID: "b1", Amount: decimal.NewNullDecimal(decimal.NewFromInt(-5)), TransactionDate: &d,
	})
	require.NoError(t, err)
	assert.Equal(t, "t9", tx.ID)

	require.Len(t, api.seen, 2)
	object := api.seen[1].Variables["object"].(map[string]any)
	assert.Equal(t, "-5", object["amount"])
	assert.Equal(t, "2024-03-01", object["transaction_date"])
	assert.Nil(t, object["description"])
}

func TestDeleteReportsMissingRows(t *testing.T) {
	s, _ := newTestStore(t, map[string]string{
		"DeleteTransaction": `{"delete_transactions":{"affected_rows":0}}`,
		"DeleteBank":        `{"delete_bank_accounts":{"affected_rows":2},"delete_banks":{"affected_rows":1}}`,
	})

	assert.ErrorIs(t, s.DeleteTransaction(context.Background(), "u1", "t1"), ports.ErrNotFound)
	assert.NoError(t, s.DeleteBank(context.Background(), "u1", "b1"))
}

func TestRemoteErrorsAreWrapped(t *testing.T) {
	s, _ := newTestStore(t, map[string]string{})

	_, err := s.ListAccounts(context.Background(), "u1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
	assert.NotErrorIs(t, err, ports.ErrNotFound)
}

func TestLocalRecordsStayInMemory(t *testing.T) {
	s, api := newTestStore(t, map[string]string{})

	u, err := s.CreateUser(context.Background(), core.User{Email: "ana@example.com", Name: "Ana"})
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "k", []byte("v")))

	got, err := s.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.Empty(t, api.seen)
}
