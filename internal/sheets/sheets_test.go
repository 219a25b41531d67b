package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"aura/internal/core"
	"aura/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Transactions", 2024, "2024 Transactions"},
		{"2023 Transactions", 2024, "2023 Transactions"},
		{"  Transactions ", 2025, "2025 Transactions"},
		{"", 2024, ""},
		{"1234", 2024, "2024 1234"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, yearPrefixedName(tt.base, tt.year))
		})
	}
}

func TestRow(t *testing.T) {
	d := core.NewDate(2024, 7, 15)
	tx := core.Transaction{
		ID:              "t1",
		BankID:          "b1",
		Type:            "rent",
		Amount:          decimal.NewNullDecimal(decimal.RequireFromString("-1200.5")),
		Description:     "July rent",
		TransactionDate: &d,
	}

	assert.Equal(t,
		[]any{"2024-07-15", "Nubank", "rent", "July rent", "-1200.50", "BRL", "expense", "t1"},
		Row(tx, "Nubank"))

	bare := core.Transaction{ID: "t2", BankID: "b1", Currency: "EUR"}
	assert.Equal(t,
		[]any{"", "b1", "Uncategorized", "", "", "EUR", "", "t2"},
		Row(bare, ""))
	assert.Len(t, Row(bare, ""), len(Header))
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, testLogger())
	assert.EqualError(t, err, "missing spreadsheet id")
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sid"}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

type recordedCall struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newTestExporter(t *testing.T) (*Exporter, *[]recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		mu.Lock()
		calls = append(calls, recordedCall{r.Method, r.URL.Path, r.URL.RawQuery, body})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":append") {
			_, _ = io.WriteString(w, `{"spreadsheetId":"sid","updates":{"updatedRange":"'2024 Transactions'!A5:H5","updatedRows":1}}`)
			return
		}
		_, _ = io.WriteString(w, `{"spreadsheetId":"sid","updatedRows":1}`)
	}))
	t.Cleanup(srv.Close)

	x, err := New(context.Background(), Config{
		SpreadsheetID: "sid",
		Options: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
		},
	}, testLogger())
	require.NoError(t, err)
	return x, &calls
}

func TestAppend(t *testing.T) {
	x, calls := newTestExporter(t)
	d := core.NewDate(2024, 3, 9)

	ref, err := x.Append(context.Background(), core.Transaction{
		ID:              "t1",
		BankID:          "b1",
		Amount:          decimal.NewNullDecimal(decimal.NewFromInt(250)),
		TransactionDate: &d,
	}, "Itau")
	require.NoError(t, err)
	assert.Equal(t, "'2024 Transactions'!A5:H5", ref)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Contains(t, call.path, "/spreadsheets/sid/values/")
	assert.Contains(t, call.path, "2024 Transactions")
	assert.Contains(t, call.query, "valueInputOption=USER_ENTERED")

	values := call.body["values"].([]any)
	require.Len(t, values, 1)
	row := values[0].([]any)
	assert.Equal(t, "250.00", row[4])
	assert.Equal(t, "income", row[6])
}

func TestEnsureHeader(t *testing.T) {
	x, calls := newTestExporter(t)

	require.NoError(t, x.EnsureHeader(context.Background(), 2025))
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPut, (*calls)[0].method)
	assert.Contains(t, (*calls)[0].path, "2025 Transactions!A1:H1")
}
