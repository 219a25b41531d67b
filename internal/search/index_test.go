package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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

	"aura/internal/core"
	"aura/internal/log"
)

// fakeES implements the handful of endpoints the indexer calls.
type fakeES struct {
	mu      sync.Mutex
	created bool
	docs    map[string]Document
	bulks   int
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 1 && r.Method == http.MethodPut:
		if f.created {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"type":"resource_already_exists_exception"},"status":400}`)
			return
		}
		f.created = true
		_, _ = io.WriteString(w, `{"acknowledged":true}`)

	case len(parts) == 3 && parts[1] == "_doc" && (r.Method == http.MethodPut || r.Method == http.MethodPost):
		var doc Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.docs[parts[2]] = doc
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"_id":%q,"result":"created"}`, parts[2])

	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodDelete:
		if _, ok := f.docs[parts[2]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"_id":%q,"result":"not_found"}`, parts[2])
			return
		}
		delete(f.docs, parts[2])
		fmt.Fprintf(w, `{"_id":%q,"result":"deleted"}`, parts[2])

	case parts[len(parts)-1] == "_bulk":
		f.bulks++
		var items []string
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			var meta map[string]struct {
				ID string `json:"_id"`
			}
			if err := json.Unmarshal(scanner.Bytes(), &meta); err != nil {
				continue
			}
			action, ok := meta["index"]
			if !ok {
				continue
			}
			scanner.Scan()
			var doc Document
			_ = json.Unmarshal(scanner.Bytes(), &doc)
			f.docs[action.ID] = doc
			items = append(items, fmt.Sprintf(`{"index":{"_id":%q,"status":201,"result":"created"}}`, action.ID))
		}
		fmt.Fprintf(w, `{"took":1,"errors":false,"items":[%s]}`, strings.Join(items, ","))

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{}`)
	}
}

func newTestIndexer(t *testing.T) (*Indexer, *fakeES) {
	t.Helper()
	fake := &fakeES{docs: map[string]Document{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	logger := log.New(log.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
	x, err := New(Config{URLs: []string{srv.URL}, MaxRetries: 1}, logger)
	require.NoError(t, err)
	return x, fake
}

func sampleTransaction(id string, amount string) core.Transaction {
	d := core.NewDate(2024, 5, 3)
	return core.Transaction{
		ID:              id,
		UserID:          "u1",
		BankID:          "b1",
		Type:            "groceries",
		Amount:          decimal.NewNullDecimal(decimal.RequireFromString(amount)),
		Currency:        "BRL",
		Description:     "Market",
		TransactionDate: &d,
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(sampleTransaction("t1", "-42.10"))
	assert.Equal(t, "expense", doc.Kind)
	assert.Equal(t, "groceries", doc.Category)
	assert.Equal(t, "2024-05-03", doc.Date)
	require.NotNil(t, doc.Amount)
	assert.InDelta(t, -42.10, *doc.Amount, 0.0001)

	bare := NewDocument(core.Transaction{ID: "t2", UserID: "u1", BankID: "b1"})
	assert.Equal(t, "unknown", bare.Kind)
	assert.Equal(t, "Uncategorized", bare.Category)
	assert.Nil(t, bare.Amount)
	assert.Empty(t, bare.Date)
}

func TestNewRequiresURLs(t *testing.T) {
	_, err := New(Config{}, log.New(log.DefaultConfig()))
	assert.Error(t, err)
}

func TestEnsureIndexIsIdempotent(t *testing.T) {
	x, fake := newTestIndexer(t)

	require.NoError(t, x.EnsureIndex(context.Background()))
	require.NoError(t, x.EnsureIndex(context.Background()))
	assert.True(t, fake.created)
}

func TestIndexAndDelete(t *testing.T) {
	x, fake := newTestIndexer(t)
	ctx := context.Background()

	require.NoError(t, x.Index(ctx, sampleTransaction("t1", "1500")))
	require.Contains(t, fake.docs, "t1")
	assert.Equal(t, "income", fake.docs["t1"].Kind)

	require.NoError(t, x.Delete(ctx, "t1"))
	assert.NotContains(t, fake.docs, "t1")

	assert.NoError(t, x.Delete(ctx, "t1"), "deleting a missing document succeeds")
}

func TestIndexAll(t *testing.T) {
	x, fake := newTestIndexer(t)

	n, err := x.IndexAll(context.Background(), []core.Transaction{
		sampleTransaction("t1", "-10"),
		sampleTransaction("t2", "-20"),
		sampleTransaction("t3", "300"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, fake.docs, 3)
	assert.GreaterOrEqual(t, fake.bulks, 1)
}
