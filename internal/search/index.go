// Package search keeps an Elasticsearch index of transactions for full-text
// lookup and reporting.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"aura/internal/core"
	"aura/internal/log"
)

const (
	DefaultIndex = "aura-transactions"

	bulkFlushBytes = 2048
	bulkWorkers    = 4
)

// indexMapping keeps amounts numeric and dates as dates so range queries
// and aggregations work.
const indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "userId":      {"type": "keyword"},
      "bankId":      {"type": "keyword"},
      "accountId":   {"type": "keyword"},
      "category":    {"type": "keyword"},
      "kind":        {"type": "keyword"},
      "currency":    {"type": "keyword"},
      "amount":      {"type": "double"},
      "description": {"type": "text"},
      "date":        {"type": "date", "format": "yyyy-MM-dd"}
    }
  }
}`

type Config struct {
	URLs       []string
	Index      string
	MaxRetries int
}

// Document is the indexed form of a transaction.
type Document struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	BankID      string   `json:"bankId"`
	AccountID   string   `json:"accountId,omitempty"`
	Category    string   `json:"category"`
	Kind        string   `json:"kind"`
	Amount      *float64 `json:"amount,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date,omitempty"`
}

// NewDocument converts a transaction for indexing. Category and kind are
// filled the same way the dashboard aggregates them.
func NewDocument(t core.Transaction) Document {
	doc := Document{
		ID:          t.ID,
		UserID:      t.UserID,
		BankID:      t.BankID,
		AccountID:   t.AccountID,
		Category:    t.Type,
		Kind:        "unknown",
		Currency:    t.Currency,
		Description: t.Description,
	}
	if strings.TrimSpace(doc.Category) == "" {
		doc.Category = "Uncategorized"
	}
	if t.Amount.Valid {
		v := t.Amount.Decimal.InexactFloat64()
		doc.Amount = &v
		switch {
		case t.IsIncome():
			doc.Kind = "income"
		case t.IsExpense():
			doc.Kind = "expense"
		}
	}
	if d, ok := t.EffectiveDate(); ok {
		doc.Date = d.Format(time.DateOnly)
	}
	return doc
}

// Indexer writes transaction documents to one index.
type Indexer struct {
	es     *elasticsearch.Client
	index  string
	logger *log.Logger
}

func New(cfg Config, logger *log.Logger) (*Indexer, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.New("no Elasticsearch URLs configured")
	}
	if cfg.Index == "" {
		cfg.Index = DefaultIndex
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}

	retryBackoff := backoff.NewExponentialBackOff()
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     cfg.URLs,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("create Elasticsearch client: %w", err)
	}

	return &Indexer{
		es:     es,
		index:  cfg.Index,
		logger: logger.WithComponent(log.ComponentSearch),
	}, nil
}

// EnsureIndex creates the index with its mapping. An existing index is left
// untouched.
func (x *Indexer) EnsureIndex(ctx context.Context) error {
	res, err := x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithContext(ctx),
		x.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", x.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if res.StatusCode == http.StatusBadRequest && bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return nil
		}
		return fmt.Errorf("create index %s: %s", x.index, res.Status())
	}
	x.logger.InfoContext(ctx, "Created search index", "index", x.index)
	return nil
}

// Index writes one transaction, replacing any previous version.
func (x *Indexer) Index(ctx context.Context, t core.Transaction) error {
	data, err := json.Marshal(NewDocument(t))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	res, err := x.es.Index(x.index, bytes.NewReader(data),
		x.es.Index.WithContext(ctx),
		x.es.Index.WithDocumentID(t.ID),
	)
	if err != nil {
		return fmt.Errorf("index transaction %s: %w", t.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index transaction %s: %s", t.ID, res.Status())
	}
	return nil
}

// Delete removes a transaction. A document that is already gone is not an
// error.
func (x *Indexer) Delete(ctx context.Context, id string) error {
	res, err := x.es.Delete(x.index, id, x.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete transaction %s: %s", id, res.Status())
	}
	return nil
}

// IndexAll bulk indexes txs and returns how many documents were written.
func (x *Indexer) IndexAll(ctx context.Context, txs []core.Transaction) (int, error) {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         x.index,
		Client:        x.es,
		NumWorkers:    bulkWorkers,
		FlushBytes:    bulkFlushBytes,
		FlushInterval: 10 * time.Second,
	})
	if err != nil {
		return 0, fmt.Errorf("create bulk indexer: %w", err)
	}

	var failed atomic.Int64
	for _, t := range txs {
		data, err := json.Marshal(NewDocument(t))
		if err != nil {
			return 0, fmt.Errorf("marshal document: %w", err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: t.ID,
			Body:       bytes.NewReader(data),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					x.logger.ErrorContext(ctx, "Failed to index transaction", log.FieldTransactionID, item.DocumentID, log.FieldError, err)
					return
				}
				x.logger.ErrorContext(ctx, "Failed to index transaction",
					log.FieldTransactionID, item.DocumentID,
					"type", res.Error.Type,
					"reason", res.Error.Reason)
			},
		})
		if err != nil {
			return 0, fmt.Errorf("queue transaction %s: %w", t.ID, err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("flush bulk indexer: %w", err)
	}

	stats := bi.Stats()
	x.logger.InfoContext(ctx, "Bulk indexed transactions",
		"indexed", stats.NumIndexed,
		"failed", stats.NumFailed)
	if n := failed.Load(); n > 0 {
		return int(stats.NumIndexed), fmt.Errorf("failed indexing %d documents", n)
	}
	return int(stats.NumIndexed), nil
}
