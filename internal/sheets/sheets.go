// Package sheets exports transactions to a Google Sheets spreadsheet, one
// tab per year.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"aura/internal/core"
	"aura/internal/log"
)

const DefaultSheetName = "Transactions"

// Header is written by EnsureHeader and matches the columns of Row.
var Header = []any{"Date", "Bank", "Category", "Description", "Amount", "Currency", "Kind", "ID"}

type Config struct {
	SpreadsheetID string
	// SheetName is the tab base name; the transaction year is prefixed.
	SheetName string

	// Service account credentials, inline or as a file path. When both are
	// empty GOOGLE_APPLICATION_CREDENTIALS is used.
	CredentialsJSON string
	CredentialsFile string

	// Extra client options, mostly for pointing at a test endpoint.
	Options []goption.ClientOption
}

// Exporter appends transactions as rows.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		cfg.SheetName = DefaultSheetName
	}

	opts := cfg.Options
	if len(opts) == 0 {
		creds, err := loadCredentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	if s := strings.TrimSpace(cfg.CredentialsJSON); s != "" {
		return []byte(s), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// Append adds t to the tab for its year and returns the updated range.
func (x *Exporter) Append(ctx context.Context, t core.Transaction, bankName string) (string, error) {
	tab := x.TabFor(t)
	rng := fmt.Sprintf("%s!A:H", tab)
	vr := &gsheet.ValueRange{Values: [][]any{Row(t, bankName)}}

	resp, err := x.svc.Spreadsheets.Values.Append(x.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", tab, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	x.logger.DebugContext(ctx, "Appended transaction row", log.FieldTransactionID, t.ID, "range", ref)
	return ref, nil
}

// EnsureHeader writes the header row to the tab for year.
func (x *Exporter) EnsureHeader(ctx context.Context, year int) error {
	tab := yearPrefixedName(x.sheetName, year)
	rng := fmt.Sprintf("%s!A1:H1", tab)
	_, err := x.svc.Spreadsheets.Values.Update(x.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{Header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", tab, err)
	}
	return nil
}

// TabFor names the tab a transaction belongs in. Undated transactions go to
// the current year.
func (x *Exporter) TabFor(t core.Transaction) string {
	year := time.Now().Year()
	if d, ok := t.EffectiveDate(); ok {
		year = d.Year()
	}
	return yearPrefixedName(x.sheetName, year)
}

// Row formats a transaction in Header column order. Amounts keep a dot
// decimal separator with two places so the sheet parses them as numbers.
func Row(t core.Transaction, bankName string) []any {
	date := ""
	if d, ok := t.EffectiveDate(); ok {
		date = d.Format(time.DateOnly)
	}
	category := strings.TrimSpace(t.Type)
	if category == "" {
		category = "Uncategorized"
	}
	if bankName == "" {
		bankName = t.BankID
	}
	currency := t.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}

	amount, kind := "", ""
	if t.Amount.Valid {
		amount = t.Amount.Decimal.StringFixed(2)
		switch {
		case t.IsIncome():
			kind = "income"
		case t.IsExpense():
			kind = "expense"
		}
	}
	return []any{date, bankName, category, t.Description, amount, currency, kind, t.ID}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
