// Package ingest reads transactions from CSV, JSON and OFX/QFX files.
//
// Readers never drop a row for a bad field: an unparseable amount becomes 0
// and an unparseable date becomes empty (the "unknown" month), each with a
// warning. Every reader emits non-negative amounts; the sign lives in Direction.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/shopspring/decimal"
)

// Format identifies an input file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatOFX  Format = "ofx"
)

// Reader reads transactions from a stream.
type Reader interface {
	Read(ctx context.Context, r io.Reader) ([]model.Transaction, error)
}

// DetectFormat infers the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".ofx", ".qfx":
		return FormatOFX, nil
	default:
		return "", common.NewUserError(
			fmt.Sprintf("cannot tell the format of %s; use .csv, .json, .ofx or .qfx", filepath.Base(path)),
			common.ErrMalformedInput)
	}
}

// NewReader returns the reader for format.
func NewReader(format Format, logger *slog.Logger) (Reader, error) {
	logger = common.OrDefault(logger)
	switch format {
	case FormatCSV:
		return &CSVReader{logger: logger}, nil
	case FormatJSON:
		return &JSONReader{logger: logger}, nil
	case FormatOFX:
		return &OFXReader{logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", common.ErrMalformedInput, format)
	}
}

// ReadFile detects the format of path and reads its transactions.
func ReadFile(ctx context.Context, path string, logger *slog.Logger) ([]model.Transaction, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	reader, err := NewReader(format, logger)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) // #nosec G304 - path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	txns, err := reader.Read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return txns, nil
}

var amountNoise = regexp.MustCompile(`(?i)(₹|rs\.?|inr|\$|,|\s)`)

// parseAmount accepts plain numbers, thousands separators, currency markers and
// accounting-style parentheses for negatives.
func parseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = amountNoise.ReplaceAllString(s, "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// parseDate normalizes a date to YYYY-MM-DD.
func parseDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// rowBuilder accumulates one record's fields and applies the defaulting rules.
type rowBuilder struct {
	logger *slog.Logger
	source string
	line   int
}

func (b rowBuilder) build(id, description, amount, date, direction, category, currency string) model.Transaction {
	txn := model.Transaction{
		ID:          strings.TrimSpace(id),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Currency:    strings.ToUpper(strings.TrimSpace(currency)),
		Direction:   model.ParseDirection(direction),
	}

	amt, ok := parseAmount(amount)
	if !ok {
		b.logger.Warn("Unparseable amount, using 0",
			"source", b.source,
			"line", b.line,
			"value", amount)
	}
	txn.Amount = amt

	d, ok := parseDate(date)
	if !ok {
		b.logger.Warn("Unparseable date, bucketing as unknown",
			"source", b.source,
			"line", b.line,
			"value", date)
	}
	txn.Date = d

	return txn
}

// settleDirections rewrites a batch as magnitudes with directions. A negative
// amount is a debit. A batch where any row without a direction is negative is a
// signed ledger, so its positive rows without a direction are credits.
func settleDirections(txns []model.Transaction) {
	signed := false
	for _, t := range txns {
		if t.Direction == model.DirectionUnspecified && t.Amount.IsNegative() {
			signed = true
			break
		}
	}

	for i := range txns {
		t := &txns[i]
		if t.Direction == model.DirectionUnspecified {
			switch {
			case t.Amount.IsNegative():
				t.Direction = model.DirectionDebit
			case signed && t.Amount.IsPositive():
				t.Direction = model.DirectionCredit
			}
		}
		t.Amount = t.Amount.Abs()
	}
}

// ReadCSV reads transactions from a CSV stream.
func ReadCSV(ctx context.Context, r io.Reader, logger *slog.Logger) ([]model.Transaction, error) {
	return NewCSVReader(logger).Read(ctx, r)
}

// ReadJSON reads transactions from a JSON stream.
func ReadJSON(ctx context.Context, r io.Reader, logger *slog.Logger) ([]model.Transaction, error) {
	return NewJSONReader(logger).Read(ctx, r)
}

// ReadOFX reads transactions from an OFX/QFX stream.
func ReadOFX(ctx context.Context, r io.Reader, logger *slog.Logger) ([]model.Transaction, error) {
	return NewOFXReader(logger).Read(ctx, r)
}
