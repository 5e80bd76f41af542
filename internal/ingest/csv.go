package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/model"
)

// Header aliases, checked in order.
var csvColumns = map[string][]string{
	"id":          {"id", "transaction_id", "txn_id", "reference"},
	"description": {"description", "merchant_name", "merchant", "narration", "name", "details"},
	"amount":      {"amount", "amt", "value"},
	"date":        {"date", "transaction_date", "posted", "value_date"},
	"direction":   {"type", "direction", "dr_cr", "transaction_type"},
	"category":    {"category"},
	"currency":    {"currency", "ccy"},
}

// CSVReader reads transactions from a CSV file with a header row.
type CSVReader struct {
	logger *slog.Logger
}

// NewCSVReader creates a CSV reader.
func NewCSVReader(logger *slog.Logger) *CSVReader {
	return &CSVReader{logger: common.OrDefault(logger)}
}

// Read parses every data row. Columns are matched by header name, case-insensitively.
func (r *CSVReader) Read(ctx context.Context, in io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []model.Transaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", common.ErrMalformedInput, err)
	}

	index := mapColumns(header)
	if _, ok := index["description"]; !ok {
		return nil, common.NewUserError("CSV needs a description column (description, merchant_name or narration)", common.ErrMalformedInput)
	}
	if _, ok := index["amount"]; !ok {
		return nil, common.NewUserError("CSV needs an amount column", common.ErrMalformedInput)
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	txns := make([]model.Transaction, 0)
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", common.ErrMalformedInput, line, err)
		}
		if isBlank(record) {
			continue
		}

		b := rowBuilder{logger: r.logger, source: "csv", line: line}
		txns = append(txns, b.build(
			field(record, "id"),
			field(record, "description"),
			field(record, "amount"),
			field(record, "date"),
			field(record, "direction"),
			field(record, "category"),
			field(record, "currency"),
		))
	}

	settleDirections(txns)

	r.logger.Info("Parsed CSV file", "total_transactions", len(txns))
	return txns, nil
}

func mapColumns(header []string) map[string]int {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := positions[h]; !seen {
			positions[h] = i
		}
	}

	index := make(map[string]int, len(csvColumns))
	for field, aliases := range csvColumns {
		for _, alias := range aliases {
			if i, ok := positions[alias]; ok {
				index[field] = i
				break
			}
		}
	}
	return index
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
