package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/model"
)

// jsonRecord accepts the field names used by common bank exports.
type jsonRecord struct {
	Amount       any    `json:"amount"`
	ID           string `json:"id"`
	Description  string `json:"description"`
	MerchantName string `json:"merchant_name"`
	Date         string `json:"date"`
	Type         string `json:"type"`
	Direction    string `json:"direction"`
	Category     string `json:"category"`
	Currency     string `json:"currency"`
}

// JSONReader reads a JSON array of transactions, or an object with a
// "transactions" array.
type JSONReader struct {
	logger *slog.Logger
}

// NewJSONReader creates a JSON reader.
func NewJSONReader(logger *slog.Logger) *JSONReader {
	return &JSONReader{logger: common.OrDefault(logger)}
}

// Read parses the document.
func (r *JSONReader) Read(_ context.Context, in io.Reader) ([]model.Transaction, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []model.Transaction{}, nil
	}

	var records []jsonRecord
	if data[0] == '{' {
		var wrapper struct {
			Transactions []jsonRecord `json:"transactions"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrMalformedInput, err)
		}
		records = wrapper.Transactions
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedInput, err)
	}

	txns := make([]model.Transaction, 0, len(records))
	for i, rec := range records {
		description := rec.Description
		if description == "" {
			description = rec.MerchantName
		}
		direction := rec.Direction
		if direction == "" {
			direction = rec.Type
		}

		b := rowBuilder{logger: r.logger, source: "json", line: i + 1}
		txns = append(txns, b.build(rec.ID, description, amountText(rec.Amount), rec.Date, direction, rec.Category, rec.Currency))
	}

	settleDirections(txns)

	r.logger.Info("Parsed JSON file", "total_transactions", len(txns))
	return txns, nil
}

func amountText(v any) string {
	switch a := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64)
	case string:
		return a
	default:
		return fmt.Sprint(a)
	}
}
