package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-reconciliation-backend/internal/models"
)

// Exchange drop copies are plain comma-separated CSV with full UTC
// timestamps. Column order:
// execution_id,product,trade_type,direction,quantity,trade_price,counterparty,trade_date_utc
const exchangeColumns = 8

// ParseExecutionCSV reads exchange execution fills. Quantities arrive signed
// (negative SELL, positive BUY) and are stored as-is; the aggregation stage
// owns the absolute-value convention.
func ParseExecutionCSV(r io.Reader) ([]models.ExecutionFill, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, nil, fmt.Errorf("cannot read exchange CSV header: %w", err)
	}

	var fills []models.ExecutionFill
	var rowErrs []RowError
	rowNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if len(record) == 0 || strings.Join(record, "") == "" {
			continue
		}
		if len(record) < exchangeColumns {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: fmt.Sprintf("expected %d columns, got %d", exchangeColumns, len(record))})
			continue
		}

		fill, err := parseExecutionRow(record)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		fills = append(fills, fill)
	}

	return fills, rowErrs, nil
}

func parseExecutionRow(record []string) (models.ExecutionFill, error) {
	executionID := strings.TrimSpace(record[0])
	if executionID == "" {
		return models.ExecutionFill{}, fmt.Errorf("execution_id is empty")
	}

	quantity, err := decimal.NewFromString(strings.TrimSpace(record[4]))
	if err != nil {
		return models.ExecutionFill{}, fmt.Errorf("invalid quantity %q", record[4])
	}

	tradePrice, err := decimal.NewFromString(strings.TrimSpace(record[5]))
	if err != nil {
		return models.ExecutionFill{}, fmt.Errorf("invalid trade_price %q", record[5])
	}

	tradeDateUTC, err := time.Parse(time.RFC3339, strings.TrimSpace(record[7]))
	if err != nil {
		return models.ExecutionFill{}, fmt.Errorf("invalid trade_date_utc %q", record[7])
	}

	return models.ExecutionFill{
		ExecutionID:  executionID,
		Product:      strings.TrimSpace(record[1]),
		TradeType:    strings.TrimSpace(record[2]),
		Direction:    strings.ToUpper(strings.TrimSpace(record[3])),
		Quantity:     quantity,
		TradePrice:   tradePrice,
		Counterparty: strings.TrimSpace(record[6]),
		TradeDateUTC: tradeDateUTC.UTC(),
	}, nil
}
