package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-reconciliation-backend/internal/models"
)

// RowError reports one CSV row that could not be turned into a fill. These
// stay at the ingestion boundary; the core never sees the row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

const bankDateLayout = "02/01/2006"

// Bank clearing exports use a European CSV dialect: ';' separator, ','
// decimal mark, dd/mm/yyyy dates in the bank's reporting time zone.
// Column order:
// trade_number;fill_sequence;product;market;direction;quantity;price;counterparty;fee;trade_date_local
const bankColumns = 10

// ParseClearingCSV reads bank clearing fills, normalizing the local trade
// date into UTC via sourceZone and deriving is_complete and total_value.
// A missing price leaves total_value nil (the fill still aggregates, flagged
// incomplete); a missing quantity rejects the row since quantity sums would
// be meaningless.
func ParseClearingCSV(r io.Reader, sourceZone *time.Location) ([]models.ClearingFill, []RowError, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, nil, fmt.Errorf("cannot read bank CSV header: %w", err)
	}

	var fills []models.ClearingFill
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
		if len(record) < bankColumns {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: fmt.Sprintf("expected %d columns, got %d", bankColumns, len(record))})
			continue
		}

		fill, err := parseClearingRow(record, sourceZone)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if !fill.IsComplete {
			log.Printf("WARN: incomplete fill %s missing price", fill.Ref())
		}
		fills = append(fills, fill)
	}

	return fills, rowErrs, nil
}

func parseClearingRow(record []string, sourceZone *time.Location) (models.ClearingFill, error) {
	tradeNumber := strings.TrimSpace(record[0])
	if tradeNumber == "" {
		return models.ClearingFill{}, fmt.Errorf("trade_number is empty")
	}

	fillSequence, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return models.ClearingFill{}, fmt.Errorf("invalid fill_sequence %q", record[1])
	}

	quantity, err := parseBankDecimal(record[5])
	if err != nil {
		return models.ClearingFill{}, fmt.Errorf("invalid quantity %q", record[5])
	}

	var price *decimal.Decimal
	if strings.TrimSpace(record[6]) != "" {
		p, err := parseBankDecimal(record[6])
		if err != nil {
			return models.ClearingFill{}, fmt.Errorf("invalid price %q", record[6])
		}
		price = &p
	}

	fee := decimal.Zero
	if strings.TrimSpace(record[8]) != "" {
		fee, err = parseBankDecimal(record[8])
		if err != nil {
			return models.ClearingFill{}, fmt.Errorf("invalid fee %q", record[8])
		}
	}

	localDate, err := time.ParseInLocation(bankDateLayout, strings.TrimSpace(record[9]), sourceZone)
	if err != nil {
		return models.ClearingFill{}, fmt.Errorf("invalid trade_date_local %q", record[9])
	}

	fill := models.ClearingFill{
		TradeNumber:  tradeNumber,
		FillSequence: fillSequence,
		Product:      strings.TrimSpace(record[2]),
		Market:       strings.TrimSpace(record[3]),
		Direction:    strings.ToUpper(strings.TrimSpace(record[4])),
		Quantity:     quantity,
		Price:        price,
		Counterparty: strings.TrimSpace(record[7]),
		Fee:          fee,
		// The key date stays the bank's calendar day; only the clock
		// instant is normalized to UTC.
		TradeDateLocal: time.Date(localDate.Year(), localDate.Month(), localDate.Day(), 0, 0, 0, 0, time.UTC),
		IsComplete:     price != nil,
	}

	utc := localDate.UTC()
	fill.TradeDateUTC = &utc

	if price != nil {
		total := price.Mul(quantity)
		fill.TotalValue = &total
	}

	return fill, nil
}

// parseBankDecimal handles the ',' decimal mark of the bank export.
func parseBankDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	return decimal.NewFromString(s)
}
