package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-reconciliation-backend/internal/services/matching"
)

func TestWriteCSV(t *testing.T) {
	records := []matching.Record{
		{
			Key: matching.BusinessKey{
				Product:      "GAS-UK",
				Counterparty: "BP",
				TradeDate:    "2025-01-14",
				Direction:    "SELL",
			},
			BankQuantity:     decimal.Zero,
			ExchangeQuantity: decimal.NewFromInt(20),
			QuantityDiff:     decimal.NewFromInt(-20),
			BankValue:        decimal.Zero,
			ExchangeValue:    decimal.RequireFromString("23.20"),
			ValueDiff:        decimal.RequireFromString("-23.20"),
			ExchangeRefs:     "bb44c1,bb44c2",
			ExchangeCount:    2,
			Status:           matching.StatusMissingInBank,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{
		"GAS-UK", "BP", "2025-01-14", "SELL",
		"0", "20", "-20",
		"0.00", "23.20", "-23.20",
		"", "bb44c1,bb44c2", "MISSING IN BANK",
	}, rows[1])
}

func TestWriteCSVValueScaleIsStable(t *testing.T) {
	// Value columns keep two decimal places regardless of how the
	// decimal was produced; quantities stay unpadded.
	records := []matching.Record{
		{
			Key:              matching.BusinessKey{Product: "WTI", Counterparty: "SHELL", TradeDate: "2025-01-14", Direction: "BUY"},
			BankQuantity:     decimal.NewFromInt(5),
			ExchangeQuantity: decimal.NewFromInt(5),
			QuantityDiff:     decimal.Zero,
			BankValue:        decimal.RequireFromString("23.2"),
			ExchangeValue:    decimal.NewFromFloat(23.2),
			ValueDiff:        decimal.Zero,
			Status:           matching.StatusMatched,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "5", rows[1][4])
	assert.Equal(t, "23.20", rows[1][7])
	assert.Equal(t, "23.20", rows[1][8])
	assert.Equal(t, "0.00", rows[1][9])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
