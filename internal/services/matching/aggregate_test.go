package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-reconciliation-backend/internal/models"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func clearingFill(t *testing.T, tradeNumber string, seq int, direction, qty string, totalValue *decimal.Decimal) models.ClearingFill {
	t.Helper()
	return models.ClearingFill{
		TradeNumber:    tradeNumber,
		FillSequence:   seq,
		Product:        "PWR-NORDIC",
		Direction:      direction,
		Counterparty:   "STATKRAFT",
		Quantity:       dec(t, qty),
		TotalValue:     totalValue,
		TradeDateLocal: time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC),
	}
}

func executionFill(t *testing.T, id, product, counterparty, direction, qty, price string) models.ExecutionFill {
	t.Helper()
	return models.ExecutionFill{
		ExecutionID:  id,
		Product:      product,
		Direction:    direction,
		Counterparty: counterparty,
		Quantity:     dec(t, qty),
		TradePrice:   dec(t, price),
		TradeDateUTC: time.Date(2025, 1, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestAggregateClearingSignedSum(t *testing.T) {
	policy := NewKeyPolicy(time.UTC)
	fills := []models.ClearingFill{
		clearingFill(t, "T001", 1, "SELL", "-10", decPtr(t, "-11.60")),
		clearingFill(t, "T001", 2, "SELL", "-4", decPtr(t, "-4.64")),
	}

	summaries, rejected := AggregateClearing(fills, policy)
	require.Empty(t, rejected)
	require.Len(t, summaries, 1)

	for _, s := range summaries {
		assert.True(t, s.Quantity.Equal(dec(t, "-14")), "net signed quantity, got %s", s.Quantity)
		assert.True(t, s.Value.Equal(dec(t, "-16.24")))
		assert.Equal(t, 2, s.Count)
		assert.Equal(t, []string{"T001-1", "T001-2"}, s.Refs)
	}
}

func TestAggregateClearingNullValueExcludedNotCoerced(t *testing.T) {
	policy := NewKeyPolicy(time.UTC)
	fills := []models.ClearingFill{
		clearingFill(t, "T002", 1, "BUY", "8", decPtr(t, "319.20")),
		clearingFill(t, "T002", 2, "BUY", "5", nil), // incomplete fill, no price upstream
	}

	summaries, rejected := AggregateClearing(fills, policy)
	require.Empty(t, rejected)
	require.Len(t, summaries, 1)

	for _, s := range summaries {
		assert.True(t, s.Quantity.Equal(dec(t, "13")))
		assert.True(t, s.Value.Equal(dec(t, "319.20")))
		assert.Equal(t, 1, s.MissingValueCount)
		assert.Equal(t, 2, s.Count)
	}
}

func TestAggregateClearingRejectsInvalidKey(t *testing.T) {
	policy := NewKeyPolicy(time.UTC)
	bad := clearingFill(t, "T003", 1, "BUY", "1", nil)
	bad.Counterparty = ""
	good := clearingFill(t, "T003", 2, "BUY", "2", nil)

	summaries, rejected := AggregateClearing([]models.ClearingFill{bad, good}, policy)

	require.Len(t, rejected, 1)
	assert.Equal(t, "T003-1", rejected[0].Ref)
	require.Len(t, summaries, 1)
	for _, s := range summaries {
		assert.Equal(t, []string{"T003-2"}, s.Refs)
	}
}

func TestAggregateExecutionsAbsoluteSum(t *testing.T) {
	policy := NewKeyPolicy(time.UTC)
	// Two SELL partial fills recorded with negative quantities accumulate
	// as absolute quantities, value recomputed per fill.
	fills := []models.ExecutionFill{
		executionFill(t, "bb44c1", "GAS-UK", "BP", "SELL", "-10", "1.16"),
		executionFill(t, "bb44c2", "GAS-UK", "BP", "SELL", "-10", "1.16"),
	}

	summaries, rejected := AggregateExecutions(fills, policy)
	require.Empty(t, rejected)
	require.Len(t, summaries, 1)

	for _, s := range summaries {
		assert.True(t, s.Quantity.Equal(dec(t, "20")), "absolute-value sum, got %s", s.Quantity)
		assert.True(t, s.Value.Equal(dec(t, "23.20")))
		assert.Equal(t, []string{"bb44c1", "bb44c2"}, s.Refs)
	}
}

func TestAggregateExecutionsFillSplittingInvariance(t *testing.T) {
	policy := NewKeyPolicy(time.UTC)

	whole := []models.ExecutionFill{
		executionFill(t, "x1", "PWR-NORDIC", "STATKRAFT", "BUY", "10", "39.90"),
	}
	split := []models.ExecutionFill{
		executionFill(t, "x1a", "PWR-NORDIC", "STATKRAFT", "BUY", "5", "39.90"),
		executionFill(t, "x1b", "PWR-NORDIC", "STATKRAFT", "BUY", "5", "39.90"),
	}

	wholeSummaries, _ := AggregateExecutions(whole, policy)
	splitSummaries, _ := AggregateExecutions(split, policy)

	require.Len(t, wholeSummaries, 1)
	require.Len(t, splitSummaries, 1)
	for key, w := range wholeSummaries {
		s, ok := splitSummaries[key]
		require.True(t, ok)
		assert.True(t, w.Quantity.Equal(s.Quantity))
		assert.True(t, w.Value.Equal(s.Value))
	}
}

func TestAggregationPreservesAllRefsExactlyOnce(t *testing.T) {
	policy := NewKeyPolicy(time.UTC)
	fills := []models.ClearingFill{
		clearingFill(t, "T010", 1, "BUY", "1", nil),
		clearingFill(t, "T010", 2, "BUY", "2", nil),
		clearingFill(t, "T011", 1, "SELL", "-3", nil),
	}
	other := clearingFill(t, "T012", 1, "BUY", "4", nil)
	other.Product = "GAS-UK"
	fills = append(fills, other)

	summaries, rejected := AggregateClearing(fills, policy)
	require.Empty(t, rejected)

	seen := make(map[string]int)
	for _, s := range summaries {
		for _, ref := range s.Refs {
			seen[ref]++
		}
	}
	assert.Equal(t, map[string]int{"T010-1": 1, "T010-2": 1, "T011-1": 1, "T012-1": 1}, seen)
}
