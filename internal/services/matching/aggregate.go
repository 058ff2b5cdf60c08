package matching

import (
	"github.com/shopspring/decimal"

	"trade-reconciliation-backend/internal/models"
)

// SideSummary is the aggregation of every fill sharing one business key on
// one side of the reconciliation.
type SideSummary struct {
	Key      BusinessKey     `json:"key"`
	Quantity decimal.Decimal `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
	// MissingValueCount counts fills that contributed no value (null price
	// upstream). They are excluded from the value sum, not coerced to zero,
	// so missing data stays visible during review.
	MissingValueCount int      `json:"missing_value_count"`
	Count             int      `json:"count"`
	Refs              []string `json:"refs"`
}

// RejectedFill reports a fill that could not be keyed and was kept out of
// the aggregation.
type RejectedFill struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// AggregateClearing partitions bank clearing fills by business key.
// Quantities are summed signed (sells negative) so the net position per key
// is meaningful; values sum the upstream total_value, skipping nil.
func AggregateClearing(fills []models.ClearingFill, policy KeyPolicy) (map[BusinessKey]*SideSummary, []RejectedFill) {
	summaries := make(map[BusinessKey]*SideSummary)
	var rejected []RejectedFill

	for _, f := range fills {
		key, err := policy.ClearingKey(f)
		if err != nil {
			rejected = append(rejected, RejectedFill{Ref: f.Ref(), Reason: err.Error()})
			continue
		}

		s, ok := summaries[key]
		if !ok {
			s = &SideSummary{Key: key}
			summaries[key] = s
		}

		s.Quantity = s.Quantity.Add(f.Quantity)
		if f.TotalValue != nil {
			s.Value = s.Value.Add(*f.TotalValue)
		} else {
			s.MissingValueCount++
		}
		s.Count++
		s.Refs = append(s.Refs, f.Ref())
	}

	return summaries, rejected
}

// AggregateExecutions partitions exchange execution fills by business key.
// The exchange reports direction separately from the sign of quantity, so
// partial fills of one key always accumulate as absolute quantities; value
// is recomputed per fill as price * |quantity| because the exchange stores
// no pre-multiplied total.
func AggregateExecutions(fills []models.ExecutionFill, policy KeyPolicy) (map[BusinessKey]*SideSummary, []RejectedFill) {
	summaries := make(map[BusinessKey]*SideSummary)
	var rejected []RejectedFill

	for _, f := range fills {
		key, err := policy.ExecutionKey(f)
		if err != nil {
			rejected = append(rejected, RejectedFill{Ref: f.Ref(), Reason: err.Error()})
			continue
		}

		s, ok := summaries[key]
		if !ok {
			s = &SideSummary{Key: key}
			summaries[key] = s
		}

		absQty := f.Quantity.Abs()
		s.Quantity = s.Quantity.Add(absQty)
		s.Value = s.Value.Add(f.TradePrice.Mul(absQty))
		s.Count++
		s.Refs = append(s.Refs, f.Ref())
	}

	return summaries, rejected
}
