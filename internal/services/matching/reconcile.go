package matching

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	StatusMissingInBank     = "MISSING IN BANK"
	StatusMissingInExchange = "MISSING IN EXCHANGE"
	StatusQtyMismatch       = "QTY MISMATCH"
	StatusValueMismatch     = "VALUE MISMATCH"
	StatusMatched           = "MATCHED"
)

// Fixed tolerances absorbing decimal rounding noise. Quantity is tighter
// than value: quantities are exact contract units while values accumulate
// rounding from price multiplication.
var (
	qtyTolerance   = decimal.RequireFromString("0.0001")
	valueTolerance = decimal.RequireFromString("0.01")
)

// Record is one reconciliation result per business key observed on either
// side. Absent sides are coalesced to zero here, at output time only.
type Record struct {
	Key              BusinessKey     `json:"key"`
	BankQuantity     decimal.Decimal `json:"bank_quantity"`
	ExchangeQuantity decimal.Decimal `json:"exchange_quantity"`
	QuantityDiff     decimal.Decimal `json:"quantity_diff"`
	BankValue        decimal.Decimal `json:"bank_value"`
	ExchangeValue    decimal.Decimal `json:"exchange_value"`
	ValueDiff        decimal.Decimal `json:"value_diff"`
	BankRefs         string          `json:"bank_refs"`
	ExchangeRefs     string          `json:"exchange_refs"`
	BankCount        int             `json:"bank_count"`
	ExchangeCount    int             `json:"exchange_count"`
	Status           string          `json:"status"`
}

// Reconcile full-outer-joins the two summary maps on business key and
// classifies each key. Pure and total: no input shape produces an error, and
// output order is stable (sorted by key) for a given input.
func Reconcile(bank, exchange map[BusinessKey]*SideSummary) []Record {
	keys := make([]BusinessKey, 0, len(bank)+len(exchange))
	seen := make(map[BusinessKey]bool, len(bank)+len(exchange))
	for k := range bank {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range exchange {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		b, inBank := bank[key]
		e, inExchange := exchange[key]

		rec := Record{Key: key}
		if inBank {
			rec.BankQuantity = b.Quantity
			rec.BankValue = b.Value
			rec.BankRefs = strings.Join(b.Refs, ",")
			rec.BankCount = b.Count
		}
		if inExchange {
			rec.ExchangeQuantity = e.Quantity
			rec.ExchangeValue = e.Value
			rec.ExchangeRefs = strings.Join(e.Refs, ",")
			rec.ExchangeCount = e.Count
		}
		rec.QuantityDiff = rec.BankQuantity.Sub(rec.ExchangeQuantity)
		rec.ValueDiff = rec.BankValue.Sub(rec.ExchangeValue)
		rec.Status = classify(inBank, inExchange, rec.QuantityDiff, rec.ValueDiff)

		records = append(records, rec)
	}

	return records
}

// classify applies the status rules in strict priority order.
func classify(inBank, inExchange bool, qtyDiff, valueDiff decimal.Decimal) string {
	switch {
	case !inBank:
		return StatusMissingInBank
	case !inExchange:
		return StatusMissingInExchange
	case qtyDiff.Abs().GreaterThan(qtyTolerance):
		return StatusQtyMismatch
	case valueDiff.Abs().GreaterThan(valueTolerance):
		return StatusValueMismatch
	default:
		return StatusMatched
	}
}
