package report

import (
	"encoding/csv"
	"io"

	"trade-reconciliation-backend/internal/services/matching"
)

// Header columns mirror the reconciliation record attributes, one row per
// record, quantities as plain numbers, monetary values at two decimal
// places and status as its enum string.
var header = []string{
	"product", "counterparty", "trade_date", "direction",
	"bank_quantity", "exchange_quantity", "quantity_diff",
	"bank_value", "exchange_value", "value_diff",
	"bank_refs", "exchange_refs", "status",
}

// WriteCSV serializes reconciliation records as tabular output.
func WriteCSV(w io.Writer, records []matching.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.Key.Product,
			rec.Key.Counterparty,
			rec.Key.TradeDate,
			rec.Key.Direction,
			rec.BankQuantity.String(),
			rec.ExchangeQuantity.String(),
			rec.QuantityDiff.String(),
			rec.BankValue.StringFixed(2),
			rec.ExchangeValue.StringFixed(2),
			rec.ValueDiff.StringFixed(2),
			rec.BankRefs,
			rec.ExchangeRefs,
			rec.Status,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
