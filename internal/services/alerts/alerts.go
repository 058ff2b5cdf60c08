package alerts

import (
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"trade-reconciliation-backend/internal/services/matching"
)

// Summary carries the run-level statistics shown to reviewers and included
// in alert emails.
type Summary struct {
	TotalKeys           int             `json:"total_keys"`
	Matched             int             `json:"matched"`
	QtyMismatches       int             `json:"qty_mismatches"`
	ValueMismatches     int             `json:"value_mismatches"`
	MissingInBank       int             `json:"missing_in_bank"`
	MissingInExchange   int             `json:"missing_in_exchange"`
	CriticalAlerts      int             `json:"critical_alerts"`
	TotalDiscrepancyAmt decimal.Decimal `json:"total_discrepancy_amount"`
}

// AlertManager surfaces reconciliation discrepancies that need a human now:
// anything missing on one side, or a value gap at or above the threshold.
type AlertManager struct {
	Threshold decimal.Decimal
	email     *EmailSender
}

func NewAlertManager(threshold decimal.Decimal, email *EmailSender) *AlertManager {
	return &AlertManager{Threshold: threshold, email: email}
}

// Critical filters the records that cross the alert threshold or are missing
// on either side.
func (m *AlertManager) Critical(records []matching.Record) []matching.Record {
	var critical []matching.Record
	for _, rec := range records {
		if rec.ValueDiff.Abs().GreaterThanOrEqual(m.Threshold) || strings.Contains(rec.Status, "MISSING") {
			critical = append(critical, rec)
		}
	}
	return critical
}

// Summarize computes run statistics over the full record set.
func (m *AlertManager) Summarize(records []matching.Record) Summary {
	s := Summary{TotalKeys: len(records), TotalDiscrepancyAmt: decimal.Zero}
	for _, rec := range records {
		switch rec.Status {
		case matching.StatusMatched:
			s.Matched++
		case matching.StatusQtyMismatch:
			s.QtyMismatches++
		case matching.StatusValueMismatch:
			s.ValueMismatches++
		case matching.StatusMissingInBank:
			s.MissingInBank++
		case matching.StatusMissingInExchange:
			s.MissingInExchange++
		}
		s.TotalDiscrepancyAmt = s.TotalDiscrepancyAmt.Add(rec.ValueDiff.Abs())
	}
	s.CriticalAlerts = len(m.Critical(records))
	return s
}

// SendAlerts logs critical records with business context and, when email is
// configured, mails the same set.
func (m *AlertManager) SendAlerts(critical []matching.Record, summary Summary) {
	if len(critical) == 0 {
		log.Println("No critical alerts - all discrepancies below threshold")
		return
	}

	log.Println(strings.Repeat("=", 80))
	log.Printf("CRITICAL ALERTS: %d items require attention", len(critical))
	log.Println(strings.Repeat("=", 80))

	for _, rec := range critical {
		log.Printf("Contract: %s | Counterparty: %s | Date: %s | Direction: %s",
			rec.Key.Product, rec.Key.Counterparty, rec.Key.TradeDate, rec.Key.Direction)
		log.Printf("Status:   %s", rec.Status)
		log.Printf("Diff:     $%s", rec.ValueDiff.StringFixed(2))
		logBusinessContext(rec)
		log.Println(strings.Repeat("-", 80))
	}

	if m.email != nil {
		if err := m.email.Send(critical, summary); err != nil {
			log.Printf("WARN: email alerts failed: %v", err)
		}
	}
}

func logBusinessContext(rec matching.Record) {
	switch rec.Status {
	case matching.StatusMissingInBank:
		log.Println("RISK: Revenue leakage - trade exists on exchange but no bank record.")
	case matching.StatusMissingInExchange:
		log.Println("RISK: Overpayment - bank record exists without matching trade.")
	case matching.StatusQtyMismatch:
		log.Printf("QTY MISMATCH: position gap of %s contracts", rec.QuantityDiff.String())
	case matching.StatusValueMismatch:
		log.Printf("VALUE MISMATCH: financial gap of $%s", rec.ValueDiff.StringFixed(2))
	}
}

// PrintSummary logs the run summary table.
func (m *AlertManager) PrintSummary(s Summary) {
	log.Println(strings.Repeat("=", 80))
	log.Println("RECONCILIATION SUMMARY")
	log.Println(strings.Repeat("=", 80))
	log.Printf("%-25s: %d", "Total Keys", s.TotalKeys)
	log.Printf("%-25s: %d", "Matched", s.Matched)
	log.Printf("%-25s: %d", "Qty Mismatches", s.QtyMismatches)
	log.Printf("%-25s: %d", "Value Mismatches", s.ValueMismatches)
	log.Printf("%-25s: %d", "Missing In Bank", s.MissingInBank)
	log.Printf("%-25s: %d", "Missing In Exchange", s.MissingInExchange)
	log.Printf("%-25s: %d", "Critical Alerts", s.CriticalAlerts)
	log.Printf("%-25s: $%s", "Total Discrepancy", s.TotalDiscrepancyAmt.StringFixed(2))
	log.Println(strings.Repeat("=", 80))
}
