package reconciliation

import (
	"fmt"
	"log"
	"time"

	"trade-reconciliation-backend/internal/models"
	"trade-reconciliation-backend/internal/services/alerts"
	"trade-reconciliation-backend/internal/services/matching"
)

// ClearingFillStore and ExecutionFillStore are the slices of the repository
// layer the service needs; satisfied by internal/repository, mockable in
// tests.
type ClearingFillStore interface {
	FindByWindow(start, end time.Time) ([]models.ClearingFill, error)
	UpsertFills(fills []models.ClearingFill) error
	ReplaceSnapshot(start, end time.Time, fills []models.ClearingFill) error
}

type ExecutionFillStore interface {
	FindByWindow(startUTC, endUTC time.Time) ([]models.ExecutionFill, error)
	UpsertFills(fills []models.ExecutionFill) error
	ReplaceSnapshot(startUTC, endUTC time.Time, fills []models.ExecutionFill) error
}

// Report is the full output of one reconciliation run. Rejected fills are
// reported alongside, never silently dropped.
type Report struct {
	WindowStart      string                  `json:"window_start"`
	WindowEnd        string                  `json:"window_end"`
	Records          []matching.Record       `json:"records"`
	Summary          alerts.Summary          `json:"summary"`
	RejectedBank     []matching.RejectedFill `json:"rejected_bank,omitempty"`
	RejectedExchange []matching.RejectedFill `json:"rejected_exchange,omitempty"`
}

type ReconciliationService struct {
	clearingStore  ClearingFillStore
	executionStore ExecutionFillStore
	policy         matching.KeyPolicy
	alertMgr       *alerts.AlertManager
}

func NewReconciliationService(
	clearingStore ClearingFillStore,
	executionStore ExecutionFillStore,
	policy matching.KeyPolicy,
	alertMgr *alerts.AlertManager,
) *ReconciliationService {
	return &ReconciliationService{
		clearingStore:  clearingStore,
		executionStore: executionStore,
		policy:         policy,
		alertMgr:       alertMgr,
	}
}

// RunWindow reconciles the calendar-date window [start, end] (inclusive).
// An empty window yields a valid empty report; only store failures error.
func (s *ReconciliationService) RunWindow(start, end time.Time) (*Report, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("window end %s is before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	clearingFills, err := s.clearingStore.FindByWindow(start, end)
	if err != nil {
		return nil, fmt.Errorf("could not load clearing fills: %w", err)
	}

	startUTC, endUTC := s.executionWindowUTC(start, end)
	executionFills, err := s.executionStore.FindByWindow(startUTC, endUTC)
	if err != nil {
		return nil, fmt.Errorf("could not load execution fills: %w", err)
	}

	log.Printf("Reconciling window %s..%s: %d clearing fills, %d execution fills",
		start.Format("2006-01-02"), end.Format("2006-01-02"), len(clearingFills), len(executionFills))

	return s.Run(clearingFills, executionFills, start, end), nil
}

// Run reconciles already-loaded fill collections. Split out from RunWindow
// so the offline CLI can feed CSV-parsed fills through the same path.
func (s *ReconciliationService) Run(clearingFills []models.ClearingFill, executionFills []models.ExecutionFill, start, end time.Time) *Report {
	bankSummaries, rejectedBank := matching.AggregateClearing(clearingFills, s.policy)
	exchangeSummaries, rejectedExchange := matching.AggregateExecutions(executionFills, s.policy)

	for _, r := range rejectedBank {
		log.Printf("WARN: rejected clearing fill %s: %s", r.Ref, r.Reason)
	}
	for _, r := range rejectedExchange {
		log.Printf("WARN: rejected execution fill %s: %s", r.Ref, r.Reason)
	}

	records := matching.Reconcile(bankSummaries, exchangeSummaries)

	report := &Report{
		WindowStart:      start.Format("2006-01-02"),
		WindowEnd:        end.Format("2006-01-02"),
		Records:          records,
		Summary:          s.alertMgr.Summarize(records),
		RejectedBank:     rejectedBank,
		RejectedExchange: rejectedExchange,
	}

	critical := s.alertMgr.Critical(records)
	s.alertMgr.SendAlerts(critical, report.Summary)
	s.alertMgr.PrintSummary(report.Summary)

	return report
}

// executionWindowUTC maps the calendar-date window onto the UTC instant
// range covering the same business days in the reporting zone.
func (s *ReconciliationService) executionWindowUTC(start, end time.Time) (time.Time, time.Time) {
	zone := s.policy.ReportingZone
	if zone == nil {
		zone = time.UTC
	}
	startUTC := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, zone).UTC()
	endUTC := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, zone).AddDate(0, 0, 1).UTC()
	return startUTC, endUTC
}

// StoreClearingFills persists parsed bank fills, either upserting onto the
// current snapshot or replacing the window outright.
func (s *ReconciliationService) StoreClearingFills(fills []models.ClearingFill, replace bool, start, end time.Time) error {
	if replace {
		return s.clearingStore.ReplaceSnapshot(start, end, fills)
	}
	return s.clearingStore.UpsertFills(fills)
}

// StoreExecutionFills persists parsed exchange fills analogously; a replace
// window is given as calendar dates and converted like RunWindow.
func (s *ReconciliationService) StoreExecutionFills(fills []models.ExecutionFill, replace bool, start, end time.Time) error {
	if replace {
		startUTC, endUTC := s.executionWindowUTC(start, end)
		return s.executionStore.ReplaceSnapshot(startUTC, endUTC, fills)
	}
	return s.executionStore.UpsertFills(fills)
}

// FilterByStatus narrows a record set for consumers that only want a single
// discrepancy class.
func FilterByStatus(records []matching.Record, status string) []matching.Record {
	if status == "" || status == "all" {
		return records
	}
	filtered := make([]matching.Record, 0, len(records))
	for _, rec := range records {
		if rec.Status == status {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
