package ingestion

import (
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"trade-reconciliation-backend/internal/ingest"
	"trade-reconciliation-backend/internal/models"
	"trade-reconciliation-backend/internal/services/reconciliation"
)

const (
	BatchProcessing         = "processing"
	BatchCompleted          = "completed"
	BatchCompletedWithError = "completed_with_errors"
	BatchFailed             = "failed"
)

// IngestionService runs CSV uploads end to end: parse, persist fills,
// record the batch outcome including per-row errors.
type IngestionService struct {
	db         *gorm.DB
	recon      *reconciliation.ReconciliationService
	sourceZone *time.Location
}

func NewIngestionService(db *gorm.DB, recon *reconciliation.ReconciliationService, sourceZone *time.Location) *IngestionService {
	return &IngestionService{db: db, recon: recon, sourceZone: sourceZone}
}

// CreateBatch records a new upload before processing starts.
func (s *IngestionService) CreateBatch(source, filename string) (*models.IngestBatch, error) {
	batch := &models.IngestBatch{
		ID:        uuid.New(),
		Source:    source,
		Filename:  filename,
		Status:    BatchProcessing,
		StartedAt: time.Now(),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *IngestionService) GetBatch(batchID uuid.UUID) (*models.IngestBatch, error) {
	var batch models.IngestBatch
	if err := s.db.First(&batch, "id = ?", batchID).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// ProcessBank parses and persists a bank clearing CSV for the given batch.
func (s *IngestionService) ProcessBank(batchID uuid.UUID, r io.Reader, replace bool, start, end time.Time) {
	fills, rowErrs, err := ingest.ParseClearingCSV(r, s.sourceZone)
	if err != nil {
		s.failBatch(batchID, err)
		return
	}
	for i := range fills {
		fills[i].UploadBatchID = batchID
	}
	if err := s.recon.StoreClearingFills(fills, replace, start, end); err != nil {
		s.failBatch(batchID, err)
		return
	}
	s.completeBatch(batchID, len(fills), rowErrs)
}

// ProcessExchange parses and persists an exchange drop-copy CSV.
func (s *IngestionService) ProcessExchange(batchID uuid.UUID, r io.Reader, replace bool, start, end time.Time) {
	fills, rowErrs, err := ingest.ParseExecutionCSV(r)
	if err != nil {
		s.failBatch(batchID, err)
		return
	}
	for i := range fills {
		fills[i].UploadBatchID = batchID
	}
	if err := s.recon.StoreExecutionFills(fills, replace, start, end); err != nil {
		s.failBatch(batchID, err)
		return
	}
	s.completeBatch(batchID, len(fills), rowErrs)
}

func (s *IngestionService) failBatch(batchID uuid.UUID, cause error) {
	log.Printf("ERROR: batch %s failed: %v", batchID, cause)
	now := time.Now()
	s.db.Model(&models.IngestBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"status":       BatchFailed,
			"row_errors":   mustJSON([]ingest.RowError{{Row: 0, Message: cause.Error()}}),
			"completed_at": &now,
		})
}

func (s *IngestionService) completeBatch(batchID uuid.UUID, inserted int, rowErrs []ingest.RowError) {
	status := BatchCompleted
	if len(rowErrs) > 0 {
		status = BatchCompletedWithError
		log.Printf("WARN: batch %s completed with %d row errors", batchID, len(rowErrs))
	}
	now := time.Now()
	s.db.Model(&models.IngestBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"status":         status,
			"total_rows":     inserted + len(rowErrs),
			"inserted_count": inserted,
			"skipped_count":  len(rowErrs),
			"row_errors":     mustJSON(rowErrs),
			"completed_at":   &now,
		})
}

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}
