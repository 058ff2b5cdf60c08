package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SourceBank     = "bank"
	SourceExchange = "exchange"
)

// IngestBatch tracks one CSV upload end to end, including per-row parse
// failures, so an ingestion problem is reportable as its own failure rather
// than surfacing later as an empty reconciliation window.
type IngestBatch struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Source        string         `gorm:"index" json:"source"`
	Filename      string         `json:"filename"`
	TotalRows     int            `json:"total_rows"`
	InsertedCount int            `json:"inserted_count"`
	SkippedCount  int            `json:"skipped_count"`
	Status        string         `json:"status"`
	RowErrors     datatypes.JSON `json:"row_errors"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at"`
	CreatedAt     time.Time      `json:"created_at"`
}
