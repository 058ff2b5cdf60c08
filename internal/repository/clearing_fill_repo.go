package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trade-reconciliation-backend/internal/models"
)

type ClearingFillRepository struct {
	db *gorm.DB
}

func NewClearingFillRepository(db *gorm.DB) *ClearingFillRepository {
	return &ClearingFillRepository{db: db}
}

func (r *ClearingFillRepository) DB() *gorm.DB {
	return r.db
}

// FindByWindow returns clearing fills whose local trade date falls inside
// [start, end] (inclusive calendar-date range).
func (r *ClearingFillRepository) FindByWindow(start, end time.Time) ([]models.ClearingFill, error) {
	var fills []models.ClearingFill
	err := r.db.
		Where("trade_date_local >= ? AND trade_date_local <= ?", start, end).
		Order("trade_number ASC, fill_sequence ASC").
		Find(&fills).Error
	return fills, err
}

// UpsertFills inserts fills, updating the mutable columns when the identity
// key (trade_number, fill_sequence) already exists. Re-running an ingest for
// the same file is therefore idempotent.
func (r *ClearingFillRepository) UpsertFills(fills []models.ClearingFill) error {
	if len(fills) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "trade_number"}, {Name: "fill_sequence"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "price", "total_value", "is_complete", "fee", "updated_at",
		}),
	}).Create(&fills).Error
}

// ReplaceSnapshot atomically swaps all fills in the window for the given set.
// Callers get "replace snapshot for window W" semantics rather than an
// append-only history.
func (r *ClearingFillRepository) ReplaceSnapshot(start, end time.Time, fills []models.ClearingFill) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("trade_date_local >= ? AND trade_date_local <= ?", start, end).
			Delete(&models.ClearingFill{}).Error; err != nil {
			return err
		}
		if len(fills) == 0 {
			return nil
		}
		return tx.Create(&fills).Error
	})
}
