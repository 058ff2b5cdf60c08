package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trade-reconciliation-backend/internal/models"
)

type ExecutionFillRepository struct {
	db *gorm.DB
}

func NewExecutionFillRepository(db *gorm.DB) *ExecutionFillRepository {
	return &ExecutionFillRepository{db: db}
}

func (r *ExecutionFillRepository) DB() *gorm.DB {
	return r.db
}

// FindByWindow returns execution fills with trade_date_utc in
// [startUTC, endUTC). The caller computes the UTC instants from the
// reporting zone so the store stays zone-agnostic.
func (r *ExecutionFillRepository) FindByWindow(startUTC, endUTC time.Time) ([]models.ExecutionFill, error) {
	var fills []models.ExecutionFill
	err := r.db.
		Where("trade_date_utc >= ? AND trade_date_utc < ?", startUTC, endUTC).
		Order("execution_id ASC").
		Find(&fills).Error
	return fills, err
}

// UpsertFills inserts fills, updating mutable columns on execution_id
// conflicts so re-ingesting a drop copy is idempotent.
func (r *ExecutionFillRepository) UpsertFills(fills []models.ExecutionFill) error {
	if len(fills) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "execution_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "trade_price", "trade_date_utc",
		}),
	}).Create(&fills).Error
}

// ReplaceSnapshot atomically swaps all fills in the UTC window for the
// given set.
func (r *ExecutionFillRepository) ReplaceSnapshot(startUTC, endUTC time.Time, fills []models.ExecutionFill) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("trade_date_utc >= ? AND trade_date_utc < ?", startUTC, endUTC).
			Delete(&models.ExecutionFill{}).Error; err != nil {
			return err
		}
		if len(fills) == 0 {
			return nil
		}
		return tx.Create(&fills).Error
	})
}
