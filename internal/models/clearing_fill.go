package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClearingFill is one settlement line from the bank clearing system. A trade
// may settle in multiple fills, so identity is (trade_number, fill_sequence).
type ClearingFill struct {
	TradeNumber    string           `gorm:"primaryKey" json:"trade_number"`
	FillSequence   int              `gorm:"primaryKey" json:"fill_sequence"`
	UploadBatchID  uuid.UUID        `gorm:"index" json:"upload_batch_id"`
	Product        string           `gorm:"index" json:"product"`
	Market         string           `json:"market"`
	Direction      string           `json:"direction"`
	Quantity       decimal.Decimal  `gorm:"type:numeric(18,4)" json:"quantity"`
	Price          *decimal.Decimal `gorm:"type:numeric(18,4)" json:"price"`
	Counterparty   string           `gorm:"index" json:"counterparty"`
	Fee            decimal.Decimal  `gorm:"type:numeric(18,4)" json:"fee"`
	TradeDateLocal time.Time        `gorm:"type:date;index" json:"trade_date_local"`
	TradeDateUTC   *time.Time       `json:"trade_date_utc"`
	IsComplete     bool             `json:"is_complete"`
	// TotalValue is computed upstream as price * quantity; nil when the fill
	// arrived without a price. Never recomputed here, only summed.
	TotalValue *decimal.Decimal `gorm:"type:numeric(18,4)" json:"total_value"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Ref is the human-readable identifier used in drill-down lists.
func (f ClearingFill) Ref() string {
	return fmt.Sprintf("%s-%d", f.TradeNumber, f.FillSequence)
}
