package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExecutionFill is one partial or full execution reported by the exchange.
// Quantity is signed: negative for SELL, positive for BUY, with the direction
// carried redundantly in its own column.
type ExecutionFill struct {
	ExecutionID   string          `gorm:"primaryKey" json:"execution_id"`
	UploadBatchID uuid.UUID       `gorm:"index" json:"upload_batch_id"`
	Product       string          `gorm:"index" json:"product"`
	TradeType     string          `json:"trade_type"`
	Direction     string          `json:"direction"`
	Quantity      decimal.Decimal `gorm:"type:numeric(18,4)" json:"quantity"`
	TradePrice    decimal.Decimal `gorm:"type:numeric(18,4)" json:"trade_price"`
	Counterparty  string          `gorm:"index" json:"counterparty"`
	TradeDateUTC  time.Time       `gorm:"index" json:"trade_date_utc"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (f ExecutionFill) Ref() string {
	return f.ExecutionID
}
