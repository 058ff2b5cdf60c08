package matching

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"trade-reconciliation-backend/internal/models"
)

// ErrInvalidKeyComponent marks a fill whose key fields cannot identify a
// business key. Such fills are rejected rather than grouped under a synthetic
// key: under-reporting beats mis-matching.
var ErrInvalidKeyComponent = errors.New("invalid business key component")

const dateLayout = "2006-01-02"

// BusinessKey groups fills across both ledgers. Plain value type so it works
// as a map key with structural equality; TradeDate is kept as a formatted
// calendar date to avoid time.Time location-pointer inequality.
type BusinessKey struct {
	Product      string `json:"product"`
	Counterparty string `json:"counterparty"`
	TradeDate    string `json:"trade_date"`
	Direction    string `json:"direction"`
}

func (k BusinessKey) String() string {
	return k.Product + "|" + k.Counterparty + "|" + k.TradeDate + "|" + k.Direction
}

// Less orders keys by (product, counterparty, trade date, direction).
func (k BusinessKey) Less(o BusinessKey) bool {
	if k.Product != o.Product {
		return k.Product < o.Product
	}
	if k.Counterparty != o.Counterparty {
		return k.Counterparty < o.Counterparty
	}
	if k.TradeDate != o.TradeDate {
		return k.TradeDate < o.TradeDate
	}
	return k.Direction < o.Direction
}

// KeyPolicy pins down the zone-alignment decision: which calendar day an
// exchange UTC timestamp belongs to. The bank side already records a local
// calendar date, so only the exchange side needs the conversion.
type KeyPolicy struct {
	ReportingZone *time.Location
}

// NewKeyPolicy builds a policy for the given reporting zone. A nil zone
// falls back to UTC truncation.
func NewKeyPolicy(zone *time.Location) KeyPolicy {
	if zone == nil {
		zone = time.UTC
	}
	return KeyPolicy{ReportingZone: zone}
}

// ClearingKey derives the business key for a bank clearing fill.
func (p KeyPolicy) ClearingKey(f models.ClearingFill) (BusinessKey, error) {
	if f.TradeDateLocal.IsZero() {
		return BusinessKey{}, fmt.Errorf("fill %s: trade date: %w", f.Ref(), ErrInvalidKeyComponent)
	}
	return p.buildKey(f.Ref(), f.Product, f.Counterparty, f.TradeDateLocal.Format(dateLayout), f.Direction)
}

// ExecutionKey derives the business key for an exchange execution fill. The
// UTC timestamp is shifted into the reporting zone before truncation so both
// sides agree on the business day the trade belongs to.
func (p KeyPolicy) ExecutionKey(f models.ExecutionFill) (BusinessKey, error) {
	if f.TradeDateUTC.IsZero() {
		return BusinessKey{}, fmt.Errorf("fill %s: trade date: %w", f.Ref(), ErrInvalidKeyComponent)
	}
	zone := p.ReportingZone
	if zone == nil {
		zone = time.UTC
	}
	tradeDate := f.TradeDateUTC.In(zone).Format(dateLayout)
	return p.buildKey(f.Ref(), f.Product, f.Counterparty, tradeDate, f.Direction)
}

func (p KeyPolicy) buildKey(ref, product, counterparty, tradeDate, direction string) (BusinessKey, error) {
	product = strings.TrimSpace(product)
	counterparty = strings.TrimSpace(counterparty)
	direction = strings.ToUpper(strings.TrimSpace(direction))

	switch {
	case product == "":
		return BusinessKey{}, fmt.Errorf("fill %s: product: %w", ref, ErrInvalidKeyComponent)
	case counterparty == "":
		return BusinessKey{}, fmt.Errorf("fill %s: counterparty: %w", ref, ErrInvalidKeyComponent)
	case direction != "BUY" && direction != "SELL":
		return BusinessKey{}, fmt.Errorf("fill %s: direction %q: %w", ref, direction, ErrInvalidKeyComponent)
	}

	return BusinessKey{
		Product:      product,
		Counterparty: counterparty,
		TradeDate:    tradeDate,
		Direction:    direction,
	}, nil
}
