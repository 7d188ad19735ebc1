package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type TradeType string

const (
	TradeTypeBuyOpen   TradeType = "BUY_OPEN"
	TradeTypeSellClose TradeType = "SELL_CLOSE"
	TradeTypeSellShort TradeType = "SELL_SHORT"
	TradeTypeBuyCover  TradeType = "BUY_COVER"
)

// IsOpen reports whether the trade opens a position.
func (t TradeType) IsOpen() bool {
	return t == TradeTypeBuyOpen || t == TradeTypeSellShort
}

// TradeCost is what the cost model charges for one transition.
type TradeCost struct {
	Commission       float64 `json:"commission" yaml:"commission"`
	ExchangeFee      float64 `json:"exchange_fee" yaml:"exchange_fee"`
	ClearingFee      float64 `json:"clearing_fee" yaml:"clearing_fee"`
	FinancingAccrued float64 `json:"financing_accrued" yaml:"financing_accrued"`
}

// Total sums every component.
func (c TradeCost) Total() float64 {
	return c.Commission + c.ExchangeFee + c.ClearingFee + c.FinancingAccrued
}

// Trade is one executed transition. Trades are append-only.
type Trade struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Type     TradeType `json:"type"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Reason   string    `json:"reason"`
	// PnL is only set on closing trades and is net of every cost of the round trip.
	PnL              optional.Option[float64] `json:"pnl"`
	Commission       float64                  `json:"commission"`
	ExchangeFee      float64                  `json:"exchange_fee"`
	ClearingFee      float64                  `json:"clearing_fee"`
	FinancingAccrued float64                  `json:"financing_accrued"`
	// HoldingDays is set on closing trades.
	HoldingDays int `json:"holding_days"`
	// WrittenOff is the part of a closing loss the account could not pay. PnL excludes it.
	WrittenOff float64 `json:"written_off,omitempty"`
}

// Fees returns the total cost charged on this trade.
func (t Trade) Fees() float64 {
	return t.Commission + t.ExchangeFee + t.ClearingFee + t.FinancingAccrued
}

// IsClosing reports whether the trade realized a P&L.
func (t Trade) IsClosing() bool {
	return t.PnL.IsSome()
}

// ClosedPnLs returns the realized P&L of every closing trade in ledger order.
func ClosedPnLs(ledger []Trade) []float64 {
	pnls := make([]float64, 0, len(ledger)/2)

	for _, trade := range ledger {
		if trade.PnL.IsSome() {
			pnls = append(pnls, trade.PnL.Unwrap())
		}
	}

	return pnls
}
