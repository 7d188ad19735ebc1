package types

import "time"

type PositionStatus string

const (
	PositionFlat  PositionStatus = "FLAT"
	PositionLong  PositionStatus = "LONG"
	PositionShort PositionStatus = "SHORT"
)

// PositionState is owned by exactly one simulator run.
type PositionState struct {
	Status              PositionStatus `json:"status" yaml:"status"`
	EntryPrice          float64        `json:"entry_price" yaml:"entry_price"`
	EntryDate           time.Time      `json:"entry_date" yaml:"entry_date"`
	EntryIndex          int            `json:"entry_index" yaml:"entry_index"`
	Quantity            float64        `json:"quantity" yaml:"quantity"`
	StopLossPrice       float64        `json:"stop_loss_price" yaml:"stop_loss_price"`
	PeakPriceSinceEntry float64        `json:"peak_price_since_entry" yaml:"peak_price_since_entry"`
	// TroughPriceSinceEntry mirrors PeakPriceSinceEntry for short positions.
	TroughPriceSinceEntry float64 `json:"trough_price_since_entry" yaml:"trough_price_since_entry"`
	TrailingStopActive    bool    `json:"trailing_stop_active" yaml:"trailing_stop_active"`
}

// NewFlatPosition returns the state every run starts from.
func NewFlatPosition() PositionState {
	return PositionState{
		Status:                PositionFlat,
		EntryPrice:            0,
		EntryDate:             time.Time{},
		EntryIndex:            -1,
		Quantity:              0,
		StopLossPrice:         0,
		PeakPriceSinceEntry:   0,
		TroughPriceSinceEntry: 0,
		TrailingStopActive:    false,
	}
}

func (p PositionState) IsFlat() bool {
	return p.Status == PositionFlat
}

func (p PositionState) IsLong() bool {
	return p.Status == PositionLong
}

func (p PositionState) IsShort() bool {
	return p.Status == PositionShort
}

// UnrealizedReturn is the fractional gain of the open position at price.
func (p PositionState) UnrealizedReturn(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}

	switch p.Status {
	case PositionLong:
		return price/p.EntryPrice - 1
	case PositionShort:
		return 1 - price/p.EntryPrice
	default:
		return 0
	}
}
