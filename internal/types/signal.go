package types

type SignalType string

const (
	// SignalEnterLong opens a long position.
	SignalEnterLong SignalType = "ENTER_LONG"
	// SignalExit closes a long position.
	SignalExit SignalType = "EXIT"
	// SignalEnterShort opens a short position.
	SignalEnterShort SignalType = "ENTER_SHORT"
	// SignalCover closes a short position.
	SignalCover SignalType = "COVER"
	// SignalHold takes no action.
	SignalHold SignalType = "HOLD"
)

// IsSell reports whether the signal sells shares (closing a long or opening a short).
func (s SignalType) IsSell() bool {
	return s == SignalExit || s == SignalEnterShort
}

// Decision is a signal together with the reason it was produced.
type Decision struct {
	Signal SignalType `json:"signal" yaml:"signal"`
	Reason string     `json:"reason" yaml:"reason"`
}

// Hold returns a HOLD decision with the given reason.
func Hold(reason string) Decision {
	return Decision{Signal: SignalHold, Reason: reason}
}

// NewDecision builds a decision.
func NewDecision(signal SignalType, reason string) Decision {
	return Decision{Signal: signal, Reason: reason}
}

const (
	ReasonStopLoss       = "Stop loss triggered"
	ReasonTrailingStop   = "Trailing stop triggered"
	ReasonTakeProfit     = "Take profit triggered"
	ReasonWorstMonth     = "Unfavorable month exit"
	ReasonEndOfPeriod    = "End of backtest period"
	ReasonWarmUp         = "Indicator warm-up"
	ReasonBuyFirstSkip   = "Sell signal skipped: no open position"
	ReasonNoSignal       = "No signal"
	ReasonMaxHoldingTime = "Maximum holding period reached"
)
