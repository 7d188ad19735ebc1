// Package risk overlays stop-loss, regime, trailing-stop and take-profit rules on strategy signals.
package risk

import (
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// RegimeFilter reports calendar periods during which no position may be held.
type RegimeFilter interface {
	InUnfavorableRegime(date time.Time) bool
}

// Manager decides the final signal of each bar. A Manager belongs to one run.
type Manager struct {
	config  Config
	regime  RegimeFilter
	logger  *logger.Logger
	skipped int
}

// NewManager creates a risk manager. regime may be nil.
func NewManager(config Config, regime RegimeFilter, log *logger.Logger) *Manager {
	return &Manager{
		config:  config,
		regime:  regime,
		logger:  log,
		skipped: 0,
	}
}

// SkippedSignals is the number of sell signals downgraded by the buy-first rule.
func (m *Manager) SkippedSignals() int {
	return m.skipped
}

// Evaluate applies the risk rules to the policy decision for the last bar of history.
//
// While a position is open the rules run in priority order: stop-loss, unfavorable
// regime, trailing stop, take-profit, then the policy's own exit. state is updated
// with the peak and trough seen since entry.
func (m *Manager) Evaluate(history []types.PriceBar, decision types.Decision, state *types.PositionState) types.Decision {
	bar := history[len(history)-1]

	if state.IsFlat() {
		return m.evaluateFlat(bar, decision)
	}

	m.track(state, bar.Close)

	exit := types.SignalExit
	if state.IsShort() {
		exit = types.SignalCover
	}

	if m.stopLossHit(state, bar.Close) {
		return types.NewDecision(exit, types.ReasonStopLoss)
	}

	if m.regime != nil && m.regime.InUnfavorableRegime(bar.Date) {
		return types.NewDecision(exit, types.ReasonWorstMonth)
	}

	if m.trailingStopHit(state, bar.Close) {
		return types.NewDecision(exit, types.ReasonTrailingStop)
	}

	if m.config.TakeProfit > 0 && state.UnrealizedReturn(bar.Close) >= m.config.TakeProfit {
		return types.NewDecision(exit, types.ReasonTakeProfit)
	}

	if decision.Signal == exit {
		return decision
	}

	if decision.Signal == types.SignalHold {
		return decision
	}

	// entries while a position is open are ignored: there is no pyramiding or reversal
	return types.Hold(decision.Reason)
}

func (m *Manager) evaluateFlat(bar types.PriceBar, decision types.Decision) types.Decision {
	if m.config.EnforceBuyFirst && decision.Signal.IsSell() {
		m.skipped++
		m.logger.Debug("Sell signal skipped while flat",
			zap.String("signal", string(decision.Signal)),
			zap.String("reason", decision.Reason),
			zap.Time("date", bar.Date),
		)

		return types.Hold(types.ReasonBuyFirstSkip)
	}

	switch decision.Signal {
	case types.SignalEnterLong, types.SignalEnterShort:
		if m.regime != nil && m.regime.InUnfavorableRegime(bar.Date) {
			return types.Hold(types.ReasonWorstMonth)
		}

		return decision
	case types.SignalExit, types.SignalCover:
		return types.Hold(decision.Reason)
	default:
		return decision
	}
}

// OnEntry resets the trailing state and computes the stop level of a new position.
func (m *Manager) OnEntry(history []types.PriceBar, state *types.PositionState) {
	state.PeakPriceSinceEntry = state.EntryPrice
	state.TroughPriceSinceEntry = state.EntryPrice
	state.TrailingStopActive = false
	state.StopLossPrice = m.StopLossPrice(history, state.Status, state.EntryPrice)
}

// StopLossPrice is the stop level for a position entered at entryPrice on the last bar
// of history. It returns 0 when no stop applies.
func (m *Manager) StopLossPrice(history []types.PriceBar, status types.PositionStatus, entryPrice float64) float64 {
	distance := 0.0

	switch m.config.StopLossMethod {
	case StopLossPercentage:
		distance = entryPrice * m.config.StopLossValue
	case StopLossFixed:
		distance = m.config.StopLossValue
	case StopLossATR:
		atr, err := indicator.ATR(history, m.config.ATRPeriod)
		if err != nil {
			m.logger.Debug("ATR unavailable, no stop-loss for this entry", zap.Error(err))

			return 0
		}

		distance = m.config.StopLossValue * atr
	case StopLossVolatility:
		vol, err := indicator.AnnualizedVolatility(types.Closes(history), m.config.ATRPeriod, tradingDaysPerYear)
		if err != nil {
			m.logger.Debug("Volatility unavailable, no stop-loss for this entry", zap.Error(err))

			return 0
		}

		distance = entryPrice * m.config.StopLossValue * vol / 100
	case StopLossNone:
		return 0
	}

	if distance <= 0 {
		return 0
	}

	if status == types.PositionShort {
		return entryPrice + distance
	}

	return max(entryPrice-distance, 0)
}

func (m *Manager) track(state *types.PositionState, price float64) {
	state.PeakPriceSinceEntry = max(state.PeakPriceSinceEntry, price)

	if state.TroughPriceSinceEntry == 0 {
		state.TroughPriceSinceEntry = price
	}

	state.TroughPriceSinceEntry = min(state.TroughPriceSinceEntry, price)

	if m.config.TrailingStopDistance <= 0 || state.TrailingStopActive || state.EntryPrice == 0 {
		return
	}

	var bestGain float64
	if state.IsShort() {
		bestGain = 1 - state.TroughPriceSinceEntry/state.EntryPrice
	} else {
		bestGain = state.PeakPriceSinceEntry/state.EntryPrice - 1
	}

	if bestGain >= m.config.TrailingStopActivation {
		state.TrailingStopActive = true
	}
}

func (m *Manager) stopLossHit(state *types.PositionState, price float64) bool {
	if state.StopLossPrice <= 0 {
		return false
	}

	if state.IsShort() {
		return price >= state.StopLossPrice
	}

	return price <= state.StopLossPrice
}

func (m *Manager) trailingStopHit(state *types.PositionState, price float64) bool {
	if !state.TrailingStopActive {
		return false
	}

	if state.IsShort() {
		return price >= state.TroughPriceSinceEntry*(1+m.config.TrailingStopDistance)
	}

	return price <= state.PeakPriceSinceEntry*(1-m.config.TrailingStopDistance)
}
