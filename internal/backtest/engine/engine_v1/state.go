package engine

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// BacktestState is the cash, position and ledger of one run.
// Money is accumulated in decimal so that long runs do not drift.
type BacktestState struct {
	runID      uuid.UUID
	cash       decimal.Decimal
	position   types.PositionState
	entryFees  decimal.Decimal
	ledger     []types.Trade
	equity     []types.EquityPoint
	commission commission_fee.CommissionFee
	precision  int
	logger     *logger.Logger
}

// NewBacktestState starts flat with the initial capital in cash. Trade IDs are derived
// from runID so that identical runs produce identical ledgers.
func NewBacktestState(runID uuid.UUID, initialCapital float64, commission commission_fee.CommissionFee, precision int, log *logger.Logger) *BacktestState {
	return &BacktestState{
		runID:      runID,
		cash:       decimal.NewFromFloat(initialCapital),
		position:   types.NewFlatPosition(),
		entryFees:  decimal.Zero,
		ledger:     make([]types.Trade, 0),
		equity:     make([]types.EquityPoint, 0),
		commission: commission,
		precision:  precision,
		logger:     log,
	}
}

// Position returns a pointer to the position so the risk manager can update its trailing state.
func (b *BacktestState) Position() *types.PositionState {
	return &b.position
}

func (b *BacktestState) Cash() float64 {
	return b.cash.InexactFloat64()
}

func (b *BacktestState) Ledger() []types.Trade {
	return b.ledger
}

func (b *BacktestState) EquityCurve() []types.EquityPoint {
	return b.equity
}

// Equity is the mark-to-market value at price: cash plus a long position, or cash
// minus the cost of buying back a short one.
func (b *BacktestState) Equity(price float64) decimal.Decimal {
	value := decimal.NewFromFloat(b.position.Quantity).Mul(decimal.NewFromFloat(price))

	switch b.position.Status {
	case types.PositionLong:
		return b.cash.Add(value)
	case types.PositionShort:
		return b.cash.Sub(value)
	default:
		return b.cash
	}
}

// Mark appends the equity point of a bar.
func (b *BacktestState) Mark(bar types.PriceBar) {
	b.equity = append(b.equity, types.EquityPoint{
		Date:           bar.Date,
		PortfolioValue: b.Equity(bar.Close).Round(2).InexactFloat64(),
	})
}

// PositionSize is the largest quantity whose notional plus opening costs fits in cash.
// Minimum commissions make the cost non-linear, so the size is refined until it fits.
func (b *BacktestState) PositionSize(tradeType types.TradeType, price float64) float64 {
	if price <= 0 || !b.cash.IsPositive() {
		return 0
	}

	cash := b.cash
	priceDec := decimal.NewFromFloat(price)
	quantity := b.roundDown(cash.Div(priceDec))

	for range 32 {
		if !quantity.IsPositive() {
			return 0
		}

		cost := decimal.NewFromFloat(b.commission.Calculate(tradeType, quantity.InexactFloat64(), price, 0).Total())
		if quantity.Mul(priceDec).Add(cost).LessThanOrEqual(cash) {
			return quantity.InexactFloat64()
		}

		quantity = b.roundDown(cash.Sub(cost).Div(priceDec))
	}

	return 0
}

func (b *BacktestState) roundDown(quantity decimal.Decimal) decimal.Decimal {
	return quantity.RoundDown(int32(b.precision))
}

// Open enters a position at the bar close and records the opening trade.
func (b *BacktestState) Open(bar types.PriceBar, index int, status types.PositionStatus, quantity float64, reason string) types.Trade {
	tradeType := types.TradeTypeBuyOpen
	if status == types.PositionShort {
		tradeType = types.TradeTypeSellShort
	}

	cost := b.commission.Calculate(tradeType, quantity, bar.Close, 0)
	fees := decimal.NewFromFloat(cost.Total())
	notional := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(bar.Close))

	if status == types.PositionShort {
		b.cash = b.cash.Add(notional).Sub(fees)
	} else {
		b.cash = b.cash.Sub(notional).Sub(fees)
	}

	b.entryFees = fees
	b.position = types.PositionState{
		Status:                status,
		EntryPrice:            bar.Close,
		EntryDate:             bar.Date,
		EntryIndex:            index,
		Quantity:              quantity,
		StopLossPrice:         0,
		PeakPriceSinceEntry:   bar.Close,
		TroughPriceSinceEntry: bar.Close,
		TrailingStopActive:    false,
	}

	return b.record(bar, tradeType, quantity, reason, cost, optional.None[float64](), 0, 0)
}

// Close exits the open position at the bar close, charging financing for the calendar
// days held, and records the closing trade with its net P&L.
func (b *BacktestState) Close(bar types.PriceBar, reason string) types.Trade {
	tradeType := types.TradeTypeSellClose
	if b.position.IsShort() {
		tradeType = types.TradeTypeBuyCover
	}

	quantity := b.position.Quantity
	daysHeld := holdingDays(b.position.EntryDate, bar.Date)
	cost := b.commission.Calculate(tradeType, quantity, bar.Close, daysHeld)
	fees := decimal.NewFromFloat(cost.Total())

	qty := decimal.NewFromFloat(quantity)
	exitNotional := qty.Mul(decimal.NewFromFloat(bar.Close))
	entryNotional := qty.Mul(decimal.NewFromFloat(b.position.EntryPrice))

	var gross decimal.Decimal
	if b.position.IsShort() {
		gross = entryNotional.Sub(exitNotional)
		b.cash = b.cash.Sub(exitNotional).Sub(fees)
	} else {
		gross = exitNotional.Sub(entryNotional)
		b.cash = b.cash.Add(exitNotional).Sub(fees)
	}

	// The account cannot go below zero. Whatever it cannot pay is written off on
	// the closing trade, and the P&L only counts the part that was paid.
	writtenOff := decimal.Zero
	if b.cash.IsNegative() {
		writtenOff = b.cash.Neg()
		b.logger.Warn("Close costs more than the account holds, writing off the shortfall",
			zap.String("shortfall", writtenOff.String()),
			zap.Time("date", bar.Date),
		)

		b.cash = decimal.Zero
	}

	pnl := gross.Sub(b.entryFees).Sub(fees).Add(writtenOff).Round(2).InexactFloat64()
	trade := b.record(bar, tradeType, quantity, reason, cost, optional.Some(pnl), daysHeld, writtenOff.Round(2).InexactFloat64())

	b.position = types.NewFlatPosition()
	b.entryFees = decimal.Zero

	return trade
}

func (b *BacktestState) record(bar types.PriceBar, tradeType types.TradeType, quantity float64, reason string, cost types.TradeCost, pnl optional.Option[float64], daysHeld int, writtenOff float64) types.Trade {
	trade := types.Trade{
		ID:               uuid.NewSHA1(b.runID, []byte(strconv.Itoa(len(b.ledger)))).String(),
		Date:             bar.Date,
		Type:             tradeType,
		Price:            bar.Close,
		Quantity:         quantity,
		Reason:           reason,
		PnL:              pnl,
		Commission:       cost.Commission,
		ExchangeFee:      cost.ExchangeFee,
		ClearingFee:      cost.ClearingFee,
		FinancingAccrued: cost.FinancingAccrued,
		HoldingDays:      daysHeld,
		WrittenOff:       writtenOff,
	}

	b.ledger = append(b.ledger, trade)

	return trade
}

func holdingDays(entry, exit time.Time) int {
	return int(math.Max(0, math.Floor(exit.Sub(entry).Hours()/24)))
}

// Write exports the ledger and the equity curve to parquet files in path, going
// through an in-memory DuckDB database.
func (b *BacktestState) Write(path string) (tradesPath string, equityPath string, err error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", "", errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create results folder", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return "", "", errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to open database", err)
	}
	defer db.Close()

	if err := b.createTables(db); err != nil {
		return "", "", err
	}

	if err := b.insertRows(db); err != nil {
		return "", "", err
	}

	tradesPath = filepath.Join(path, "trades.parquet")
	equityPath = filepath.Join(path, "equity.parquet")

	// Squirrel doesn't support COPY
	if _, err := db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, tradesPath)); err != nil {
		return "", "", errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to export trades to Parquet", err)
	}

	if _, err := db.Exec(fmt.Sprintf(`COPY equity TO '%s' (FORMAT PARQUET)`, equityPath)); err != nil {
		return "", "", errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to export equity curve to Parquet", err)
	}

	b.logger.Info("Successfully exported backtest results to Parquet files",
		zap.String("trades", tradesPath),
		zap.String("equity", equityPath),
	)

	return tradesPath, equityPath, nil
}

func (b *BacktestState) createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE trades (
			id TEXT PRIMARY KEY,
			date TIMESTAMP,
			type TEXT,
			price DOUBLE,
			quantity DOUBLE,
			reason TEXT,
			pnl DOUBLE,
			commission DOUBLE,
			exchange_fee DOUBLE,
			clearing_fee DOUBLE,
			financing_accrued DOUBLE,
			holding_days INTEGER,
			written_off DOUBLE
		);
		CREATE TABLE equity (
			date TIMESTAMP,
			portfolio_value DOUBLE
		);
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create tables", err)
	}

	return nil
}

func (b *BacktestState) insertRows(db *sql.DB) error {
	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to begin transaction", err)
	}

	for _, trade := range b.ledger {
		var pnl any
		if trade.PnL.IsSome() {
			pnl = trade.PnL.Unwrap()
		}

		_, err := sq.Insert("trades").
			Columns("id", "date", "type", "price", "quantity", "reason", "pnl",
				"commission", "exchange_fee", "clearing_fee", "financing_accrued", "holding_days", "written_off").
			Values(trade.ID, trade.Date, string(trade.Type), trade.Price, trade.Quantity, trade.Reason, pnl,
				trade.Commission, trade.ExchangeFee, trade.ClearingFee, trade.FinancingAccrued, trade.HoldingDays, trade.WrittenOff).
			RunWith(tx).
			Exec()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert trade", err)
		}
	}

	for _, point := range b.equity {
		_, err := sq.Insert("equity").
			Columns("date", "portfolio_value").
			Values(point.Date, point.PortfolioValue).
			RunWith(tx).
			Exec()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert equity point", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to commit transaction", err)
	}

	return nil
}
