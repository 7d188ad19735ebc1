package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// DataGenerator generates realistic daily price series for testing and benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how a series is generated.
type GeneratorConfig struct {
	// Symbol is the ticker (e.g., "SPY", "GLD")
	Symbol string
	// StartDate is the first session of the series
	StartDate time.Time
	// Count is the number of trading days to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility is the daily standard deviation of returns (0.01 = 1%)
	Volatility float64
	// Drift is the mean daily return
	Drift float64
	// MonthlyDrift overrides Drift for the listed calendar months
	MonthlyDrift map[time.Month]float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartDate:      time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		Count:          504,
		InitialPrice:   100.0,
		Volatility:     0.01,
		Drift:          0.0003,
		MonthlyDrift:   nil,
		VolumeBase:     1_000_000,
		VolumeVariance: 0.3,
	}
}

// Generate creates a series of weekday bars following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) types.PriceSeries {
	bars := make([]types.PriceBar, 0, config.Count)
	currentPrice := config.InitialPrice
	date := nextWeekday(config.StartDate)

	for len(bars) < config.Count {
		open := currentPrice

		drift := config.Drift
		if monthly, ok := config.MonthlyDrift[date.Month()]; ok {
			drift = monthly
		}

		z := g.normal()
		closePrice := open * math.Exp(drift-config.Volatility*config.Volatility/2+config.Volatility*z)

		// intraday range is a fraction of the daily volatility
		high := math.Max(open, closePrice) * (1 + math.Abs(g.normal())*config.Volatility/2)
		low := math.Min(open, closePrice) * (1 - math.Abs(g.normal())*config.Volatility/2)

		volumeMultiplier := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := math.Max(1, config.VolumeBase*volumeMultiplier)

		bars = append(bars, types.PriceBar{
			Date:   date,
			Open:   roundToDecimals(open, 2),
			High:   roundToDecimals(high, 2),
			Low:    roundToDecimals(low, 2),
			Close:  roundToDecimals(closePrice, 2),
			Volume: math.Round(volume),
		})

		currentPrice = closePrice
		date = nextWeekday(date.AddDate(0, 0, 1))
	}

	return types.PriceSeries{Symbol: config.Symbol, Bars: bars}
}

// GeneratePair creates two series on the same dates whose spread mean-reverts.
// The second leg is a random walk and the first follows it with the given hedge ratio
// plus an Ornstein-Uhlenbeck noise term.
func (g *DataGenerator) GeneratePair(config GeneratorConfig, symbolB string, hedgeRatio, reversion float64) (types.PriceSeries, types.PriceSeries) {
	configB := config
	configB.Symbol = symbolB
	legB := g.Generate(configB)

	legA := types.PriceSeries{Symbol: config.Symbol, Bars: make([]types.PriceBar, len(legB.Bars))}
	noise := 0.0
	scale := config.InitialPrice * config.Volatility

	for i, bar := range legB.Bars {
		noise = noise*(1-reversion) + scale*g.normal()
		price := math.Max(0.01, hedgeRatio*bar.Close+config.InitialPrice*(1-hedgeRatio)+noise)

		legA.Bars[i] = types.PriceBar{
			Date:   bar.Date,
			Open:   roundToDecimals(price, 2),
			High:   roundToDecimals(price, 2),
			Low:    roundToDecimals(price, 2),
			Close:  roundToDecimals(price, 2),
			Volume: bar.Volume,
		}
	}

	return legA, legB
}

// FromCloses builds a series with one bar per close on consecutive calendar days.
func FromCloses(symbol string, start time.Time, closes ...float64) types.PriceSeries {
	bars := make([]types.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = types.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}

	return types.PriceSeries{Symbol: symbol, Bars: bars}
}

// normal draws a standard normal value using the Box-Muller transform.
func (g *DataGenerator) normal() float64 {
	u1 := g.rng.Float64()
	for u1 == 0 {
		u1 = g.rng.Float64()
	}

	u2 := g.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func nextWeekday(date time.Time) time.Time {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}

	return date
}

// roundToDecimals rounds a float to the specified number of decimal places.
func roundToDecimals(value float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))

	return math.Round(value*multiplier) / multiplier
}
