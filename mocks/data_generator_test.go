package mocks

import (
	"testing"
	"time"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100

	series := gen.Generate(config)

	if series.Len() != 100 {
		t.Errorf("expected 100 bars, got %d", series.Len())
	}

	if series.Symbol != config.Symbol {
		t.Errorf("expected symbol %s, got %s", config.Symbol, series.Symbol)
	}

	if err := series.Validate(); err != nil {
		t.Errorf("generated series is invalid: %v", err)
	}

	for i, bar := range series.Bars {
		if bar.Date.Weekday() == time.Saturday || bar.Date.Weekday() == time.Sunday {
			t.Errorf("weekend bar at index %d: %s", i, bar.Date)
		}

		if bar.High < bar.Low {
			t.Errorf("High < Low at index %d: H=%f L=%f", i, bar.High, bar.Low)
		}
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	config := DefaultConfig()
	config.Count = 50

	first := NewDataGenerator(7).Generate(config)
	second := NewDataGenerator(7).Generate(config)

	for i := range first.Bars {
		if first.Bars[i] != second.Bars[i] {
			t.Fatalf("bars differ at index %d", i)
		}
	}
}

func TestDataGenerator_MonthlyDrift(t *testing.T) {
	config := DefaultConfig()
	config.Count = 260
	config.Volatility = 0.0001
	config.MonthlyDrift = map[time.Month]float64{time.March: 0.01}

	series := NewDataGenerator(1).Generate(config)

	var marchStart, marchEnd float64

	for i, bar := range series.Bars {
		if bar.Date.Month() != time.March {
			continue
		}

		if marchStart == 0 {
			marchStart = series.Bars[i-1].Close
		}

		marchEnd = bar.Close
	}

	if marchEnd <= marchStart*1.1 {
		t.Errorf("expected March to rally, got %f -> %f", marchStart, marchEnd)
	}
}

func TestDataGenerator_GeneratePair(t *testing.T) {
	legA, legB := NewDataGenerator(3).GeneratePair(DefaultConfig(), "PAIRB", 1.0, 0.2)

	if legA.Len() != legB.Len() {
		t.Fatalf("legs differ in length: %d vs %d", legA.Len(), legB.Len())
	}

	for i := range legA.Bars {
		if !legA.Bars[i].Date.Equal(legB.Bars[i].Date) {
			t.Fatalf("dates differ at index %d", i)
		}
	}
}

func TestFromCloses(t *testing.T) {
	series := FromCloses("X", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1, 2, 3)

	if series.Len() != 3 || series.Bars[2].Close != 3 {
		t.Errorf("unexpected series: %+v", series)
	}
}
