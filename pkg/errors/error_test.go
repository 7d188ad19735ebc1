package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewAndNewf() {
	err := New(ErrCodeInvalidCapital, "capital must be positive")
	suite.Equal(ErrCodeInvalidCapital, err.Code)
	suite.Equal("capital must be positive", err.Message)
	suite.Nil(err.Cause)

	err = Newf(ErrCodeUnsupportedStrategy, "unknown strategy %q", "turtle")
	suite.Equal(`unknown strategy "turtle"`, err.Message)
}

func (suite *ErrorTestSuite) TestWrapKeepsCause() {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeMarketDataFetchFailed, "fetch failed", cause)
	suite.Equal(cause, err.Unwrap())
	suite.True(Is(err, cause))
	suite.Equal("[700] fetch failed: connection reset", err.Error())

	err = Wrapf(ErrCodeQueryFailed, cause, "query %s", "bars")
	suite.Equal("query bars", err.Message)
}

func (suite *ErrorTestSuite) TestErrorStringWithoutCause() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestGetCode() {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{name: "coded", err: New(ErrCodeSymbolNotFound, "x"), expected: ErrCodeSymbolNotFound},
		{name: "outermost wins", err: Wrap(ErrCodeDataUnavailable, "x", New(ErrCodeQueryFailed, "y")), expected: ErrCodeDataUnavailable},
		{name: "wrapped by fmt", err: fmt.Errorf("run: %w", New(ErrCodeMalformedPriceSeries, "x")), expected: ErrCodeMalformedPriceSeries},
		{name: "insufficient data", err: NewInsufficientDataError(200, 50, "SPY", "short"), expected: ErrCodeInsufficientData},
		{name: "plain error", err: errors.New("plain"), expected: ErrCodeUnknown},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, GetCode(tc.err))
		})
	}
}

func (suite *ErrorTestSuite) TestAs() {
	var coded *Error
	suite.True(As(NewSymbolNotFoundError("ZZZZ"), &coded))
	suite.Equal(ErrCodeSymbolNotFound, coded.Code)
	suite.Equal("symbol ZZZZ not found", coded.Message)
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataErrorf(20, 5, "AAPL", "insufficient data for %s: required %d, got %d", "Bollinger Bands", 20, 5)
	suite.Equal(20, err.Required)
	suite.Equal(5, err.Actual)
	suite.Equal("AAPL", err.Symbol)
	suite.Equal("insufficient data for Bollinger Bands: required 20, got 5", err.Error())
	suite.True(IsInsufficientDataError(fmt.Errorf("wrapped: %w", err)))
	suite.False(IsInsufficientDataError(New(ErrCodeInvalidParameter, "x")))
	suite.False(IsInsufficientDataError(nil))
}

func (suite *ErrorTestSuite) TestTaxonomyConstructors() {
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	malformed := NewMalformedPriceSeriesError("GLD", 7, date, "close is NaN")
	suite.Equal(ErrCodeMalformedPriceSeries, malformed.Code)
	suite.Contains(malformed.Error(), "bar 7 (2024-03-04)")

	unavailable := NewDataUnavailableError("GLD", errors.New("timeout"))
	suite.Equal(ErrCodeDataUnavailable, unavailable.Code)
	suite.Contains(unavailable.Error(), "timeout")

	pair := NewNonStationaryPairError("GLD", "SLV", 0.3142)
	suite.Equal("[410] pair GLD/SLV is not stationary (p-value 0.3142)", pair.Error())
}

func (suite *ErrorTestSuite) TestIsReportable() {
	suite.True(IsReportable(NewInsufficientDataError(26, 3, "", "short")))
	suite.True(IsReportable(NewNonStationaryPairError("A", "B", 0.5)))
	suite.False(IsReportable(NewSymbolNotFoundError("A")))
	suite.False(IsReportable(NewMalformedPriceSeriesError("A", 0, time.Time{}, "zero close")))
	suite.False(IsReportable(errors.New("plain")))
}

func (suite *ErrorTestSuite) TestErrorCodeRanges() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(106), ErrCodeInsufficientData)
	suite.Equal(ErrorCode(212), ErrCodeMalformedPriceSeries)
	suite.Equal(ErrorCode(410), ErrCodeNonStationaryPair)
	suite.Equal(ErrorCode(500), ErrCodeCostProfileNotFound)
	suite.Equal(ErrorCode(609), ErrCodeBacktestCancelled)
	suite.Equal(ErrorCode(700), ErrCodeMarketDataFetchFailed)
}
