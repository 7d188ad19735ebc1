package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
	suite.False(logger.Core().Enabled(zap.DebugLevel))
}

func (suite *LoggerTestSuite) TestNewDevelopmentLogger() {
	logger, err := NewDevelopmentLogger()
	suite.NoError(err)
	suite.True(logger.Core().Enabled(zap.DebugLevel))
}

func (suite *LoggerTestSuite) TestNopLoggerDoesNotPanic() {
	logger := NewNopLogger()
	logger.Info("simulated", zap.String("strategy", "buy_hold"))
	logger.Named("comparator").Warn("skipped", zap.Int("bars", 10))
	suite.NoError(logger.Sync())
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}
	suite.NoError(logger.Sync())
}
