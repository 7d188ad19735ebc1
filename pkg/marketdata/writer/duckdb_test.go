package writer

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupSuite() {
	tempDir, err := os.MkdirTemp("", "duckdb-writer-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

func (suite *DuckDBWriterTestSuite) TearDownSuite() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *DuckDBWriterTestSuite) TestNewDuckDBWriter() {
	outputPath := filepath.Join(suite.tempDir, "test.parquet")
	writer := NewDuckDBWriter(outputPath)

	duckWriter, ok := writer.(*DuckDBWriter)
	suite.True(ok)
	suite.Equal(outputPath, writer.GetOutputPath())
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestWriteWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "no_init.parquet"))

	err := writer.Write("SPY", types.PriceBar{Date: time.Now(), Close: 100})
	suite.Error(err)
	suite.Contains(err.Error(), "writer not initialized")

	_, err = writer.Finalize()
	suite.Error(err)
}

func (suite *DuckDBWriterTestSuite) TestWriteAndFinalize() {
	outputPath := filepath.Join(suite.tempDir, "spy.parquet")
	writer := NewDuckDBWriter(outputPath)
	suite.Require().NoError(writer.Initialize())

	defer writer.Close()

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		price := 100 + float64(i)
		err := writer.Write("SPY", types.PriceBar{
			Date:   day.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		})
		suite.Require().NoError(err)
	}

	suite.Equal(3, writer.(*DuckDBWriter).Rows())

	path, err := writer.Finalize()
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)
	suite.FileExists(path)

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)

	defer db.Close()

	var count int

	var maxClose float64

	err = db.QueryRow(`SELECT COUNT(*), MAX(close) FROM read_parquet('`+path+`') WHERE symbol = 'SPY'`).Scan(&count, &maxClose)
	suite.Require().NoError(err)
	suite.Equal(3, count)
	suite.Equal(102.0, maxClose)
}

func (suite *DuckDBWriterTestSuite) TestCloseIsIdempotent() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "close.parquet"))
	suite.Require().NoError(writer.Initialize())

	suite.NoError(writer.Close())
	suite.NoError(writer.Close())
}
