package ingest

import (
	"testing"
	"time"

	"github.com/quantfeed/fxlens/internal/types"
	"github.com/quantfeed/fxlens/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type UnixOhlcvParserTestSuite struct {
	suite.Suite
	parser *UnixOhlcvBarParser
}

func TestUnixOhlcvParserSuite(t *testing.T) {
	suite.Run(t, new(UnixOhlcvParserTestSuite))
}

func (suite *UnixOhlcvParserTestSuite) SetupTest() {
	suite.parser = NewUnixOhlcvBarParser()
}

func (suite *UnixOhlcvParserTestSuite) TestParseValidLine() {
	bar, err := suite.parser.Parse("1751836440,1.17777,1.17796,1.17777,1.17796,1")
	suite.NoError(err)

	suite.Equal(time.Unix(1751836440, 0).UTC(), bar.Time)
	suite.Equal("1.17777", bar.Open.String())
	suite.Equal("1.17796", bar.High.String())
	suite.Equal("1.17777", bar.Low.String())
	suite.Equal("1.17796", bar.Close.String())
	suite.Equal(int64(1), bar.Volume)
	suite.Equal(types.SourceTradingView, bar.Source)
}

func (suite *UnixOhlcvParserTestSuite) TestParseFieldCountMismatch() {
	for _, line := range []string{
		"1751836440,1.17777,1.17796",
		"1751836440,1.17777,1.17796,1.17777,1.17796,1,9",
	} {
		_, err := suite.parser.Parse(line)
		suite.Error(err)
		suite.True(errors.HasCode(err, errors.ErrCodeFieldCountMismatch), "line %q", line)
	}
}

func (suite *UnixOhlcvParserTestSuite) TestParseTimestampParseError() {
	_, err := suite.parser.Parse("not-a-time,1.17777,1.17796,1.17777,1.17796,1")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeTimestampParse))

	_, err = suite.parser.Parse("-60,1.17777,1.17796,1.17777,1.17796,1")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeTimestampParse))
}

func (suite *UnixOhlcvParserTestSuite) TestParsePriceParseErrorNamesField() {
	_, err := suite.parser.Parse("1751836440,1.17777,oops,1.17777,1.17796,1")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePriceParse))
	suite.Contains(err.Error(), "high")
}

func (suite *UnixOhlcvParserTestSuite) TestParseVolumeRequired() {
	// Volume is required here, unlike the Bid/Ask format where it is auxiliary.
	for _, line := range []string{
		"1751836440,1.17777,1.17796,1.17777,1.17796,",
		"1751836440,1.17777,1.17796,1.17777,1.17796,n/a",
		"1751836440,1.17777,1.17796,1.17777,1.17796,-1",
	} {
		_, err := suite.parser.Parse(line)
		suite.Error(err, "line %q", line)
		suite.True(errors.HasCode(err, errors.ErrCodeVolumeParse), "line %q", line)
	}
}
