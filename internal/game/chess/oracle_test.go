package chess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// board 取FEN的棋子布局和走子方，忽略吃过路兵等字段
func board(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return fen
	}
	return fields[0] + " " + fields[1]
}

type OracleTestSuite struct {
	suite.Suite
	oracle *Oracle
}

func (suite *OracleTestSuite) SetupTest() {
	suite.oracle = NewOracle()
}

func (suite *OracleTestSuite) TestPawnMove() {
	out := suite.oracle.Apply(StartFEN, "e4")
	suite.True(out.Legal)
	suite.Equal("e4", out.Canonical)
	suite.Equal("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b", board(out.Position))
}

func (suite *OracleTestSuite) TestKnightMove() {
	out := suite.oracle.Apply(StartFEN, "Nf3")
	suite.True(out.Legal)
	suite.Equal("Nf3", out.Canonical)
	suite.Equal("rnbqkbnr/pppppppp/8/8/8/5N2/PPPPPPPP/RNBQKB1R b", board(out.Position))
}

func (suite *OracleTestSuite) TestPermissiveNotation() {
	expected := board(suite.oracle.Apply(StartFEN, "Nf3").Position)

	for _, notation := range []string{"Ngf3", "Ng1f3", "Nf3+", " Nf3 ", "Nf3!?", "g1f3"} {
		out := suite.oracle.Apply(StartFEN, notation)
		if !suite.True(out.Legal, notation) {
			continue
		}
		suite.Equal(expected, board(out.Position), notation)
		suite.Equal("Nf3", out.Canonical, notation)
	}
}

func (suite *OracleTestSuite) TestCastlingWithZeros() {
	fen := "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"

	out := suite.oracle.Apply(fen, "0-0")
	suite.True(out.Legal)
	suite.Equal("O-O", out.Canonical)
	suite.Equal("r3k2r/8/8/8/8/8/8/R4RK1 b", board(out.Position))

	out = suite.oracle.Apply(fen, "O-O-O")
	suite.True(out.Legal)
	suite.Equal("r3k2r/8/8/8/8/8/8/2KR3R b", board(out.Position))
}

func (suite *OracleTestSuite) TestPromotionWithoutEquals() {
	fen := "8/4P3/8/8/8/8/k7/7K w - - 0 1"
	out := suite.oracle.Apply(fen, "e8Q")
	suite.True(out.Legal)
	suite.Equal("4Q3/8/8/8/8/8/k7/7K b", board(out.Position))
}

func (suite *OracleTestSuite) TestIllegal() {
	for _, notation := range []string{"Qh5", "e5", "Ke2", "hello", "", "   ", "Nc6"} {
		out := suite.oracle.Apply(StartFEN, notation)
		suite.False(out.Legal, notation)
		suite.Empty(out.Position, notation)
	}
}

func (suite *OracleTestSuite) TestDisambiguation() {
	// 两个车都能到 d1
	fen := "4k3/8/8/8/8/8/4K3/R6R w - - 0 1"

	out := suite.oracle.Apply(fen, "Rad1")
	suite.True(out.Legal)
	suite.Equal("4k3/8/8/8/8/8/4K3/3R3R b", board(out.Position))

	out = suite.oracle.Apply(fen, "Rhd1")
	suite.True(out.Legal)
	suite.Equal("4k3/8/8/8/8/8/4K3/R2R4 b", board(out.Position))
}

func (suite *OracleTestSuite) TestInvalidPosition() {
	suite.False(suite.oracle.Apply("not a fen", "e4").Legal)
	suite.Error(ValidateFEN("not a fen"))
	suite.NoError(ValidateFEN(StartFEN))
}

func (suite *OracleTestSuite) TestDeterministic() {
	a := suite.oracle.Apply(StartFEN, "d4")
	b := suite.oracle.Apply(StartFEN, "d4")
	suite.Equal(a, b)
}

func (suite *OracleTestSuite) TestStrictSideToMove() {
	afterE4 := suite.oracle.Apply(StartFEN, "e4").Position
	suite.False(suite.oracle.Apply(afterE4, "Nc3").Legal)
	suite.True(suite.oracle.Apply(afterE4, "Nc6").Legal)
}

func (suite *OracleTestSuite) TestOutOfTurn() {
	lenient := NewOracle(WithOutOfTurn(true))
	afterE4 := lenient.Apply(StartFEN, "e4").Position

	out := lenient.Apply(afterE4, "Nc3")
	suite.True(out.Legal)
	suite.Equal("rnbqkbnr/pppppppp/8/8/4P3/2N5/PPPP1PPP/R1BQKBNR b", board(out.Position))

	// 轮到方能走的着法不翻转
	out = lenient.Apply(afterE4, "Nc6")
	suite.True(out.Legal)
	suite.Equal("w", SideToMove(out.Position))
}

func TestOracleSuite(t *testing.T) {
	suite.Run(t, new(OracleTestSuite))
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"0-0":      "O-O",
		"0-0-0":    "O-O-O",
		"0-0+":     "O-O+",
		"o-o":      "O-O",
		"e4!":      "e4",
		"exd6e.p.": "exd6",
		" Nf3 ":    "Nf3",
		"O-O":      "O-O",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalize(in), in)
	}
}

func TestFlipSideToMove(t *testing.T) {
	flipped := flipSideToMove("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	require.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 1", flipped)
	assert.Equal(t, "w", SideToMove(flipped))
}
