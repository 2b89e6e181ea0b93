package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/scoresheet/internal/models"
	"gorm.io/gorm"
)

// MoveRepositoryTestSuite 着法仓储测试套件
type MoveRepositoryTestSuite struct {
	suite.Suite
	db       *gorm.DB
	moveRepo MoveRepository
	game     *models.Game
}

func (suite *MoveRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.moveRepo = NewMoveRepository(suite.db)
	suite.game = CreateTestGame(suite.T(), suite.db, "moves")
}

func (suite *MoveRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

func (suite *MoveRepositoryTestSuite) TestLoadSequenceOrdersByPly() {
	ctx := context.Background()
	rows := []models.Move{
		{GameID: suite.game.ID, Ply: 3, SAN: "Nf3", FENAfter: "p3", Legal: true},
		{GameID: suite.game.ID, Ply: 1, SAN: "e4", FENAfter: "p1", Legal: true},
		{GameID: suite.game.ID, Ply: 2, SAN: "e5", FENAfter: "p2", Legal: true},
	}
	require.NoError(suite.T(), suite.db.Create(&rows).Error)

	moves, err := suite.moveRepo.LoadSequence(ctx, suite.game.ID)
	assert.NoError(suite.T(), err)
	if assert.Len(suite.T(), moves, 3) {
		assert.Equal(suite.T(), "e4", moves[0].SAN)
		assert.Equal(suite.T(), "e5", moves[1].SAN)
		assert.Equal(suite.T(), "Nf3", moves[2].SAN)
	}
}

func (suite *MoveRepositoryTestSuite) TestLoadSequenceDuplicatePlyKeepsInsertOrder() {
	ctx := context.Background()
	first := models.Move{GameID: suite.game.ID, Ply: 1, SAN: "e4", FENAfter: "a", Legal: true}
	second := models.Move{GameID: suite.game.ID, Ply: 1, SAN: "d4", FENAfter: "b", Legal: true}
	require.NoError(suite.T(), suite.db.Create(&first).Error)
	require.NoError(suite.T(), suite.db.Create(&second).Error)

	moves, err := suite.moveRepo.LoadSequence(ctx, suite.game.ID)
	assert.NoError(suite.T(), err)
	if assert.Len(suite.T(), moves, 2) {
		assert.Equal(suite.T(), "e4", moves[0].SAN)
		assert.Equal(suite.T(), "d4", moves[1].SAN)
	}
}

func (suite *MoveRepositoryTestSuite) TestSaveSequenceReplaces() {
	ctx := context.Background()
	CreateTestMoves(suite.T(), suite.db, suite.game.ID, "e4", "e5", "Nf3", "Nc6")

	next := []models.Move{
		{ID: 99, Ply: 1, SAN: "d4", FENAfter: "q1", Legal: true},
		{Ply: 2, SAN: "Qh5", FENAfter: "q1", Legal: false},
	}
	assert.NoError(suite.T(), suite.moveRepo.SaveSequence(ctx, suite.game.ID, next))

	moves, err := suite.moveRepo.LoadSequence(ctx, suite.game.ID)
	assert.NoError(suite.T(), err)
	if assert.Len(suite.T(), moves, 2) {
		assert.Equal(suite.T(), "d4", moves[0].SAN)
		assert.True(suite.T(), moves[0].Legal)
		assert.Equal(suite.T(), suite.game.ID, moves[0].GameID)
		assert.Equal(suite.T(), "Qh5", moves[1].SAN)
		assert.False(suite.T(), moves[1].Legal)
		assert.Equal(suite.T(), "q1", moves[1].FENAfter)
	}
	// 调用方传入的切片不被修改
	assert.Equal(suite.T(), uint(99), next[0].ID)
	assert.Empty(suite.T(), next[0].GameID)
}

func (suite *MoveRepositoryTestSuite) TestSaveSequenceEmpty() {
	ctx := context.Background()
	CreateTestMoves(suite.T(), suite.db, suite.game.ID, "e4")

	assert.NoError(suite.T(), suite.moveRepo.SaveSequence(ctx, suite.game.ID, nil))

	count, err := suite.moveRepo.Count(ctx, suite.game.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *MoveRepositoryTestSuite) TestAppendSequence() {
	ctx := context.Background()
	CreateTestMoves(suite.T(), suite.db, suite.game.ID, "e4")

	err := suite.moveRepo.AppendSequence(ctx, suite.game.ID, []models.Move{
		{Ply: 2, SAN: "e5", FENAfter: "p2", Legal: true},
	})
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.moveRepo.AppendSequence(ctx, suite.game.ID, nil))

	moves, err := suite.moveRepo.LoadSequence(ctx, suite.game.ID)
	assert.NoError(suite.T(), err)
	if assert.Len(suite.T(), moves, 2) {
		assert.Equal(suite.T(), "e4", moves[0].SAN)
		assert.Equal(suite.T(), "e5", moves[1].SAN)
	}
}

func (suite *MoveRepositoryTestSuite) TestCountIsPerGame() {
	ctx := context.Background()
	other := CreateTestGame(suite.T(), suite.db, "other")
	CreateTestMoves(suite.T(), suite.db, suite.game.ID, "e4", "e5")
	CreateTestMoves(suite.T(), suite.db, other.ID, "d4")

	count, err := suite.moveRepo.Count(ctx, suite.game.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), count)
}

func TestMoveRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(MoveRepositoryTestSuite))
}
