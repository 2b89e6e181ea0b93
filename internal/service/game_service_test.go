package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/scoresheet/internal/errors"
	"github.com/wfunc/scoresheet/internal/game"
	"github.com/wfunc/scoresheet/internal/game/chess"
	"github.com/wfunc/scoresheet/internal/models"
	"github.com/wfunc/scoresheet/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memoryCache 记录调用次数的内存缓存。beforeSet 在下一次写入前执行一次，用于模拟并发编辑
type memoryCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	hits        int
	sets        int
	invalidated []string
	beforeSet   func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, id string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[id]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) Set(_ context.Context, id string, v interface{}) error {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.sets++
	c.data[id] = raw
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func (c *memoryCache) Close() error { return nil }

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []GameEvent
}

func (p *recordingPublisher) PublishGameEvent(event GameEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// placement 只比较棋子布局和走子方
func placement(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return fen
	}
	return fields[0] + " " + fields[1]
}

// GameServiceTestSuite 对局服务测试套件
type GameServiceTestSuite struct {
	suite.Suite
	db     *gorm.DB
	cache  *memoryCache
	events *recordingPublisher
	svc    GameService
	ctx    context.Context
}

func (suite *GameServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.cache = newMemoryCache()
	suite.events = &recordingPublisher{}
	suite.ctx = context.Background()

	cfg := DefaultConfig()
	cfg.Cache = suite.cache
	cfg.Events = suite.events
	cfg.Clock = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }

	services, err := NewServices(suite.db, cfg, zap.NewNop())
	require.NoError(suite.T(), err)
	suite.svc = services.Game
}

func (suite *GameServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *GameServiceTestSuite) createRows(rows ...game.Row) *GameDetail {
	detail, err := suite.svc.CreateFromRows(suite.ctx, &SaveRowsRequest{
		Rows:   rows,
		Name:   "Club night",
		White:  "Alice",
		Black:  "Bob",
		Source: models.SourceManual,
	})
	require.NoError(suite.T(), err)
	return detail
}

func (suite *GameServiceTestSuite) sans(detail *GameDetail) []string {
	out := make([]string, len(detail.Moves))
	for i, m := range detail.Moves {
		out[i] = m.SAN
	}
	return out
}

func (suite *GameServiceTestSuite) assertConsistent(gameID string) {
	bad, err := suite.svc.Verify(suite.ctx, gameID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), bad)
}

func (suite *GameServiceTestSuite) TestCreateFromPGN() {
	pgn := `[Event "Casual"]
[White "Morphy"]
[Black "Duke"]

1. e4 e5 2. Nf3 d6 *`

	detail, err := suite.svc.CreateFromPGN(suite.ctx, &ImportPGNRequest{PGN: pgn})
	require.NoError(suite.T(), err)

	assert.NotEmpty(suite.T(), detail.Game.ID)
	assert.Equal(suite.T(), "Casual", detail.Game.Name)
	assert.Equal(suite.T(), "Morphy", detail.Game.White)
	assert.Equal(suite.T(), "Duke", detail.Game.Black)
	assert.Equal(suite.T(), models.SourcePGN, detail.Game.Source)
	assert.Equal(suite.T(), []string{"e4", "e5", "Nf3", "d6"}, suite.sans(detail))
	for i, m := range detail.Moves {
		assert.Equal(suite.T(), i+1, m.Ply)
		assert.True(suite.T(), m.Legal)
	}

	stored, err := suite.svc.GetGame(suite.ctx, detail.Game.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.sans(detail), suite.sans(stored))
	suite.assertConsistent(detail.Game.ID)
}

func (suite *GameServiceTestSuite) TestCreateFromPGNDefaults() {
	detail, err := suite.svc.CreateFromPGN(suite.ctx, &ImportPGNRequest{
		PGN:   "1. d4 d5 *",
		White: "Carol",
	})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "PGN Game 2024-03-09", detail.Game.Name)
	assert.Equal(suite.T(), "Carol", detail.Game.White)
	assert.Equal(suite.T(), "Unknown", detail.Game.Black)
}

func (suite *GameServiceTestSuite) TestCreateFromPGNErrors() {
	_, err := suite.svc.CreateFromPGN(suite.ctx, &ImportPGNRequest{PGN: "   "})
	assert.True(suite.T(), errors.Is(err, errors.ErrInvalidParam))

	_, err = suite.svc.CreateFromPGN(suite.ctx, &ImportPGNRequest{PGN: "1. O-O *"})
	assert.True(suite.T(), errors.Is(err, errors.ErrInvalidPGN))

	list, err := suite.svc.ListGames(suite.ctx, 1, 10)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), list.Total)
}

func (suite *GameServiceTestSuite) TestCreateFromRows() {
	detail := suite.createRows(
		game.Row{N: 2, W: "Ng1f3", B: "Nc6"},
		game.Row{N: 1, W: " e4 ", B: "e5"},
		game.Row{N: 3, W: "??", B: ""},
	)

	// 按回合号排序，规范化合法着法，丢弃不像记谱的文本
	assert.Equal(suite.T(), []string{"e4", "e5", "Nf3", "Nc6"}, suite.sans(detail))
	assert.Equal(suite.T(), "Club night", detail.Game.Name)
	assert.Equal(suite.T(), models.SourceManual, detail.Game.Source)
	assert.Equal(suite.T(), chess.StartFEN, detail.Game.InitialFEN)
	suite.assertConsistent(detail.Game.ID)
}

func (suite *GameServiceTestSuite) TestCreateFromRowsKeepsIllegalVerbatim() {
	detail := suite.createRows(
		game.Row{N: 1, W: "e4", B: "e5"},
		game.Row{N: 2, W: "Ke3", B: ""},
	)

	require.Len(suite.T(), detail.Moves, 3)
	assert.Equal(suite.T(), "Ke3", detail.Moves[2].SAN)
	assert.False(suite.T(), detail.Moves[2].Legal)
	assert.Equal(suite.T(), detail.Moves[1].FENAfter, detail.Moves[2].FENAfter)
	suite.assertConsistent(detail.Game.ID)
}

func (suite *GameServiceTestSuite) TestCreateFromRowsDefaults() {
	detail, err := suite.svc.CreateFromRows(suite.ctx, &SaveRowsRequest{
		Rows: []game.Row{{N: 1, W: "e4"}},
	})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "Game 2024-03-09", detail.Game.Name)
	assert.Equal(suite.T(), "Player 1", detail.Game.White)
	assert.Equal(suite.T(), "Player 2", detail.Game.Black)
	assert.Equal(suite.T(), models.SourceOCR, detail.Game.Source)
}

func (suite *GameServiceTestSuite) TestCreateFromRowsErrors() {
	_, err := suite.svc.CreateFromRows(suite.ctx, &SaveRowsRequest{})
	assert.True(suite.T(), errors.Is(err, errors.ErrInvalidParam))

	_, err = suite.svc.CreateFromRows(suite.ctx, &SaveRowsRequest{
		Rows: []game.Row{{N: 1, W: "hello", B: " "}},
	})
	assert.True(suite.T(), errors.Is(err, errors.ErrNoMoves))

	_, err = suite.svc.CreateFromRows(suite.ctx, &SaveRowsRequest{
		Rows:   []game.Row{{N: 1, W: "e4"}},
		Source: "fax",
	})
	assert.True(suite.T(), errors.Is(err, errors.ErrInvalidParam))
}

func (suite *GameServiceTestSuite) TestUpdateMove() {
	detail := suite.createRows(
		game.Row{N: 1, W: "e4", B: "e5"},
		game.Row{N: 2, W: "Nf3", B: "Nc6"},
	)
	id := detail.Game.ID

	updated, err := suite.svc.UpdateMove(suite.ctx, id, 1, "d4")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), []string{"d4", "e5", "Nf3", "Nc6"}, suite.sans(updated))
	assert.Equal(suite.T(), "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b", placement(updated.Moves[0].FENAfter))
	for _, m := range updated.Moves {
		assert.True(suite.T(), m.Legal)
	}

	stored, err := suite.svc.GetGame(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), updated.Moves, stored.Moves)
	suite.assertConsistent(id)
}

func (suite *GameServiceTestSuite) TestUpdateMoveIllegalKeepsPosition() {
	detail := suite.createRows(game.Row{N: 1, W: "e4", B: "e5"})
	id := detail.Game.ID

	updated, err := suite.svc.UpdateMove(suite.ctx, id, 2, "Ke6")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "Ke6", updated.Moves[1].SAN)
	assert.False(suite.T(), updated.Moves[1].Legal)
	assert.Equal(suite.T(), updated.Moves[0].FENAfter, updated.Moves[1].FENAfter)
	suite.assertConsistent(id)
}

func (suite *GameServiceTestSuite) TestUpdateMoveErrors() {
	detail := suite.createRows(game.Row{N: 1, W: "e4", B: "e5"})
	id := detail.Game.ID

	_, err := suite.svc.UpdateMove(suite.ctx, id, 9, "d4")
	assert.True(suite.T(), errors.Is(err, errors.ErrMoveNotFound))
	assert.True(suite.T(), errors.IsNotFound(err))

	_, err = suite.svc.UpdateMove(suite.ctx, id, 1, "   ")
	assert.True(suite.T(), errors.Is(err, errors.ErrInvalidParam))

	_, err = suite.svc.UpdateMove(suite.ctx, "missing", 1, "d4")
	assert.True(suite.T(), errors.Is(err, errors.ErrGameNotFound))

	// 失败的编辑不改变存储
	stored, err := suite.svc.GetGame(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"e4", "e5"}, suite.sans(stored))
}

func (suite *GameServiceTestSuite) TestStorageFailureLeavesSequenceUnchanged() {
	detail := suite.createRows(game.Row{N: 1, W: "e4", B: "e5"}, game.Row{N: 2, W: "Nf3"})
	id := detail.Game.ID
	created := len(suite.events.types())

	// 删除旧着法之后、写入新着法时失败
	require.NoError(suite.T(), suite.db.Callback().Create().Before("gorm:create").
		Register("test:fail_moves", func(tx *gorm.DB) {
			if tx.Statement.Table == "moves" {
				_ = tx.AddError(fmt.Errorf("磁盘已满"))
			}
		}))

	_, err := suite.svc.InsertMove(suite.ctx, id, 1, "Nc6")
	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.IsStorageFailure(err))
	assert.True(suite.T(), errors.IsRetryable(err))

	_, err = suite.svc.UpdateMove(suite.ctx, id, 2, "c5")
	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.IsStorageFailure(err))

	rows, err := repository.NewMoveRepository(suite.db).LoadSequence(suite.ctx, id)
	require.NoError(suite.T(), err)
	stored := make([]string, len(rows))
	for i, m := range rows {
		stored[i] = m.SAN
	}
	require.Equal(suite.T(), []string{"e4", "e5", "Nf3"}, stored)
	assert.Equal(suite.T(), detail.Moves[2].FENAfter, rows[2].FENAfter)
	assert.Len(suite.T(), suite.events.types(), created)
}

func (suite *GameServiceTestSuite) TestInsertMove() {
	detail := suite.createRows(
		game.Row{N: 1, W: "e4", B: "e5"},
		game.Row{N: 2, W: "Nc6", B: ""},
	)
	id := detail.Game.ID

	// 第三步 Nc6 轮到白方，不合法；插入 Nf3 后变为合法
	require.False(suite.T(), detail.Moves[2].Legal)

	updated, err := suite.svc.InsertMove(suite.ctx, id, 2, "Nf3")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), []string{"e4", "e5", "Nf3", "Nc6"}, suite.sans(updated))
	for i, m := range updated.Moves {
		assert.Equal(suite.T(), i+1, m.Ply)
		assert.True(suite.T(), m.Legal)
	}
	suite.assertConsistent(id)
}

func (suite *GameServiceTestSuite) TestInsertMoveAtStartAndBeyondEnd() {
	detail := suite.createRows(game.Row{N: 1, W: "e5"})
	id := detail.Game.ID

	updated, err := suite.svc.InsertMove(suite.ctx, id, 0, "e4")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"e4", "e5"}, suite.sans(updated))
	assert.True(suite.T(), updated.Moves[1].Legal)

	updated, err = suite.svc.InsertMove(suite.ctx, id, 10, "Nf3")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"e4", "e5", "Nf3"}, suite.sans(updated))
	assert.Equal(suite.T(), 3, updated.Moves[2].Ply)
	suite.assertConsistent(id)
}

func (suite *GameServiceTestSuite) TestInsertMoveErrors() {
	detail := suite.createRows(game.Row{N: 1, W: "e4"})

	_, err := suite.svc.InsertMove(suite.ctx, detail.Game.ID, -1, "e5")
	assert.True(suite.T(), errors.Is(err, errors.ErrInvalidParam))

	_, err = suite.svc.InsertMove(suite.ctx, detail.Game.ID, 1, "")
	assert.True(suite.T(), errors.Is(err, errors.ErrInvalidParam))

	_, err = suite.svc.InsertMove(suite.ctx, "missing", 0, "e4")
	assert.True(suite.T(), errors.Is(err, errors.ErrGameNotFound))
}

func (suite *GameServiceTestSuite) TestCacheReadThroughAndInvalidation() {
	detail := suite.createRows(game.Row{N: 1, W: "e4", B: "e5"})
	id := detail.Game.ID

	_, err := suite.svc.GetGame(suite.ctx, id)
	require.NoError(suite.T(), err)
	_, err = suite.svc.GetGame(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, suite.cache.sets)
	assert.Equal(suite.T(), 1, suite.cache.hits)

	_, err = suite.svc.UpdateMove(suite.ctx, id, 2, "c5")
	require.NoError(suite.T(), err)
	assert.Contains(suite.T(), suite.cache.invalidated, id)

	stored, err := suite.svc.GetGame(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"e4", "c5"}, suite.sans(stored))
}

func (suite *GameServiceTestSuite) TestCacheDropsDetailReadBeforeConcurrentEdit() {
	detail := suite.createRows(game.Row{N: 1, W: "e4", B: "e5"})
	id := detail.Game.ID
	// 保证编辑后的修改时间与创建时间不同
	time.Sleep(5 * time.Millisecond)

	// 读库之后、写缓存之前有一次编辑提交
	suite.cache.beforeSet = func() {
		_, err := suite.svc.UpdateMove(suite.ctx, id, 2, "c5")
		require.NoError(suite.T(), err)
	}

	old, err := suite.svc.GetGame(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"e4", "e5"}, suite.sans(old))

	suite.cache.mu.Lock()
	_, cached := suite.cache.data[id]
	suite.cache.mu.Unlock()
	assert.False(suite.T(), cached)

	fresh, err := suite.svc.GetGame(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"e4", "c5"}, suite.sans(fresh))
}

func (suite *GameServiceTestSuite) TestCacheDropsDetailOfDeletedGame() {
	detail := suite.createRows(game.Row{N: 1, W: "e4", B: "e5"})
	id := detail.Game.ID

	suite.cache.beforeSet = func() {
		require.NoError(suite.T(), suite.svc.DeleteGame(suite.ctx, id))
	}
	_, err := suite.svc.GetGame(suite.ctx, id)
	require.NoError(suite.T(), err)

	_, err = suite.svc.GetGame(suite.ctx, id)
	assert.True(suite.T(), errors.Is(err, errors.ErrGameNotFound))
}

func (suite *GameServiceTestSuite) TestRebuildRepairsStoredPositions() {
	detail := suite.createRows(game.Row{N: 1, W: "e4", B: "e5"})
	id := detail.Game.ID

	require.NoError(suite.T(), suite.db.Model(&models.Move{}).
		Where("game_id = ? AND ply = ?", id, 2).
		Update("fen_after", "broken").Error)

	bad, err := suite.svc.Verify(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []int{2}, bad)

	rebuilt, err := suite.svc.Rebuild(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), "broken", rebuilt.Moves[1].FENAfter)
	suite.assertConsistent(id)
}

func (suite *GameServiceTestSuite) TestListGames() {
	for i := 0; i < 3; i++ {
		suite.createRows(game.Row{N: 1, W: "e4"})
	}

	list, err := suite.svc.ListGames(suite.ctx, 1, 2)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), list.Total)
	assert.Len(suite.T(), list.Games, 2)
	assert.Equal(suite.T(), 1, list.Page)
	assert.Equal(suite.T(), 2, list.PageSize)
}

func (suite *GameServiceTestSuite) TestDeleteGame() {
	detail := suite.createRows(game.Row{N: 1, W: "e4"})
	id := detail.Game.ID

	require.NoError(suite.T(), suite.svc.DeleteGame(suite.ctx, id))
	assert.Contains(suite.T(), suite.cache.invalidated, id)

	_, err := suite.svc.GetGame(suite.ctx, id)
	assert.True(suite.T(), errors.Is(err, errors.ErrGameNotFound))

	err = suite.svc.DeleteGame(suite.ctx, id)
	assert.True(suite.T(), errors.IsNotFound(err))
}

func (suite *GameServiceTestSuite) TestExportPGN() {
	detail := suite.createRows(
		game.Row{N: 1, W: "e4", B: "e5"},
		game.Row{N: 2, W: "Ke3", B: ""},
	)

	pgn, err := suite.svc.ExportPGN(suite.ctx, detail.Game.ID)
	require.NoError(suite.T(), err)

	assert.Contains(suite.T(), pgn, `[Event "Club night"]`)
	assert.Contains(suite.T(), pgn, `[White "Alice"]`)
	assert.Contains(suite.T(), pgn, `[Black "Bob"]`)
	assert.Contains(suite.T(), pgn, "1. e4 e5 2. Ke3 {illegal}")
	assert.True(suite.T(), strings.HasSuffix(strings.TrimSpace(pgn), "*"))

	_, err = suite.svc.ExportPGN(suite.ctx, "missing")
	assert.True(suite.T(), errors.Is(err, errors.ErrGameNotFound))
}

func TestGameServiceTestSuite(t *testing.T) {
	suite.Run(t, new(GameServiceTestSuite))
}

func (suite *GameServiceTestSuite) TestEventsPublishedAfterCommit() {
	detail := suite.createRows(game.Row{N: 1, W: "e4", B: "e5"})
	id := detail.Game.ID

	_, err := suite.svc.UpdateMove(suite.ctx, id, 2, "c5")
	require.NoError(suite.T(), err)

	// 失败的编辑不发布事件
	_, err = suite.svc.UpdateMove(suite.ctx, id, 9, "d4")
	require.Error(suite.T(), err)

	require.NoError(suite.T(), suite.svc.DeleteGame(suite.ctx, id))

	assert.Equal(suite.T(), []string{EventGameCreated, EventGameUpdated, EventGameDeleted}, suite.events.types())
	updated := suite.events.events[1]
	assert.Equal(suite.T(), id, updated.GameID)
	if assert.NotNil(suite.T(), updated.Game) {
		assert.Equal(suite.T(), []string{"e4", "c5"}, suite.sans(updated.Game))
	}
	assert.Nil(suite.T(), suite.events.events[2].Game)
}

func TestNewServicesRejectsBadFEN(t *testing.T) {
	db := repository.SetupTestDB()
	defer repository.CleanupTestDB(db)

	cfg := DefaultConfig()
	cfg.InitialFEN = "not a position"
	_, err := NewServices(db, cfg, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidPosition))
}

func TestOutOfTurnMode(t *testing.T) {
	db := repository.SetupTestDB()
	defer repository.CleanupTestDB(db)

	cfg := DefaultConfig()
	cfg.AllowOutOfTurn = true
	services, err := NewServices(db, cfg, zap.NewNop())
	require.NoError(t, err)

	detail, err := services.Game.CreateFromRows(context.Background(), &SaveRowsRequest{
		Rows: []game.Row{{N: 1, W: "e4", B: "Nc3"}},
	})
	require.NoError(t, err)
	require.Len(t, detail.Moves, 2)
	assert.True(t, detail.Moves[1].Legal)
}
