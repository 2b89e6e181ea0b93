package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/scoresheet/internal/errors"
	"github.com/wfunc/scoresheet/internal/game"
	"github.com/wfunc/scoresheet/internal/game/chess"
	"github.com/wfunc/scoresheet/internal/models"
	"github.com/wfunc/scoresheet/internal/repository"
	"go.uber.org/zap"
)

// gameService 对局服务实现
type gameService struct {
	repos  *repository.Manager
	editor *game.Editor
	cfg    *Config
	log    *zap.Logger
}

// NewGameService 创建对局服务
func NewGameService(
	repos *repository.Manager,
	editor *game.Editor,
	cfg *Config,
	log *zap.Logger,
) GameService {
	return &gameService{
		repos:  repos,
		editor: editor,
		cfg:    cfg,
		log:    log,
	}
}

// CreateFromPGN 导入PGN，只保存主线
func (s *gameService) CreateFromPGN(ctx context.Context, req *ImportPGNRequest) (*GameDetail, error) {
	if req == nil || strings.TrimSpace(req.PGN) == "" {
		return nil, errors.New(errors.ErrInvalidParam, "PGN内容不能为空")
	}

	parsed, err := chess.ParsePGN(req.PGN)
	if err != nil {
		s.log.Warn("PGN解析失败", zap.Error(err))
		return nil, errors.Wrap(err, errors.ErrInvalidPGN)
	}
	if len(parsed.SAN) == 0 {
		return nil, errors.New(errors.ErrNoMoves, "PGN中没有着法")
	}

	g := &models.Game{
		Name:       firstNonEmpty(req.Name, parsed.Event, "PGN Game "+s.today()),
		White:      firstNonEmpty(req.White, parsed.White, "Unknown"),
		Black:      firstNonEmpty(req.Black, parsed.Black, "Unknown"),
		Source:     models.SourcePGN,
		InitialFEN: parsed.Start,
	}
	seq := s.editor.BuildCanonical(g.InitialFEN, parsed.SAN)

	if err := s.create(ctx, g, seq); err != nil {
		return nil, err
	}
	return detailOf(g, seq), nil
}

// CreateFromRows 保存记录纸。合法着法保存为规范写法，不合法的保留原文。
func (s *gameService) CreateFromRows(ctx context.Context, req *SaveRowsRequest) (*GameDetail, error) {
	if req == nil || len(req.Rows) == 0 {
		return nil, errors.New(errors.ErrInvalidParam, "记录为空")
	}

	source := models.SourceOCR
	if req.Source != "" {
		if !models.IsValidSource(req.Source) {
			return nil, errors.Newf(errors.ErrInvalidParam, "未知来源: %s", req.Source)
		}
		source = req.Source
	}

	notations := game.RowNotations(req.Rows)
	if len(notations) == 0 {
		return nil, errors.New(errors.ErrNoMoves, "记录中没有可识别的着法")
	}

	g := &models.Game{
		Name:       firstNonEmpty(req.Name, "Game "+s.today()),
		White:      firstNonEmpty(req.White, "Player 1"),
		Black:      firstNonEmpty(req.Black, "Player 2"),
		Source:     source,
		InitialFEN: s.cfg.InitialFEN,
	}
	seq := s.editor.BuildCanonical(g.InitialFEN, notations)

	if err := s.create(ctx, g, seq); err != nil {
		return nil, err
	}
	return detailOf(g, seq), nil
}

// create 在一个事务中写入对局和全部着法
func (s *gameService) create(ctx context.Context, g *models.Game, seq game.Sequence) error {
	g.ID = uuid.NewString()

	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		if err := tx.Games().Create(ctx, g); err != nil {
			return err
		}
		return tx.Moves().AppendSequence(ctx, g.ID, rowsOf(seq))
	})
	if err != nil {
		s.log.Error("保存对局失败", zap.Error(err), zap.String("source", g.Source))
		return fmt.Errorf("保存对局失败: %w", err)
	}

	s.log.Info("对局已创建",
		zap.String("game_id", g.ID),
		zap.String("source", g.Source),
		zap.Int("moves", seq.Len()),
	)
	s.cfg.Events.PublishGameEvent(GameEvent{Type: EventGameCreated, GameID: g.ID, Game: detailOf(g, seq)})
	return nil
}

// GetGame 获取对局详情，优先读缓存
func (s *gameService) GetGame(ctx context.Context, gameID string) (*GameDetail, error) {
	var cached GameDetail
	hit, err := s.cfg.Cache.Get(ctx, gameID, &cached)
	if err != nil {
		s.log.Warn("读取缓存失败", zap.Error(err), zap.String("game_id", gameID))
	}
	if hit {
		return &cached, nil
	}

	g, seq, err := s.load(ctx, s.repos.Games(), s.repos.Moves(), gameID)
	if err != nil {
		return nil, err
	}
	detail := detailOf(g, seq)

	if err := s.cfg.Cache.Set(ctx, gameID, detail); err != nil {
		s.log.Warn("写入缓存失败", zap.Error(err), zap.String("game_id", gameID))
		return detail, nil
	}
	s.dropIfStale(ctx, gameID, g.UpdatedAt)
	return detail, nil
}

// dropIfStale 写入缓存后复查修改时间。读库之后有编辑提交时，
// 该编辑的清除可能早于本次写入，此时删掉刚写入的旧数据。
func (s *gameService) dropIfStale(ctx context.Context, gameID string, seen time.Time) {
	current, err := s.repos.Games().FindByID(ctx, gameID)
	if err == nil && current.UpdatedAt.Equal(seen) {
		return
	}
	s.invalidate(ctx, gameID)
}

// ListGames 分页获取对局列表
func (s *gameService) ListGames(ctx context.Context, page, pageSize int) (*GameList, error) {
	p := repository.NewPagination(page, pageSize)
	games, err := s.repos.Games().List(ctx, p)
	if err != nil {
		s.log.Error("获取对局列表失败", zap.Error(err))
		return nil, fmt.Errorf("获取对局列表失败: %w", err)
	}
	return &GameList{
		Games:    games,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}, nil
}

// ExportPGN 导出PGN
func (s *gameService) ExportPGN(ctx context.Context, gameID string) (string, error) {
	g, seq, err := s.load(ctx, s.repos.Games(), s.repos.Moves(), gameID)
	if err != nil {
		return "", err
	}

	tags := []chess.Tag{
		{Key: "Event", Value: g.Name},
		{Key: "Site", Value: "?"},
		{Key: "Date", Value: g.CreatedAt.Format("2006.01.02")},
		{Key: "Round", Value: "?"},
		{Key: "White", Value: g.White},
		{Key: "Black", Value: g.Black},
		{Key: "Result", Value: "*"},
	}
	return chess.WritePGN(tags, seq), nil
}

// Verify 返回存储局面与重算结果不一致的着法序号
func (s *gameService) Verify(ctx context.Context, gameID string) ([]int, error) {
	_, seq, err := s.load(ctx, s.repos.Games(), s.repos.Moves(), gameID)
	if err != nil {
		return nil, err
	}
	return s.editor.Inconsistencies(seq), nil
}

// UpdateMove 修改一步并重算其后的局面
func (s *gameService) UpdateMove(ctx context.Context, gameID string, ply int, san string) (*GameDetail, error) {
	detail, err := s.edit(ctx, gameID, func(seq game.Sequence) (game.Sequence, error) {
		return s.editor.Update(seq, ply, san)
	})
	if err != nil {
		s.log.Warn("修改着法失败",
			zap.Error(err),
			zap.String("game_id", gameID),
			zap.Int("ply", ply),
			zap.String("san", san),
		)
		return nil, err
	}

	s.log.Info("着法已修改", zap.String("game_id", gameID), zap.Int("ply", ply), zap.String("san", san))
	return detail, nil
}

// InsertMove 在 afterPly 之后插入一步
func (s *gameService) InsertMove(ctx context.Context, gameID string, afterPly int, san string) (*GameDetail, error) {
	detail, err := s.edit(ctx, gameID, func(seq game.Sequence) (game.Sequence, error) {
		return s.editor.Insert(seq, afterPly, san)
	})
	if err != nil {
		s.log.Warn("插入着法失败",
			zap.Error(err),
			zap.String("game_id", gameID),
			zap.Int("after_ply", afterPly),
			zap.String("san", san),
		)
		return nil, err
	}

	s.log.Info("着法已插入", zap.String("game_id", gameID), zap.Int("after_ply", afterPly), zap.String("san", san))
	return detail, nil
}

// Rebuild 从初始局面重算整盘棋并修复序号
func (s *gameService) Rebuild(ctx context.Context, gameID string) (*GameDetail, error) {
	detail, err := s.edit(ctx, gameID, func(seq game.Sequence) (game.Sequence, error) {
		return s.editor.Rebuild(seq), nil
	})
	if err != nil {
		s.log.Warn("重算对局失败", zap.Error(err), zap.String("game_id", gameID))
		return nil, err
	}
	return detail, nil
}

// edit 在一个事务中完成 读取、计算、整体写回，提交后清除缓存
func (s *gameService) edit(ctx context.Context, gameID string, fn func(game.Sequence) (game.Sequence, error)) (*GameDetail, error) {
	var detail *GameDetail

	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		g, seq, err := s.load(ctx, tx.Games(), tx.Moves(), gameID)
		if err != nil {
			return err
		}

		next, err := fn(seq)
		if err != nil {
			return err
		}

		if err := tx.Moves().SaveSequence(ctx, gameID, rowsOf(next)); err != nil {
			return err
		}
		if err := tx.Games().Touch(ctx, gameID); err != nil {
			return err
		}

		detail = detailOf(g, next)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, gameID)
	s.cfg.Events.PublishGameEvent(GameEvent{Type: EventGameUpdated, GameID: gameID, Game: detail})
	return detail, nil
}

// DeleteGame 删除对局及其着法
func (s *gameService) DeleteGame(ctx context.Context, gameID string) error {
	if err := s.repos.Games().Delete(ctx, gameID); err != nil {
		s.log.Warn("删除对局失败", zap.Error(err), zap.String("game_id", gameID))
		return err
	}
	s.invalidate(ctx, gameID)
	s.cfg.Events.PublishGameEvent(GameEvent{Type: EventGameDeleted, GameID: gameID})

	s.log.Info("对局已删除", zap.String("game_id", gameID))
	return nil
}

// load 读取对局和着法序列
func (s *gameService) load(ctx context.Context, games repository.GameRepository, moves repository.MoveRepository, gameID string) (*models.Game, game.Sequence, error) {
	g, err := games.FindByID(ctx, gameID)
	if err != nil {
		return nil, game.Sequence{}, err
	}
	rows, err := moves.LoadSequence(ctx, gameID)
	if err != nil {
		return nil, game.Sequence{}, err
	}
	return g, sequenceOf(g, rows, s.cfg.InitialFEN), nil
}

func (s *gameService) invalidate(ctx context.Context, gameID string) {
	if err := s.cfg.Cache.Invalidate(ctx, gameID); err != nil {
		s.log.Warn("清除缓存失败", zap.Error(err), zap.String("game_id", gameID))
	}
}

func (s *gameService) today() string {
	return s.cfg.Clock().Format("2006-01-02")
}

// sequenceOf 存储行转换为着法序列
func sequenceOf(g *models.Game, rows []models.Move, fallbackFEN string) game.Sequence {
	start := g.InitialFEN
	if start == "" {
		start = fallbackFEN
	}
	moves := make([]game.Move, len(rows))
	for i, r := range rows {
		moves[i] = game.Move{
			Index:    r.Ply,
			Notation: r.SAN,
			Position: r.FENAfter,
			Legal:    r.Legal,
		}
	}
	return game.Sequence{Start: start, Moves: moves}
}

// rowsOf 着法序列转换为存储行
func rowsOf(seq game.Sequence) []models.Move {
	rows := make([]models.Move, len(seq.Moves))
	for i, m := range seq.Moves {
		rows[i] = models.Move{
			Ply:      m.Index,
			SAN:      m.Notation,
			FENAfter: m.Position,
			Legal:    m.Legal,
		}
	}
	return rows
}

func detailOf(g *models.Game, seq game.Sequence) *GameDetail {
	views := make([]MoveView, len(seq.Moves))
	for i, m := range seq.Moves {
		views[i] = MoveView{
			Ply:      m.Index,
			SAN:      m.Notation,
			FENAfter: m.Position,
			Legal:    m.Legal,
		}
	}
	return &GameDetail{Game: g, Moves: views}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
