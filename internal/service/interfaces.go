package service

import (
	"context"
	"time"

	"github.com/wfunc/scoresheet/internal/game"
	"github.com/wfunc/scoresheet/internal/models"
)

// GameService 对局服务接口
type GameService interface {
	// 创建
	CreateFromPGN(ctx context.Context, req *ImportPGNRequest) (*GameDetail, error)
	CreateFromRows(ctx context.Context, req *SaveRowsRequest) (*GameDetail, error)

	// 查询
	GetGame(ctx context.Context, gameID string) (*GameDetail, error)
	ListGames(ctx context.Context, page, pageSize int) (*GameList, error)
	ExportPGN(ctx context.Context, gameID string) (string, error)
	Verify(ctx context.Context, gameID string) ([]int, error)

	// 编辑，每次编辑在一个事务中完成
	UpdateMove(ctx context.Context, gameID string, ply int, san string) (*GameDetail, error)
	InsertMove(ctx context.Context, gameID string, afterPly int, san string) (*GameDetail, error)
	Rebuild(ctx context.Context, gameID string) (*GameDetail, error)

	DeleteGame(ctx context.Context, gameID string) error
}

// ImportPGNRequest 导入PGN请求
type ImportPGNRequest struct {
	PGN   string `json:"pgn" binding:"required"`
	Name  string `json:"name"`
	White string `json:"white"`
	Black string `json:"black"`
}

// SaveRowsRequest 保存记录纸请求（手工录入或OCR结果）
type SaveRowsRequest struct {
	Rows   []game.Row `json:"rows" binding:"required"`
	Name   string     `json:"name"`
	White  string     `json:"white"`
	Black  string     `json:"black"`
	Source string     `json:"source"`
}

// UpdateMoveRequest 修改着法请求
type UpdateMoveRequest struct {
	SAN string `json:"san" binding:"required"`
}

// InsertMoveRequest 插入着法请求
type InsertMoveRequest struct {
	AfterPly *int   `json:"afterPly" binding:"required,min=0"`
	SAN      string `json:"san" binding:"required"`
}

// MoveView 着法视图
type MoveView struct {
	Ply      int    `json:"ply" yaml:"ply"`
	SAN      string `json:"san" yaml:"san"`
	FENAfter string `json:"fen_after" yaml:"fen_after"`
	Legal    bool   `json:"legal" yaml:"legal"`
}

// GameDetail 对局详情：对局信息和按顺序排列的着法
type GameDetail struct {
	Game  *models.Game `json:"game" yaml:"game"`
	Moves []MoveView   `json:"moves" yaml:"moves"`
}

// GameList 对局列表
type GameList struct {
	Games    []*models.Game `json:"games"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// Clock 时间来源
type Clock func() time.Time
