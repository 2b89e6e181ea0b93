package models

import (
	"time"
)

// 对局来源
const (
	SourcePGN    = "pgn"
	SourceManual = "manual"
	SourceOCR    = "ocr"
	SourceCSV    = "csv"
)

// Game 对局表
type Game struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Name       string    `gorm:"size:200;not null" json:"name"`
	White      string    `gorm:"size:100;not null" json:"white"`
	Black      string    `gorm:"size:100;not null" json:"black"`
	Source     string    `gorm:"size:20;not null;index" json:"source"` // pgn, manual, ocr, csv
	InitialFEN string    `gorm:"size:100;not null" json:"initial_fen"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// 关联
	Moves []Move `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"moves,omitempty"`
}

// TableName 表名
func (Game) TableName() string {
	return "games"
}

// IsValidSource 判断来源是否合法
func IsValidSource(source string) bool {
	switch source {
	case SourcePGN, SourceManual, SourceOCR, SourceCSV:
		return true
	}
	return false
}

// Move 着法表，每行是一个半回合。san 列长度与 game.MaxNotationLength 一致
type Move struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID   string `gorm:"size:36;not null;index:idx_moves_game_ply,priority:1" json:"game_id"`
	Ply      int    `gorm:"not null;index:idx_moves_game_ply,priority:2" json:"ply"`
	SAN      string `gorm:"column:san;size:32;not null" json:"san"`
	FENAfter string `gorm:"column:fen_after;size:100;not null" json:"fen_after"`
	// Legal 记录该着法是否被棋规接受，不合法的着法保留原文且局面不变
	Legal     bool      `gorm:"not null" json:"legal"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 表名
func (Move) TableName() string {
	return "moves"
}
