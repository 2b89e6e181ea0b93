package chess

import (
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/wfunc/scoresheet/internal/game"
)

// ParsedGame 从PGN解析出的对局
type ParsedGame struct {
	Event string
	White string
	Black string
	// Start 初始局面，PGN中有FEN标签时为该局面
	Start string
	// SAN 主线着法的规范写法
	SAN []string
	// Positions 每一步之后的局面
	Positions []string
}

// ParsePGN 解析单盘PGN，只取主线
func ParsePGN(text string) (*ParsedGame, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("PGN内容为空")
	}

	opt, err := nchess.PGN(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("解析PGN失败: %w", err)
	}
	g := nchess.NewGame(opt)

	moves := g.Moves()
	positions := g.Positions()

	parsed := &ParsedGame{
		Event: g.GetTagPair("Event"),
		White: g.GetTagPair("White"),
		Black: g.GetTagPair("Black"),
		Start: StartFEN,
	}
	if len(positions) > 0 {
		parsed.Start = positions[0].String()
	}

	parsed.SAN = make([]string, 0, len(moves))
	parsed.Positions = make([]string, 0, len(moves))
	for i, mv := range moves {
		if i+1 >= len(positions) {
			break
		}
		parsed.SAN = append(parsed.SAN, nchess.AlgebraicNotation{}.Encode(positions[i], mv))
		parsed.Positions = append(parsed.Positions, positions[i+1].String())
	}
	return parsed, nil
}

// Tag PGN标签
type Tag struct {
	Key   string
	Value string
}

// WritePGN 将序列写成PGN文本。不合法的着法原样写出并附加 {illegal} 注释。
func WritePGN(tags []Tag, seq game.Sequence) string {
	var sb strings.Builder
	for _, t := range tags {
		fmt.Fprintf(&sb, "[%s %q]\n", t.Key, t.Value)
	}
	if seq.Start != "" && seq.Start != StartFEN {
		fmt.Fprintf(&sb, "[SetUp \"1\"]\n[FEN %q]\n", seq.Start)
	}
	sb.WriteString("\n")

	moveNum, whiteToMove := moveCounters(seq.Start)
	tokens := make([]string, 0, len(seq.Moves)*2+1)
	for i, m := range seq.Moves {
		switch {
		case whiteToMove:
			tokens = append(tokens, strconv.Itoa(moveNum)+".")
		case i == 0:
			tokens = append(tokens, strconv.Itoa(moveNum)+"...")
		}
		tokens = append(tokens, m.Notation)
		if !m.Legal {
			tokens = append(tokens, "{illegal}")
		}
		if !whiteToMove {
			moveNum++
		}
		whiteToMove = !whiteToMove
	}
	tokens = append(tokens, "*")

	sb.WriteString(strings.Join(tokens, " "))
	sb.WriteString("\n")
	return sb.String()
}

// moveCounters 读取FEN中的回合数和走子方
func moveCounters(fen string) (int, bool) {
	fields := strings.Fields(fen)
	moveNum := 1
	white := true
	if len(fields) >= 2 {
		white = fields[1] != "b"
	}
	if len(fields) >= 6 {
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			moveNum = n
		}
	}
	return moveNum, white
}
