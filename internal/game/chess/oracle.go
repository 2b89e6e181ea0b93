package chess

import (
	"regexp"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/wfunc/scoresheet/internal/game"
)

// StartFEN 标准初始局面
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Option Oracle配置项
type Option func(*Oracle)

// WithOutOfTurn 允许非轮到方走子：轮到方走不出时，翻转走子方再尝试一次
func WithOutOfTurn(allow bool) Option {
	return func(o *Oracle) {
		o.allowOutOfTurn = allow
	}
}

// Oracle 基于 corentings/chess 的棋规判定器，实现 game.Oracle
type Oracle struct {
	allowOutOfTurn bool
}

// NewOracle 创建棋规判定器
func NewOracle(opts ...Option) *Oracle {
	o := &Oracle{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var _ game.Oracle = (*Oracle)(nil)

// Apply 在给定局面上走一步，返回新局面；无法识别或不合法时返回 game.Illegal
func (o *Oracle) Apply(position, notation string) game.Outcome {
	token := normalize(notation)
	if token == "" {
		return game.Illegal
	}

	pos, err := decodePosition(position)
	if err != nil {
		return game.Illegal
	}

	if out, ok := apply(pos, token); ok {
		return out
	}

	if o.allowOutOfTurn {
		flipped, err := decodePosition(flipSideToMove(position))
		if err != nil {
			return game.Illegal
		}
		if out, ok := apply(flipped, token); ok {
			return out
		}
	}

	return game.Illegal
}

func apply(pos *nchess.Position, token string) (game.Outcome, bool) {
	mv := resolve(pos, token)
	if mv == nil {
		return game.Illegal, false
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	next := pos.Update(mv)
	return game.Applied(next.String(), san), true
}

// ValidateFEN 校验FEN是否可以被解析
func ValidateFEN(fen string) error {
	_, err := decodePosition(fen)
	return err
}

// SideToMove 返回局面中轮到的一方，"w" 或 "b"
func SideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func decodePosition(fen string) (*nchess.Position, error) {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, err
	}
	return nchess.NewGame(opt).Position(), nil
}

// flipSideToMove 交换走子方并清除吃过路兵目标格
func flipSideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return fen
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	return strings.Join(fields, " ")
}

var (
	annotationSuffix = regexp.MustCompile(`[!?]+$`)
	sanParts         = regexp.MustCompile(`^([KQRBN])?([a-h])?([1-8])?(x|:)?([a-h][1-8])(=?([QRBNqrbn]))?$`)
)

// normalize 统一手写棋谱中常见的写法差异
func normalize(notation string) string {
	s := strings.TrimSpace(notation)
	s = annotationSuffix.ReplaceAllString(s, "")
	s = strings.TrimSuffix(s, "e.p.")
	s = strings.TrimSpace(s)
	switch strings.TrimRight(s, "+#") {
	case "0-0", "o-o":
		s = "O-O" + strings.TrimLeft(s, "0-o")
	case "0-0-0", "o-o-o":
		s = "O-O-O" + strings.TrimLeft(s, "0-o")
	}
	return s
}

// resolve 找到与记谱对应的合法着法；依次尝试标准代数记谱、宽松匹配、长代数记谱和UCI
func resolve(pos *nchess.Position, token string) *nchess.Move {
	valid := pos.ValidMoves()
	if len(valid) == 0 {
		return nil
	}

	if mv, err := (nchess.AlgebraicNotation{}).Decode(pos, token); err == nil {
		if legal := findLegal(valid, mv); legal != nil {
			return legal
		}
	}

	if legal := looseSAN(pos, valid, token); legal != nil {
		return legal
	}

	bare := strings.TrimRight(token, "+#")
	if mv, err := (nchess.LongAlgebraicNotation{}).Decode(pos, bare); err == nil {
		if legal := findLegal(valid, mv); legal != nil {
			return legal
		}
	}
	if mv, err := (nchess.UCINotation{}).Decode(pos, strings.ToLower(bare)); err == nil {
		if legal := findLegal(valid, mv); legal != nil {
			return legal
		}
	}
	return nil
}

func findLegal(valid []nchess.Move, mv *nchess.Move) *nchess.Move {
	if mv == nil {
		return nil
	}
	for i := range valid {
		if valid[i].S1() == mv.S1() && valid[i].S2() == mv.S2() && valid[i].Promo() == mv.Promo() {
			return &valid[i]
		}
	}
	return nil
}

var pieceLetters = map[string]nchess.PieceType{
	"":  nchess.Pawn,
	"K": nchess.King,
	"Q": nchess.Queen,
	"R": nchess.Rook,
	"B": nchess.Bishop,
	"N": nchess.Knight,
}

// looseSAN 容忍缺失或多余的消歧义、缺失的将军符号以及省略的"="
func looseSAN(pos *nchess.Position, valid []nchess.Move, token string) *nchess.Move {
	bare := strings.TrimRight(token, "+#")

	// 先与库生成的标准写法比较（去掉将军符号）
	for i := range valid {
		encoded := nchess.AlgebraicNotation{}.Encode(pos, &valid[i])
		if strings.TrimRight(encoded, "+#") == bare {
			return &valid[i]
		}
	}

	parts := sanParts.FindStringSubmatch(bare)
	if parts == nil {
		return nil
	}
	piece := pieceLetters[parts[1]]
	fromFile, fromRank, dest := parts[2], parts[3], parts[5]
	promo := nchess.NoPieceType
	if parts[7] != "" {
		promo = pieceLetters[strings.ToUpper(parts[7])]
	}

	var match *nchess.Move
	for i := range valid {
		m := &valid[i]
		if m.S2().String() != dest || m.Promo() != promo {
			continue
		}
		if pos.Board().Piece(m.S1()).Type() != piece {
			continue
		}
		from := m.S1().String()
		if fromFile != "" && from[:1] != fromFile {
			continue
		}
		if fromRank != "" && from[1:] != fromRank {
			continue
		}
		if match != nil {
			// 有歧义时不猜测
			return nil
		}
		match = m
	}
	return match
}
