package game

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/wfunc/scoresheet/internal/errors"
)

// Editor 编辑着法序列并保持每一步局面与记谱一致。
// 所有方法都不修改传入的序列，返回新的序列。
type Editor struct {
	oracle Oracle
}

// NewEditor 创建编辑器
func NewEditor(oracle Oracle) *Editor {
	return &Editor{oracle: oracle}
}

// Update 修改序号为 target 的着法，并重算其后所有局面。
// target 之前的着法保持不变，之后的着法只重算局面，记谱不变。
func (e *Editor) Update(seq Sequence, target int, notation string) (Sequence, error) {
	token, err := cleanNotation(notation)
	if err != nil {
		return Sequence{}, err
	}

	moves := sortedMoves(seq.Moves)
	i := -1
	for k, m := range moves {
		if m.Index == target {
			i = k
			break
		}
	}
	if i < 0 {
		return Sequence{}, errors.Newf(errors.ErrMoveNotFound, "第 %d 步不存在", target)
	}

	before := PositionAfter(e.oracle, seq.Start, notationsOf(moves[:i]))
	current, st := step(e.oracle, before, token)
	moves[i].Notation = token
	moves[i].Position = st.Position
	moves[i].Legal = st.Legal

	e.replaySuffix(moves[i+1:], current)
	renumber(moves)

	return Sequence{Start: seq.Start, Moves: moves}, nil
}

// Insert 在序号 after 之后插入一步，之后的着法序号加一并重算局面。
// after 为0时插在最前面；after 超过序列长度时追加到末尾。
func (e *Editor) Insert(seq Sequence, after int, notation string) (Sequence, error) {
	if after < 0 {
		return Sequence{}, errors.Newf(errors.ErrInvalidParam, "插入位置不能为负数: %d", after)
	}
	token, err := cleanNotation(notation)
	if err != nil {
		return Sequence{}, err
	}

	moves := sortedMoves(seq.Moves)
	k := sort.Search(len(moves), func(j int) bool {
		return moves[j].Index > after
	})

	before := PositionAfter(e.oracle, seq.Start, notationsOf(moves[:k]))
	current, st := step(e.oracle, before, token)

	out := make([]Move, 0, len(moves)+1)
	out = append(out, moves[:k]...)
	out = append(out, Move{
		Notation: token,
		Position: st.Position,
		Legal:    st.Legal,
	})
	out = append(out, moves[k:]...)

	e.replaySuffix(out[k+1:], current)
	renumber(out)

	return Sequence{Start: seq.Start, Moves: out}, nil
}

// Build 从记谱列表构建序列，记谱按原文保存
func (e *Editor) Build(start string, notations []string) Sequence {
	return e.build(start, notations, false)
}

// BuildCanonical 从记谱列表构建序列，合法着法保存为规范写法，不合法的保留原文
func (e *Editor) BuildCanonical(start string, notations []string) Sequence {
	return e.build(start, notations, true)
}

func (e *Editor) build(start string, notations []string, canonical bool) Sequence {
	tokens := make([]string, len(notations))
	for i, n := range notations {
		tokens[i] = strings.TrimSpace(n)
	}

	steps := Fold(e.oracle, start, tokens)
	moves := make([]Move, len(tokens))
	for i, st := range steps {
		notation := tokens[i]
		if canonical && st.Legal && st.Canonical != "" {
			notation = st.Canonical
		}
		moves[i] = Move{
			Index:    i + 1,
			Notation: notation,
			Position: st.Position,
			Legal:    st.Legal,
		}
	}
	return Sequence{Start: start, Moves: moves}
}

// Rebuild 从初始局面重算整条序列，用于修复存储中不一致的数据
func (e *Editor) Rebuild(seq Sequence) Sequence {
	moves := sortedMoves(seq.Moves)
	e.replaySuffix(moves, seq.Start)
	renumber(moves)
	return Sequence{Start: seq.Start, Moves: moves}
}

// Inconsistencies 返回存储局面与重算结果不一致的着法序号
func (e *Editor) Inconsistencies(seq Sequence) []int {
	moves := sortedMoves(seq.Moves)
	positions := Replay(e.oracle, seq.Start, notationsOf(moves))

	var bad []int
	for i, m := range moves {
		if m.Index != i+1 || m.Position != positions[i] {
			bad = append(bad, m.Index)
		}
	}
	return bad
}

// replaySuffix 从 current 开始依次重算 moves 的局面，记谱保持不变
func (e *Editor) replaySuffix(moves []Move, current string) {
	for j := range moves {
		var st Step
		current, st = step(e.oracle, current, moves[j].Notation)
		moves[j].Position = st.Position
		moves[j].Legal = st.Legal
	}
}

// cleanNotation 去掉首尾空白并检查长度，超长的记谱存不进着法表
func cleanNotation(notation string) (string, error) {
	token := strings.TrimSpace(notation)
	if token == "" {
		return "", errors.New(errors.ErrInvalidParam, "记谱不能为空")
	}
	if utf8.RuneCountInString(token) > MaxNotationLength {
		return "", errors.Newf(errors.ErrInvalidParam, "记谱长度不能超过 %d 个字符", MaxNotationLength)
	}
	return token, nil
}

// sortedMoves 复制并按序号稳定排序，序号相同时保持存储顺序
func sortedMoves(in []Move) []Move {
	moves := make([]Move, len(in))
	copy(moves, in)
	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].Index < moves[j].Index
	})
	return moves
}

func renumber(moves []Move) {
	for i := range moves {
		moves[i].Index = i + 1
	}
}

func notationsOf(moves []Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.Notation
	}
	return out
}
