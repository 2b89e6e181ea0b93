package game

// MaxNotationLength 单步记谱的最大长度，与着法表 san 列一致
const MaxNotationLength = 32

// Outcome 走一步的结果：Applied 或 Illegal
type Outcome struct {
	// Position 走子后的局面，仅在 Legal 为true时有效
	Position string
	// Canonical 规范化后的记谱（例如 "Nf3+"）
	Canonical string
	Legal     bool
}

// Illegal 无法识别或不合法的着法
var Illegal = Outcome{}

// Applied 构造合法着法的结果
func Applied(position, canonical string) Outcome {
	return Outcome{Position: position, Canonical: canonical, Legal: true}
}

// Oracle 棋规判定器，必须是确定性的
type Oracle interface {
	Apply(position, notation string) Outcome
}

// OracleFunc 函数适配器
type OracleFunc func(position, notation string) Outcome

// Apply 实现 Oracle
func (f OracleFunc) Apply(position, notation string) Outcome {
	return f(position, notation)
}

// Move 序列中的一个半回合
type Move struct {
	Index    int
	Notation string
	// Position 走完这一步之后的局面
	Position string
	Legal    bool
}

// Sequence 一盘棋的线性着法序列
type Sequence struct {
	Start string
	Moves []Move
}

// Len 着法数量
func (s Sequence) Len() int {
	return len(s.Moves)
}

// Notations 按顺序返回所有记谱
func (s Sequence) Notations() []string {
	out := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		out[i] = m.Notation
	}
	return out
}

// Find 返回序号对应的下标，不存在时返回 -1
func (s Sequence) Find(index int) int {
	for i, m := range s.Moves {
		if m.Index == index {
			return i
		}
	}
	return -1
}

// IsContiguous 序号是否为 1..n 且无重复
func (s Sequence) IsContiguous() bool {
	for i, m := range s.Moves {
		if m.Index != i+1 {
			return false
		}
	}
	return true
}
