package game

// Step 重放中的一步
type Step struct {
	Position  string
	Canonical string
	Legal     bool
}

// Fold 从 start 开始依次走 notations。
// 不合法的着法不改变局面，输出与上一步相同的局面。结果长度与 notations 相同。
func Fold(oracle Oracle, start string, notations []string) []Step {
	steps := make([]Step, len(notations))
	current := start
	for i, n := range notations {
		current, steps[i] = step(oracle, current, n)
	}
	return steps
}

// Replay 只返回每一步之后的局面
func Replay(oracle Oracle, start string, notations []string) []string {
	steps := Fold(oracle, start, notations)
	positions := make([]string, len(steps))
	for i, s := range steps {
		positions[i] = s.Position
	}
	return positions
}

// PositionAfter 走完全部 notations 后的局面
func PositionAfter(oracle Oracle, start string, notations []string) string {
	current := start
	for _, n := range notations {
		current, _ = step(oracle, current, n)
	}
	return current
}

func step(oracle Oracle, current, notation string) (string, Step) {
	out := oracle.Apply(current, notation)
	if !out.Legal {
		return current, Step{Position: current}
	}
	return out.Position, Step{Position: out.Position, Canonical: out.Canonical, Legal: true}
}
