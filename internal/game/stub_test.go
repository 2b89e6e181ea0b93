package game

import (
	"strings"
)

// stubOracle 确定性的测试判定器：局面是已走着法用"|"连接的字符串。
// 以 "?" 开头或等于 "illegal" 的着法不合法；canonical 为大写。
func stubOracle() Oracle {
	return OracleFunc(func(position, notation string) Outcome {
		n := strings.TrimSpace(notation)
		if n == "" || n == "illegal" || strings.HasPrefix(n, "?") {
			return Illegal
		}
		return Applied(position+"|"+n, strings.ToUpper(n))
	})
}

// forbid 在指定局面之后拒绝某个着法，模拟依赖上下文的合法性
func forbid(after, notation string) Oracle {
	base := stubOracle()
	return OracleFunc(func(position, n string) Outcome {
		if strings.HasSuffix(position, after) && n == notation {
			return Illegal
		}
		return base.Apply(position, n)
	})
}
