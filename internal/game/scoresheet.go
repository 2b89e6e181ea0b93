package game

import (
	"regexp"
	"sort"
	"strings"
)

// Row 记录纸上的一行：回合号、白方着法、黑方着法
type Row struct {
	N int    `json:"n"`
	W string `json:"w"`
	B string `json:"b"`
}

var (
	sanShape      = regexp.MustCompile(`^[KQRBN]?[a-h]?[1-8]?x?[a-h][1-8](=[QRBN])?[+#]?$`)
	castlingShape = regexp.MustCompile(`^O-O(-O)?[+#]?$`)
)

// LooksLikeSAN 判断文本是否具有标准代数记谱的外形，不判断是否合法
func LooksLikeSAN(s string) bool {
	return sanShape.MatchString(s) || castlingShape.MatchString(s)
}

// RowNotations 按回合号排序后展开成半回合序列。
// 空白和不像记谱的文本会被丢弃。
func RowNotations(rows []Row) []string {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].N < sorted[j].N
	})

	var out []string
	for _, r := range sorted {
		for _, cell := range []string{r.W, r.B} {
			token := strings.TrimSpace(cell)
			if token == "" || !LooksLikeSAN(token) {
				continue
			}
			out = append(out, token)
		}
	}
	return out
}
