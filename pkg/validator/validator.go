// Package validator はステージの構造検証とレポート生成を行う
package validator

import (
	"math"
	"sort"

	"github.com/zurustar/sheepedit/pkg/level"
	"github.com/zurustar/sheepedit/pkg/polygon"
)

// OverlapEpsilon はカードが重なっているとみなす距離（未満）
const OverlapEpsilon = 0.1

// MatchSize は一度に消せるカードの枚数
const MatchSize = 3

// ValidationResult は検証結果と統計情報
type ValidationResult struct {
	IsValid          bool
	Errors           []Issue
	Warnings         []Issue
	TotalCards       int
	UniqueTypes      int
	TypeCounts       map[int]int // カード種類 -> 枚数
	TotalShapes      int
	LayerShapeCounts map[int]int // レイヤー -> 図形数（無効な図形も含む）
}

// ErrorMessages はエラーを英語の文字列一覧として返す
func (r *ValidationResult) ErrorMessages() []string {
	return messages(r.Errors)
}

// WarningMessages は警告を英語の文字列一覧として返す
func (r *ValidationResult) WarningMessages() []string {
	return messages(r.Warnings)
}

// HasError は指定コードのエラーが含まれるかを返す
func (r *ValidationResult) HasError(code IssueCode) bool {
	return hasCode(r.Errors, code)
}

// HasWarning は指定コードの警告が含まれるかを返す
func (r *ValidationResult) HasWarning(code IssueCode) bool {
	return hasCode(r.Warnings, code)
}

func messages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.String()
	}
	return out
}

func hasCode(issues []Issue, code IssueCode) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func (r *ValidationResult) addError(code IssueCode, format string, args ...any) {
	r.Errors = append(r.Errors, newIssue(code, format, args...))
}

func (r *ValidationResult) addWarning(code IssueCode, format string, args ...any) {
	r.Warnings = append(r.Warnings, newIssue(code, format, args...))
}

// Validate はステージを検証する
//
// 各チェックは独立しており、結果は蓄積される。
// カードが1枚もない場合のみ、エラーを1件記録して即座に返す。
// 入力が不正でもパニックやエラーの返却は行わない。
func Validate(l *level.Level) *ValidationResult {
	result := &ValidationResult{
		Errors:           []Issue{},
		Warnings:         []Issue{},
		TypeCounts:       map[int]int{},
		LayerShapeCounts: map[int]int{},
		TotalCards:       len(l.Cards),
		TotalShapes:      len(l.Shapes),
	}

	// 1. 空のステージ
	if len(l.Cards) == 0 {
		result.addError(CodeEmptyLevel, msgEmptyLevel)
		result.IsValid = false
		return result
	}

	// 2. 種類ごとの枚数
	checkTypeCounts(l, result)

	// 3. 総枚数
	if len(l.Cards)%MatchSize != 0 {
		result.addError(CodeTotalCount, msgTotalCount, len(l.Cards))
	}

	// 4. レイヤー数
	if l.TotalLayers <= 0 {
		result.addError(CodeNoLayers, msgNoLayers)
	}

	// 5. カードのレイヤー範囲
	for _, c := range l.Cards {
		if c.Layer < 0 || c.Layer >= l.TotalLayers {
			result.addError(CodeLayerOutOfRange, msgLayerOutOfRange, c.ID, c.Layer, l.TotalLayers-1)
		}
	}

	// 6. 位置の重なり（レイヤーを問わない）
	checkPositionOverlaps(l.Cards, result)

	// 7, 8. 不規則図形
	checkIrregularShapes(l, result)

	// 9. カードが図形内にあるか
	checkCardsInShapes(l, result)

	// 10. 解けるかどうかの簡易チェック
	checkSolvability(l.Cards, result)

	result.IsValid = len(result.Errors) == 0
	return result
}

func checkTypeCounts(l *level.Level, result *ValidationResult) {
	for _, c := range l.Cards {
		result.TypeCounts[c.Type]++
	}
	result.UniqueTypes = len(result.TypeCounts)

	for _, t := range sortedKeys(result.TypeCounts) {
		if n := result.TypeCounts[t]; n%MatchSize != 0 {
			result.addError(CodeTypeCount, msgTypeCount, t, n)
		}
	}
}

// checkPositionOverlaps は全ペアを比較して重なりを検出する（O(n²)）
// 配置時の占有判定とは異なり、レイヤーを区別しない
func checkPositionOverlaps(cards []level.Card, result *ValidationResult) {
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			if cards[i].Position.Distance(cards[j].Position) < OverlapEpsilon {
				result.addError(CodePositionOverlap, msgPositionOverlap, cards[i].ID, cards[j].ID)
			}
		}
	}
}

func checkIrregularShapes(l *level.Level, result *ValidationResult) {
	area := l.ActualAreaSize()
	halfW, halfH := area.X/2, area.Y/2

	for _, s := range l.Shapes {
		result.LayerShapeCounts[s.Layer]++

		if len(s.Vertices) < 3 {
			result.addError(CodeShapeTooFewVerts, msgShapeTooFewVerts, s.Layer)
		}

		for _, v := range s.Vertices {
			if math.Abs(v.X) > halfW || math.Abs(v.Y) > halfH {
				result.addWarning(CodeShapeOutOfBounds, msgShapeOutOfBounds, s.Layer, v)
			}
		}
	}

	for layer := 0; layer < l.TotalLayers; layer++ {
		if l.ActiveShapeCount(layer) == 0 {
			result.addWarning(CodeLayerNoShape, msgLayerNoShape, layer)
		}
	}
}

func checkCardsInShapes(l *level.Level, result *ValidationResult) {
	for _, c := range l.Cards {
		if !polygon.IsInAnyActiveShapeForLayer(c.Position, c.Layer, l.Shapes) {
			result.addWarning(CodeCardOutsideShape, msgCardOutsideShape, c.ID, c.Layer)
		}
	}
}

// checkSolvability は簡易的な可解性チェック
// 本物のソルバーではなく、疑わしい配置を警告するだけ
func checkSolvability(cards []level.Card, result *ValidationResult) {
	layerCounts := map[int]int{}
	for _, c := range cards {
		layerCounts[c.Layer]++
	}

	if len(layerCounts) > 0 {
		topLayer := math.MinInt
		for layer := range layerCounts {
			if layer > topLayer {
				topLayer = layer
			}
		}
		if n := layerCounts[topLayer]; n < MatchSize {
			result.addWarning(CodeTopLayerSparse, msgTopLayerSparse, n)
		}
	}

	checkBlockedCards(cards, result)
}

// checkBlockedCards は完全に同じ位置に積まれたカードの組を調べる
// 隣接するレイヤー差が1以下なら、上のカードが下のカードに塞がれている可能性がある
func checkBlockedCards(cards []level.Card, result *ValidationResult) {
	groups := map[level.Vec2][]level.Card{}
	var order []level.Vec2
	for _, c := range cards {
		if _, ok := groups[c.Position]; !ok {
			order = append(order, c.Position)
		}
		groups[c.Position] = append(groups[c.Position], c)
	}

	for _, pos := range order {
		group := groups[pos]
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Layer < group[j].Layer
		})
		for i := 0; i < len(group)-1; i++ {
			if group[i+1].Layer-group[i].Layer <= 1 {
				result.addWarning(CodeCardMayBeBlocked, msgCardMayBeBlocked, group[i+1].ID, group[i].ID)
			}
		}
	}
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
