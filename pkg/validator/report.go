package validator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// レポート見出しの書式
const (
	msgReportTitle    = "=== Sheep 2D Level Validation Report ==="
	msgReportPassed   = "PASSED: level validation succeeded"
	msgReportFailed   = "FAILED: level validation failed"
	msgStatistics     = "Statistics:"
	msgTotalCards     = "Total cards: %d"
	msgUniqueTypes    = "Card types: %d"
	msgTotalShapes    = "Irregular shapes: %d"
	msgTypeBreakdown  = "Card type distribution:"
	msgTypeLine       = "Type %d: %d cards"
	msgShapeBreakdown = "Irregular shapes per layer:"
	msgShapeLine      = "Layer %d: %d shapes"
	msgErrorsHeader   = "Errors:"
	msgWarningsHeader = "Warnings:"
)

// 簡体字中国語の翻訳（元のエディタの表示言語）
var zhMessages = map[string]string{
	msgEmptyLevel:       "关卡没有卡片",
	msgTypeCount:        "卡片类型 %d 的数量 (%d) 不是3的倍数",
	msgTotalCount:       "总卡片数 (%d) 不是3的倍数",
	msgNoLayers:         "总层数必须大于0",
	msgLayerOutOfRange:  "卡片 %d 的层级 (%d) 超出范围 [0, %d]",
	msgPositionOverlap:  "卡片 %d 和 %d 位置重叠",
	msgShapeTooFewVerts: "不规则图形在层级 %d 的顶点数量不足 (需要至少3个顶点)",
	msgShapeOutOfBounds: "不规则图形在层级 %d 的顶点 %v 超出边界",
	msgLayerNoShape:     "层级 %d 没有不规则图形，卡片可以放置在任何位置",
	msgCardOutsideShape: "卡片 %d 在层级 %d 的位置不在任何不规则图形内",
	msgTopLayerSparse:   "顶层只有 %d 张卡片，可能无法开始游戏",
	msgCardMayBeBlocked: "卡片 %d 可能被卡片 %d 阻挡",

	msgReportTitle:    "=== 羊了个羊2D关卡验证报告 ===",
	msgReportPassed:   "通过: 2D关卡验证通过",
	msgReportFailed:   "失败: 2D关卡验证失败",
	msgStatistics:     "统计信息:",
	msgTotalCards:     "总卡片数: %d",
	msgUniqueTypes:    "卡片类型数: %d",
	msgTotalShapes:    "不规则图形数: %d",
	msgTypeBreakdown:  "卡片类型分布:",
	msgTypeLine:       "类型 %d: %d 张",
	msgShapeBreakdown: "不规则图形层级分布:",
	msgShapeLine:      "层级 %d: %d 个图形",
	msgErrorsHeader:   "错误:",
	msgWarningsHeader: "警告:",
}

func init() {
	for key, msg := range zhMessages {
		if err := message.SetString(language.SimplifiedChinese, key, msg); err != nil {
			panic(fmt.Sprintf("validator: register %q: %v", key, err))
		}
	}
}

// SupportedLocales はレポートが対応している言語
var SupportedLocales = []language.Tag{language.English, language.SimplifiedChinese}

// ParseLocale はロケール文字列を対応言語に合わせる
// 不明な文字列の場合は英語を返す
func ParseLocale(s string) language.Tag {
	if s == "" {
		return language.English
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	matcher := language.NewMatcher(SupportedLocales)
	_, index, _ := matcher.Match(tag)
	return SupportedLocales[index]
}

// Report は検証結果を人間が読める複数行のテキストにする
// 出力順は固定: 統計、種類別枚数、レイヤー別図形数、エラー、警告
func Report(result *ValidationResult, tag language.Tag) string {
	p := message.NewPrinter(tag)
	var buf strings.Builder

	line := func(key string, args ...any) {
		buf.WriteString(p.Sprintf(key, args...))
		buf.WriteString("\n")
	}

	line(msgReportTitle)
	if result.IsValid {
		line(msgReportPassed)
	} else {
		line(msgReportFailed)
	}

	buf.WriteString("\n")
	line(msgStatistics)
	line(msgTotalCards, result.TotalCards)
	line(msgUniqueTypes, result.UniqueTypes)
	line(msgTotalShapes, result.TotalShapes)

	buf.WriteString("\n")
	line(msgTypeBreakdown)
	for _, t := range sortedKeys(result.TypeCounts) {
		line(msgTypeLine, t, result.TypeCounts[t])
	}

	if len(result.LayerShapeCounts) > 0 {
		buf.WriteString("\n")
		line(msgShapeBreakdown)
		for _, layer := range sortedKeys(result.LayerShapeCounts) {
			line(msgShapeLine, layer, result.LayerShapeCounts[layer])
		}
	}

	if len(result.Errors) > 0 {
		buf.WriteString("\n")
		line(msgErrorsHeader)
		for _, issue := range result.Errors {
			buf.WriteString("  - ")
			buf.WriteString(issue.Localize(p))
			buf.WriteString("\n")
		}
	}

	if len(result.Warnings) > 0 {
		buf.WriteString("\n")
		line(msgWarningsHeader)
		for _, issue := range result.Warnings {
			buf.WriteString("  - ")
			buf.WriteString(issue.Localize(p))
			buf.WriteString("\n")
		}
	}

	return buf.String()
}
