package validator

import (
	"fmt"

	"golang.org/x/text/message"
)

// IssueCode は検出された問題の種類を表す
type IssueCode string

const (
	// エラー（ゲームとして成立しない）
	CodeEmptyLevel       IssueCode = "EMPTY_LEVEL"
	CodeTypeCount        IssueCode = "TYPE_COUNT"
	CodeTotalCount       IssueCode = "TOTAL_COUNT"
	CodeNoLayers         IssueCode = "NO_LAYERS"
	CodeLayerOutOfRange  IssueCode = "LAYER_OUT_OF_RANGE"
	CodePositionOverlap  IssueCode = "POSITION_OVERLAP"
	CodeShapeTooFewVerts IssueCode = "SHAPE_TOO_FEW_VERTICES"

	// 警告（使用可能だが確認が必要）
	CodeShapeOutOfBounds IssueCode = "SHAPE_VERTEX_OUT_OF_BOUNDS"
	CodeLayerNoShape     IssueCode = "LAYER_WITHOUT_SHAPE"
	CodeCardOutsideShape IssueCode = "CARD_OUTSIDE_SHAPE"
	CodeTopLayerSparse   IssueCode = "TOP_LAYER_SPARSE"
	CodeCardMayBeBlocked IssueCode = "CARD_MAY_BE_BLOCKED"
)

// 問題メッセージの書式（英語）
// 翻訳カタログのキーとしても使用する
const (
	msgEmptyLevel       = "level has no cards"
	msgTypeCount        = "card type %d count (%d) is not a multiple of 3"
	msgTotalCount       = "total card count (%d) is not a multiple of 3"
	msgNoLayers         = "total layers must be greater than 0"
	msgLayerOutOfRange  = "card %d layer (%d) is out of range [0, %d]"
	msgPositionOverlap  = "cards %d and %d overlap"
	msgShapeTooFewVerts = "irregular shape on layer %d has too few vertices (at least 3 required)"
	msgShapeOutOfBounds = "irregular shape on layer %d has vertex %v outside the area"
	msgLayerNoShape     = "layer %d has no irregular shape; cards can be placed anywhere"
	msgCardOutsideShape = "card %d on layer %d is not inside any irregular shape"
	msgTopLayerSparse   = "top layer has only %d cards; the game may not be startable"
	msgCardMayBeBlocked = "card %d may be blocked by card %d"
)

// Issue は検証で見つかった1件の問題
type Issue struct {
	Code   IssueCode
	Format string
	Args   []any
}

func newIssue(code IssueCode, format string, args ...any) Issue {
	return Issue{Code: code, Format: format, Args: args}
}

// String は英語のメッセージを返す
func (i Issue) String() string {
	return fmt.Sprintf(i.Format, i.Args...)
}

// Localize は指定したプリンターの言語でメッセージを返す
func (i Issue) Localize(p *message.Printer) string {
	return p.Sprintf(i.Format, i.Args...)
}
