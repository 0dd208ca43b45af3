// Package level はステージ（関卡）のデータモデルを提供する
package level

import (
	"fmt"
	"math"
)

// Vec2 は2次元座標を表す
// JSON表現は元のエディタが出力する {"x":..,"y":..} と互換
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Sub はベクトルの差を返す
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Add はベクトルの和を返す
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Distance は2点間のユークリッド距離を返す
func (v Vec2) Distance(o Vec2) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// String は "(x, y)" 形式の文字列を返す
func (v Vec2) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// Color はRGBA色（各成分 0..1）を表す
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}

// よく使う色
var (
	White   = Color{R: 1, G: 1, B: 1, A: 1}
	Grayed  = Color{R: 0.5, G: 0.5, B: 0.5, A: 0.5}
	Green   = Color{R: 0, G: 1, B: 0, A: 1}
	Cyan    = Color{R: 0, G: 1, B: 1, A: 1}
	Magenta = Color{R: 1, G: 0, B: 1, A: 1}
	Yellow  = Color{R: 1, G: 0.92, B: 0.016, A: 1}
)

// Card は配置されたカードを表す
type Card struct {
	ID            int   `json:"id" yaml:"id"`
	Type          int   `json:"type" yaml:"type"`         // カードの種類（色）
	Position      Vec2  `json:"position" yaml:"position"` // 2D位置
	Layer         int   `json:"layer" yaml:"layer"`       // レイヤー
	IsVisible     bool  `json:"isVisible" yaml:"isVisible"`
	BlockingCards []int `json:"blockingCards" yaml:"blockingCards"` // このカードを塞いでいるカードIDの一覧
}

// IrregularShape は特定レイヤーの配置可能領域を制限する多角形
type IrregularShape struct {
	Layer    int    `json:"layer" yaml:"layer"`
	Vertices []Vec2 `json:"vertices" yaml:"vertices"`
	Color    Color  `json:"shapeColor" yaml:"shapeColor"`
	IsActive bool   `json:"isActive" yaml:"isActive"`
}

// Level はステージ全体を表す
// カードと図形はステージが所有する
type Level struct {
	Name              string           `json:"levelName" yaml:"levelName"`
	ID                int              `json:"levelId" yaml:"levelId"`
	GridSize          Vec2             `json:"gridSize" yaml:"gridSize"` // グリッド点の数（整数値）
	CardSpacing       float64          `json:"cardSpacing" yaml:"cardSpacing"`
	CardSize          float64          `json:"cardSize" yaml:"cardSize"`
	TotalLayers       int              `json:"totalLayers" yaml:"totalLayers"`
	Cards             []Card           `json:"cards" yaml:"cards"`
	Shapes            []IrregularShape `json:"irregularShapes" yaml:"irregularShapes"`
	UseCustomAreaSize bool             `json:"useCustomAreaSize" yaml:"useCustomAreaSize"`
	AreaSize          Vec2             `json:"areaSize" yaml:"areaSize"`

	EnableLayerPreview bool  `json:"enableLayerPreview" yaml:"enableLayerPreview"`
	NormalLayerColor   Color `json:"normalLayerColor" yaml:"normalLayerColor"`
	GrayedLayerColor   Color `json:"grayedLayerColor" yaml:"grayedLayerColor"`
}

// Defaults は新規ステージの初期値
type Defaults struct {
	GridSize          Vec2    `yaml:"gridSize"`
	CardSpacing       float64 `yaml:"cardSpacing"`
	CardSize          float64 `yaml:"cardSize"`
	TotalLayers       int     `yaml:"totalLayers"`
	UseCustomAreaSize bool    `yaml:"useCustomAreaSize"`
	AreaSize          Vec2    `yaml:"areaSize"`
}

// DefaultDefaults は元のエディタと同じ初期値を返す
func DefaultDefaults() Defaults {
	return Defaults{
		GridSize:          Vec2{X: 8, Y: 8},
		CardSpacing:       1.2,
		CardSize:          0.8,
		TotalLayers:       3,
		UseCustomAreaSize: true,
		AreaSize:          Vec2{X: 16, Y: 16},
	}
}

// New は新しい空のステージを作成する
func New(id int, d Defaults) *Level {
	return &Level{
		Name:               FileStem(id),
		ID:                 id,
		GridSize:           d.GridSize,
		CardSpacing:        d.CardSpacing,
		CardSize:           d.CardSize,
		TotalLayers:        d.TotalLayers,
		Cards:              []Card{},
		Shapes:             []IrregularShape{},
		UseCustomAreaSize:  d.UseCustomAreaSize,
		AreaSize:           d.AreaSize,
		EnableLayerPreview: true,
		NormalLayerColor:   White,
		GrayedLayerColor:   Grayed,
	}
}

// FileStem はステージIDに対応するファイル名の拡張子を除いた部分を返す
func FileStem(id int) string {
	return fmt.Sprintf("Level2D_%d", id)
}

// ActualAreaSize は実際の配置領域サイズを返す
// 毎回計算し直すため、設定変更後に古い値が残ることはない
func (l *Level) ActualAreaSize() Vec2 {
	if l.UseCustomAreaSize {
		return l.AreaSize
	}
	// グリッドサイズはグリッド点の数なので、領域は gridSize * cardSpacing
	return Vec2{X: l.GridSize.X * l.CardSpacing, Y: l.GridSize.Y * l.CardSpacing}
}

// CardCount はカード数を返す
func (l *Level) CardCount() int {
	return len(l.Cards)
}

// ShapeCount は不規則図形の数を返す
func (l *Level) ShapeCount() int {
	return len(l.Shapes)
}

// ActiveShapeCount は指定レイヤーの有効な図形の数を返す
func (l *Level) ActiveShapeCount(layer int) int {
	n := 0
	for _, s := range l.Shapes {
		if s.Layer == layer && s.IsActive {
			n++
		}
	}
	return n
}

// NextCardID は次に使用するカードIDを返す（最大ID + 1）
func (l *Level) NextCardID() int {
	maxID := 0
	for _, c := range l.Cards {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	return maxID + 1
}

// AddCard はカードを末尾に追加する
func (l *Level) AddCard(c Card) {
	if c.BlockingCards == nil {
		c.BlockingCards = []int{}
	}
	l.Cards = append(l.Cards, c)
}

// FindCard はIDでカードを検索する
func (l *Level) FindCard(id int) (Card, bool) {
	for _, c := range l.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// RemoveCard は指定IDのカードを削除する
// 残りのカードの順序は保持される
func (l *Level) RemoveCard(id int) bool {
	for i, c := range l.Cards {
		if c.ID == id {
			l.Cards = append(l.Cards[:i], l.Cards[i+1:]...)
			return true
		}
	}
	return false
}

// ClearCards はすべてのカードを削除する
func (l *Level) ClearCards() {
	l.Cards = []Card{}
}

// AddShape は不規則図形を追加する
func (l *Level) AddShape(s IrregularShape) {
	l.Shapes = append(l.Shapes, s)
}

// RemoveShape はインデックスで図形を削除する
func (l *Level) RemoveShape(index int) bool {
	if index < 0 || index >= len(l.Shapes) {
		return false
	}
	l.Shapes = append(l.Shapes[:index], l.Shapes[index+1:]...)
	return true
}

// Normalize は読み込み直後のステージのnilスライスを空スライスに揃える
func (l *Level) Normalize() {
	if l.Cards == nil {
		l.Cards = []Card{}
	}
	if l.Shapes == nil {
		l.Shapes = []IrregularShape{}
	}
	for i := range l.Cards {
		if l.Cards[i].BlockingCards == nil {
			l.Cards[i].BlockingCards = []int{}
		}
	}
}
