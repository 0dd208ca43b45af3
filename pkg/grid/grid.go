// Package grid はワールド座標とグリッド座標の変換、配置領域の判定を行う
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/zurustar/sheepedit/pkg/level"
)

// ErrInvalidArgument は前提条件を満たさない引数が渡された場合のエラー
var ErrInvalidArgument = errors.New("invalid argument")

// 境界判定の規約
//
// 配置領域は原点を中心とする矩形で、サイズは level.Level.ActualAreaSize() で求める。
//   - 半径: (areaSize.X / 2, areaSize.Y / 2)
//   - 境界上の点（|x| == areaSize.X / 2）は領域内とみなす
//   - 領域サイズは常に gridSize * cardSpacing（カスタムサイズ未使用時）で計算し、
//     (gridSize - 1) * cardSpacing は使わない

// SnapToGrid は座標を最も近いグリッド交点に揃える
// 各軸を独立に round(v / spacing) * spacing で計算する
func SnapToGrid(position level.Vec2, spacing float64) (level.Vec2, error) {
	if spacing <= 0 || math.IsNaN(spacing) || math.IsInf(spacing, 0) {
		return level.Vec2{}, fmt.Errorf("%w: spacing must be positive, got %v", ErrInvalidArgument, spacing)
	}
	return level.Vec2{
		X: math.Round(position.X/spacing) * spacing,
		Y: math.Round(position.Y/spacing) * spacing,
	}, nil
}

// IsInBounds は座標が配置領域内にあるかを判定する（境界を含む）
func IsInBounds(position level.Vec2, actualAreaSize level.Vec2) bool {
	return math.Abs(position.X) <= actualAreaSize.X/2 && math.Abs(position.Y) <= actualAreaSize.Y/2
}

// IsOccupied は同じレイヤーに cardSize/2 未満の距離でカードが存在するかを判定する
// 別レイヤーのカードは配置を妨げない（同じ位置への積み重ねは意図された挙動）
func IsOccupied(position level.Vec2, layer int, cards []level.Card, cardSize float64) bool {
	radius := cardSize / 2
	for _, c := range cards {
		if c.Layer == layer && c.Position.Distance(position) < radius {
			return true
		}
	}
	return false
}

// NearestCard は cardSize/2 未満の距離にある最も近いカードを返す（全レイヤー対象）
// 該当するカードがなければ false を返す
func NearestCard(position level.Vec2, cards []level.Card, cardSize float64) (level.Card, bool) {
	radius := cardSize / 2
	best := -1
	bestDist := math.MaxFloat64
	for i, c := range cards {
		d := c.Position.Distance(position)
		if d < radius && d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return level.Card{}, false
	}
	return cards[best], true
}
