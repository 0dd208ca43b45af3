// Package polygon は点と多角形の包含判定を提供する
package polygon

import "github.com/zurustar/sheepedit/pkg/level"

// PointInPolygon は点が単純多角形（凹多角形も可）の内部にあるかを判定する
//
// 偶奇規則のレイキャスティング法を使用する。点から水平方向に伸ばした半直線が
// 辺 (i, j=i-1) と交差するたびに内外を反転させる。
// 頂点が3個未満の場合は常に false を返す。
// 辺上の点の判定結果は実装依存であり、特別扱いはしない。
func PointInPolygon(point level.Vec2, vertices []level.Vec2) bool {
	if len(vertices) < 3 {
		return false
	}

	inside := false
	j := len(vertices) - 1
	for i := 0; i < len(vertices); i++ {
		vi, vj := vertices[i], vertices[j]
		if (vi.Y > point.Y) != (vj.Y > point.Y) {
			xIntersect := (vj.X-vi.X)*(point.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if point.X < xIntersect {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// IsInAnyActiveShapeForLayer は指定レイヤーの有効な図形のいずれかに点が含まれるかを判定する
func IsInAnyActiveShapeForLayer(point level.Vec2, layer int, shapes []level.IrregularShape) bool {
	for _, s := range shapes {
		if s.Layer != layer || !s.IsActive {
			continue
		}
		if PointInPolygon(point, s.Vertices) {
			return true
		}
	}
	return false
}
