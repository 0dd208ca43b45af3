package level

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// PresetKind はプリセット図形の種類
type PresetKind int

const (
	PresetCircle PresetKind = iota
	PresetStar
	PresetRectangle
	PresetTriangle
)

var presetNames = map[PresetKind]string{
	PresetCircle:    "circle",
	PresetStar:      "star",
	PresetRectangle: "rectangle",
	PresetTriangle:  "triangle",
}

// String はプリセット名を返す
func (k PresetKind) String() string {
	if name, ok := presetNames[k]; ok {
		return name
	}
	return fmt.Sprintf("preset(%d)", int(k))
}

// ParsePresetKind は名前からプリセット種別を取得する（大文字小文字を無視）
func ParsePresetKind(name string) (PresetKind, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for k, n := range presetNames {
		if n == lower {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown preset shape: %s", name)
}

// presets は元のエディタに組み込まれていたプリセット図形
func presets() map[PresetKind]IrregularShape {
	circle := IrregularShape{Layer: 0, Color: Cyan, IsActive: true}
	for i := 0; i < 16; i++ {
		angle := float64(i) * 22.5 * math.Pi / 180
		circle.Vertices = append(circle.Vertices, Vec2{X: math.Cos(angle) * 3, Y: math.Sin(angle) * 3})
	}

	star := IrregularShape{Layer: 1, Color: Magenta, IsActive: true}
	for i := 0; i < 10; i++ {
		angle := float64(i) * 36 * math.Pi / 180
		radius := 2.0
		if i%2 == 0 {
			radius = 4.0
		}
		star.Vertices = append(star.Vertices, Vec2{X: math.Cos(angle) * radius, Y: math.Sin(angle) * radius})
	}

	return map[PresetKind]IrregularShape{
		PresetCircle: circle,
		PresetStar:   star,
		PresetRectangle: {
			Layer:    2,
			Color:    Yellow,
			IsActive: true,
			Vertices: []Vec2{{X: -3, Y: -2}, {X: 3, Y: -2}, {X: 3, Y: 2}, {X: -3, Y: 2}},
		},
		PresetTriangle: {
			Layer:    0,
			Color:    Green,
			IsActive: true,
			Vertices: []Vec2{{X: 0, Y: 3}, {X: -2.5, Y: -2}, {X: 2.5, Y: -2}},
		},
	}
}

// PresetShape はプリセット図形のコピーを指定レイヤーに割り当てて返す
// rngがnilでなければ各頂点に [-1, 1) の一様乱数オフセットを加える
func PresetShape(kind PresetKind, layer int, rng *rand.Rand) (IrregularShape, error) {
	base, ok := presets()[kind]
	if !ok {
		return IrregularShape{}, fmt.Errorf("unknown preset shape: %d", int(kind))
	}

	shape := IrregularShape{
		Layer:    layer,
		Color:    base.Color,
		IsActive: true,
		Vertices: make([]Vec2, len(base.Vertices)),
	}
	for i, v := range base.Vertices {
		if rng != nil {
			v = v.Add(Vec2{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1})
		}
		shape.Vertices[i] = v
	}
	return shape, nil
}
