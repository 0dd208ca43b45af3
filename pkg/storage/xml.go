package storage

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/zurustar/sheepedit/pkg/level"
)

// xmlLevel はXMLエクスポートのレイアウト
// 座標は "x,y" 形式の文字列で表す
type xmlLevel struct {
	XMLName     xml.Name   `xml:"LevelData"`
	Name        string     `xml:"levelName"`
	ID          int        `xml:"levelId"`
	TotalLayers int        `xml:"totalLayers"`
	GridSize    string     `xml:"gridSize"`
	CardSpacing float64    `xml:"cardSpacing"`
	CardSize    float64    `xml:"cardSize"`
	Cards       []xmlCard  `xml:"cards>card"`
	Shapes      []xmlShape `xml:"irregularShapes>shape"`
}

type xmlCard struct {
	ID        int    `xml:"id"`
	Type      int    `xml:"type"`
	Position  string `xml:"position"`
	Layer     int    `xml:"layer"`
	IsVisible bool   `xml:"isVisible"`
}

type xmlShape struct {
	Layer    int      `xml:"layer,attr"`
	IsActive bool     `xml:"isActive,attr"`
	Vertices []string `xml:"vertex"`
}

func formatPair(v level.Vec2) string {
	return strconv.FormatFloat(v.X, 'g', -1, 64) + "," + strconv.FormatFloat(v.Y, 'g', -1, 64)
}

func parsePair(s string) (level.Vec2, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return level.Vec2{}, fmt.Errorf("invalid coordinate %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return level.Vec2{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return level.Vec2{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	return level.Vec2{X: x, Y: y}, nil
}

// EncodeXML はステージをXMLにする
func EncodeXML(l *level.Level) ([]byte, error) {
	doc := xmlLevel{
		Name:        l.Name,
		ID:          l.ID,
		TotalLayers: l.TotalLayers,
		GridSize:    formatPair(l.GridSize),
		CardSpacing: l.CardSpacing,
		CardSize:    l.CardSize,
	}
	for _, c := range l.Cards {
		doc.Cards = append(doc.Cards, xmlCard{
			ID:        c.ID,
			Type:      c.Type,
			Position:  formatPair(c.Position),
			Layer:     c.Layer,
			IsVisible: c.IsVisible,
		})
	}
	for _, s := range l.Shapes {
		xs := xmlShape{Layer: s.Layer, IsActive: s.IsActive}
		for _, v := range s.Vertices {
			xs.Vertices = append(xs.Vertices, formatPair(v))
		}
		doc.Shapes = append(doc.Shapes, xs)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode level %d as xml: %w", l.ID, err)
	}
	return append([]byte(xml.Header), data...), nil
}

// DecodeXML はXMLエクスポートからステージを復元する
// XMLに含まれない項目（色や領域設定）は既定値になる
func DecodeXML(data []byte) (*level.Level, error) {
	var doc xmlLevel
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLevelUnreadable, err)
	}

	gridSize, err := parsePair(doc.GridSize)
	if err != nil {
		return nil, fmt.Errorf("%w: gridSize: %v", ErrLevelUnreadable, err)
	}

	l := &level.Level{
		Name:        doc.Name,
		ID:          doc.ID,
		TotalLayers: doc.TotalLayers,
		GridSize:    gridSize,
		CardSpacing: doc.CardSpacing,
		CardSize:    doc.CardSize,
	}
	for _, xc := range doc.Cards {
		pos, err := parsePair(xc.Position)
		if err != nil {
			return nil, fmt.Errorf("%w: card %d: %v", ErrLevelUnreadable, xc.ID, err)
		}
		l.AddCard(level.Card{ID: xc.ID, Type: xc.Type, Position: pos, Layer: xc.Layer, IsVisible: xc.IsVisible})
	}
	for _, xs := range doc.Shapes {
		shape := level.IrregularShape{Layer: xs.Layer, IsActive: xs.IsActive, Color: level.White, Vertices: []level.Vec2{}}
		for _, v := range xs.Vertices {
			p, err := parsePair(v)
			if err != nil {
				return nil, fmt.Errorf("%w: shape on layer %d: %v", ErrLevelUnreadable, xs.Layer, err)
			}
			shape.Vertices = append(shape.Vertices, p)
		}
		l.AddShape(shape)
	}
	l.Normalize()
	return l, nil
}
