package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/zurustar/sheepedit/pkg/level"
)

// バイナリエクスポートはリトルエンディアン
//
//	string  levelName   (7bit可変長の長さ + UTF-8)
//	int32   levelId
//	int32   totalLayers
//	float32 gridSize.x, gridSize.y
//	float32 cardSpacing
//	float32 cardSize
//	int32   cardCount
//	  int32 id, int32 type, float32 x, float32 y, int32 layer, bool isVisible
//	int32   shapeCount
//	  int32 layer, bool isActive, int32 vertexCount, (float32 x, float32 y)...
//
// 実数は float32 に丸められる。

// maxBinaryCount は読み込み時に受け付ける要素数の上限
const maxBinaryCount = 1 << 20

type binWriter struct {
	w   *bytes.Buffer
	err error
}

func (b *binWriter) write(v any) {
	if b.err != nil {
		return
	}
	b.err = binary.Write(b.w, binary.LittleEndian, v)
}

func (b *binWriter) int32(v int) {
	if b.err == nil && (v < math.MinInt32 || v > math.MaxInt32) {
		b.err = fmt.Errorf("value %d out of int32 range", v)
	}
	b.write(int32(v))
}

func (b *binWriter) float32(v float64) { b.write(float32(v)) }
func (b *binWriter) bool(v bool)       { b.write(v) }

func (b *binWriter) string(s string) {
	if b.err != nil {
		return
	}
	b.w.Write(binary.AppendUvarint(nil, uint64(len(s))))
	b.w.WriteString(s)
}

// EncodeBinary はステージをバイナリ形式にする
func EncodeBinary(l *level.Level) ([]byte, error) {
	w := &binWriter{w: &bytes.Buffer{}}

	w.string(l.Name)
	w.int32(l.ID)
	w.int32(l.TotalLayers)
	w.float32(l.GridSize.X)
	w.float32(l.GridSize.Y)
	w.float32(l.CardSpacing)
	w.float32(l.CardSize)

	w.int32(len(l.Cards))
	for _, c := range l.Cards {
		w.int32(c.ID)
		w.int32(c.Type)
		w.float32(c.Position.X)
		w.float32(c.Position.Y)
		w.int32(c.Layer)
		w.bool(c.IsVisible)
	}

	w.int32(len(l.Shapes))
	for _, s := range l.Shapes {
		w.int32(s.Layer)
		w.bool(s.IsActive)
		w.int32(len(s.Vertices))
		for _, v := range s.Vertices {
			w.float32(v.X)
			w.float32(v.Y)
		}
	}

	if w.err != nil {
		return nil, fmt.Errorf("failed to encode level %d as binary: %w", l.ID, w.err)
	}
	return w.w.Bytes(), nil
}

type binReader struct {
	r   *bufio.Reader
	err error
}

func (b *binReader) read(v any) {
	if b.err != nil {
		return
	}
	b.err = binary.Read(b.r, binary.LittleEndian, v)
}

func (b *binReader) int32() int {
	var v int32
	b.read(&v)
	return int(v)
}

func (b *binReader) float32() float64 {
	var v float32
	b.read(&v)
	return float64(v)
}

func (b *binReader) bool() bool {
	var v bool
	b.read(&v)
	return v
}

func (b *binReader) count() int {
	n := b.int32()
	if b.err == nil && (n < 0 || n > maxBinaryCount) {
		b.err = fmt.Errorf("invalid element count %d", n)
	}
	if b.err != nil {
		return 0
	}
	return n
}

func (b *binReader) string() string {
	if b.err != nil {
		return ""
	}
	n, err := binary.ReadUvarint(b.r)
	if err != nil {
		b.err = err
		return ""
	}
	if n > maxBinaryCount {
		b.err = fmt.Errorf("invalid string length %d", n)
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		b.err = err
		return ""
	}
	return string(buf)
}

// DecodeBinary はバイナリエクスポートからステージを復元する
func DecodeBinary(data []byte) (*level.Level, error) {
	r := &binReader{r: bufio.NewReader(bytes.NewReader(data))}

	l := &level.Level{
		Name:        r.string(),
		ID:          r.int32(),
		TotalLayers: r.int32(),
	}
	l.GridSize = level.Vec2{X: r.float32(), Y: r.float32()}
	l.CardSpacing = r.float32()
	l.CardSize = r.float32()

	n := r.count()
	for i := 0; i < n && r.err == nil; i++ {
		c := level.Card{ID: r.int32(), Type: r.int32()}
		c.Position = level.Vec2{X: r.float32(), Y: r.float32()}
		c.Layer = r.int32()
		c.IsVisible = r.bool()
		l.AddCard(c)
	}

	n = r.count()
	for i := 0; i < n && r.err == nil; i++ {
		s := level.IrregularShape{Layer: r.int32(), IsActive: r.bool(), Color: level.White}
		vn := r.count()
		s.Vertices = make([]level.Vec2, 0, vn)
		for j := 0; j < vn && r.err == nil; j++ {
			s.Vertices = append(s.Vertices, level.Vec2{X: r.float32(), Y: r.float32()})
		}
		l.AddShape(s)
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLevelUnreadable, r.err)
	}
	l.Normalize()
	return l, nil
}
