package grid

import (
	"errors"
	"testing"

	"github.com/zurustar/sheepedit/pkg/level"
)

func TestSnapToGrid(t *testing.T) {
	tests := []struct {
		name     string
		position level.Vec2
		spacing  float64
		expected level.Vec2
	}{
		{"origin", level.Vec2{X: 0, Y: 0}, 1, level.Vec2{X: 0, Y: 0}},
		{"round down", level.Vec2{X: 1.2, Y: 2.4}, 1, level.Vec2{X: 1, Y: 2}},
		{"round up", level.Vec2{X: 1.6, Y: 2.7}, 1, level.Vec2{X: 2, Y: 3}},
		{"negative", level.Vec2{X: -1.6, Y: -0.2}, 1, level.Vec2{X: -2, Y: 0}},
		{"half spacing", level.Vec2{X: 0.74, Y: 0.76}, 0.5, level.Vec2{X: 0.5, Y: 1}},
		{"axes independent", level.Vec2{X: 3.9, Y: -3.9}, 2, level.Vec2{X: 4, Y: -4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SnapToGrid(tt.position, tt.spacing)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSnapToGrid_InvalidSpacing(t *testing.T) {
	for _, spacing := range []float64{0, -1, -0.5} {
		_, err := SnapToGrid(level.Vec2{X: 1, Y: 1}, spacing)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("spacing %v: expected ErrInvalidArgument, got %v", spacing, err)
		}
	}
}

func TestIsInBounds(t *testing.T) {
	area := level.Vec2{X: 8, Y: 4}

	tests := []struct {
		name     string
		position level.Vec2
		expected bool
	}{
		{"center", level.Vec2{X: 0, Y: 0}, true},
		{"inside", level.Vec2{X: 3, Y: -1.5}, true},
		{"right edge", level.Vec2{X: 4, Y: 0}, true},
		{"corner", level.Vec2{X: -4, Y: -2}, true},
		{"beyond right", level.Vec2{X: 4.01, Y: 0}, false},
		{"beyond top", level.Vec2{X: 0, Y: 2.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInBounds(tt.position, area); got != tt.expected {
				t.Errorf("IsInBounds(%v) = %v, expected %v", tt.position, got, tt.expected)
			}
		})
	}
}

func TestIsOccupied(t *testing.T) {
	cards := []level.Card{
		{ID: 1, Position: level.Vec2{X: 0, Y: 0}, Layer: 0},
		{ID: 2, Position: level.Vec2{X: 2, Y: 0}, Layer: 1},
	}

	tests := []struct {
		name     string
		position level.Vec2
		layer    int
		expected bool
	}{
		{"same position same layer", level.Vec2{X: 0, Y: 0}, 0, true},
		{"close on same layer", level.Vec2{X: 0.3, Y: 0}, 0, true},
		{"exactly half card size", level.Vec2{X: 0.4, Y: 0}, 0, false},
		{"same position other layer", level.Vec2{X: 0, Y: 0}, 1, false},
		{"other card layer", level.Vec2{X: 2, Y: 0}, 1, true},
		{"empty spot", level.Vec2{X: 5, Y: 5}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOccupied(tt.position, tt.layer, cards, 0.8); got != tt.expected {
				t.Errorf("IsOccupied(%v, %d) = %v, expected %v", tt.position, tt.layer, got, tt.expected)
			}
		})
	}
}

func TestNearestCard(t *testing.T) {
	cards := []level.Card{
		{ID: 1, Position: level.Vec2{X: 0, Y: 0}, Layer: 0},
		{ID: 2, Position: level.Vec2{X: 0.5, Y: 0}, Layer: 2},
	}

	c, ok := NearestCard(level.Vec2{X: 0.4, Y: 0}, cards, 1)
	if !ok {
		t.Fatal("Expected to find a card")
	}
	if c.ID != 2 {
		t.Errorf("Expected nearest card 2, got %d", c.ID)
	}

	if _, ok := NearestCard(level.Vec2{X: 3, Y: 3}, cards, 1); ok {
		t.Error("Expected no card far away")
	}
}
