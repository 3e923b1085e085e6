package math32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Mixed", []float32{1, -1, 2}, []float32{1, 1, -2}, -4},
		{"Empty", []float32{}, []float32{}, 0},
		{"Single", []float32{2}, []float32{3}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dot(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 27},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1}, []float32{-1, 1}, 8}, // (1 - -1)^2 + (-1 - 1)^2 = 4 + 4 = 8
		{"Empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SquaredL2(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestScaleInPlace(t *testing.T) {
	v := []float32{1, 2, 4}
	ScaleInPlace(v, 0.5)
	assert.Equal(t, []float32{0.5, 1, 2}, v)
}

func TestSqrt(t *testing.T) {
	assert.InDelta(t, 3.0, Sqrt(9), 1e-6)
	assert.InDelta(t, 0.0, Sqrt(0), 1e-6)
}
