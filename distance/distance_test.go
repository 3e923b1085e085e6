package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dot(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestCosineDistance(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	assert.InDelta(t, 0.0, CosineDistance(a, a), 1e-6)
	assert.InDelta(t, 1.0, CosineDistance(a, b), 1e-6)
	assert.InDelta(t, 2.0, CosineDistance(a, []float32{-1, 0}), 1e-6)
}

func TestNormalizeL2InPlace(t *testing.T) {
	t.Run("UnitNorm", func(t *testing.T) {
		v := []float32{3, 4}
		ok := NormalizeL2InPlace(v)
		require.True(t, ok)
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)

		norm := math.Sqrt(float64(Dot(v, v)))
		assert.InDelta(t, 1.0, norm, 1e-6)
	})

	t.Run("ZeroVectorUntouched", func(t *testing.T) {
		v := []float32{0, 0, 0}
		ok := NormalizeL2InPlace(v)
		require.False(t, ok)
		assert.Equal(t, []float32{0, 0, 0}, v)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.False(t, NormalizeL2InPlace(nil))
	})
}

func TestNormalizeL2Copy(t *testing.T) {
	src := []float32{0, 5}
	dst := NormalizeL2Copy(src)

	assert.Equal(t, []float32{0, 5}, src, "source must not be modified")
	assert.InDelta(t, 1.0, dst[1], 1e-6)

	zero := NormalizeL2Copy([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
