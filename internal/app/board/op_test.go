package board

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampWidth(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 1},
		{-5, 1},
		{500, 64},
		{6, 6},
		{1, 1},
		{64, 64},
		{0.5, 1},
		{math.NaN(), 1},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClampWidth(tc.in), "width %v", tc.in)
	}
}

func TestNormalizeTool(t *testing.T) {
	assert.Equal(t, ToolEraser, NormalizeTool("eraser"))
	assert.Equal(t, ToolBrush, NormalizeTool("brush"))
	assert.Equal(t, ToolBrush, NormalizeTool(""))
	assert.Equal(t, ToolBrush, NormalizeTool("spraycan"))
}

func TestNormalizeColor(t *testing.T) {
	assert.Equal(t, DefaultStrokeColor, NormalizeColor(""))
	assert.Equal(t, "#111827", NormalizeColor("#111827"))
}
