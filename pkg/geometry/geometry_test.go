package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/plate-cropper/pkg/types"
)

var preview = types.DisplayBox{Left: 20, Top: 10, Width: 400, Height: 300}

func TestNormalize(t *testing.T) {
	fx, fy, ok := Normalize(120, 85, preview)
	require.True(t, ok)
	assert.InDelta(t, 0.25, fx, 1e-9)
	assert.InDelta(t, 0.25, fy, 1e-9)
}

func TestNormalizeClampsOutside(t *testing.T) {
	points := [][2]float64{
		{-500, -500}, {0, 0}, {1000, 5}, {5, 1000}, {2000, 2000}, {-1, 150},
	}
	for _, p := range points {
		fx, fy, ok := Normalize(p[0], p[1], preview)
		require.True(t, ok)
		assert.GreaterOrEqual(t, fx, 0.0)
		assert.LessOrEqual(t, fx, 1.0)
		assert.GreaterOrEqual(t, fy, 0.0)
		assert.LessOrEqual(t, fy, 1.0)
	}

	for _, p := range [][2]float64{
		{math.NaN(), 10}, {10, math.NaN()}, {math.Inf(1), 10}, {10, math.Inf(-1)},
	} {
		_, _, ok := Normalize(p[0], p[1], preview)
		assert.False(t, ok, "point %v should be rejected", p)
	}
}

func TestClampNaN(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 1))
	assert.Equal(t, 1.0, Clamp(math.Inf(1), 0, 1))
	b := ClampBox(types.Box{X: math.NaN(), Y: 0.5, W: math.NaN(), H: 0.2})
	assert.Equal(t, 0.0, b.X)
	assert.Equal(t, 0.0, b.W)
}

func TestNormalizeZeroSizeBox(t *testing.T) {
	for _, box := range []types.DisplayBox{
		{Width: 0, Height: 300},
		{Width: 400, Height: 0},
		{},
	} {
		_, _, ok := Normalize(10, 10, box)
		assert.False(t, ok, "box %+v should be rejected", box)
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	for px := preview.Left; px <= preview.Left+preview.Width; px += 17 {
		for py := preview.Top; py <= preview.Top+preview.Height; py += 13 {
			fx, fy, ok := Normalize(px, py, preview)
			require.True(t, ok)
			gx, gy := ToDisplayPixels(fx, fy, preview)
			assert.LessOrEqual(t, math.Abs(gx-px), 1.0)
			assert.LessOrEqual(t, math.Abs(gy-py), 1.0)
		}
	}
}

func TestToSourcePixelsIgnoresDisplayScale(t *testing.T) {
	sx, sy := ToSourcePixels(0.25, 0.5, types.Dims{Width: 800, Height: 600})
	assert.Equal(t, 200, sx)
	assert.Equal(t, 300, sy)
}

func TestSpan(t *testing.T) {
	b := Span(0.75, 0.75, 0.25, 0.25)
	assert.InDelta(t, 0.25, b.X, 1e-9)
	assert.InDelta(t, 0.25, b.Y, 1e-9)
	assert.InDelta(t, 0.5, b.W, 1e-9)
	assert.InDelta(t, 0.5, b.H, 1e-9)
}

func TestClampBox(t *testing.T) {
	b := ClampBox(types.Box{X: 0.8, Y: -0.2, W: 0.5, H: 2})
	assert.InDelta(t, 0.8, b.X, 1e-9)
	assert.InDelta(t, 0.0, b.Y, 1e-9)
	assert.LessOrEqual(t, b.X+b.W, 1.0)
	assert.LessOrEqual(t, b.Y+b.H, 1.0)
}

func TestSourceRect(t *testing.T) {
	dims := types.Dims{Width: 800, Height: 600}
	r := SourceRect(types.Box{X: 0.25, Y: 0.25, W: 0.25, H: 0.25}, dims)
	assert.Equal(t, 200, r.Min.X)
	assert.Equal(t, 150, r.Min.Y)
	assert.Equal(t, 200, r.Dx())
	assert.Equal(t, 150, r.Dy())
}

func TestSourceRectSizeMatchesRounding(t *testing.T) {
	dims := types.Dims{Width: 333, Height: 97}
	boxes := []types.Box{
		{X: 0.0015, Y: 0.0049, W: 0.9985, H: 0.9951},
		{X: 0.501, Y: 0.333, W: 0.499, H: 0.667},
		{X: 0.1234, Y: 0.4321, W: 0.3333, H: 0.2222},
	}
	for _, b := range boxes {
		r := SourceRect(b, dims)
		assert.Equal(t, int(math.Round(b.W*333)), r.Dx())
		assert.Equal(t, int(math.Round(b.H*97)), r.Dy())
		assert.GreaterOrEqual(t, r.Min.X, 0)
		assert.GreaterOrEqual(t, r.Min.Y, 0)
		assert.LessOrEqual(t, r.Max.X, 333)
		assert.LessOrEqual(t, r.Max.Y, 97)
	}
}

func TestDisplayRect(t *testing.T) {
	left, top, w, h := DisplayRect(types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}, preview)
	assert.InDelta(t, 120, left, 1e-9)
	assert.InDelta(t, 85, top, 1e-9)
	assert.InDelta(t, 200, w, 1e-9)
	assert.InDelta(t, 150, h, 1e-9)
}

func TestFitInside(t *testing.T) {
	w, h := FitInside(types.Dims{Width: 800, Height: 600}, 400, 400)
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)

	w, h = FitInside(types.Dims{Width: 200, Height: 100}, 400, 400)
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)
}

func BenchmarkNormalize(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Normalize(float64(i%400), float64(i%300), preview)
	}
}
