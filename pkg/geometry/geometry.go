// Package geometry converts between display pixels, normalized fractions and
// source pixels. All functions are pure.
package geometry

import (
	"image"
	"math"

	"github.com/menta2k/plate-cropper/pkg/types"
)

// Normalize converts a pointer position in display pixels to fractions of the
// display box, clamped to [0,1]. ok is false when the box has no area or the
// position is not a finite number.
func Normalize(px, py float64, box types.DisplayBox) (fx, fy float64, ok bool) {
	if !box.Valid() || !finite(px) || !finite(py) {
		return 0, 0, false
	}
	fx = Clamp((px-box.Left)/box.Width, 0, 1)
	fy = Clamp((py-box.Top)/box.Height, 0, 1)
	return fx, fy, true
}

// ToDisplayPixels is the inverse of Normalize
func ToDisplayPixels(fx, fy float64, box types.DisplayBox) (float64, float64) {
	return box.Left + fx*box.Width, box.Top + fy*box.Height
}

// ToSourcePixels maps a fraction onto the natural pixel grid of the source
// image, independent of how the image is displayed.
func ToSourcePixels(fx, fy float64, dims types.Dims) (int, int) {
	sx := int(math.Round(Clamp(fx, 0, 1) * float64(dims.Width)))
	sy := int(math.Round(Clamp(fy, 0, 1) * float64(dims.Height)))
	return sx, sy
}

// Span returns the axis-aligned box spanning two normalized points
func Span(ax, ay, bx, by float64) types.Box {
	return ClampBox(types.Box{
		X: math.Min(ax, bx),
		Y: math.Min(ay, by),
		W: math.Abs(bx - ax),
		H: math.Abs(by - ay),
	})
}

// ClampBox forces a box into the unit square so that X+W <= 1 and Y+H <= 1
func ClampBox(b types.Box) types.Box {
	b.X = Clamp(b.X, 0, 1)
	b.Y = Clamp(b.Y, 0, 1)
	b.W = Clamp(b.W, 0, 1-b.X)
	b.H = Clamp(b.H, 0, 1-b.Y)
	return b
}

// SourceRect returns the source pixel rectangle for a normalized box. Its size
// is always round(W*width) x round(H*height); the origin comes from the box's
// top-left corner and is pulled back inside the image when rounding would
// push the far edge past it.
func SourceRect(b types.Box, dims types.Dims) image.Rectangle {
	b = ClampBox(b)
	x0, y0 := ToSourcePixels(b.X, b.Y, dims)
	w := int(math.Round(b.W * float64(dims.Width)))
	h := int(math.Round(b.H * float64(dims.Height)))
	if x0+w > dims.Width {
		x0 = dims.Width - w
	}
	if y0+h > dims.Height {
		y0 = dims.Height - h
	}
	return image.Rect(x0, y0, x0+w, y0+h)
}

// DisplayRect returns the box in display pixels, used to draw the selection overlay
func DisplayRect(b types.Box, box types.DisplayBox) (left, top, width, height float64) {
	left, top = ToDisplayPixels(b.X, b.Y, box)
	return left, top, b.W * box.Width, b.H * box.Height
}

// FitInside returns the largest size with the source's aspect ratio that fits
// within maxW x maxH. Images that already fit are left at natural size.
func FitInside(dims types.Dims, maxW, maxH int) (int, int) {
	if dims.Width <= 0 || dims.Height <= 0 {
		return 0, 0
	}
	if maxW <= 0 || maxH <= 0 || (dims.Width <= maxW && dims.Height <= maxH) {
		return dims.Width, dims.Height
	}
	scale := math.Min(float64(maxW)/float64(dims.Width), float64(maxH)/float64(dims.Height))
	w := int(math.Max(1, math.Round(float64(dims.Width)*scale)))
	h := int(math.Max(1, math.Round(float64(dims.Height)*scale)))
	return w, h
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
