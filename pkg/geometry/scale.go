package geometry

import (
	"errors"
	"math"
)

// ErrScaleRejected is returned when a requested zoom scale falls outside the
// permitted range for the image and viewport.
var ErrScaleRejected = errors.New("scale rejected")

// ToImageSpace converts a view point to original image pixels.
// Components are truncated toward negative infinity, never rounded.
func ToImageSpace(view Point, scale float64) Point {
	return Point{
		X: int(math.Floor(float64(view.X) / scale)),
		Y: int(math.Floor(float64(view.Y) / scale)),
	}
}

// ToViewSpace converts an image point to view pixels at the given scale.
func ToViewSpace(img Point, scale float64) Point {
	return Point{
		X: int(math.Round(float64(img.X) * scale)),
		Y: int(math.Round(float64(img.Y) * scale)),
	}
}

// ScaledSize returns the display size of an image at the given scale.
func ScaledSize(original Size, scale float64) Size {
	return Size{
		Width:  int(float64(original.Width) * scale),
		Height: int(float64(original.Height) * scale),
	}
}

// FitScale returns the largest scale at which original fits inside viewport.
func FitScale(original, viewport Size) float64 {
	if original.Empty() || viewport.Empty() {
		return 1.0
	}
	sx := float64(viewport.Width) / float64(original.Width)
	sy := float64(viewport.Height) / float64(original.Height)
	return math.Min(sx, sy)
}

// ZoomLimits bounds the scales an image view may take.
type ZoomLimits struct {
	// MinScale is the smallest permitted scale.
	MinScale float64
	// MaxOverscan is how large the scaled image may get, as a multiple of
	// the viewport. 1.0 means the scaled image must fit the viewport.
	MaxOverscan float64
}

// DefaultZoomLimits allows zooming in until the image fills the viewport and
// zooming out to a tenth.
func DefaultZoomLimits() ZoomLimits {
	return ZoomLimits{MinScale: 0.1, MaxOverscan: 1.0}
}

// Range returns the closed interval of permitted scales. Native scale 1.0 is
// always inside it, so an image larger than the viewport can still be shown
// 1:1 and zoomed out from there.
func (l ZoomLimits) Range(original, viewport Size) (lo, hi float64) {
	lo = l.MinScale
	if !original.Empty() {
		// Never let the image collapse below one pixel.
		shortest := math.Min(float64(original.Width), float64(original.Height))
		lo = math.Max(lo, 1.0/shortest)
	}
	hi = math.Max(1.0, FitScale(original, viewport)*l.MaxOverscan)
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// CanZoom reports whether candidate lies within the permitted range. The
// permitted set is an interval, so stepping repeatedly in one direction and
// stopping at the first rejection always terminates.
func (l ZoomLimits) CanZoom(candidate float64, original, viewport Size) bool {
	if candidate <= 0 || math.IsNaN(candidate) || math.IsInf(candidate, 0) {
		return false
	}
	lo, hi := l.Range(original, viewport)
	return candidate >= lo && candidate <= hi
}

// Fits reports whether original at scale lies entirely within viewport.
func Fits(original, viewport Size, scale float64) bool {
	s := ScaledSize(original, scale)
	return s.Width <= viewport.Width && s.Height <= viewport.Height
}
