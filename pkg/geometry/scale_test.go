package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToImageSpace(t *testing.T) {
	tests := []struct {
		name  string
		view  Point
		scale float64
		want  Point
	}{
		{"identity", Pt(10, 20), 1.0, Pt(10, 20)},
		{"double", Pt(21, 41), 2.0, Pt(10, 20)},
		{"truncates not rounds", Pt(19, 19), 2.0, Pt(9, 9)},
		{"zoomed out", Pt(9, 18), 0.909, Pt(9, 19)},
		{"origin", Pt(0, 0), 1.1, Pt(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToImageSpace(tt.view, tt.scale))
		})
	}
}

func TestToViewSpaceRounds(t *testing.T) {
	assert.Equal(t, Pt(11, 22), ToViewSpace(Pt(10, 20), 1.1))
	assert.Equal(t, Pt(20, 40), ToViewSpace(Pt(10, 20), 2.0))
	assert.Equal(t, Pt(5, 9), ToViewSpace(Pt(5, 10), 0.909))
}

func TestRoundTripBoundedError(t *testing.T) {
	for _, s := range []float64{1.0, 1.1, 0.909, 2.0} {
		for x := 0; x < 500; x++ {
			p := Pt(x, 499-x)
			got := ToImageSpace(ToViewSpace(p, s), s)
			dx, dy := p.X-got.X, p.Y-got.Y
			assert.LessOrEqual(t, abs(dx), 1, "scale %v point %v got %v", s, p, got)
			assert.LessOrEqual(t, abs(dy), 1, "scale %v point %v got %v", s, p, got)
			if s == 1.0 || s == 2.0 {
				assert.Equal(t, p, got, "exact scale %v", s)
			}
		}
	}
}

func TestCanZoomInterval(t *testing.T) {
	l := DefaultZoomLimits()
	original := Sz(200, 100)
	viewport := Sz(500, 600)

	// Fit scale is 2.5 (width-bound).
	assert.True(t, l.CanZoom(1.0, original, viewport))
	assert.True(t, l.CanZoom(2.5, original, viewport))
	assert.False(t, l.CanZoom(2.51, original, viewport))
	assert.True(t, l.CanZoom(0.1, original, viewport))
	assert.False(t, l.CanZoom(0.09, original, viewport))
	assert.False(t, l.CanZoom(0, original, viewport))
	assert.False(t, l.CanZoom(-1, original, viewport))
}

func TestCanZoomLargeImageAllowsNative(t *testing.T) {
	l := DefaultZoomLimits()
	original := Sz(4000, 3000)
	viewport := Sz(500, 600)

	assert.True(t, l.CanZoom(1.0, original, viewport))
	assert.False(t, l.CanZoom(1.1, original, viewport))
	assert.True(t, l.CanZoom(0.5, original, viewport))
}

func TestCanZoomMonotonic(t *testing.T) {
	l := ZoomLimits{MinScale: 0.05, MaxOverscan: 2}
	original := Sz(320, 240)
	viewport := Sz(640, 480)

	// Once rejected while stepping up, every larger scale is rejected too.
	rejected := false
	for s := 1.0; s < 20; s *= 1.1 {
		ok := l.CanZoom(s, original, viewport)
		if rejected {
			assert.False(t, ok, "scale %v accepted after rejection", s)
		}
		if !ok {
			rejected = true
		}
	}
	assert.True(t, rejected)

	rejected = false
	for s := 1.0; s > 0.001; s /= 1.1 {
		ok := l.CanZoom(s, original, viewport)
		if rejected {
			assert.False(t, ok, "scale %v accepted after rejection", s)
		}
		if !ok {
			rejected = true
		}
	}
	assert.True(t, rejected)
}

func TestFitScaleAndFits(t *testing.T) {
	assert.InDelta(t, 0.5, FitScale(Sz(1000, 400), Sz(500, 600)), 1e-9)
	assert.True(t, Fits(Sz(1000, 400), Sz(500, 600), 0.5))
	assert.False(t, Fits(Sz(1000, 400), Sz(500, 600), 0.51))
	assert.Equal(t, 1.0, FitScale(Size{}, Sz(500, 600)))
}

func TestPointIn(t *testing.T) {
	s := Sz(4, 3)
	assert.True(t, Pt(0, 0).In(s))
	assert.True(t, Pt(3, 2).In(s))
	assert.False(t, Pt(4, 2).In(s))
	assert.False(t, Pt(3, 3).In(s))
	assert.False(t, Pt(-1, 0).In(s))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
