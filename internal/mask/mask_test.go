package mask

import (
	"image"
	"image/color"
	"testing"

	"landmark-picker/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsBackground(t *testing.T) {
	m, err := New(geometry.Sz(8, 6))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), m.Bounds())
	assert.Equal(t, 0, Count(m))

	// Gray has no alpha, so every pixel encodes as opaque black.
	_, _, _, a := m.At(3, 3).RGBA()
	assert.Equal(t, uint32(0xffff), a)
}

func TestNewRejectsEmptySize(t *testing.T) {
	_, err := New(geometry.Sz(0, 5))
	assert.Error(t, err)
}

func TestMarkPointSetsExactlyOnePixel(t *testing.T) {
	const w, h = 7, 5
	m, err := New(geometry.Sz(w, h))
	require.NoError(t, err)

	require.NoError(t, MarkPoint(m, geometry.Pt(3, 2)))
	assert.Equal(t, 1, Count(m))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := Background
			if x == 3 && y == 2 {
				want = On
			}
			assert.Equal(t, want, m.GrayAt(x, y).Y, "pixel %d,%d", x, y)
		}
	}
}

func TestMarkPointOutOfBounds(t *testing.T) {
	const w, h = 7, 5
	tests := []geometry.Point{
		geometry.Pt(w, h),
		geometry.Pt(w, 0),
		geometry.Pt(0, h),
		geometry.Pt(-1, 0),
	}
	for _, p := range tests {
		t.Run(p.String(), func(t *testing.T) {
			m, err := New(geometry.Sz(w, h))
			require.NoError(t, err)
			err = MarkPoint(m, p)
			assert.ErrorIs(t, err, ErrOutOfBounds)
			assert.Equal(t, 0, Count(m))
		})
	}
}

func TestSingle(t *testing.T) {
	m, err := Single(geometry.Sz(4, 4), geometry.Pt(0, 3))
	require.NoError(t, err)
	assert.Equal(t, On, m.GrayAt(0, 3).Y)
	assert.Equal(t, 1, Count(m))

	_, err = Single(geometry.Sz(4, 4), geometry.Pt(4, 4))
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestCompositeAlpha(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			src.Set(x, y, color.RGBA{R: uint8(10 * x), G: uint8(20 * y), B: 200, A: 255})
		}
	}
	m, err := Single(geometry.Sz(3, 2), geometry.Pt(2, 1))
	require.NoError(t, err)

	out, err := CompositeAlpha(src, m)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 20, G: 20, B: 200, A: 255}, out.NRGBAAt(2, 1))
	assert.Equal(t, color.NRGBA{R: 10, G: 0, B: 200, A: 0}, out.NRGBAAt(1, 0))
}

func TestCompositeAlphaSizeMismatch(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	m, err := New(geometry.Sz(2, 2))
	require.NoError(t, err)

	_, err = CompositeAlpha(src, m)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}
