// Package mask builds single-landmark marker images: an opaque black
// single-channel image with one marked pixel.
package mask

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"landmark-picker/pkg/geometry"
)

const (
	// Background is the value of every unmarked pixel.
	Background uint8 = 0
	// On is the value of the marked pixel.
	On uint8 = 255
)

var (
	// ErrOutOfBounds is returned when a point lies outside the mask.
	ErrOutOfBounds = errors.New("point outside mask bounds")
	// ErrSizeMismatch is returned when a mask and a source image differ in size.
	ErrSizeMismatch = errors.New("mask and image sizes differ")
)

// New returns a w x h mask with every pixel set to Background.
func New(size geometry.Size) (*image.Gray, error) {
	if size.Empty() {
		return nil, fmt.Errorf("invalid mask size %s", size)
	}
	// image.NewGray zero-fills, which is Background.
	return image.NewGray(image.Rect(0, 0, size.Width, size.Height)), nil
}

// MarkPoint sets the pixel at p to On.
func MarkPoint(m *image.Gray, p geometry.Point) error {
	b := m.Bounds()
	size := geometry.Sz(b.Dx(), b.Dy())
	if !p.In(size) {
		return fmt.Errorf("%w: %s not in %s", ErrOutOfBounds, p, size)
	}
	m.SetGray(b.Min.X+p.X, b.Min.Y+p.Y, color.Gray{Y: On})
	return nil
}

// Single builds a mask of the given size with only p marked.
func Single(size geometry.Size, p geometry.Point) (*image.Gray, error) {
	m, err := New(size)
	if err != nil {
		return nil, err
	}
	if err := MarkPoint(m, p); err != nil {
		return nil, err
	}
	return m, nil
}

// CompositeAlpha returns a copy of src whose alpha channel is replaced by the
// mask value at each pixel. Source RGB is preserved.
func CompositeAlpha(src image.Image, m *image.Gray) (*image.NRGBA, error) {
	sb := src.Bounds()
	mb := m.Bounds()
	if sb.Dx() != mb.Dx() || sb.Dy() != mb.Dy() {
		return nil, fmt.Errorf("%w: image %dx%d, mask %dx%d", ErrSizeMismatch, sb.Dx(), sb.Dy(), mb.Dx(), mb.Dy())
	}

	out := image.NewNRGBA(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	for y := 0; y < sb.Dy(); y++ {
		for x := 0; x < sb.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(sb.Min.X+x, sb.Min.Y+y)).(color.NRGBA)
			c.A = m.GrayAt(mb.Min.X+x, mb.Min.Y+y).Y
			out.SetNRGBA(x, y, c)
		}
	}
	return out, nil
}

// Count returns the number of pixels set to On.
func Count(m *image.Gray) int {
	n := 0
	for _, v := range m.Pix {
		if v == On {
			n++
		}
	}
	return n
}
