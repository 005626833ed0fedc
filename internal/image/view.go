// Package image provides image decoding, the zoomable per-image view used
// for landmark picking, and marker compositing for display.
package image

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"landmark-picker/pkg/geometry"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

var (
	// ErrLoad wraps any failure to open or decode an image file.
	ErrLoad = errors.New("image load failed")
	// ErrNoImage is returned by operations that need a loaded image.
	ErrNoImage = errors.New("no image loaded")
)

// DefaultZoomStep is the multiplicative step used by ZoomIn and ZoomOut.
const DefaultZoomStep = 1.1

// Decode reads and decodes the image file at path.
func Decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrLoad, filepath.Base(path), err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrLoad, filepath.Base(path))
	}
	return img, nil
}

// View owns one image, its zoom scale and the display buffer derived from
// it. Coordinates are always resolved against the original image.
type View struct {
	Path string

	original image.Image
	display  image.Image
	scale    float64
	viewport geometry.Size
	limits   geometry.ZoomLimits
	step     float64

	// Set when a zoom in that direction was rejected; cleared when the
	// opposite direction succeeds or a new image is loaded.
	zoomInBlocked  bool
	zoomOutBlocked bool
}

// NewView creates an empty view.
func NewView(limits geometry.ZoomLimits, step float64, viewport geometry.Size) *View {
	if step <= 1 {
		step = DefaultZoomStep
	}
	return &View{
		scale:    1.0,
		viewport: viewport,
		limits:   limits,
		step:     step,
	}
}

// Load decodes path and replaces the current image. On failure the view is
// left untouched.
func (v *View) Load(path string) error {
	img, err := Decode(path)
	if err != nil {
		return err
	}
	v.SetImage(img, path)
	return nil
}

// SetImage replaces the image and resets the scale to 1.0.
func (v *View) SetImage(img image.Image, path string) {
	v.Path = path
	v.original = img
	v.display = img
	v.scale = 1.0
	v.zoomInBlocked = false
	v.zoomOutBlocked = false
}

// Loaded reports whether an image is present.
func (v *View) Loaded() bool {
	return v.original != nil
}

// Original returns the unscaled image.
func (v *View) Original() image.Image {
	return v.original
}

// Display returns the image resampled to the current scale.
func (v *View) Display() image.Image {
	return v.display
}

// Scale returns the current zoom factor.
func (v *View) Scale() float64 {
	return v.scale
}

// Size returns the original image size.
func (v *View) Size() geometry.Size {
	if v.original == nil {
		return geometry.Size{}
	}
	b := v.original.Bounds()
	return geometry.Sz(b.Dx(), b.Dy())
}

// DisplaySize returns the size of the display buffer.
func (v *View) DisplaySize() geometry.Size {
	if v.display == nil {
		return geometry.Size{}
	}
	b := v.display.Bounds()
	return geometry.Sz(b.Dx(), b.Dy())
}

// Viewport returns the size of the area the image is shown in.
func (v *View) Viewport() geometry.Size {
	return v.viewport
}

// SetViewport updates the viewport size used by the zoom limits. Empty sizes
// are ignored.
func (v *View) SetViewport(s geometry.Size) {
	if s.Empty() {
		return
	}
	v.viewport = s
}

// CanZoom reports whether scale would be accepted by SetScale.
func (v *View) CanZoom(scale float64) bool {
	return v.limits.CanZoom(scale, v.Size(), v.viewport)
}

// SetScale changes the zoom factor and regenerates the display buffer from
// the original image. A rejected scale leaves the view unchanged.
func (v *View) SetScale(scale float64) error {
	if !v.Loaded() {
		return ErrNoImage
	}
	if !v.CanZoom(scale) {
		return fmt.Errorf("%w: %.4f for %s image in %s viewport", geometry.ErrScaleRejected, scale, v.Size(), v.viewport)
	}
	v.scale = scale
	v.display = resample(v.original, scale)
	return nil
}

// ZoomIn multiplies the scale by the zoom step.
func (v *View) ZoomIn() error {
	if v.zoomInBlocked {
		return fmt.Errorf("%w: zoom in disabled", geometry.ErrScaleRejected)
	}
	if err := v.SetScale(v.scale * v.step); err != nil {
		if errors.Is(err, geometry.ErrScaleRejected) {
			v.zoomInBlocked = true
		}
		return err
	}
	v.zoomOutBlocked = false
	return nil
}

// ZoomOut divides the scale by the zoom step.
func (v *View) ZoomOut() error {
	if v.zoomOutBlocked {
		return fmt.Errorf("%w: zoom out disabled", geometry.ErrScaleRejected)
	}
	if err := v.SetScale(v.scale / v.step); err != nil {
		if errors.Is(err, geometry.ErrScaleRejected) {
			v.zoomOutBlocked = true
		}
		return err
	}
	v.zoomInBlocked = false
	return nil
}

// ZoomInBlocked reports whether zoom in is currently disabled.
func (v *View) ZoomInBlocked() bool {
	return v.zoomInBlocked
}

// ZoomOutBlocked reports whether zoom out is currently disabled.
func (v *View) ZoomOutBlocked() bool {
	return v.zoomOutBlocked
}

// Fit steps the scale until the image just fits the viewport: up while the
// next step still fits, or down until it fits. It stops at the zoom limits
// and disables the direction it ran into.
func (v *View) Fit() error {
	if !v.Loaded() {
		return ErrNoImage
	}
	size := v.Size()
	s := v.scale

	if geometry.Fits(size, v.viewport, s) {
		for {
			next := s * v.step
			if !v.CanZoom(next) || !geometry.Fits(size, v.viewport, next) {
				break
			}
			s = next
		}
	} else {
		for !geometry.Fits(size, v.viewport, s) {
			next := s / v.step
			if !v.CanZoom(next) {
				break
			}
			s = next
		}
	}

	if err := v.SetScale(s); err != nil {
		return err
	}
	v.zoomInBlocked = !v.CanZoom(s * v.step)
	v.zoomOutBlocked = !v.CanZoom(s / v.step)
	return nil
}

// ViewToImage converts a point in the display buffer to original pixels.
func (v *View) ViewToImage(p geometry.Point) geometry.Point {
	return geometry.ToImageSpace(p, v.scale)
}

// ImageToView converts an original pixel to the display buffer.
func (v *View) ImageToView(p geometry.Point) geometry.Point {
	return geometry.ToViewSpace(p, v.scale)
}

// resample scales src by scale. Shrinking uses bilinear filtering; enlarging
// uses nearest neighbour so individual pixels stay distinguishable.
func resample(src image.Image, scale float64) image.Image {
	if scale == 1.0 {
		return src
	}
	b := src.Bounds()
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	var scaler draw.Scaler = draw.ApproxBiLinear
	if scale > 1.0 {
		scaler = draw.NearestNeighbor
	}
	scaler.Scale(dst, dst.Rect, src, b, draw.Src, nil)
	return dst
}

// SupportedFormats returns the file extensions Decode understands.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tiff", ".tif"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
