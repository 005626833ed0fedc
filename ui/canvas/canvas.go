// Package canvas provides a scrollable image canvas that reports taps in
// display image coordinates, one canvas unit per display image pixel.
package canvas

import (
	"image"
	"image/color"
	"math"

	"landmark-picker/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"
)

var emptySize = fyne.NewSize(400, 300)

// ImageCanvas displays one rendered image inside a scroll container.
type ImageCanvas struct {
	widget.BaseWidget

	// Display state
	raster   *fynecanvas.Raster
	rendered image.Image
	imgSize  fyne.Size

	// Container
	scroll  *container.Scroll
	content *tappableContent

	lastViewport fyne.Size

	// Callbacks
	onTap      func(p geometry.Point)
	onViewport func(size geometry.Size)
}

// tappableContent wraps the raster to handle mouse events.
type tappableContent struct {
	widget.BaseWidget
	canvas *ImageCanvas
	raster *fynecanvas.Raster
}

func newTappableContent(ic *ImageCanvas, raster *fynecanvas.Raster) *tappableContent {
	tc := &tappableContent{
		canvas: ic,
		raster: raster,
	}
	tc.ExtendBaseWidget(tc)
	return tc
}

func (tc *tappableContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(tc.raster)
}

func (tc *tappableContent) MinSize() fyne.Size {
	return tc.raster.MinSize()
}

// Tapped handles left-click events.
func (tc *tappableContent) Tapped(ev *fyne.PointEvent) {
	if tc.canvas.onTap == nil || tc.canvas.rendered == nil {
		return
	}

	// Workaround for Fyne bug: reject clicks outside widget bounds
	size := tc.canvas.imgSize
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X >= size.Width || ev.Position.Y >= size.Height {
		return
	}

	// Position is in canvas units relative to the content, which already
	// includes the scroll offset. paint keeps one image pixel per unit.
	tc.canvas.onTap(geometry.Pt(int(ev.Position.X), int(ev.Position.Y)))
}

// NewImageCanvas creates an empty image canvas.
func NewImageCanvas() *ImageCanvas {
	ic := &ImageCanvas{imgSize: emptySize}

	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(ic.imgSize)

	ic.content = newTappableContent(ic, ic.raster)
	ic.scroll = container.NewScroll(ic.content)
	ic.scroll.Direction = container.ScrollBoth

	ic.ExtendBaseWidget(ic)
	return ic
}

// SetImage shows img at one canvas unit per image pixel. A nil image
// clears the canvas.
func (ic *ImageCanvas) SetImage(img image.Image) {
	ic.rendered = img
	if img == nil {
		ic.imgSize = emptySize
	} else {
		b := img.Bounds()
		ic.imgSize = fyne.NewSize(float32(b.Dx()), float32(b.Dy()))
	}
	ic.raster.SetMinSize(ic.imgSize)
	ic.raster.Resize(ic.imgSize)
	ic.content.Resize(ic.imgSize)
	ic.content.Refresh()
	ic.scroll.Refresh()
}

// OnTap registers the callback invoked with the display pixel tapped.
func (ic *ImageCanvas) OnTap(callback func(p geometry.Point)) {
	ic.onTap = callback
}

// OnViewportChange registers the callback invoked when the visible area
// changes size.
func (ic *ImageCanvas) OnViewportChange(callback func(size geometry.Size)) {
	ic.onViewport = callback
}

// Refresh refreshes the canvas display.
func (ic *ImageCanvas) Refresh() {
	ic.raster.Refresh()
}

// draw is the raster drawing function. w and h are device pixels, which
// differ from canvas units on scaled displays.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	return paint(w, h, ic.rendered, ic.pixelScale(w))
}

// pixelScale returns device pixels per canvas unit.
func (ic *ImageCanvas) pixelScale(w int) float32 {
	if size := ic.raster.Size(); size.Width > 0 && w > 0 {
		return float32(w) / size.Width
	}
	return 1
}

// paint draws src over black with each source pixel covering pixelScale
// device pixels, so one source pixel always spans one canvas unit.
func paint(w, h int, src image.Image, pixelScale float32) *image.RGBA {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(output, output.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)
	if src == nil {
		return output
	}

	b := src.Bounds()
	if pixelScale == 1 {
		draw.Draw(output, output.Bounds(), src, b.Min, draw.Over)
		return output
	}
	dst := image.Rect(0, 0,
		int(math.Round(float64(b.Dx())*float64(pixelScale))),
		int(math.Round(float64(b.Dy())*float64(pixelScale))))
	draw.NearestNeighbor.Scale(output, dst, src, b, draw.Over, nil)
	return output
}

// checkViewport reports a new visible size to the viewport callback.
func (ic *ImageCanvas) checkViewport(size fyne.Size) {
	if size == ic.lastViewport || size.Width <= 0 || size.Height <= 0 {
		return
	}
	ic.lastViewport = size
	if ic.onViewport != nil {
		ic.onViewport(geometry.Sz(int(size.Width), int(size.Height)))
	}
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &imageCanvasRenderer{canvas: ic}
}

type imageCanvasRenderer struct {
	canvas *ImageCanvas
}

func (r *imageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.scroll.Resize(size)
	r.canvas.checkViewport(size)
}

func (r *imageCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *imageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *imageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *imageCanvasRenderer) Destroy() {}
