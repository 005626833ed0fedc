package image

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"landmark-picker/pkg/geometry"
)

// Marker colors.
var (
	FixedMarkerColor  = color.RGBA{R: 0, G: 255, B: 255, A: 255} // Cyan
	MovingMarkerColor = color.RGBA{R: 255, G: 0, B: 255, A: 255} // Magenta
	PreviewBackground = color.RGBA{R: 40, G: 40, B: 40, A: 255}  // Dark gray
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9.
// Each digit is represented as 5 rows of 3 bits.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// Marker is a landmark drawn on top of a view.
type Marker struct {
	At    geometry.Point // Image space
	Label int            // 1-based landmark number, 0 for none
	Color color.RGBA
}

// Composite draws a base image over a background and overlays landmark
// crosshairs at their view-space positions.
type Composite struct {
	Base      image.Image
	Scale     float64 // Scale Base was rendered at
	Markers   []Marker
	BackColor color.Color
	ArmLength int // Crosshair half-length in view pixels
}

// NewComposite creates a Composite for base rendered at scale.
func NewComposite(base image.Image, scale float64) *Composite {
	return &Composite{
		Base:      base,
		Scale:     scale,
		BackColor: PreviewBackground,
		ArmLength: 6,
	}
}

// AddMarker adds a crosshair for the image-space point p.
func (c *Composite) AddMarker(p geometry.Point, label int, col color.RGBA) {
	c.Markers = append(c.Markers, Marker{At: p, Label: label, Color: col})
}

// Render produces the final image.
func (c *Composite) Render() *image.RGBA {
	bounds := image.Rect(0, 0, 1, 1)
	if c.Base != nil {
		b := c.Base.Bounds()
		bounds = image.Rect(0, 0, b.Dx(), b.Dy())
	}
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, &image.Uniform{c.BackColor}, image.Point{}, draw.Src)
	if c.Base != nil {
		draw.Draw(result, bounds, c.Base, c.Base.Bounds().Min, draw.Over)
	}

	for _, m := range c.Markers {
		at := geometry.ToViewSpace(m.At, c.Scale)
		drawCrosshair(result, at, c.ArmLength, m.Color)
		if m.Label > 0 {
			drawNumber(result, strconv.Itoa(m.Label), at.X+c.ArmLength+2, at.Y+2, m.Color, 2)
		}
	}
	return result
}

// drawCrosshair draws a plus sign centred on p, leaving the centre pixel
// untouched so the picked pixel stays visible.
func drawCrosshair(output *image.RGBA, p geometry.Point, arm int, col color.RGBA) {
	for d := 2; d <= arm; d++ {
		setClipped(output, p.X-d, p.Y, col)
		setClipped(output, p.X+d, p.Y, col)
		setClipped(output, p.X, p.Y-d, col)
		setClipped(output, p.X, p.Y+d, col)
	}
}

// drawNumber draws decimal digits with their top-left corner at (x, y).
func drawNumber(output *image.RGBA, label string, x, y int, col color.RGBA, scale int) {
	charWidth := 3 * scale
	spacing := scale

	for i, ch := range label {
		if ch < '0' || ch > '9' {
			continue
		}
		pattern := digitPatterns[ch-'0']
		charX := x + i*(charWidth+spacing)

		for row := 0; row < 5; row++ {
			for c := 0; c < 3; c++ {
				if pattern[row]&(1<<(2-c)) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						setClipped(output, charX+c*scale+dx, y+row*scale+dy, col)
					}
				}
			}
		}
	}
}

func setClipped(output *image.RGBA, x, y int, col color.RGBA) {
	if (image.Point{X: x, Y: y}).In(output.Bounds()) {
		output.SetRGBA(x, y, col)
	}
}
