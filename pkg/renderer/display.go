package renderer

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/df07/go-mlt/pkg/core"
	xdraw "golang.org/x/image/draw"
)

// Display receives the accumulated image as a render progresses
type Display interface {
	Initialize(width, height int, colorModel core.ColorModel)
	SetPixels(x, y int, r *Raster)
	Finish()
}

// ImageDisplay tone-maps the accumulated raster into an RGBA image.
// It is safe to read while a render writes to it.
type ImageDisplay struct {
	mu       sync.Mutex
	img      *image.RGBA
	exposure float64
	finished bool
}

// NewImageDisplay creates a display with the given linear exposure multiplier
func NewImageDisplay(exposure float64) *ImageDisplay {
	if exposure <= 0 {
		exposure = 1
	}
	return &ImageDisplay{exposure: exposure}
}

// Initialize allocates the image
func (d *ImageDisplay) Initialize(width, height int, colorModel core.ColorModel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.img = image.NewRGBA(image.Rect(0, 0, width, height))
	d.finished = false
}

// SetPixels writes a raster with its top-left corner at (x, y)
func (d *ImageDisplay) SetPixels(x, y int, r *Raster) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for j := 0; j < r.Height(); j++ {
		for i := 0; i < r.Width(); i++ {
			d.img.SetRGBA(x+i, y+j, d.toColor(r.GetPixel(i, j)))
		}
	}
}

// Finish marks the image as final
func (d *ImageDisplay) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finished = true
}

// Finished reports whether the render completed
func (d *ImageDisplay) Finished() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished
}

// Image returns a copy of the current image
func (d *ImageDisplay) Image() *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.img == nil {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	out := image.NewRGBA(d.img.Bounds())
	copy(out.Pix, d.img.Pix)
	return out
}

// Preview returns the image enlarged by an integer factor with nearest-neighbour
// filtering, so small renders stay readable
func (d *ImageDisplay) Preview(scale int) *image.RGBA {
	src := d.Image()
	if scale <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// toColor applies exposure, clamps and gamma-corrects a linear color
func (d *ImageDisplay) toColor(c core.Vec3) color.RGBA {
	if c.HasNaN() {
		c = core.Vec3{}
	}
	c = c.Multiply(d.exposure).Clamp(0, 1).GammaCorrect(2.0)
	return color.RGBA{
		R: uint8(math.Round(255 * c.X)),
		G: uint8(math.Round(255 * c.Y)),
		B: uint8(math.Round(255 * c.Z)),
		A: 255,
	}
}
