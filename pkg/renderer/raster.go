package renderer

import (
	"github.com/df07/go-mlt/pkg/core"
)

// Raster is a full-resolution grid of linear colors
type Raster struct {
	width, height int
	pixels        []core.Vec3
}

// NewRaster creates a black raster
func NewRaster(width, height int) *Raster {
	return &Raster{
		width:  width,
		height: height,
		pixels: make([]core.Vec3, width*height),
	}
}

// Width returns the raster width in pixels
func (r *Raster) Width() int { return r.width }

// Height returns the raster height in pixels
func (r *Raster) Height() int { return r.height }

// GetPixel returns the color at (x, y)
func (r *Raster) GetPixel(x, y int) core.Vec3 {
	return r.pixels[y*r.width+x]
}

// SetPixel overwrites the color at (x, y)
func (r *Raster) SetPixel(x, y int, c core.Vec3) {
	r.pixels[y*r.width+x] = c
}

// AddPixel adds to the color at (x, y)
func (r *Raster) AddPixel(x, y int, c core.Vec3) {
	i := y*r.width + x
	r.pixels[i] = r.pixels[i].Add(c)
}

// AddSample adds a color at an image point in [0,1)², y=0 being the top row.
// Points off the image are dropped.
func (r *Raster) AddSample(imagePoint core.Vec2, c core.Vec3) {
	// Conversion truncates toward zero, so small negatives would land on row or column 0
	if imagePoint.X < 0 || imagePoint.Y < 0 {
		return
	}
	x := int(imagePoint.X * float64(r.width))
	y := int(imagePoint.Y * float64(r.height))
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return
	}
	r.AddPixel(x, y, c)
}

// Clear sets every pixel to black
func (r *Raster) Clear() {
	clear(r.pixels)
}

// Scale multiplies every pixel by s
func (r *Raster) Scale(s float64) {
	for i := range r.pixels {
		r.pixels[i] = r.pixels[i].Multiply(s)
	}
}

// Clone returns an independent copy
func (r *Raster) Clone() *Raster {
	c := NewRaster(r.width, r.height)
	copy(c.pixels, r.pixels)
	return c
}

// SameSize reports whether both rasters have the same dimensions
func (r *Raster) SameSize(o *Raster) bool {
	return o != nil && r.width == o.width && r.height == o.height
}

// MeanLuminance returns the average pixel luminance
func (r *Raster) MeanLuminance() float64 {
	if len(r.pixels) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range r.pixels {
		sum += p.Luminance()
	}
	return sum / float64(len(r.pixels))
}
