package analyzer

import (
	"fmt"
	"image"

	apperrors "go-dirtycam/internal/errors"
	"go-dirtycam/internal/raster"
)

// Quadrant names, in partition order
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// Quadrant is a read-only view of a rectangle of an image buffer
type Quadrant struct {
	Index int
	Image *raster.Image
	Rect  image.Rectangle
}

// Width returns the quadrant width in pixels
func (q Quadrant) Width() int { return q.Rect.Dx() }

// Height returns the quadrant height in pixels
func (q Quadrant) Height() int { return q.Rect.Dy() }

// Pixels returns the number of pixels covered
func (q Quadrant) Pixels() int { return q.Rect.Dx() * q.Rect.Dy() }

// Channels returns the channel count of the underlying buffer
func (q Quadrant) Channels() int { return q.Image.Channels }

// At returns channel c at (x, y) relative to the quadrant origin
func (q Quadrant) At(x, y, c int) uint8 {
	return q.Image.At(q.Rect.Min.X+x, q.Rect.Min.Y+y, c)
}

// AppendChannel appends every value of channel c to dst in row-major order
func (q Quadrant) AppendChannel(dst []float64, c int) []float64 {
	ch, stride := q.Image.Channels, q.Image.Stride()
	for y := q.Rect.Min.Y; y < q.Rect.Max.Y; y++ {
		row := q.Image.Pix[y*stride : (y+1)*stride]
		for x := q.Rect.Min.X; x < q.Rect.Max.X; x++ {
			dst = append(dst, float64(row[x*ch+c]))
		}
	}
	return dst
}

// Gray returns a single-channel quadrant backed by its own buffer. The
// source is left untouched.
func (q Quadrant) Gray() Quadrant {
	w, h := q.Width(), q.Height()
	gray := raster.New(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if q.Image.Channels == 1 {
				gray.Pix[y*w+x] = q.At(x, y, 0)
				continue
			}
			gray.Pix[y*w+x] = raster.Luma(q.At(x, y, 0), q.At(x, y, 1), q.At(x, y, 2))
		}
	}
	return Quadrant{Index: q.Index, Image: gray, Rect: gray.Bounds()}
}

// Partition splits img into four equal quadrants: top-left, top-right,
// bottom-left, bottom-right. Each is floor(W/2) x floor(H/2); an odd
// trailing row or column belongs to none of them.
func Partition(img *raster.Image) ([4]Quadrant, error) {
	var quads [4]Quadrant
	if img == nil || img.Width == 0 || img.Height == 0 {
		w, h := 0, 0
		if img != nil {
			w, h = img.Width, img.Height
		}
		return quads, apperrors.NewInvalidImageError(fmt.Sprintf("image has invalid dimensions %dx%d", w, h), nil)
	}

	qw, qh := img.Width/2, img.Height/2
	origins := [4]image.Point{
		TopLeft:     {0, 0},
		TopRight:    {qw, 0},
		BottomLeft:  {0, qh},
		BottomRight: {qw, qh},
	}
	for i, o := range origins {
		quads[i] = Quadrant{
			Index: i,
			Image: img,
			Rect:  image.Rect(o.X, o.Y, o.X+qw, o.Y+qh),
		}
	}
	return quads, nil
}
