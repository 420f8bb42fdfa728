// Package raster holds the decoded pixel buffer the fault pipeline reads from.
package raster

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Image is a row-major 8-bit pixel grid with one (gray) or three (R,G,B)
// interleaved channels. It is not modified after construction.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed image
func New(width, height, channels int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Stride returns the number of bytes per row
func (im *Image) Stride() int {
	return im.Width * im.Channels
}

// At returns the value of channel c at (x, y)
func (im *Image) At(x, y, c int) uint8 {
	return im.Pix[y*im.Stride()+x*im.Channels+c]
}

// Set stores v for every channel at (x, y)
func (im *Image) Set(x, y int, v ...uint8) {
	off := y*im.Stride() + x*im.Channels
	for c := 0; c < im.Channels && c < len(v); c++ {
		im.Pix[off+c] = v[c]
	}
}

// Bounds returns the image rectangle anchored at the origin
func (im *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, im.Width, im.Height)
}

// FromImage converts a decoded image into a buffer. *image.Gray and
// *image.Gray16 sources stay single-channel; everything else becomes RGB
// with alpha discarded.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch g := src.(type) {
	case *image.Gray:
		out := New(w, h, 1)
		for y := 0; y < h; y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*w:(y+1)*w], g.Pix[off:off+w])
		}
		return out
	case *image.Gray16:
		out := New(w, h, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Pix[y*w+x] = uint8(g.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return out
	}

	// imaging.Clone normalises any color model to non-premultiplied NRGBA
	// with bounds starting at (0,0).
	nrgba := imaging.Clone(src)
	out := New(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := y*nrgba.Stride + x*4
			di := (y*w + x) * 3
			out.Pix[di] = nrgba.Pix[si]
			out.Pix[di+1] = nrgba.Pix[si+1]
			out.Pix[di+2] = nrgba.Pix[si+2]
		}
	}
	return out
}

// Luma returns the weighted gray value of an RGB triple, rounded to 8 bits.
func Luma(r, g, b uint8) uint8 {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return uint8(math.Min(255, math.Round(y)))
}
