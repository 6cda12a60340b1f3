// Package intensity turns camera frames into the per-frame scalar the
// estimator consumes.
package intensity

import (
	"errors"
	"image"
)

var ErrEmptyFrame = errors.New("intensity: empty frame")

// Extractor reduces a frame to one intensity value.
type Extractor interface {
	Intensity(img image.Image) (float64, error)
}

// Luma averages BT.601 luma (0.299R + 0.587G + 0.114B) over every pixel, on
// the 0-255 scale.
type Luma struct{}

func (Luma) Intensity(img image.Image) (float64, error) {
	b := img.Bounds()
	pixels := b.Dx() * b.Dy()
	if pixels <= 0 {
		return 0, ErrEmptyFrame
	}

	var total float64
	switch m := img.(type) {
	case *image.RGBA:
		total = sumPix(m.Pix, m.Stride, b.Dx(), b.Dy())
	case *image.NRGBA:
		total = sumPix(m.Pix, m.Stride, b.Dx(), b.Dy())
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				total += luma(float64(r>>8), float64(g>>8), float64(bl>>8))
			}
		}
	}
	return total / float64(pixels), nil
}

// Pix starts at the image's Min point.
func sumPix(pix []byte, stride, w, h int) float64 {
	var total float64
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+4*w]
		for i := 0; i < len(row); i += 4 {
			total += luma(float64(row[i]), float64(row[i+1]), float64(row[i+2]))
		}
	}
	return total
}

func luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}
