package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

var (
	// ErrEmptyInput is returned when Stitch receives no buffers.
	ErrEmptyInput = errors.New("imaging: no images to stitch")
	// ErrInvalidDimensions is returned when the computed canvas would be empty.
	ErrInvalidDimensions = errors.New("imaging: canvas has zero dimension")
)

// Stitch composites ordered image buffers into one tall canvas, top to
// bottom, left-aligned at x=0 on a white background. Inputs are assumed to
// be in reading order already; ordering is the caller's responsibility.
// The result is PNG-encoded.
func Stitch(buffers [][]byte) ([]byte, error) {
	if len(buffers) == 0 {
		return nil, ErrEmptyInput
	}

	imgs := make([]image.Image, len(buffers))
	width, height := 0, 0
	for i, buf := range buffers {
		img, err := decode(buf)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		imgs[i] = img
		b := img.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}
	if width == 0 || height == 0 {
		return nil, ErrInvalidDimensions
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	y := 0
	for _, img := range imgs {
		b := img.Bounds()
		dst := image.Rect(0, y, b.Dx(), y+b.Dy())
		draw.Draw(canvas, dst, img, b.Min, draw.Src)
		y += b.Dy()
	}

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, fmt.Errorf("imaging: encode canvas: %w", err)
	}
	return out.Bytes(), nil
}
