// Package imaging composites ordered chapter strips into one tall canvas and
// splits oversized canvases into size-bounded, overlapping horizontal tiles
// for the OCR provider.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/webp"
)

func init() {
	// Strips exported from phones frequently arrive as webp; the stdlib
	// decoders only cover png/jpeg.
	image.RegisterFormat("webp", "RIFF????WEBP", webp.Decode, webp.DecodeConfig)
}

// ErrInvalidImage is returned when a buffer cannot be decoded as an image.
var ErrInvalidImage = errors.New("imaging: invalid image")

// Dimensions reads an image's natural width and height without a full decode.
func Dimensions(buf []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return cfg.Width, cfg.Height, nil
}

func decode(buf []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}
