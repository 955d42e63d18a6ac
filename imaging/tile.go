package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// Tile is a horizontal slice of a source image, re-encoded to fit the OCR
// provider's per-request size limit. StartY positions the slice in
// full-image coordinates.
type Tile struct {
	Data   []byte
	StartY int
	Width  int
	Height int
}

// TileOptions bounds the split.
type TileOptions struct {
	// MaxBytes is the provider's per-request size limit (default 1 MiB).
	// A buffer at or under the limit passes through as a single tile.
	MaxBytes int64
	// OverlapPx is the band shared between consecutive tiles so no text
	// line is cut without appearing whole in at least one tile (default 120).
	OverlapPx int
	// JPEGQuality applies when tiles are re-encoded (default 85).
	JPEGQuality int
}

func (o *TileOptions) defaults() {
	if o.MaxBytes <= 0 {
		o.MaxBytes = 1024 * 1024
	}
	if o.OverlapPx <= 0 {
		o.OverlapPx = 120
	}
	if o.JPEGQuality <= 0 {
		o.JPEGQuality = 85
	}
}

// Split cuts an oversized image into overlapping horizontal tiles whose
// union covers [0, height) with no gaps. Target tile height comes from the
// ratio of the byte limit to the image's average bytes-per-row. A buffer
// already within the limit is returned unmodified as one tile.
func Split(buf []byte, opts TileOptions) ([]Tile, error) {
	opts.defaults()

	if int64(len(buf)) <= opts.MaxBytes {
		w, h, err := Dimensions(buf)
		if err != nil {
			return nil, err
		}
		return []Tile{{Data: buf, StartY: 0, Width: w, Height: h}}, nil
	}

	img, err := decode(buf)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrInvalidImage)
	}

	bytesPerRow := float64(len(buf)) / float64(height)
	tileHeight := int(float64(opts.MaxBytes) / bytesPerRow)
	if tileHeight <= opts.OverlapPx {
		// Degenerate ratio: keep the walk advancing.
		tileHeight = opts.OverlapPx * 2
	}
	if tileHeight > height {
		tileHeight = height
	}

	var tiles []Tile
	for startY := 0; startY < height; {
		h := tileHeight
		if startY+h > height {
			h = height - startY
		}

		data, err := encodeSlice(img, bounds, startY, width, h, opts.JPEGQuality)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, Tile{Data: data, StartY: startY, Width: width, Height: h})

		if startY+h >= height {
			break
		}
		startY += tileHeight - opts.OverlapPx
	}
	return tiles, nil
}

// encodeSlice copies rows [startY, startY+h) into a fresh canvas and
// JPEG-encodes it.
func encodeSlice(img image.Image, bounds image.Rectangle, startY, width, h, quality int) ([]byte, error) {
	slice := image.NewRGBA(image.Rect(0, 0, width, h))
	draw.Draw(slice, slice.Bounds(), img, image.Pt(bounds.Min.X, bounds.Min.Y+startY), draw.Src)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, slice, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode tile at y=%d: %w", startY, err)
	}
	return out.Bytes(), nil
}
