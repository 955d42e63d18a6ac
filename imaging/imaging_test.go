package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"
)

// solidPNG encodes a w×h rectangle of one color.
func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// noisyPNG encodes random pixels, which compress poorly, handy for forcing
// the tiler over its byte threshold with a small image.
func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = byte(rng.Intn(256))
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestStitchOrderAndGeometry(t *testing.T) {
	// WHAT: Three strips of heights 10/20/30 stitch to height 60, each strip
	// occupying its cumulative Y band; width is the max of the inputs.
	// WHY: Vertical order is the chapter's reading order.
	red := color.RGBA{255, 0, 0, 255}
	green := color.RGBA{0, 255, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}

	out, err := Stitch([][]byte{
		solidPNG(t, 50, 10, red),
		solidPNG(t, 80, 20, green),
		solidPNG(t, 30, 30, blue),
	})
	if err != nil {
		t.Fatalf("stitch: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 80 || b.Dy() != 60 {
		t.Fatalf("canvas: got %dx%d, want 80x60", b.Dx(), b.Dy())
	}

	probe := func(x, y int, want color.RGBA) {
		t.Helper()
		r, g, bl, _ := img.At(x, y).RGBA()
		got := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), 255}
		if got != want {
			t.Errorf("pixel (%d,%d): got %v, want %v", x, y, got, want)
		}
	}
	probe(10, 5, red)
	probe(10, 15, green)
	probe(10, 45, blue)
	// Right of the narrow red strip: white background.
	probe(70, 5, color.RGBA{255, 255, 255, 255})
}

func TestStitchEmptyInput(t *testing.T) {
	if _, err := Stitch(nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("got %v, want ErrEmptyInput", err)
	}
}

func TestStitchRejectsGarbage(t *testing.T) {
	_, err := Stitch([][]byte{[]byte("not an image")})
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("got %v, want ErrInvalidImage", err)
	}
}

func TestSplitSingleTilePassthrough(t *testing.T) {
	// WHAT: A buffer within the byte limit comes back unmodified as one tile
	// spanning the full image.
	// WHY: Re-encoding costs quality; skip it when the provider accepts the
	// original.
	buf := solidPNG(t, 100, 300, color.RGBA{200, 200, 200, 255})

	tiles, err := Split(buf, TileOptions{MaxBytes: int64(len(buf)) + 1})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(tiles) != 1 {
		t.Fatalf("tiles: got %d, want 1", len(tiles))
	}
	tl := tiles[0]
	if tl.StartY != 0 || tl.Width != 100 || tl.Height != 300 {
		t.Errorf("geometry: %+v", tl)
	}
	if !bytes.Equal(tl.Data, buf) {
		t.Error("single tile should be the original buffer")
	}
}

func TestSplitCoverageInvariant(t *testing.T) {
	// WHAT: Tile spans cover [0, H) with consecutive tiles overlapping by
	// exactly the configured band and no gaps.
	// WHY: A gap loses dialogue; a wrong overlap breaks downstream dedup.
	const height = 400
	buf := noisyPNG(t, 200, height)
	opts := TileOptions{MaxBytes: 60_000, OverlapPx: 40}

	if int64(len(buf)) <= opts.MaxBytes {
		t.Fatalf("fixture too small: %d bytes", len(buf))
	}

	tiles, err := Split(buf, opts)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(tiles) < 2 {
		t.Fatalf("expected multiple tiles, got %d", len(tiles))
	}

	if tiles[0].StartY != 0 {
		t.Errorf("first tile starts at %d", tiles[0].StartY)
	}
	last := tiles[len(tiles)-1]
	if last.StartY+last.Height != height {
		t.Errorf("coverage ends at %d, want %d", last.StartY+last.Height, height)
	}
	for i := 1; i < len(tiles); i++ {
		prev, cur := tiles[i-1], tiles[i]
		overlap := prev.StartY + prev.Height - cur.StartY
		if overlap != opts.OverlapPx {
			t.Errorf("tiles %d/%d: overlap %d, want %d", i-1, i, overlap, opts.OverlapPx)
		}
		if cur.StartY > prev.StartY+prev.Height {
			t.Errorf("gap between tiles %d and %d", i-1, i)
		}
		if cur.StartY <= prev.StartY {
			t.Errorf("tile %d does not advance", i)
		}
	}

	for i, tl := range tiles {
		w, h, err := Dimensions(tl.Data)
		if err != nil {
			t.Fatalf("tile %d: %v", i, err)
		}
		if w != tl.Width || h != tl.Height {
			t.Errorf("tile %d: encoded %dx%d, descriptor %dx%d", i, w, h, tl.Width, tl.Height)
		}
	}
}

func TestSplitRejectsGarbage(t *testing.T) {
	big := bytes.Repeat([]byte("x"), 2048)
	_, err := Split(big, TileOptions{MaxBytes: 1024})
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("got %v, want ErrInvalidImage", err)
	}
}

func TestDimensions(t *testing.T) {
	buf := solidPNG(t, 33, 77, color.RGBA{0, 0, 0, 255})
	w, h, err := Dimensions(buf)
	if err != nil {
		t.Fatalf("dimensions: %v", err)
	}
	if w != 33 || h != 77 {
		t.Errorf("got %dx%d, want 33x77", w, h)
	}
}
