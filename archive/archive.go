// Package archive unpacks a chapter upload, a zip of screenshot strips or a
// single PDF rip, into ordered, signature-validated image buffers.
//
// Extraction is a pure function: limits in, images out, no side effects.
// Entries whose payload fails the magic-byte check are dropped silently;
// only structural violations (archive too large, too many entries) fail the
// whole upload.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrArchiveTooLarge is returned when the zip exceeds the archive size limit.
	ErrArchiveTooLarge = errors.New("archive: archive exceeds size limit")
	// ErrTooManyEntries is returned when the zip holds more entries than allowed.
	ErrTooManyEntries = errors.New("archive: too many entries")
	// ErrEntryTooLarge is returned when a single entry exceeds the per-entry limit.
	ErrEntryTooLarge = errors.New("archive: entry exceeds size limit")
	// ErrNoValidImages is returned when zero entries survive validation.
	ErrNoValidImages = errors.New("archive: no valid images found")
	// ErrNotZip is returned when the buffer is not a readable zip archive.
	ErrNotZip = errors.New("archive: not a zip archive")
)

// Limits bounds archive extraction.
type Limits struct {
	MaxArchiveBytes int64 // whole archive (default 100 MiB)
	MaxEntries      int   // entry count (default 500)
	MaxEntryBytes   int64 // single entry, uncompressed (default 10 MiB)
}

func (l *Limits) defaults() {
	if l.MaxArchiveBytes <= 0 {
		l.MaxArchiveBytes = 100 * 1024 * 1024
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = 500
	}
	if l.MaxEntryBytes <= 0 {
		l.MaxEntryBytes = 10 * 1024 * 1024
	}
}

// Image is one validated image pulled from an upload, in listing order.
type Image struct {
	Index  int
	Name   string
	Format Format
	Data   []byte
}

// allowedExt is the extension allowlist applied before payload sniffing.
var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// ExtractZip validates the zip and returns its image entries in
// archive-listing order. Directories, zero-byte entries, disallowed
// extensions, and entries whose bytes fail the signature check are skipped.
func ExtractZip(data []byte, limits Limits) ([]Image, error) {
	limits.defaults()

	if int64(len(data)) > limits.MaxArchiveBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrArchiveTooLarge, len(data), limits.MaxArchiveBytes)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotZip, err)
	}

	if len(zr.File) > limits.MaxEntries {
		return nil, fmt.Errorf("%w: %d entries (max %d)", ErrTooManyEntries, len(zr.File), limits.MaxEntries)
	}

	var images []Image
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || f.UncompressedSize64 == 0 {
			continue
		}
		if f.UncompressedSize64 > uint64(limits.MaxEntryBytes) {
			return nil, fmt.Errorf("%w: %s is %d bytes (max %d)",
				ErrEntryTooLarge, f.Name, f.UncompressedSize64, limits.MaxEntryBytes)
		}
		ext := strings.ToLower(path.Ext(f.Name))
		if !allowedExt[ext] {
			continue
		}

		buf, err := readEntry(f, limits.MaxEntryBytes)
		if err != nil {
			return nil, err
		}

		format := Sniff(buf)
		if format == FormatUnknown {
			// Extension lied about the payload. Drop, don't fail.
			continue
		}

		images = append(images, Image{
			Index:  len(images),
			Name:   f.Name,
			Format: format,
			Data:   buf,
		})
	}

	if len(images) == 0 {
		return nil, ErrNoValidImages
	}
	return images, nil
}

// readEntry reads one entry, enforcing the size limit against the actual
// stream as well as the declared size (zip headers can lie).
func readEntry(f *zip.File, maxBytes int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("archive: open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	buf, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("archive: read entry %s: %w", f.Name, err)
	}
	if int64(len(buf)) > maxBytes {
		return nil, fmt.Errorf("%w: %s (declared size understated)", ErrEntryTooLarge, f.Name)
	}
	return buf, nil
}
