package archive

import "bytes"

// Format identifies an image container by its magic bytes.
type Format string

const (
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatWEBP    Format = "webp"
	FormatUnknown Format = ""
)

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
	pdfMagic  = []byte("%PDF-")
	zipMagic  = []byte{0x50, 0x4B, 0x03, 0x04}
)

// Sniff detects the image format from the buffer's leading bytes.
// Extensions and caller-supplied content types are never trusted;
// this is the only validation an entry's payload gets.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return FormatPNG
	case bytes.HasPrefix(data, jpegMagic):
		return FormatJPEG
	case len(data) >= 12 && bytes.HasPrefix(data, riffMagic) && bytes.Equal(data[8:12], webpMagic):
		return FormatWEBP
	default:
		return FormatUnknown
	}
}

// IsImage reports whether the buffer starts with a supported image signature.
func IsImage(data []byte) bool {
	return Sniff(data) != FormatUnknown
}

// IsZip reports whether the buffer starts with a ZIP local-file header.
func IsZip(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// IsPDF reports whether the buffer starts with a PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// MimeType returns the MIME type for a detected format, or empty string.
func (f Format) MimeType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatWEBP:
		return "image/webp"
	default:
		return ""
	}
}
