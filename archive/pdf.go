package archive

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrInvalidPDF is returned when the buffer cannot be read as a PDF.
var ErrInvalidPDF = errors.New("archive: invalid PDF")

// ImagesFromPDF pulls embedded page images out of a PDF chapter rip, in page
// order. Webtoon rips embed each strip as a JPEG (DCTDecode) stream, so only
// those are recovered; other image encodings are skipped. Images failing the
// signature check are dropped silently, same as zip entries.
func ImagesFromPDF(data []byte, limits Limits) ([]Image, error) {
	limits.defaults()

	if int64(len(data)) > limits.MaxArchiveBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrArchiveTooLarge, len(data), limits.MaxArchiveBytes)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	seen := make(map[int]bool)
	var images []Image
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		for _, objNr := range pdfcpu.ImageObjNrs(ctx, pageNr) {
			if seen[objNr] {
				continue
			}
			seen[objNr] = true

			buf := jpegStream(ctx, objNr)
			if buf == nil {
				continue
			}
			if int64(len(buf)) > limits.MaxEntryBytes {
				return nil, fmt.Errorf("%w: page %d image object %d", ErrEntryTooLarge, pageNr, objNr)
			}
			if Sniff(buf) != FormatJPEG {
				continue
			}
			images = append(images, Image{
				Index:  len(images),
				Name:   fmt.Sprintf("page_%03d_obj_%d.jpg", pageNr, objNr),
				Format: FormatJPEG,
				Data:   buf,
			})
		}
	}

	if len(images) == 0 {
		return nil, ErrNoValidImages
	}
	return images, nil
}

// jpegStream returns the raw bytes of an image XObject if its final filter is
// DCTDecode (i.e. the stream body is a complete JPEG file), else nil.
func jpegStream(ctx *model.Context, objNr int) []byte {
	entry, ok := ctx.Table[objNr]
	if !ok || entry == nil || entry.Free {
		return nil
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return nil
	}
	if len(sd.FilterPipeline) == 0 {
		return nil
	}
	if sd.FilterPipeline[len(sd.FilterPipeline)-1].Name != "DCTDecode" {
		return nil
	}
	if len(sd.Raw) == 0 {
		return nil
	}
	return sd.Raw
}
