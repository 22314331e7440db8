package storage

import (
	"bytes"
	"io"

	"github.com/disintegration/imaging"
	errs "github.com/infieles/reportes/errors"
)

// StripMetadata decodes the image and encodes it again so EXIF blocks (GPS
// position, device serials) are not published with the evidence. Orientation
// is applied to the pixels first. Formats imaging cannot encode, such as
// webp, are passed through unchanged.
func StripMetadata(r io.Reader, ext string) (io.Reader, error) {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return r, nil
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errs.Validation("la imagen no es válida")
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return nil, errs.Storage(err, "error al procesar la imagen")
	}
	return &buf, nil
}
