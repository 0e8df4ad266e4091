package image

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
)

const Quality = 85

// Processed is a re-encoded upload ready for storage.
type Processed struct {
	Body        *bytes.Buffer
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Process decodes a JPEG, PNG or WebP image and re-encodes it in the same
// format. Re-encoding drops embedded metadata and rejects files that only
// claim to be images.
func Process(r io.Reader) (*Processed, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}

	buf := new(bytes.Buffer)
	ext := "." + format
	switch format {
	case "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: Quality})
		ext = ".jpg"
	case "png":
		err = png.Encode(buf, img)
	case "webp":
		err = webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: Quality})
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("could not encode image: %w", err)
	}

	bounds := img.Bounds()
	return &Processed{
		Body:        buf,
		ContentType: "image/" + format,
		Ext:         ext,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}
