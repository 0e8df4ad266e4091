package validation

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

var (
	ErrFileSize     = errors.New("file size exceeds limit")
	ErrFileType     = errors.New("invalid file type. Allowed types: JPG, PNG, WEBP")
	ErrFileRequired = errors.New("no file provided")
)

const MaxImageSize = 10 * 1024 * 1024

var AllowedImageTypes = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// ValidateImage checks size, extension and declared content type. maxBytes
// of zero means MaxImageSize.
func ValidateImage(file *multipart.FileHeader, maxBytes int64) error {
	if file == nil {
		return ErrFileRequired
	}
	if maxBytes <= 0 {
		maxBytes = MaxImageSize
	}
	if file.Size > maxBytes {
		return fmt.Errorf("%w of %d bytes", ErrFileSize, maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !AllowedImageTypes[ext] {
		return ErrFileType
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" && !allowedContentTypes[strings.ToLower(ct)] {
		return ErrFileType
	}
	return nil
}
