// Package media validates uploaded images and stores them either on the
// local filesystem or in an S3 bucket.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	// decoders accepted for post images
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxUploadSize caps the size of a single uploaded image.
const MaxUploadSize = 5 << 20

// UploadDir is the key prefix for post images.
const UploadDir = "posts"

var ErrInvalidImage = errors.New("not a supported image")

var extensions = map[string]string{
	"gif":  ".gif",
	"jpeg": ".jpg",
	"png":  ".png",
	"webp": ".webp",
	"bmp":  ".bmp",
}

var contentTypes = map[string]string{
	"gif":  "image/gif",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"bmp":  "image/bmp",
}

// Upload is an image received from a form.
type Upload struct {
	Filename string
	Data     []byte
}

// Storage keeps uploaded files under slash-separated names.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) error
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// ValidateImage decodes data fully and returns the detected format.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 || len(data) > MaxUploadSize {
		return "", ErrInvalidImage
	}
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrInvalidImage
	}
	if _, ok := extensions[format]; !ok {
		return "", ErrInvalidImage
	}
	return format, nil
}

// SaveImage validates up and stores it under a fresh name in UploadDir.
// It returns the stored name.
func SaveImage(ctx context.Context, s Storage, up *Upload) (string, error) {
	format, err := ValidateImage(up.Data)
	if err != nil {
		return "", err
	}
	name := path.Join(UploadDir, uuid.NewString()+extensions[format])
	if err := s.Save(ctx, name, bytes.NewReader(up.Data), contentTypes[format]); err != nil {
		return "", errors.Wrapf(err, "saving image %q failed", up.Filename)
	}
	return name, nil
}

// cleanName rejects names that could escape the storage root.
func cleanName(name string) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean != strings.TrimPrefix(name, "/") {
		return "", fmt.Errorf("invalid media name %q", name)
	}
	return clean, nil
}
