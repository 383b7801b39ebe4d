// Package storage persists recipe images and builds their public URLs.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// SetLogLevel aligns the storage logger with the application log level
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// MaxImageSize bounds decoded image payloads
const MaxImageSize = 5 << 20

var (
	ErrInvalidDataURL = errors.New("image must be a base64 data URL")
	ErrNotAnImage     = errors.New("uploaded file is not an image")
	ErrImageTooLarge  = errors.New("image exceeds the maximum size")
)

// ImageStore stores image blobs under keys such as "recipes/images/<uuid>.png"
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key, or "" for an empty key
	URL(key string) string
}

// Image is a decoded upload
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeDataURL parses "data:<mime>;base64,<payload>". The declared mime type
// is ignored; the payload is sniffed and must be an image.
func DecodeDataURL(raw string) (*Image, error) {
	header, payload, found := strings.Cut(strings.TrimSpace(raw), ",")
	if !found || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidDataURL
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotAnImage, detected.String())
	}

	return &Image{
		Data:        data,
		ContentType: detected.String(),
		Extension:   detected.Extension(),
	}, nil
}

// NewRecipeImageKey returns a fresh key for a recipe image with the given extension (".png")
func NewRecipeImageKey(extension string) string {
	return "recipes/images/" + uuid.NewString() + extension
}

// joinURL appends key to base with exactly one separating slash
func joinURL(base, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
