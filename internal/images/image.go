// Package images loads flyer photos and prepares them for a vision model.
package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// MaxSize is the largest photo accepted, matching the upload limit.
const MaxSize = 10 << 20

var (
	ErrTooLarge    = errors.New("image too large")
	ErrNotAnImage  = errors.New("not a supported image")
	ErrEmptyUpload = errors.New("empty image")
)

var supported = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Image is one photo in memory. Width and Height are 0 when the format was
// recognised but the header could not be decoded.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

// FromBytes sniffs the content type from the data itself; file names and
// client-declared types are not trusted.
func FromBytes(name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: %s", ErrEmptyUpload, name)
	}
	if len(data) > MaxSize {
		return Image{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrTooLarge, name, len(data), MaxSize)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), supported...) {
		return Image{}, fmt.Errorf("%w: %s is %s", ErrNotAnImage, name, mtype.String())
	}

	img := Image{Name: name, MIMEType: mtype.String(), Data: data}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Failed to get image dimensions", "name", name, "error", err)
	} else {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img, nil
}

// Load reads an image file from disk.
func Load(path string) (Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to open image: %w", err)
	}
	if info.Size() > MaxSize {
		return Image{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrTooLarge, path, info.Size(), MaxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	return FromBytes(filepath.Base(path), data)
}

func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL renders the image as data:<mime>;base64,<payload>.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}
