// Package photo handles image intake: reading uploads and files under a size
// cap, sniffing their media type, and normalizing them to JPEG for the
// reasoning backend.
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"photoaudit/internal/logging"
)

// DefaultMaxBytes caps a single image.
const DefaultMaxBytes = 15 * 1024 * 1024

// Supported media types.
const (
	MediaJPEG = "image/jpeg"
	MediaPNG  = "image/png"
	MediaGIF  = "image/gif"
	MediaWebP = "image/webp"
	MediaBMP  = "image/bmp"
	MediaTIFF = "image/tiff"
)

var (
	ErrTooLarge             = errors.New("image exceeds size limit")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrEmpty                = errors.New("image is empty")
)

// imageExts maps file extensions to media types for supported formats.
var imageExts = map[string]string{
	".jpg":  MediaJPEG,
	".jpeg": MediaJPEG,
	".png":  MediaPNG,
	".gif":  MediaGIF,
	".webp": MediaWebP,
	".bmp":  MediaBMP,
	".tif":  MediaTIFF,
	".tiff": MediaTIFF,
}

// RawImage is an image as received, before any conversion.
type RawImage struct {
	Name      string
	MediaType string
	Data      []byte
}

// Size returns the byte length of the image.
func (r *RawImage) Size() int { return len(r.Data) }

// Load reads path, enforcing maxBytes (0 means DefaultMaxBytes).
func Load(path string, maxBytes int64) (*RawImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path), maxBytes)
}

// Read consumes r as a single image named name.
func Read(r io.Reader, name string, maxBytes int64) (*RawImage, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%s: %w (%.1f MB max)", name, ErrTooLarge, float64(maxBytes)/(1024*1024))
	}
	return FromBytes(data, name)
}

// FromBytes wraps data, detecting the media type from content first and
// from the file extension second.
func FromBytes(data []byte, name string) (*RawImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	mt := Sniff(data)
	if mt == "" {
		mt = imageExts[strings.ToLower(filepath.Ext(name))]
	}
	if mt == "" {
		logging.Get(logging.CategoryPhoto).Warn("rejecting %s: unrecognized content", name)
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedMediaType)
	}
	return &RawImage{Name: name, MediaType: mt, Data: data}, nil
}

// Sniff returns the media type of data, or "" when it is not a supported image.
func Sniff(data []byte) string {
	if bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")) {
		return MediaTIFF
	}
	switch ct := http.DetectContentType(data); ct {
	case MediaJPEG, MediaPNG, MediaGIF, MediaWebP, MediaBMP:
		return ct
	}
	return ""
}

// Supported reports whether name has an extension accepted for upload.
func Supported(name string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extensions lists accepted file extensions.
func Extensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}
}
