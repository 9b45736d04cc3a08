package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"time"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"photoaudit/internal/logging"
)

// DefaultJPEGQuality is used when Normalize gets a quality outside 1..100.
const DefaultJPEGQuality = 92

// Image is a normalized image ready for the backend. MediaType is always
// image/jpeg.
type Image struct {
	Name      string
	MediaType string
	Data      []byte
	Width     int
	Height    int
}

// Normalize converts raw into a JPEG. JPEG input passes through untouched so
// the original bytes reach the backend; anything else is decoded, flattened
// onto white and re-encoded.
func Normalize(raw *RawImage, quality int) (*Image, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	start := time.Now()

	if raw.MediaType == MediaJPEG {
		out := &Image{Name: raw.Name, MediaType: MediaJPEG, Data: raw.Data}
		// Dimensions are informational; a header the stdlib rejects still
		// goes to the backend as-is.
		if cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw.Data)); err == nil {
			out.Width, out.Height = cfg.Width, cfg.Height
		} else {
			logging.Get(logging.CategoryPhoto).Debug("jpeg header of %s unreadable: %v", raw.Name, err)
		}
		return out, nil
	}

	src, format, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		logging.LogEvent(logging.Event{
			Type:   logging.EventNormalize,
			Target: raw.Name,
			Error:  err.Error(),
		})
		return nil, fmt.Errorf("decode %s: %w", raw.Name, err)
	}

	b := src.Bounds()
	rgb := image.NewRGBA(b)
	draw.Draw(rgb, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(rgb, b, src, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode %s: %w", raw.Name, err)
	}

	logging.LogEvent(logging.Event{
		Type:     logging.EventNormalize,
		Target:   raw.Name,
		Success:  true,
		Duration: time.Since(start),
		Fields:   map[string]interface{}{"from": format, "bytes": buf.Len()},
	})
	return &Image{
		Name:      raw.Name,
		MediaType: MediaJPEG,
		Data:      buf.Bytes(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}
