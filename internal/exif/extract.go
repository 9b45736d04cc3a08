// Package exif flattens the tag directory embedded in an image into a
// single name→value map.
//
// IFD0 and the Exif sub-IFD (0x8769) are merged with child-overrides-parent
// semantics. The vendor MakerNote is always removed. Extraction never fails:
// a missing directory yields an "info" entry and a decode failure yields an
// "error" entry.
package exif

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rwcarlsen/goexif/tiff"

	"photoaudit/internal/logging"
)

// Sentinel keys and messages.
const (
	InfoKey       = "info"
	ErrorKey      = "error"
	NoExifMessage = "no exif data found"
)

// Metadata is the flattened tag map. Values are string, int64, float64 or
// slices of those.
type Metadata map[string]interface{}

// Status reports whether m is one of the single-entry sentinels.
// It returns "info", "error" or "".
func (m Metadata) Status() string {
	if len(m) != 1 {
		return ""
	}
	if _, ok := m[InfoKey]; ok {
		return InfoKey
	}
	if _, ok := m[ErrorKey]; ok {
		return ErrorKey
	}
	return ""
}

// Source priorities for the merge. Higher priorities are applied later
// and win on name collisions.
const (
	priorityPrimary = iota
	priorityExifIFD
)

type entry struct {
	priority int
	id       uint16
	value    interface{}
}

// Extractor decodes tag directories. It holds no per-call state and is
// safe for concurrent use.
type Extractor struct {
	table  TagTable
	redact map[string]bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRedact removes additional tag names from every result.
func WithRedact(names ...string) Option {
	return func(e *Extractor) {
		for _, n := range names {
			e.redact[n] = true
		}
	}
}

// NewExtractor builds an extractor resolving names through table.
// A nil table uses StandardTags.
func NewExtractor(table TagTable, opts ...Option) *Extractor {
	if table == nil {
		table = StandardTags
	}
	e := &Extractor{
		table:  table,
		redact: map[string]bool{MakerNoteName: true},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFile opens path, extracts, and closes the file on every path.
func (e *Extractor) ExtractFile(path string) Metadata {
	f, err := os.Open(path)
	if err != nil {
		return errorMetadata(err)
	}
	defer f.Close()
	return e.Extract(f)
}

// Extract reads the whole image from r and returns its flattened tags.
func (e *Extractor) Extract(r io.Reader) Metadata {
	data, err := io.ReadAll(r)
	if err != nil {
		return errorMetadata(fmt.Errorf("read image: %w", err))
	}
	return e.ExtractBytes(data)
}

// ExtractBytes is Extract over an in-memory image. data is not modified.
func (e *Extractor) ExtractBytes(data []byte) (md Metadata) {
	defer func() {
		if p := recover(); p != nil {
			logging.Get(logging.CategoryExif).Error("decoder panic: %v", p)
			md = errorMetadata(fmt.Errorf("decoder panic: %v", p))
		}
	}()

	timer := logging.StartTimer(logging.CategoryExif, "Extract")
	defer timer.Stop()

	payload, err := locateTIFF(data)
	if errors.Is(err, errNoExif) {
		logging.ExifDebug("no tag directory in %d byte image", len(data))
		return infoMetadata()
	}
	if err != nil {
		logging.Get(logging.CategoryExif).Warn("container error: %v", err)
		return errorMetadata(err)
	}

	entries, err := e.decode(payload)
	if err != nil {
		logging.Get(logging.CategoryExif).Warn("tag directory decode failed: %v", err)
		return errorMetadata(err)
	}
	if len(entries) == 0 {
		return infoMetadata()
	}

	md = e.flatten(entries)
	if len(md) == 0 {
		return infoMetadata()
	}
	logging.LogEvent(logging.Event{
		Type:    logging.EventExtract,
		Success: true,
		Fields:  map[string]interface{}{"tags": len(md)},
	})
	return md
}

// decode reads IFD0 and, when present, the Exif sub-IFD.
func (e *Extractor) decode(payload []byte) ([]entry, error) {
	tif, err := tiff.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decode tag directory: %w", err)
	}
	if len(tif.Dirs) == 0 || tif.Dirs[0] == nil {
		return nil, nil
	}

	primary := tif.Dirs[0]
	entries := make([]entry, 0, len(primary.Tags))
	var pointer *tiff.Tag
	for _, tag := range primary.Tags {
		if tag.Id == ExifIFDPointer {
			pointer = tag
		}
		entries = append(entries, entry{priority: priorityPrimary, id: tag.Id, value: tagValue(tag)})
	}

	if pointer == nil {
		return entries, nil
	}
	sub, err := decodeSubDir(payload, pointer, tif)
	if err != nil {
		// The primary directory is still useful on its own.
		logging.Get(logging.CategoryExif).Warn("exif sub-directory unreadable: %v", err)
		return entries, nil
	}
	for _, tag := range sub.Tags {
		entries = append(entries, entry{priority: priorityExifIFD, id: tag.Id, value: tagValue(tag)})
	}
	return entries, nil
}

func decodeSubDir(payload []byte, pointer *tiff.Tag, tif *tiff.Tiff) (*tiff.Dir, error) {
	offset, err := pointer.Int64(0)
	if err != nil {
		return nil, err
	}
	if offset <= 0 || offset >= int64(len(payload)) {
		return nil, fmt.Errorf("offset %d out of range", offset)
	}
	r := bytes.NewReader(payload)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	dir, _, err := tiff.DecodeDir(r, tif.Order)
	return dir, err
}

// flatten applies entries in priority order so that later sources
// overwrite earlier ones by resolved name, then applies redaction.
func (e *Extractor) flatten(entries []entry) Metadata {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})

	md := make(Metadata, len(entries))
	for _, en := range entries {
		if en.id == MakerNoteID {
			continue
		}
		md[e.table.Name(en.id)] = en.value
	}
	for name := range e.redact {
		delete(md, name)
	}
	return md
}

func infoMetadata() Metadata {
	return Metadata{InfoKey: NoExifMessage}
}

func errorMetadata(err error) Metadata {
	return Metadata{ErrorKey: err.Error()}
}
