package exif

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/tiff"
)

// tagValue converts a decoded tag into a primitive, a slice of primitives,
// or a string.
func tagValue(t *tiff.Tag) interface{} {
	switch t.Format() {
	case tiff.StringVal:
		s, err := t.StringVal()
		if err != nil {
			return t.String()
		}
		return strings.TrimSpace(strings.TrimRight(s, "\x00"))

	case tiff.IntVal:
		vals := make([]int64, 0, t.Count)
		for i := 0; i < int(t.Count); i++ {
			v, err := t.Int64(i)
			if err != nil {
				return t.String()
			}
			vals = append(vals, v)
		}
		if len(vals) == 1 {
			return vals[0]
		}
		return vals

	case tiff.RatVal:
		vals := make([]interface{}, 0, t.Count)
		for i := 0; i < int(t.Count); i++ {
			num, den, err := t.Rat2(i)
			if err != nil {
				return t.String()
			}
			vals = append(vals, rational(num, den))
		}
		if len(vals) == 1 {
			return vals[0]
		}
		return vals

	case tiff.FloatVal:
		vals := make([]float64, 0, t.Count)
		for i := 0; i < int(t.Count); i++ {
			v, err := t.Float(i)
			if err != nil {
				return t.String()
			}
			vals = append(vals, v)
		}
		if len(vals) == 1 {
			return vals[0]
		}
		return vals

	case tiff.UndefVal:
		return undefined(t.Val)

	default:
		return t.String()
	}
}

func rational(num, den int64) interface{} {
	if den == 0 {
		return fmt.Sprintf("%d/0", num)
	}
	return float64(num) / float64(den)
}

var asciiCharset = []byte("ASCII\x00\x00\x00")

// undefined renders an UNDEFINED-typed blob as text when it is printable.
func undefined(b []byte) interface{} {
	trimmed := bytes.TrimRight(bytes.TrimPrefix(b, asciiCharset), "\x00")
	if len(trimmed) > 0 && isPrintable(trimmed) {
		return strings.TrimSpace(string(trimmed))
	}
	return fmt.Sprintf("<%d bytes>", len(b))
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// FormatValue renders a metadata value the way it appears in prompts and listings.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case []int64:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprint(v)
	}
}

// Keys returns the map keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lines renders one "key: value" line per entry, sorted by key.
func (m Metadata) Lines() []string {
	lines := make([]string, 0, len(m))
	for _, k := range m.Keys() {
		lines = append(lines, k+": "+FormatValue(m[k]))
	}
	return lines
}

// String joins Lines with newlines.
func (m Metadata) String() string {
	return strings.Join(m.Lines(), "\n")
}
