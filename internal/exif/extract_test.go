package exif

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoaudit/internal/exif/exiftest"
)

func TestExtract_MakerNoteRemovedWithoutSubDirectory(t *testing.T) {
	blob := bytes.Repeat([]byte{0x00, 0xAB, 0xCD, 0xEF}, 512)
	img := exiftest.JPEG(exiftest.TIFF([]exiftest.Tag{
		exiftest.ASCII(0x010f, "Acme"),
		exiftest.Rational(0x829d, 28, 10),
		exiftest.Undefined(MakerNoteID, blob),
	}, nil))

	got := NewExtractor(nil).ExtractBytes(img)

	want := Metadata{"Make": "Acme", "FNumber": 2.8}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected metadata (-want +got):\n%s", diff)
	}
}

func TestExtract_SubDirectoryOverridesPrimary(t *testing.T) {
	img := exiftest.JPEG(exiftest.TIFF(
		[]exiftest.Tag{
			exiftest.ASCII(0x010f, "Acme"),
			exiftest.ASCII(0x9003, "2001:01:01 00:00:00"),
		},
		[]exiftest.Tag{
			exiftest.ASCII(0x9003, "2024:06:01 12:30:00"),
			exiftest.Short(0x8827, 400),
		},
	))

	got := NewExtractor(nil).ExtractBytes(img)

	assert.Equal(t, "2024:06:01 12:30:00", got["DateTimeOriginal"], "sub-directory value must win")
	assert.Equal(t, int64(400), got["ISOSpeedRatings"])
	assert.Equal(t, "Acme", got["Make"])
	assert.Contains(t, got, "ExifOffset", "pointer tag is kept like any other primary tag")
}

func TestExtract_MakerNoteInSubDirectory(t *testing.T) {
	img := exiftest.JPEG(exiftest.TIFF(
		[]exiftest.Tag{exiftest.ASCII(0x0110, "X100")},
		[]exiftest.Tag{exiftest.Undefined(MakerNoteID, []byte("vendor-readable-text"))},
	))

	got := NewExtractor(nil).ExtractBytes(img)

	assert.NotContains(t, got, MakerNoteName)
	assert.Equal(t, "X100", got["Model"])
}

func TestExtract_InjectedTableAndUnknownIDs(t *testing.T) {
	table := TagTable{0x0001: "Synthetic"}
	img := exiftest.JPEG(exiftest.TIFF([]exiftest.Tag{
		exiftest.Short(0x0001, 7),
		exiftest.Short(0xBEEF, 9),
	}, nil))

	got := NewExtractor(table).ExtractBytes(img)

	want := Metadata{"Synthetic": int64(7), "48879": int64(9)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected metadata (-want +got):\n%s", diff)
	}
}

func TestExtract_MakerNoteRemovedEvenWhenTableLacksIt(t *testing.T) {
	img := exiftest.JPEG(exiftest.TIFF([]exiftest.Tag{
		exiftest.ASCII(0x010f, "Acme"),
		exiftest.Undefined(MakerNoteID, []byte{1, 2, 3, 4, 5, 6}),
	}, nil))

	got := NewExtractor(TagTable{0x010f: "Make"}).ExtractBytes(img)

	assert.Equal(t, Metadata{"Make": "Acme"}, got)
}

func TestExtract_WithRedact(t *testing.T) {
	img := exiftest.JPEG(exiftest.TIFF([]exiftest.Tag{
		exiftest.ASCII(0x010f, "Acme"),
		exiftest.ASCII(0xa431, "SN-12345"),
	}, nil))

	got := NewExtractor(nil, WithRedact("BodySerialNumber")).ExtractBytes(img)

	assert.Equal(t, Metadata{"Make": "Acme"}, got)
}

func TestExtract_NoTagDirectory(t *testing.T) {
	cases := map[string][]byte{
		"jpeg without app1": exiftest.JPEG(nil),
		"png without exif":  exiftest.PNG(),
		"gif":               []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"),
	}
	for name, img := range cases {
		t.Run(name, func(t *testing.T) {
			got := NewExtractor(nil).ExtractBytes(img)
			assert.Equal(t, Metadata{InfoKey: NoExifMessage}, got)
			assert.Equal(t, InfoKey, got.Status())
		})
	}
}

func TestExtract_OnlyRedactedTagsYieldsInfo(t *testing.T) {
	img := exiftest.JPEG(exiftest.TIFF([]exiftest.Tag{
		exiftest.Undefined(MakerNoteID, []byte{9, 9, 9, 9, 9}),
	}, nil))

	got := NewExtractor(nil).ExtractBytes(img)

	assert.Equal(t, InfoKey, got.Status())
}

func TestExtract_DecodeFailuresBecomeErrorEntry(t *testing.T) {
	corruptTIFF := []byte("II*\x00\xff\xff\xff\x7f")
	truncatedJPEG := []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x40, 0x00, 'E', 'x'}

	cases := map[string][]byte{
		"garbage":        []byte("definitely not an image"),
		"empty":          {},
		"corrupt tiff":   corruptTIFF,
		"truncated jpeg": truncatedJPEG,
		"bad exif body":  exiftest.JPEG([]byte("XX\x00\x00not-tiff")),
	}
	for name, img := range cases {
		t.Run(name, func(t *testing.T) {
			var got Metadata
			require.NotPanics(t, func() { got = NewExtractor(nil).ExtractBytes(img) })
			require.Len(t, got, 1)
			assert.Equal(t, ErrorKey, got.Status())
			assert.NotEmpty(t, got[ErrorKey])
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	img := exiftest.JPEG(exiftest.TIFF(
		[]exiftest.Tag{exiftest.ASCII(0x010f, "Acme"), exiftest.Rational(0x011a, 72, 1)},
		[]exiftest.Tag{exiftest.Rational(0x829a, 1, 250), exiftest.Short(0x8827, 100)},
	))
	orig := append([]byte(nil), img...)

	ex := NewExtractor(nil)
	first := ex.ExtractBytes(img)
	second := ex.ExtractBytes(img)

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, orig, img, "input bytes must not be mutated")
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, exiftest.JPEG(exiftest.TIFF(
		[]exiftest.Tag{exiftest.ASCII(0x010f, "Acme")}, nil)), 0644))

	got := NewExtractor(nil).ExtractFile(path)
	assert.Equal(t, Metadata{"Make": "Acme"}, got)

	missing := NewExtractor(nil).ExtractFile(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.Equal(t, ErrorKey, missing.Status())
}

func TestExtract_FromReader(t *testing.T) {
	img := exiftest.JPEG(exiftest.TIFF([]exiftest.Tag{exiftest.ASCII(0x010f, "Acme")}, nil))
	got := NewExtractor(nil).Extract(bytes.NewReader(img))
	assert.Equal(t, "Acme", got["Make"])
}

func TestTagTableName(t *testing.T) {
	assert.Equal(t, "FNumber", StandardTags.Name(0x829d))
	assert.Equal(t, "ExifOffset", StandardTags.Name(ExifIFDPointer))
	assert.Equal(t, "65535", StandardTags.Name(0xFFFF))
}

func TestMetadataLinesSorted(t *testing.T) {
	md := Metadata{
		"Model":           "X100",
		"FNumber":         2.8,
		"ISOSpeedRatings": int64(200),
		"BitsPerSample":   []int64{8, 8, 8},
	}
	assert.Equal(t, strings.Join([]string{
		"BitsPerSample: (8, 8, 8)",
		"FNumber: 2.8",
		"ISOSpeedRatings: 200",
		"Model: X100",
	}, "\n"), md.String())
}
