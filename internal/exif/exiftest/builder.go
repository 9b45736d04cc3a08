// Package exiftest builds synthetic images with hand-laid tag directories
// for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// TIFF field types.
const (
	typeASCII     = 2
	typeShort     = 3
	typeLong      = 4
	typeRational  = 5
	typeUndefined = 7
)

// Tag is one IFD entry.
type Tag struct {
	ID    uint16
	Type  uint16
	Count uint32
	Data  []byte // little-endian encoded value
}

func ASCII(id uint16, s string) Tag {
	b := append([]byte(s), 0)
	return Tag{ID: id, Type: typeASCII, Count: uint32(len(b)), Data: b}
}

func Short(id uint16, v uint16) Tag {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return Tag{ID: id, Type: typeShort, Count: 1, Data: b}
}

func Long(id uint16, v uint32) Tag {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return Tag{ID: id, Type: typeLong, Count: 1, Data: b}
}

func Rational(id uint16, num, den uint32) Tag {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:], num)
	binary.LittleEndian.PutUint32(b[4:], den)
	return Tag{ID: id, Type: typeRational, Count: 1, Data: b}
}

func Undefined(id uint16, b []byte) Tag {
	return Tag{ID: id, Type: typeUndefined, Count: uint32(len(b)), Data: b}
}

// TIFF lays out a little-endian TIFF structure with IFD0 and, when sub is
// non-nil, an Exif sub-IFD referenced from IFD0 by tag 0x8769.
func TIFF(ifd0 []Tag, sub []Tag) []byte {
	le := binary.LittleEndian
	ifdSize := func(n int) int { return 2 + 12*n + 4 }

	tags0 := append([]Tag(nil), ifd0...)
	if sub != nil {
		tags0 = append(tags0, Long(0x8769, 0)) // patched below
	}

	ifd0Off := 8
	subOff := ifd0Off + ifdSize(len(tags0))
	dataOff := subOff
	if sub != nil {
		dataOff += ifdSize(len(sub))
		tags0[len(tags0)-1] = Long(0x8769, uint32(subOff))
	}

	var data []byte
	writeIFD := func(tags []Tag) []byte {
		buf := make([]byte, ifdSize(len(tags)))
		le.PutUint16(buf, uint16(len(tags)))
		for i, tg := range tags {
			e := buf[2+12*i:]
			le.PutUint16(e[0:], tg.ID)
			le.PutUint16(e[2:], tg.Type)
			le.PutUint32(e[4:], tg.Count)
			if len(tg.Data) <= 4 {
				copy(e[8:12], tg.Data)
				continue
			}
			le.PutUint32(e[8:], uint32(dataOff+len(data)))
			data = append(data, tg.Data...)
			if len(data)%2 == 1 {
				data = append(data, 0)
			}
		}
		return buf
	}

	out := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	out = append(out, writeIFD(tags0)...)
	if sub != nil {
		out = append(out, writeIFD(sub)...)
	}
	return append(out, data...)
}

// JPEG encodes a small gray image and inserts an APP1 Exif segment holding
// payload right after SOI. A nil payload yields a JPEG without tags.
func JPEG(payload []byte) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, sample(), &jpeg.Options{Quality: 80}); err != nil {
		panic(err)
	}
	body := buf.Bytes()
	if payload == nil {
		return body
	}

	seg := append([]byte("Exif\x00\x00"), payload...)
	n := len(seg) + 2
	app1 := []byte{0xFF, 0xE1, byte(n >> 8), byte(n)}

	out := make([]byte, 0, len(body)+len(app1)+len(seg))
	out = append(out, body[:2]...)
	out = append(out, app1...)
	out = append(out, seg...)
	return append(out, body[2:]...)
}

// PNG encodes a small image without any tag directory.
func PNG() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, sample()); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func sample() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 16), uint8(y * 16), 128, 255})
		}
	}
	return img
}
