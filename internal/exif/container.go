package exif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// errNoExif marks containers that decode fine but carry no tag directory.
var errNoExif = errors.New("no exif data found")

var (
	exifHeader = []byte("Exif\x00\x00")
	pngMagic   = []byte("\x89PNG\r\n\x1a\n")
)

// locateTIFF returns the TIFF-structured tag payload embedded in an image
// container. JPEG (APP1), raw TIFF, PNG (eXIf) and WebP (EXIF chunk) are
// searched; GIF and BMP have no tag directory.
func locateTIFF(data []byte) ([]byte, error) {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		return jpegPayload(data)
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return data, nil
	case bytes.HasPrefix(data, pngMagic):
		return pngPayload(data)
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return webpPayload(data)
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")),
		bytes.HasPrefix(data, []byte("BM")):
		return nil, errNoExif
	case len(data) == 0:
		return nil, errors.New("empty image")
	default:
		return nil, errors.New("cannot identify image file: unrecognized format")
	}
}

// jpegPayload walks JPEG marker segments up to start-of-scan looking for an
// APP1 segment that begins with the Exif header.
func jpegPayload(data []byte) ([]byte, error) {
	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			return nil, fmt.Errorf("invalid JPEG marker at offset %d", i)
		}
		// Fill bytes
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			break
		}
		marker := data[i]
		i++

		switch {
		case marker == 0xD9 || marker == 0xDA:
			return nil, errNoExif
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			continue
		}

		if i+2 > len(data) {
			return nil, errors.New("truncated JPEG segment header")
		}
		length := int(binary.BigEndian.Uint16(data[i : i+2]))
		if length < 2 || i+length > len(data) {
			return nil, fmt.Errorf("truncated JPEG segment 0xFF%02X", marker)
		}
		seg := data[i+2 : i+length]
		if marker == 0xE1 && bytes.HasPrefix(seg, exifHeader) {
			return seg[len(exifHeader):], nil
		}
		i += length
	}
	return nil, errNoExif
}

// pngPayload returns the eXIf chunk body.
func pngPayload(data []byte) ([]byte, error) {
	i := len(pngMagic)
	for i+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		kind := string(data[i+4 : i+8])
		start := i + 8
		end := start + length
		if length < 0 || end+4 > len(data) {
			return nil, fmt.Errorf("truncated PNG chunk %q", kind)
		}
		switch kind {
		case "eXIf":
			return bytes.TrimPrefix(data[start:end], exifHeader), nil
		case "IEND":
			return nil, errNoExif
		}
		i = end + 4 // CRC
	}
	return nil, errNoExif
}

// webpPayload returns the EXIF chunk body of a RIFF/WEBP container.
func webpPayload(data []byte) ([]byte, error) {
	i := 12
	for i+8 <= len(data) {
		kind := string(data[i : i+4])
		length := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		start := i + 8
		end := start + length
		if length < 0 || end > len(data) {
			return nil, fmt.Errorf("truncated WebP chunk %q", kind)
		}
		if kind == "EXIF" {
			return bytes.TrimPrefix(data[start:end], exifHeader), nil
		}
		i = end + length%2
	}
	return nil, errNoExif
}
