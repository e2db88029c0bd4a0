// Package exifreadtest builds small JPEG fixtures for tests.
package exifreadtest

import (
	"encoding/binary"
	"math"
)

// JPEG wraps segments between SOI and EOI markers.
func JPEG(segments ...[]byte) []byte {
	out := []byte{0xFF, 0xD8}
	for _, s := range segments {
		out = append(out, s...)
	}
	return append(out, 0xFF, 0xD9)
}

// Segment frames body as a marker segment. The length field covers itself.
func Segment(marker byte, body []byte) []byte {
	out := []byte{0xFF, marker, 0, 0}
	binary.BigEndian.PutUint16(out[2:], uint16(len(body)+2))
	return append(out, body...)
}

// APP1 frames an Exif body as an APP1 segment.
func APP1(tiff []byte) []byte {
	return Segment(0xE1, append([]byte("Exif\x00\x00"), tiff...))
}

// TextAPP1 is an APP1/Exif segment whose payload is plain text, enough for the
// scanner but not a valid TIFF structure.
func TextAPP1(text string) []byte {
	return APP1([]byte(text))
}

// Pad returns n zero bytes, used to grow fixtures to a given size.
func Pad(n int) []byte {
	return make([]byte, n)
}

// Fields describe the tags written by TIFF.
type Fields struct {
	DateTimeOriginal string // "2006:01:02 15:04:05"
	Make             string
	Model            string
	Orientation      uint16
	HasGPS           bool
	Lat, Lon         float64 // decimal degrees, sign gives the reference
}

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func ascii(tag uint16, s string) entry {
	b := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func short(tag uint16, v uint16) entry {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return entry{tag: tag, typ: typeShort, count: 1, data: b}
}

func long(tag uint16, v uint32) entry {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: b}
}

func degrees(tag uint16, v float64) entry {
	v = math.Abs(v)
	d := math.Floor(v)
	m := math.Floor((v - d) * 60)
	s := ((v-d)*60 - m) * 60
	b := make([]byte, 24)
	binary.BigEndian.PutUint32(b[0:], uint32(d))
	binary.BigEndian.PutUint32(b[4:], 1)
	binary.BigEndian.PutUint32(b[8:], uint32(m))
	binary.BigEndian.PutUint32(b[12:], 1)
	binary.BigEndian.PutUint32(b[16:], uint32(math.Round(s*1000)))
	binary.BigEndian.PutUint32(b[20:], 1000)
	return entry{tag: tag, typ: typeRational, count: 3, data: b}
}

func ifdSize(entries []entry) int {
	n := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.data) > 4 {
			n += len(e.data)
		}
	}
	return n
}

// encodeIFD lays out one directory at base, with out-of-line values directly after it.
func encodeIFD(base int, entries []entry) []byte {
	out := make([]byte, 2+12*len(entries)+4)
	binary.BigEndian.PutUint16(out, uint16(len(entries)))
	var extra []byte
	dataOff := base + len(out)
	for i, e := range entries {
		p := out[2+12*i:]
		binary.BigEndian.PutUint16(p[0:], e.tag)
		binary.BigEndian.PutUint16(p[2:], e.typ)
		binary.BigEndian.PutUint32(p[4:], e.count)
		if len(e.data) <= 4 {
			copy(p[8:12], e.data)
			continue
		}
		binary.BigEndian.PutUint32(p[8:], uint32(dataOff+len(extra)))
		extra = append(extra, e.data...)
	}
	return append(out, extra...)
}

// TIFF encodes a big-endian EXIF TIFF structure with IFD0, an Exif sub-IFD
// and an optional GPS sub-IFD.
func TIFF(f Fields) []byte {
	var ifd0 []entry
	if f.Make != "" {
		ifd0 = append(ifd0, ascii(0x010F, f.Make))
	}
	if f.Model != "" {
		ifd0 = append(ifd0, ascii(0x0110, f.Model))
	}
	if f.Orientation != 0 {
		ifd0 = append(ifd0, short(0x0112, f.Orientation))
	}

	var exifIFD []entry
	if f.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, ascii(0x9003, f.DateTimeOriginal))
	}

	var gpsIFD []entry
	if f.HasGPS {
		latRef, lonRef := "N", "E"
		if f.Lat < 0 {
			latRef = "S"
		}
		if f.Lon < 0 {
			lonRef = "W"
		}
		gpsIFD = []entry{
			ascii(0x0001, latRef),
			degrees(0x0002, f.Lat),
			ascii(0x0003, lonRef),
			degrees(0x0004, f.Lon),
		}
	}

	// Pointer entries have fixed size, so offsets can be computed up front.
	pointers := 0
	if len(exifIFD) > 0 {
		pointers++
	}
	if len(gpsIFD) > 0 {
		pointers++
	}
	size0 := ifdSize(ifd0) + 12*pointers
	exifOff := 8 + size0
	gpsOff := exifOff
	if len(exifIFD) > 0 {
		gpsOff += ifdSize(exifIFD)
	}
	if len(exifIFD) > 0 {
		ifd0 = append(ifd0, long(0x8769, uint32(exifOff)))
	}
	if len(gpsIFD) > 0 {
		ifd0 = append(ifd0, long(0x8825, uint32(gpsOff)))
	}

	out := []byte{'M', 'M', 0x00, 0x2A, 0, 0, 0, 8}
	out = append(out, encodeIFD(8, ifd0)...)
	if len(exifIFD) > 0 {
		out = append(out, encodeIFD(exifOff, exifIFD)...)
	}
	if len(gpsIFD) > 0 {
		out = append(out, encodeIFD(gpsOff, gpsIFD)...)
	}
	return out
}
