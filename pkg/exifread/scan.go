package exifread

import (
	"bytes"
	"encoding/binary"
	"regexp"
)

const (
	markerSOI  = 0xFFD8
	markerAPP1 = 0xFFE1
)

var (
	exifHeader  = []byte("Exif\x00\x00")
	reTimestamp = regexp.MustCompile(`(\d{4}):(\d{2}):(\d{2})\s+(\d{2}):(\d{2}):(\d{2})`)
)

// Scanner walks the JPEG marker stream looking for APP1/Exif segments and
// pulls the first printable timestamp out of each. It only ever fills
// CaptureTimestamp.
type Scanner struct{}

func (Scanner) Name() string { return "scan" }

func (Scanner) Extract(data []byte) *Record {
	if len(data) < 2 || binary.BigEndian.Uint16(data) != markerSOI {
		return nil
	}

	rec := &Record{}
	offset := 2
	for offset < len(data)-1 {
		if binary.BigEndian.Uint16(data[offset:]) != markerAPP1 {
			offset += 2
			continue
		}

		segLen, ok := uint16At(data, offset+2)
		if !ok {
			break
		}
		if ts, ok := segmentTimestamp(data, offset+4, int(segLen)-2); ok {
			rec.CaptureTimestamp = ts
		}
		offset += int(segLen) + 2
	}

	return rec
}

// segmentTimestamp reads one APP1 body. A body that runs past the buffer is a
// failure for that segment only.
func segmentTimestamp(data []byte, start, n int) (string, bool) {
	if n < len(exifHeader) || start+n > len(data) {
		return "", false
	}
	body := data[start : start+n]
	if !bytes.Equal(body[:len(exifHeader)], exifHeader) {
		return "", false
	}

	m := reTimestamp.FindSubmatch(body)
	if m == nil {
		return "", false
	}
	return string(m[1]) + "-" + string(m[2]) + "-" + string(m[3]) + " " +
		string(m[4]) + ":" + string(m[5]) + ":" + string(m[6]), true
}

func uint16At(data []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(data) {
		return 0, false
	}
	return binary.BigEndian.Uint16(data[off:]), true
}
