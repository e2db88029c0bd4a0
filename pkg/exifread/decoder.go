package exifread

import (
	"bytes"
	"encoding/binary"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Decoder reads the full EXIF IFD tree with goexif.
type Decoder struct{}

func (Decoder) Name() string { return "goexif" }

func (d Decoder) Extract(data []byte) (rec *Record) {
	if len(data) < 2 || binary.BigEndian.Uint16(data) != markerSOI {
		return nil
	}

	// goexif can panic on truncated IFDs.
	defer func() {
		if r := recover(); r != nil {
			rec = nil
		}
	}()

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil
	}

	rec = &Record{}

	// Prefer DateTimeOriginal, then DateTimeDigitized, then DateTime.
	for _, tag := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		if ts, ok := timestampFromTag(x, tag); ok {
			rec.CaptureTimestamp = ts
			break
		}
	}

	if lat, lon, err := x.LatLong(); err == nil {
		rec.Location = &Location{Lat: lat, Lon: lon}
	}

	rec.Make = stringTag(x, exif.Make)
	rec.Model = stringTag(x, exif.Model)

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			rec.Orientation = v
		}
	}

	return rec
}

func timestampFromTag(x *exif.Exif, name exif.FieldName) (string, bool) {
	s := stringTag(x, name)
	if s == "" {
		return "", false
	}

	// EXIF DateTime format: "2006:01:02 15:04:05".
	tm, err := time.Parse("2006:01:02 15:04:05", s)
	if err != nil {
		return "", false
	}
	return tm.Format(TimestampLayout), true
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
