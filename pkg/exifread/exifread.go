package exifread

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the normalized capture timestamp layout.
const TimestampLayout = "2006-01-02 15:04:05"

// Location is a GPS position in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record holds the metadata recovered from a photo.
//
// Every field is optional. Location is either fully present or nil.
type Record struct {
	CaptureTimestamp string    `json:"captureTimestamp,omitempty"`
	Location         *Location `json:"location,omitempty"`
	Make             string    `json:"make,omitempty"`
	Model            string    `json:"model,omitempty"`
	Orientation      int       `json:"orientation,omitempty"`
}

// Empty reports whether no metadata was found at all.
func (r *Record) Empty() bool {
	if r == nil {
		return true
	}
	return r.CaptureTimestamp == "" && r.Location == nil && r.Make == "" && r.Model == "" && r.Orientation == 0
}

// CaptureTime parses CaptureTimestamp in loc. EXIF timestamps carry no zone.
func (r *Record) CaptureTime(loc *time.Location) (time.Time, bool) {
	if r == nil || r.CaptureTimestamp == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(TimestampLayout, r.CaptureTimestamp, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Extractor recovers metadata from raw image bytes.
//
// Implementations never panic and never return an error: data that is not a
// JPEG yields nil, a JPEG without usable metadata yields a nil or empty Record.
type Extractor interface {
	Name() string
	Extract(data []byte) *Record
}

// Mode selects the extraction strategy.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeGoexif Mode = "goexif"
	ModeScan   Mode = "scan"
)

// Select returns the extractor for mode. An empty mode means ModeAuto.
func Select(mode Mode) (Extractor, error) {
	switch Mode(strings.ToLower(string(mode))) {
	case "", ModeAuto:
		return Fallback{Preferred: Decoder{}, Fallback: Scanner{}}, nil
	case ModeGoexif:
		return Decoder{}, nil
	case ModeScan:
		return Scanner{}, nil
	default:
		return nil, fmt.Errorf("unknown exif mode %q", mode)
	}
}

// Fallback prefers one extractor and falls back to another when the preferred
// one cannot decode the buffer. A preferred record without a capture
// timestamp borrows the fallback's.
type Fallback struct {
	Preferred Extractor
	Fallback  Extractor
}

func (f Fallback) Name() string {
	return f.Preferred.Name() + "+" + f.Fallback.Name()
}

func (f Fallback) Extract(data []byte) *Record {
	rec := f.Preferred.Extract(data)
	if rec.Empty() {
		return f.Fallback.Extract(data)
	}
	if rec.CaptureTimestamp == "" {
		if alt := f.Fallback.Extract(data); alt != nil {
			rec.CaptureTimestamp = alt.CaptureTimestamp
		}
	}
	return rec
}
