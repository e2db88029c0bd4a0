package verify

import (
	"fmt"
	"strings"
	"time"
)

// Policy decides which findings block a submission.
type Policy struct {
	Name string

	// MaxAge is the allowed distance between capture time and now.
	MaxAge time.Duration
	// StaleIsError turns a stale capture time into an error instead of a warning.
	StaleIsError bool
	// MissingExifIsError fails photos that carry no metadata at all.
	MissingExifIsError bool
	// ReuseIsError fails photos already submitted by another user.
	ReuseIsError bool

	// Location is used to interpret zone-less EXIF timestamps. Nil means time.Local.
	Location *time.Location
}

// Permissive warns about everything and only blocks on input rejection.
func Permissive() Policy {
	return Policy{
		Name:   "permissive",
		MaxAge: 168 * time.Hour,
	}
}

// Strict rejects stale photos, photos without metadata and reused photos.
func Strict() Policy {
	return Policy{
		Name:               "strict",
		MaxAge:             24 * time.Hour,
		StaleIsError:       true,
		MissingExifIsError: true,
		ReuseIsError:       true,
	}
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "", "permissive":
		return Permissive(), nil
	case "strict":
		return Strict(), nil
	default:
		return Policy{}, fmt.Errorf("unknown policy %q", name)
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// freshness compares the capture instant with now. It returns a message when
// taken lies outside MaxAge in either direction.
func (p Policy) freshness(taken, now time.Time) (string, bool) {
	if p.MaxAge <= 0 {
		return "", false
	}
	future := taken.After(now.Add(p.MaxAge))
	if !future && !taken.Before(now.Add(-p.MaxAge)) {
		return "", false
	}

	// Unix seconds do not saturate the way time.Duration does for dates
	// centuries away.
	hours := float64(now.Unix()-taken.Unix()) / 3600
	if future {
		hours = -hours
	}

	switch {
	case future && p.StaleIsError:
		return fmt.Sprintf("Photo capture time is %.0f hours in the future. Quest photos must be taken within the last %.0f hours.", hours, p.MaxAge.Hours()), true
	case future:
		return fmt.Sprintf("Photo capture time is %.0f days in the future.", hours/24), true
	case p.StaleIsError:
		return fmt.Sprintf("Photo was taken %.0f hours ago. Quest photos must be taken within the last %.0f hours.", hours, p.MaxAge.Hours()), true
	default:
		return fmt.Sprintf("Photo was taken %.0f days ago.", hours/24), true
	}
}
