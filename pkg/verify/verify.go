// Package verify decides whether a photo is acceptable proof for a quest.
//
// The pipeline is strictly sequential: input checks, content hash, duplicate
// lookup, EXIF extraction, freshness/location/device evaluation and finally
// recording the hash. Verify never returns an error; every outcome is a Verdict.
package verify

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/quidome/ecoquest-go/pkg/contenthash"
	"github.com/quidome/ecoquest-go/pkg/exifread"
	"github.com/quidome/ecoquest-go/pkg/ledger"
)

const (
	msgInvalidFile  = "Invalid file. Please select a valid image file."
	msgTooLarge     = "Image is too large. Maximum size is 15MB."
	msgInvalidType  = "Invalid file type. Please upload a JPEG, PNG, GIF, or WebP image."
	msgReused       = "This photo has been used before. For security, please use a unique photo."
	msgHashFailed   = "Could not verify image uniqueness. Please ensure this is a unique photo."
	msgReadFailed   = "Could not read photo metadata. Using basic verification."
	msgNoExif       = "No EXIF metadata found. Some verification steps were skipped."
	msgNoExifStrict = "No EXIF metadata found. Please take a new photo with your camera."
	msgNoDate       = "Photo capture date not found in metadata."
	msgUnexpected   = "An error occurred while verifying your photo. Please try again or use the description option."
)

// Device identifies the camera that produced a photo.
type Device struct {
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

// Verdict is the result of one verification.
type Verdict struct {
	Verified bool               `json:"verified"`
	Hash     string             `json:"hash,omitempty"`
	Exif     *exifread.Record   `json:"exif,omitempty"`
	Location *exifread.Location `json:"location,omitempty"`
	Device   *Device            `json:"device,omitempty"`
	Errors   []string           `json:"errors"`
	Warnings []string           `json:"warnings"`
}

func (v *Verdict) fail(msg string) {
	v.Verified = false
	v.Errors = append(v.Errors, msg)
}

func (v *Verdict) warn(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

// Ledger is the duplicate history consulted by the verifier.
type Ledger interface {
	Lookup(ctx context.Context, hash, userID string) ledger.Match
	Record(ctx context.Context, hash, userID, questID string) error
}

// Verifier runs the verification pipeline.
type Verifier struct {
	Ledger    Ledger
	Extractor exifread.Extractor
	Policy    Policy

	// Now defaults to time.Now.
	Now func() time.Time
	// Timeout bounds a whole Verify call. Zero means no limit.
	Timeout time.Duration
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Verify checks blob as proof for questID submitted by userID.
func (v *Verifier) Verify(ctx context.Context, blob *Blob, questID, userID string) (verdict Verdict) {
	log := v.logger().With(zap.String("quest", questID), zap.String("user", userID))
	verdict = Verdict{Verified: true, Errors: []string{}, Warnings: []string{}}

	defer func() {
		if r := recover(); r != nil {
			log.Error("photo verification failed unexpectedly", zap.Any("panic", r))
			verdict = Verdict{Errors: []string{msgUnexpected}, Warnings: []string{}}
		}
	}()

	if !blob.valid() {
		verdict.fail(msgInvalidFile)
		return verdict
	}
	if blob.Size > MaxSize {
		verdict.fail(msgTooLarge)
		return verdict
	}
	if !Accepted(blob.MediaType, blob.Name) {
		verdict.fail(msgInvalidType)
		return verdict
	}

	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}
	now := v.now()

	reused := false
	hash, err := contenthash.Compute(ctx, blob.Open, now)
	if err != nil {
		log.Warn("could not hash photo", zap.String("file", blob.Name), zap.Error(err))
		verdict.warn(msgHashFailed)
	} else {
		verdict.Hash = hash
		if v.Ledger != nil {
			if m := v.Ledger.Lookup(ctx, hash, userID); m.UsedBySomeoneElse {
				reused = true
				log.Info("photo reused by another user",
					zap.String("hash", hash),
					zap.String("used_by", m.UsedBy),
					zap.Time("used_at", m.UsedAt))
				if v.Policy.ReuseIsError {
					verdict.fail(msgReused)
				} else {
					verdict.warn(msgReused)
				}
			}
		}
	}

	v.checkMetadata(ctx, blob, now, &verdict, log)

	if verdict.Verified && !reused && verdict.Hash != "" && questID != "" && v.Ledger != nil {
		if err := v.Ledger.Record(ctx, verdict.Hash, userID, questID); err != nil {
			log.Error("could not record photo hash", zap.String("hash", verdict.Hash), zap.Error(err))
		}
	}

	log.Info("photo verification finished",
		zap.String("file", blob.Name),
		zap.String("policy", v.Policy.Name),
		zap.Bool("verified", verdict.Verified),
		zap.Int("errors", len(verdict.Errors)),
		zap.Int("warnings", len(verdict.Warnings)))

	return verdict
}

func (v *Verifier) checkMetadata(ctx context.Context, blob *Blob, now time.Time, verdict *Verdict, log *zap.Logger) {
	data, err := readAll(ctx, blob)
	if err != nil {
		log.Warn("could not read photo metadata", zap.String("file", blob.Name), zap.Error(err))
		verdict.warn(msgReadFailed)
		return
	}

	var rec *exifread.Record
	if v.Extractor != nil {
		rec = v.Extractor.Extract(data)
	}
	if rec.Empty() {
		if v.Policy.MissingExifIsError {
			verdict.fail(msgNoExifStrict)
		} else {
			verdict.warn(msgNoExif)
		}
		return
	}
	verdict.Exif = rec

	if rec.CaptureTimestamp == "" {
		verdict.warn(msgNoDate)
	} else if taken, ok := rec.CaptureTime(v.Policy.location()); ok {
		if msg, stale := v.Policy.freshness(taken, now); stale {
			if v.Policy.StaleIsError {
				verdict.fail(msg)
			} else {
				verdict.warn(msg)
			}
		}
	}

	if rec.Location != nil {
		loc := *rec.Location
		verdict.Location = &loc
	}
	if rec.Make != "" || rec.Model != "" {
		verdict.Device = &Device{Make: rec.Make, Model: rec.Model}
	}
}

func readAll(ctx context.Context, blob *Blob) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := blob.Open()
	if err != nil {
		return nil, fmt.Errorf("open content: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("content exceeds %d bytes", MaxSize)
	}
	return data, nil
}

func (v *Verifier) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

func (v *Verifier) logger() *zap.Logger {
	if v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}
