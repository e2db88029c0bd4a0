// Package contenthash computes content digests used to spot byte-identical
// photo submissions.
package contenthash

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/minio/sha256-simd"
	"github.com/multiformats/go-multihash"
)

// Size is the length of a hex digest.
const Size = sha256.Size * 2

const (
	failurePrefix = "hash-error-"
	chunkSize     = 64 * 1024
)

// Sum returns the lowercase hex SHA-256 of data.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SumReader hashes r in chunks and stops early when ctx is done.
func SumReader(ctx context.Context, r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Compute opens and hashes a blob. It never fails: on any error it returns a
// failure marker and the cause.
func Compute(ctx context.Context, open func() (io.ReadCloser, error), now time.Time) (string, error) {
	rc, err := open()
	if err != nil {
		return FailureMarker(now), fmt.Errorf("open content: %w", err)
	}
	defer rc.Close()

	sum, err := SumReader(ctx, rc)
	if err != nil {
		return FailureMarker(now), err
	}
	return sum, nil
}

// FailureMarker is the placeholder digest used when hashing fails.
func FailureMarker(now time.Time) string {
	return failurePrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// IsFailure reports whether h is a failure marker rather than a digest.
func IsFailure(h string) bool {
	return strings.HasPrefix(h, failurePrefix)
}

// Valid reports whether h looks like a digest produced by Sum.
func Valid(h string) bool {
	if len(h) != Size {
		return false
	}
	for _, c := range h {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// ContentID returns a CIDv1 (raw codec, sha2-256 multihash) for data.
func ContentID(data []byte) (string, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}
