package verify

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

// MaxSize is the largest accepted photo.
const MaxSize = 15 * 1024 * 1024

// Blob is a photo submitted as quest proof.
type Blob struct {
	Name      string
	MediaType string
	Size      int64
	Open      func() (io.ReadCloser, error)
}

func (b *Blob) valid() bool {
	return b != nil && b.Open != nil && b.Size >= 0
}

// BlobFromBytes wraps in-memory content.
func BlobFromBytes(name, mediaType string, data []byte) *Blob {
	return &Blob{
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// BlobFromFile describes a file in fsys. The media type is derived from the
// extension; content is read lazily.
func BlobFromFile(fsys fs.FS, name string) (*Blob, error) {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrInvalid)
	}
	return &Blob{
		Name:      path.Base(name),
		MediaType: MediaTypeForName(name),
		Size:      info.Size(),
		Open: func() (io.ReadCloser, error) {
			return fsys.Open(name)
		},
	}, nil
}

var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

var extTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// Extensions returns the accepted file extensions.
func Extensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".heif"}
}

// MediaTypeForName maps a file name to its media type, or "" when unknown.
func MediaTypeForName(name string) string {
	return extTypes[strings.ToLower(path.Ext(name))]
}

// Accepted reports whether either the declared media type or the file
// extension names a supported image format.
func Accepted(mediaType, name string) bool {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return acceptedTypes[mt] || MediaTypeForName(name) != ""
}
