// Package exifread extracts capture metadata from JPEG photos.
//
// Two strategies are provided: a minimal APP1 scanner that only recovers the
// capture timestamp, and a goexif-backed decoder that also reads GPS, device
// and orientation fields. Select picks between them.
package exifread
