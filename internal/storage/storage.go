// Package storage stores waybill photos. The backend is chosen by
// configuration: local disk for single-box deployments, Google Drive when
// the site office wants to browse photos without touching the server.
package storage

import (
	"context"
	"errors"
)

// ErrUploadFailed is returned when the backend could not store the photo.
var ErrUploadFailed = errors.New("photo upload failed")

// UploadResult identifies a stored photo.
type UploadResult struct {
	// Key is the backend-specific identifier (file path, Drive file ID).
	Key string `json:"key"`

	// URL is a viewable link to the stored photo.
	URL string `json:"url"`
}

// Backend stores photo bytes under a caller-chosen name.
type Backend interface {
	Upload(ctx context.Context, data []byte, name, contentType string) (UploadResult, error)
}
