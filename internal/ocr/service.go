// Package ocr provides image text recognition for waybill photos using
// Google Cloud APIs.
//
// Two providers implement the same Recognizer contract: Google Cloud Vision
// text detection (the default, matches the free tier used in the field) and
// Google Document AI OCR processing (for deployments that already run a
// Document AI processor). Both return the full recognized text block plus
// per-token confidence scores; turning that into structured waybill fields
// is the job of internal/waybill.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Vision text detection works on JPEG/PNG/GIF/BMP/WEBP images up to 20MB.
// Every paid Vision call is gated by an injected quota.Counter so a month's
// free tier is never exceeded (see internal/quota).
package ocr

import (
	"context"

	"irsaliye/internal/waybill"
)

// MaxImageSizeBytes is the maximum image size accepted for recognition (20MB,
// the Vision API request limit).
const MaxImageSizeBytes = 20 * 1024 * 1024

// Recognition is the raw result of a recognition call.
type Recognition struct {
	// FullText is the complete recognized text block, lines separated by
	// newline.
	FullText string `json:"full_text"`

	// Tokens holds per-region confidence scores in detection order. By
	// Vision convention the first token is the aggregate full-text region,
	// not a word; confidence averaging skips it.
	Tokens []waybill.TokenConfidence `json:"tokens,omitempty"`
}

// Recognizer turns a photographed document into text.
type Recognizer interface {
	// Recognize extracts text from an image. Recognition that finds no text
	// returns an empty Recognition, not an error.
	Recognize(ctx context.Context, image []byte) (*Recognition, error)
}
