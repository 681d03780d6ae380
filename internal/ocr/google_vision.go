package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"irsaliye/internal/logger"
	"irsaliye/internal/quota"
	"irsaliye/internal/waybill"
)

// GoogleVisionRecognizer implements Recognizer using Google Cloud Vision
// text detection. A single annotate call per image keeps the cost at one
// unit of the free tier.
type GoogleVisionRecognizer struct {
	client  *vision.ImageAnnotatorClient
	counter quota.Counter
	log     zerolog.Logger
}

// NewGoogleVisionRecognizer creates a Vision-backed recognizer with
// credentials from the environment. The counter guards the monthly request
// budget; pass nil to disable the guard (tests, unmetered projects).
func NewGoogleVisionRecognizer(ctx context.Context, counter quota.Counter) (*GoogleVisionRecognizer, error) {
	const op = "NewGoogleVisionRecognizer"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionRecognizer{
		client:  client,
		counter: counter,
		log:     logger.WithComponent("vision"),
	}, nil
}

// NewGoogleVisionRecognizerWithClient creates a recognizer with an explicit
// client (for testing).
func NewGoogleVisionRecognizerWithClient(client *vision.ImageAnnotatorClient, counter quota.Counter) *GoogleVisionRecognizer {
	return &GoogleVisionRecognizer{
		client:  client,
		counter: counter,
		log:     logger.WithComponent("vision"),
	}
}

// Recognize extracts text from a waybill photo.
func (g *GoogleVisionRecognizer) Recognize(ctx context.Context, image []byte) (*Recognition, error) {
	const op = "Recognize"

	if len(image) == 0 {
		return nil, WrapOCRError(op, ErrEmptyImage, "")
	}
	if len(image) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(image)))
	}

	// Spend a unit of the monthly budget before calling the paid API.
	if g.counter != nil {
		count, err := g.counter.Increment(quota.MonthKey(time.Now()))
		if err != nil {
			return nil, WrapOCRError(op, ErrQuotaExceeded, err.Error())
		}
		g.log.Debug().Int("monthly_count", count).Msg("Vision request budget consumed")
	}

	img, err := vision.NewImageFromReader(bytes.NewReader(image))
	if err != nil {
		return nil, WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("failed to build image: %v", err))
	}

	annotations, err := g.client.DetectTexts(ctx, img, nil, 0)
	if err != nil {
		if isQuotaError(err) {
			return nil, WrapOCRError(op, ErrQuotaExceeded, err.Error())
		}
		return nil, WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}

	if len(annotations) == 0 {
		g.log.Info().Msg("No text detected in image")
		return &Recognition{}, nil
	}

	result := &Recognition{
		FullText: annotations[0].GetDescription(),
		Tokens:   make([]waybill.TokenConfidence, 0, len(annotations)),
	}
	for _, a := range annotations {
		result.Tokens = append(result.Tokens, waybill.TokenConfidence{
			Text:       a.GetDescription(),
			Confidence: float64(a.GetConfidence()),
		})
	}

	g.log.Debug().
		Int("tokens", len(result.Tokens)).
		Int("text_length", len(result.FullText)).
		Msg("Vision text detection completed")

	return result, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionRecognizer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// isQuotaError recognizes the upstream rate/quota exhaustion shapes the
// Vision API reports, so they surface as ErrQuotaExceeded rather than a
// generic failure.
func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "Quota exceeded") ||
		strings.Contains(msg, "rateLimitExceeded")
}
