package ocr

import (
	"context"
	"fmt"
	"os"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"irsaliye/internal/logger"
	"irsaliye/internal/waybill"
)

// DocumentAIConfig holds configuration for the Document AI recognizer.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the OCR processor to invoke.
	ProcessorID string

	// Timeout is the maximum time to wait for processing. Default: 60s.
	Timeout time.Duration
}

// DocumentAIRecognizer implements Recognizer using a Google Document AI OCR
// processor. It is the alternative provider for deployments that already pay
// for Document AI; field extraction downstream is identical.
type DocumentAIRecognizer struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIRecognizer creates a Document AI recognizer. Credentials come
// from GOOGLE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS; a non-"us"
// location switches to the matching regional endpoint.
func NewDocumentAIRecognizer(ctx context.Context, config DocumentAIConfig) (*DocumentAIRecognizer, error) {
	const op = "NewDocumentAIRecognizer"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrRecognitionFailed, "project ID and processor ID are required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIRecognizer{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}, nil
}

// Recognize extracts text from a waybill photo via the configured processor.
func (d *DocumentAIRecognizer) Recognize(ctx context.Context, image []byte) (*Recognition, error) {
	const op = "Recognize"

	if len(image) == 0 {
		return nil, WrapOCRError(op, ErrEmptyImage, "")
	}
	if len(image) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(image)))
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: "image/jpeg",
			},
		},
	}

	resp, err := d.client.ProcessDocument(processCtx, req)
	if err != nil {
		if isQuotaError(err) {
			return nil, WrapOCRError(op, ErrQuotaExceeded, err.Error())
		}
		return nil, WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Document AI call failed: %v", err))
	}

	doc := resp.GetDocument()
	if doc == nil {
		return nil, WrapOCRError(op, ErrRecognitionFailed, "no document in response")
	}

	result := &Recognition{FullText: doc.GetText()}
	if result.FullText == "" {
		return result, nil
	}

	// First token is the aggregate full-text region by convention, followed
	// by the page tokens with their layout confidences.
	result.Tokens = append(result.Tokens, waybill.TokenConfidence{Text: result.FullText, Confidence: 1.0})
	for _, page := range doc.GetPages() {
		for _, token := range page.GetTokens() {
			layout := token.GetLayout()
			result.Tokens = append(result.Tokens, waybill.TokenConfidence{
				Text:       anchorText(doc.GetText(), layout.GetTextAnchor()),
				Confidence: float64(layout.GetConfidence()),
			})
		}
	}

	d.log.Debug().
		Int("tokens", len(result.Tokens)).
		Int("text_length", len(result.FullText)).
		Msg("Document AI recognition completed")

	return result, nil
}

// processorName constructs the full resource name of the processor.
func (d *DocumentAIRecognizer) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.config.ProjectID, d.config.Location, d.config.ProcessorID)
}

// anchorText resolves a layout text anchor against the document text.
func anchorText(text string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil {
		return ""
	}
	var out string
	for _, seg := range anchor.GetTextSegments() {
		start, end := seg.GetStartIndex(), seg.GetEndIndex()
		if start < 0 || end > int64(len(text)) || start > end {
			continue
		}
		out += text[start:end]
	}
	return out
}

// Close closes the underlying Document AI client.
func (d *DocumentAIRecognizer) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
