package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"irsaliye/internal/logger"
)

// Drive stores photos in a shared Google Drive folder so the site office can
// browse them directly. Service-account credentials come from the same
// environment variables as the other Google integrations.
type Drive struct {
	service  *drive.Service
	folderID string
	log      zerolog.Logger
}

// NewDrive creates a Drive backend uploading into the given folder.
func NewDrive(ctx context.Context, folderID string) (*Drive, error) {
	const op = "NewDrive"

	creds, err := readGoogleCredentials()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	config, err := google.JWTConfigFromJSON(creds, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	service, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create drive service: %w", op, err)
	}

	return &Drive{
		service:  service,
		folderID: folderID,
		log:      logger.WithComponent("storage-drive"),
	}, nil
}

// Upload implements Backend. Slashes in the name are flattened to dashes:
// Drive has no path semantics, and the date prefix stays readable either way.
func (d *Drive) Upload(ctx context.Context, data []byte, name, contentType string) (UploadResult, error) {
	file := &drive.File{
		Name:    strings.ReplaceAll(name, "/", "-"),
		Parents: []string{d.folderID},
	}

	created, err := d.service.Files.Create(file).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	d.log.Info().Str("file_id", created.Id).Str("name", file.Name).Msg("Photo uploaded to Drive")

	return UploadResult{
		Key: created.Id,
		URL: created.WebViewLink,
	}, nil
}

// readGoogleCredentials loads the service-account JSON from the environment,
// preferring the credentials file over inline JSON.
func readGoogleCredentials() ([]byte, error) {
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	}
	if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		return []byte(credsJSON), nil
	}
	return nil, fmt.Errorf("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")
}
