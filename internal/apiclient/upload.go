package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"homefinder-client/pkg/apierror"
)

// UploadPath receives multipart image uploads.
const UploadPath = "/upload"

// UploadField is the multipart field the backend reads the file from.
const UploadField = "image"

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload sends r as a multipart file under field and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, field, filename string, r io.Reader) (string, error) {
	if field == "" {
		field = UploadField
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finish multipart body: %w", err)
	}

	var out uploadResponse
	if _, err := c.send(ctx, http.MethodPost, UploadPath, nil, &buf, mw.FormDataContentType(), &out); err != nil {
		return "", err
	}
	if out.SecureURL == "" {
		return "", &apierror.Error{
			StatusCode: http.StatusOK,
			Code:       "INVALID_RESPONSE",
			Message:    "upload response did not include secure_url",
		}
	}
	return out.SecureURL, nil
}
