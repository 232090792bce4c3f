// Package upload chooses the image to submit for plate recognition and sends
// it to the recognition service as a multipart form.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/menta2k/plate-cropper/pkg/types"
)

// DefaultURL is the upload endpoint of the recognition service
const DefaultURL = "http://localhost:8080/api/plates/upload"

// ErrNetworkFailure is returned when the request fails or the service answers with a non-success status.
var ErrNetworkFailure = errors.New("network failure")

// Client posts images to the recognition service
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the given endpoint. A zero timeout means
// the request is never cut short.
func NewClient(url string, timeout time.Duration) (*Client, error) {
	if url == "" {
		url = DefaultURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("unsupported upload URL: %s", url)
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Recognize sends one POST with the image in the "image" field
func (c *Client) Recognize(ctx context.Context, file File) (*types.PlateResult, error) {
	body, contentType, err := encodeMultipart(file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrNetworkFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			return nil, fmt.Errorf("%w: HTTP %s", ErrNetworkFailure, resp.Status)
		}
		return nil, fmt.Errorf("%w: HTTP %s: %s", ErrNetworkFailure, resp.Status, msg)
	}

	var result types.PlateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

func encodeMultipart(file File) (io.Reader, string, error) {
	if len(file.Data) == 0 {
		return nil, "", errors.New("empty payload")
	}
	name := file.Name
	if name == "" {
		name = DefaultFileName
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
