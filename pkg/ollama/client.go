package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/plate-cropper/pkg/client"
	"github.com/menta2k/plate-cropper/pkg/types"
	"github.com/menta2k/plate-cropper/pkg/upload"
)

// DefaultModel is the vision model used when none is configured
const DefaultModel = "openbmb/minicpm-v4.5"

var _ client.Recognizer = (*Client)(nil)

// Client wraps the Ollama API client
type Client struct {
	apiClient *api.Client
	model     string
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL, model string) (*Client, error) {
	// Parse the provided URL
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", ollamaURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	if model == "" {
		model = DefaultModel
	}

	// Create client with the specified URL, ignoring environment
	return &Client{apiClient: api.NewClient(baseURL, http.DefaultClient), model: model}, nil
}

// Recognize asks the vision model to read the plate in the submitted image
func (c *Client) Recognize(ctx context.Context, file upload.File) (*types.PlateResult, error) {
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	// Add timeout if context doesn't have one (vision models are slow on CPU)
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: client.PlatePrompt,
				Images:  []api.ImageData{api.ImageData(file.Data)},
			},
		},
		Stream:  &streamFalse,
		Options: map[string]any{"temperature": 0.1},
	}

	var responseContent string
	err := c.apiClient.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama chat error: %v", upload.ErrNetworkFailure, err)
	}

	if responseContent == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	return client.ParsePlateAnswer(responseContent)
}
