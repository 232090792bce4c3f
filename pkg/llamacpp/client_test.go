package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/plate-cropper/pkg/upload"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.baseURL)

	c, err = NewClient("http://gpu-box:8080/", "minicpm")
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:8080", c.baseURL)

	_, err = NewClient("gpu-box:8080", "")
	assert.Error(t, err)
}

func TestRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req ChatCompletionRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "minicpm", req.Model)
		if !assert.Len(t, req.Messages, 1) {
			return
		}
		parts, ok := req.Messages[0].Content.([]interface{})
		if assert.True(t, ok) && assert.Len(t, parts, 2) {
			image := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})
			assert.True(t, strings.HasPrefix(image["url"].(string), "data:image/png;base64,"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model": "minicpm",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "```json\n{\"plate\":\"kr 123ab\",\"confidence\":92}\n```"}},
			},
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "minicpm")
	require.NoError(t, err)

	res, err := c.Recognize(context.Background(), upload.File{Name: "cropped.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "Plate: KR123AB\nConfidence: 92%", upload.FormatResult(res))
}

func TestRecognizeArrayContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"{\"plate\":\"\",\"confidence\":0}"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "")
	require.NoError(t, err)

	res, err := c.Recognize(context.Background(), upload.File{Data: []byte("png")})
	require.NoError(t, err)
	assert.Nil(t, res.Plate)
}

func TestRecognizeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "")
	require.NoError(t, err)

	_, err = c.Recognize(context.Background(), upload.File{Data: []byte("png")})
	assert.ErrorIs(t, err, upload.ErrNetworkFailure)
	assert.Contains(t, err.Error(), "model not loaded")

	_, err = c.Recognize(context.Background(), upload.File{})
	assert.Error(t, err)
}
