package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/plate-cropper/pkg/cropper"
	"github.com/menta2k/plate-cropper/pkg/source"
	"github.com/menta2k/plate-cropper/pkg/types"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestPayloadPrefersArtifact(t *testing.T) {
	src := &source.Image{Name: "car.jpg", ContentType: "image/jpeg", Data: []byte("orig")}
	artifact := &cropper.Artifact{FileName: "cropped.png", ContentType: "image/png", Data: []byte("crop")}

	f, ok := Payload(src, artifact)
	require.True(t, ok)
	assert.True(t, f.Cropped)
	assert.Equal(t, "cropped.png", f.Name)
	assert.Equal(t, []byte("crop"), f.Data)

	f, ok = Payload(src, nil)
	require.True(t, ok)
	assert.False(t, f.Cropped)
	assert.Equal(t, "car.jpg", f.Name)
	assert.Equal(t, "image/jpeg", f.ContentType)
	assert.Equal(t, []byte("orig"), f.Data)
}

func TestPayloadDefaults(t *testing.T) {
	f, ok := Payload(nil, &cropper.Artifact{Data: []byte("crop")})
	require.True(t, ok)
	assert.Equal(t, DefaultFileName, f.Name)

	_, ok = Payload(nil, nil)
	assert.False(t, ok)
}

func TestRecognize(t *testing.T) {
	var gotName, gotType string
	var gotData []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"plate":"KR123AB","confidence":92}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, 0)
	require.NoError(t, err)

	res, err := c.Recognize(context.Background(), File{Name: "cropped.png", ContentType: "image/png", Data: []byte("crop")})
	require.NoError(t, err)
	assert.Equal(t, "cropped.png", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []byte("crop"), gotData)
	require.NotNil(t, res.Plate)
	assert.Equal(t, "KR123AB", *res.Plate)
	assert.Equal(t, "Plate: KR123AB\nConfidence: 92%", FormatResult(res))
}

func TestRecognizeNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "OCR timeout", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, 0)
	require.NoError(t, err)

	_, err = c.Recognize(context.Background(), File{Data: []byte("x")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetworkFailure))
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "OCR timeout")
}

func TestRecognizeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, 0)
	require.NoError(t, err)
	_, err = c.Recognize(context.Background(), File{Data: []byte("x")})
	assert.ErrorIs(t, err, ErrNetworkFailure)
}

func TestRecognizeEmptyPayload(t *testing.T) {
	c, err := NewClient("", 0)
	require.NoError(t, err)
	_, err = c.Recognize(context.Background(), File{})
	assert.Error(t, err)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", 0)
	assert.Error(t, err)
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name   string
		result *types.PlateResult
		want   string
	}{
		{"full", &types.PlateResult{Plate: strPtr("KR123AB"), Confidence: floatPtr(92)}, "Plate: KR123AB\nConfidence: 92%"},
		{"no plate", &types.PlateResult{Confidence: floatPtr(40)}, "Plate: not detected\nConfidence: 40%"},
		{"blank plate", &types.PlateResult{Plate: strPtr("  ")}, "Plate: not detected\nConfidence: -"},
		{"no confidence", &types.PlateResult{Plate: strPtr("WA1234")}, "Plate: WA1234\nConfidence: -"},
		{"nil", nil, "Plate: not detected\nConfidence: -"},
		{"debug", &types.PlateResult{Plate: strPtr("PO5X"), Confidence: floatPtr(71.25), ConfidenceDebug: []string{"a=1", "b=2"}}, "Plate: PO5X\nConfidence: 71.3%\n\na=1\nb=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatResult(tt.result))
		})
	}
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "92%", FormatConfidence(92))
	assert.Equal(t, "92.5%", FormatConfidence(92.46))
	assert.Equal(t, "100%", FormatConfidence(99.96))
	assert.Equal(t, "0%", FormatConfidence(0))
	assert.Equal(t, "0%", FormatConfidence(-0.04))
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "Error: boom", FormatError(errors.New("boom")))
}
