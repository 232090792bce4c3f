// Package source loads the image a selection is made on and rejects anything
// that is not declared as an image.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/disintegration/imaging" // registers bmp and tiff decoders
	_ "golang.org/x/image/webp"

	"github.com/menta2k/plate-cropper/internal/utils"
	"github.com/menta2k/plate-cropper/pkg/types"
)

var (
	// ErrInvalidFileType is returned when the declared content type is not an image type.
	ErrInvalidFileType = errors.New("please upload an image file")
	// ErrEmptyFileSelection is returned when no file was supplied.
	ErrEmptyFileSelection = errors.New("no file selected")
)

// Image is a loaded source image. It is never modified after Load.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
	Dims        types.Dims
}

// Load validates and inspects an uploaded file
func Load(name, contentType string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFileSelection
	}
	if !IsImageType(contentType) {
		return nil, fmt.Errorf("%w (Content-Type: %s)", ErrInvalidFileType, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", cfg.Width, cfg.Height)
	}

	return &Image{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		Dims:        types.Dims{Width: cfg.Width, Height: cfg.Height},
	}, nil
}

// LoadFile loads a file from disk, declaring its content type from the extension
func LoadFile(path string) (*Image, error) {
	if path == "" {
		return nil, ErrEmptyFileSelection
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	return Load(filepath.Base(path), DetectContentType(path, data), data)
}

// LoadURL downloads an image, declaring its content type from the response header
func LoadURL(imageURL string) (*Image, error) {
	// Validate URL
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", "Plate-Cropper/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %v", err)
	}

	name := filepath.Base(parsedURL.Path)
	if name == "." || name == "/" {
		name = "download"
	}
	return Load(name, resp.Header.Get("Content-Type"), data)
}

// LoadSmart loads from a URL or a file path
func LoadSmart(src string) (*Image, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return LoadURL(src)
	}
	return LoadFile(src)
}

// IsImageType reports whether a declared content type is an image type
func IsImageType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

// DetectContentType declares a content type from the file extension, falling
// back to sniffing the data
func DetectContentType(path string, data []byte) string {
	if utils.IsImageFile(path) {
		if ct := mime.TypeByExtension("." + utils.GetFileExtension(path)); ct != "" {
			return ct
		}
		return "image/" + utils.GetFileExtension(path)
	}
	return http.DetectContentType(data)
}

// Size returns the byte length of the source
func (i *Image) Size() int64 {
	return int64(len(i.Data))
}

// Describe returns the file info shown next to the preview
func (i *Image) Describe() string {
	return fmt.Sprintf("File name: %s\nFile size: %s\nFile type: %s",
		i.Name, utils.FormatFileSize(i.Size()), i.ContentType)
}
