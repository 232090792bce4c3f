package cropper

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/plate-cropper/pkg/geometry"
	"github.com/menta2k/plate-cropper/pkg/preview"
	"github.com/menta2k/plate-cropper/pkg/processing"
	"github.com/menta2k/plate-cropper/pkg/source"
	"github.com/menta2k/plate-cropper/pkg/types"
)

// ErrRenderFailure is returned when the selected region cannot be rendered or encoded.
var ErrRenderFailure = errors.New("render failure")

// Extractor renders selected regions of a source image into encoded artifacts
type Extractor struct {
	processor *processing.Processor
	store     *preview.Store
	config    CropConfig
}

// CropConfig holds configuration for crop output
type CropConfig struct {
	Format   string
	Quality  int
	Lossless bool
}

// DefaultConfig returns PNG output
func DefaultConfig() CropConfig {
	return CropConfig{
		Format:   processing.FormatPNG,
		Quality:  100,
		Lossless: true,
	}
}

// New creates a new Extractor with default configuration
func New(store *preview.Store) *Extractor {
	return NewWithConfig(store, DefaultConfig())
}

// NewWithConfig creates a new Extractor with custom configuration
func NewWithConfig(store *preview.Store, config CropConfig) *Extractor {
	if config.Format == processing.FormatWebP {
		// the crop must keep every source pixel
		config.Lossless = true
	}
	return &Extractor{
		processor: processing.NewProcessor(),
		store:     store,
		config:    config,
	}
}

// Job is one extraction request: a rectangle on a source, tagged with the
// selection sequence number it was finalized under
type Job struct {
	Seq    uint64
	Source *source.Image
	Box    types.Box
}

// Artifact is an encoded crop of a source image
type Artifact struct {
	Seq         uint64
	Box         types.Box
	Dims        types.Dims
	Data        []byte
	ContentType string
	FileName    string
	Handle      preview.Handle
}

// Result is the outcome of an asynchronous extraction
type Result struct {
	Job      Job
	Artifact *Artifact
	Err      error
}

// Extract renders the job's rectangle at source resolution and encodes it
func (e *Extractor) Extract(ctx context.Context, job Job) (*Artifact, error) {
	if job.Source == nil {
		return nil, fmt.Errorf("%w: no source image", ErrRenderFailure)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := e.processor.DecodeImage(job.Source.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}

	// map onto the decoded pixel grid
	dims := types.Dims{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	rect := geometry.SourceRect(job.Box, dims)
	if rect.Empty() {
		return nil, fmt.Errorf("%w: empty crop rectangle", ErrRenderFailure)
	}

	cropped := e.cropImageToRect(img, rect)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := e.processor.EncodeBytes(cropped, e.config.Format, e.config.Quality, e.config.Lossless)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}

	contentType := ContentType(e.config.Format)
	return &Artifact{
		Seq:         job.Seq,
		Box:         job.Box,
		Dims:        types.Dims{Width: rect.Dx(), Height: rect.Dy()},
		Data:        data,
		ContentType: contentType,
		FileName:    FileName(e.config.Format),
		Handle:      e.store.Create(data, contentType),
	}, nil
}

// ExtractAsync runs Extract on its own goroutine and delivers one Result
func (e *Extractor) ExtractAsync(ctx context.Context, job Job) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		artifact, err := e.Extract(ctx, job)
		out <- Result{Job: job, Artifact: artifact, Err: err}
	}()
	return out
}

// cropImageToRect copies the region at 1:1 scale, relative to the image's own bounds
func (e *Extractor) cropImageToRect(img image.Image, rect image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, rect.Add(img.Bounds().Min))
}

// ContentType returns the MIME type for an output format
func ContentType(format string) string {
	switch format {
	case processing.FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// FileName returns the upload file name for a generated crop
func FileName(format string) string {
	switch format {
	case processing.FormatWebP:
		return "cropped.webp"
	default:
		return "cropped.png"
	}
}
