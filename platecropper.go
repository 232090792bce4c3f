// Package platecropper lets a user pick a license-plate region on a scaled
// preview of an image and submit the full-resolution crop for recognition.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		platecropper "github.com/menta2k/plate-cropper"
//		"github.com/menta2k/plate-cropper/pkg/upload"
//	)
//
//	func main() {
//		recognizer, err := upload.NewClient(upload.DefaultURL, 0)
//		if err != nil {
//			log.Fatal(err)
//		}
//		ws := platecropper.New(recognizer)
//		defer ws.Close()
//
//		if err := ws.Open("car.jpg"); err != nil {
//			log.Fatal(err)
//		}
//
//		// preview shown at 400x300
//		display, err := ws.Display(400, 300)
//		if err != nil {
//			log.Fatal(err)
//		}
//		ctx := context.Background()
//		ws.Click(ctx, 100, 75, display)
//		ws.Click(ctx, 300, 225, display)
//
//		text, err := ws.Submit(ctx)
//		if err != nil {
//			log.Printf("submit failed: %v", err)
//		}
//		fmt.Println(text)
//	}
//
// The package is made of several components:
//
// 1. Geometry (pkg/geometry): maps pointer positions to normalized and source coordinates
// 2. Selection (pkg/selection): the two-click rectangle gesture
// 3. Cropper (pkg/cropper): lossless extraction of the selected region
// 4. Session (pkg/session): ties the image, the selection and the current crop together
// 5. Upload (pkg/upload): the multipart submission and result formatting
//
// A Workspace, like the Session it wraps, belongs to one goroutine.
package platecropper

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/menta2k/plate-cropper/internal/utils"
	"github.com/menta2k/plate-cropper/pkg/client"
	"github.com/menta2k/plate-cropper/pkg/cropper"
	"github.com/menta2k/plate-cropper/pkg/geometry"
	"github.com/menta2k/plate-cropper/pkg/preview"
	"github.com/menta2k/plate-cropper/pkg/processing"
	"github.com/menta2k/plate-cropper/pkg/selection"
	"github.com/menta2k/plate-cropper/pkg/session"
	"github.com/menta2k/plate-cropper/pkg/source"
	"github.com/menta2k/plate-cropper/pkg/types"
)

// Version of the plate cropper library
const Version = "1.0.0"

// ErrNoRecognizer is returned by Submit when the workspace has no recognizer
var ErrNoRecognizer = errors.New("no recognizer configured")

// Workspace provides a high-level interface over one selection session
type Workspace struct {
	store      *preview.Store
	extractor  *cropper.Extractor
	session    *session.Session
	processor  *processing.Processor
	recognizer client.Recognizer
}

// New creates a new Workspace with default configuration
func New(recognizer client.Recognizer) *Workspace {
	return NewWithConfig(selection.DefaultConfig(), cropper.DefaultConfig(), recognizer)
}

// NewWithConfig creates a new Workspace with custom selection and crop configuration
func NewWithConfig(selectionConfig selection.Config, cropConfig cropper.CropConfig, recognizer client.Recognizer) *Workspace {
	store := preview.NewStore()
	return &Workspace{
		store:      store,
		extractor:  cropper.NewWithConfig(store, cropConfig),
		session:    session.NewWithConfig(store, selectionConfig),
		processor:  processing.NewProcessor(),
		recognizer: recognizer,
	}
}

// Open loads an image from a file path or URL
func (w *Workspace) Open(src string) error {
	img, err := source.LoadSmart(src)
	if err != nil {
		return err
	}
	w.session.Load(img)
	return nil
}

// Load replaces the current image
func (w *Workspace) Load(img *source.Image) {
	w.session.Load(img)
}

// Session returns the underlying selection session
func (w *Workspace) Session() *session.Session {
	return w.session
}

// Store returns the preview handle store
func (w *Workspace) Store() *preview.Store {
	return w.store
}

// Display returns the geometry of a preview pane of at most maxW x maxH
// showing the current image, anchored at the origin.
func (w *Workspace) Display(maxW, maxH int) (types.DisplayBox, error) {
	src := w.session.Source()
	if src == nil {
		return types.DisplayBox{}, source.ErrEmptyFileSelection
	}
	pw, ph := geometry.FitInside(src.Dims, maxW, maxH)
	return types.DisplayBox{Width: float64(pw), Height: float64(ph)}, nil
}

// Click forwards a click to the session. A finalized selection is extracted
// before Click returns; the error reports a failed extraction.
func (w *Workspace) Click(ctx context.Context, px, py float64, display types.DisplayBox) (selection.Event, error) {
	ev, job := w.session.Click(px, py, display)
	if job == nil {
		return ev, nil
	}
	res := <-w.extractor.ExtractAsync(ctx, *job)
	if w.session.Accept(res) == session.Failed {
		return ev, res.Err
	}
	return ev, nil
}

// Move forwards pointer motion to the session
func (w *Workspace) Move(px, py float64, display types.DisplayBox) selection.Event {
	return w.session.Move(px, py, display)
}

// Leave forwards the pointer leaving the preview to the session
func (w *Workspace) Leave() selection.Event {
	return w.session.Leave()
}

// Crop returns the current artifact, or nil
func (w *Workspace) Crop() *cropper.Artifact {
	return w.session.Artifact()
}

// SaveCrop writes the current artifact's bytes to path
func (w *Workspace) SaveCrop(path string) error {
	a := w.session.Artifact()
	if a == nil {
		return fmt.Errorf("no crop to save")
	}
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write crop: %w", err)
	}
	return nil
}

// RenderPreview returns the image scaled to fit maxW x maxH with the current
// selection drawn over it.
func (w *Workspace) RenderPreview(maxW, maxH int) (image.Image, error) {
	src := w.session.Source()
	if src == nil {
		return nil, source.ErrEmptyFileSelection
	}
	img, err := w.processor.DecodeImage(src.Data)
	if err != nil {
		return nil, err
	}
	img = w.processor.FitPreview(img, maxW, maxH)
	return w.processor.CreateSelectionOverlay(img, w.session.Selection()), nil
}

// Submit sends the current crop, or the whole image when there is none, to
// the recognizer and returns the result text. Recognition failures are also
// reflected in the returned text.
func (w *Workspace) Submit(ctx context.Context) (string, error) {
	if w.recognizer == nil {
		return w.session.ResultText(), ErrNoRecognizer
	}
	ticket, err := w.session.BeginSubmit()
	if err != nil {
		return w.session.ResultText(), err
	}
	result, err := w.recognizer.Recognize(ctx, ticket.File)
	w.session.FinishSubmit(ticket, result, err)
	return w.session.ResultText(), err
}

// ResultText returns the text of the latest submission
func (w *Workspace) ResultText() string {
	return w.session.ResultText()
}

// Describe returns the loaded file's info line
func (w *Workspace) Describe() string {
	return w.session.Describe()
}

// Close releases the workspace's previews
func (w *Workspace) Close() {
	w.session.Close()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

// OutputPath returns where the crop of the current image is written in outputDir
func (w *Workspace) OutputPath(outputDir string) string {
	name := "image"
	if src := w.session.Source(); src != nil {
		name = src.Name
	}
	format := processing.FormatPNG
	if a := w.session.Artifact(); a != nil && a.ContentType == cropper.ContentType(processing.FormatWebP) {
		format = processing.FormatWebP
	}
	return utils.GenerateOutputFilename(name, outputDir, "", "_plate", format)
}
