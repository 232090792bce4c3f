// Package session ties one loaded image to its selection gesture, its current
// crop and its submissions.
//
// A Session is owned by a single goroutine, the one that handles pointer
// events, and is not safe for concurrent use. Extraction and recognition may
// run elsewhere; their results come back through Accept and FinishSubmit,
// which drop anything superseded by a newer selection or submission.
package session

import (
	"errors"
	"fmt"

	"github.com/menta2k/plate-cropper/pkg/cropper"
	"github.com/menta2k/plate-cropper/pkg/geometry"
	"github.com/menta2k/plate-cropper/pkg/preview"
	"github.com/menta2k/plate-cropper/pkg/selection"
	"github.com/menta2k/plate-cropper/pkg/source"
	"github.com/menta2k/plate-cropper/pkg/types"
	"github.com/menta2k/plate-cropper/pkg/upload"
)

var (
	// ErrSubmitInProgress is returned while a previous submission is outstanding.
	ErrSubmitInProgress = errors.New("submission already in progress")
	// ErrExtractionPending is returned while the crop of the latest rectangle
	// has not come back through Accept.
	ErrExtractionPending = errors.New("crop extraction still pending")
)

// Outcome reports what Accept did with an extraction result
type Outcome int

const (
	Applied Outcome = iota
	Stale
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Stale:
		return "stale"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is the per-image selection state
type Session struct {
	store   *preview.Store
	machine *selection.Machine

	source   *source.Image
	artifact *cropper.Artifact

	// seq is bumped whenever a new selection starts or a new image is loaded
	seq uint64
	// pending is the seq of a finalized rectangle whose crop has not been accepted, 0 when none
	pending uint64

	submitSeq  uint64
	submitting bool
	resultText string
}

// New creates an empty session whose previews live in store
func New(store *preview.Store) *Session {
	return NewWithConfig(store, selection.DefaultConfig())
}

// NewWithConfig creates an empty session with custom selection thresholds
func NewWithConfig(store *preview.Store, config selection.Config) *Session {
	return &Session{
		store:      store,
		machine:    selection.NewWithConfig(config),
		resultText: upload.PendingText,
	}
}

// Load replaces the source image and resets everything derived from the old one
func (s *Session) Load(src *source.Image) {
	s.releaseArtifact()
	s.machine.Reset()
	s.source = src
	s.seq++
	s.pending = 0
	// an outstanding submission belongs to the old image
	s.submitSeq++
	s.submitting = false
	s.resultText = upload.PendingText
}

// Source returns the loaded image, or nil
func (s *Session) Source() *source.Image {
	return s.source
}

// Phase returns the selection gesture's phase
func (s *Session) Phase() selection.Phase {
	return s.machine.Phase()
}

// Seq returns the latest selection sequence number
func (s *Session) Seq() uint64 {
	return s.seq
}

// Selection returns the rectangle currently shown, or nil
func (s *Session) Selection() *types.Box {
	return s.machine.Box()
}

// Artifact returns the current crop, or nil
func (s *Session) Artifact() *cropper.Artifact {
	return s.artifact
}

// Click handles a click at display pixel coordinates. When it finalizes a
// rectangle large enough to crop, it returns the extraction job to run.
func (s *Session) Click(px, py float64, display types.DisplayBox) (selection.Event, *cropper.Job) {
	if s.source == nil {
		return selection.Event{Kind: selection.None}, nil
	}
	fx, fy, ok := geometry.Normalize(px, py, display)
	if !ok {
		return selection.Event{Kind: selection.None}, nil
	}

	ev := s.machine.Click(fx, fy)
	switch ev.Kind {
	case selection.Started:
		// the current crop belongs to an older rectangle than the one whose
		// extraction is being superseded
		if s.pending != 0 {
			s.releaseArtifact()
			s.pending = 0
		}
		s.seq++
	case selection.Finalized:
		s.pending = s.seq
		return ev, &cropper.Job{Seq: s.seq, Source: s.source, Box: ev.Box}
	}
	return ev, nil
}

// Move handles pointer motion at display pixel coordinates
func (s *Session) Move(px, py float64, display types.DisplayBox) selection.Event {
	if s.source == nil {
		return selection.Event{Kind: selection.None}
	}
	fx, fy, ok := geometry.Normalize(px, py, display)
	if !ok {
		return selection.Event{Kind: selection.None}
	}
	return s.machine.Move(fx, fy)
}

// Leave handles the pointer leaving the preview
func (s *Session) Leave() selection.Event {
	return s.machine.Leave()
}

// Accept applies an extraction result if it belongs to the latest selection
// of the current image. Stale results have their preview released. A failed
// extraction leaves the current artifact in place and unblocks submission.
func (s *Session) Accept(res cropper.Result) Outcome {
	if res.Job.Seq != s.seq || res.Job.Source != s.source {
		if res.Artifact != nil {
			s.store.Release(res.Artifact.Handle)
		}
		return Stale
	}
	s.pending = 0
	if res.Err != nil || res.Artifact == nil {
		return Failed
	}
	s.releaseArtifact()
	s.artifact = res.Artifact
	return Applied
}

// Overlay returns the selection in display pixels for drawing, or false when there is none
func (s *Session) Overlay(display types.DisplayBox) (left, top, width, height float64, ok bool) {
	b := s.machine.Box()
	if b == nil || !display.Valid() {
		return 0, 0, 0, 0, false
	}
	left, top, width, height = geometry.DisplayRect(*b, display)
	return left, top, width, height, true
}

// PreviewHandle returns the display handle of the current crop
func (s *Session) PreviewHandle() (preview.Handle, bool) {
	if s.artifact == nil {
		return "", false
	}
	return s.artifact.Handle, true
}

// Extracting reports whether the latest rectangle's crop is still outstanding
func (s *Session) Extracting() bool {
	return s.pending != 0
}

// Payload returns the file a submission would send
func (s *Session) Payload() (upload.File, bool) {
	return upload.Payload(s.source, s.artifact)
}

// Ticket identifies one submission
type Ticket struct {
	Seq  uint64
	File upload.File
}

// BeginSubmit starts a submission. Only one may be outstanding at a time.
func (s *Session) BeginSubmit() (Ticket, error) {
	if s.source == nil {
		return Ticket{}, source.ErrEmptyFileSelection
	}
	if s.submitting {
		return Ticket{}, ErrSubmitInProgress
	}
	if s.pending != 0 {
		return Ticket{}, ErrExtractionPending
	}
	file, ok := s.Payload()
	if !ok {
		return Ticket{}, source.ErrEmptyFileSelection
	}
	s.submitSeq++
	s.submitting = true
	s.resultText = upload.WorkingText
	return Ticket{Seq: s.submitSeq, File: file}, nil
}

// Submitting reports whether a submission is outstanding
func (s *Session) Submitting() bool {
	return s.submitting
}

// FinishSubmit records the outcome of a submission. Results of superseded
// tickets are ignored.
func (s *Session) FinishSubmit(t Ticket, result *types.PlateResult, err error) bool {
	if t.Seq != s.submitSeq {
		return false
	}
	s.submitting = false
	if err != nil {
		s.resultText = upload.FormatError(err)
	} else {
		s.resultText = upload.FormatResult(result)
	}
	return true
}

// ResultText returns the text shown in the result pane
func (s *Session) ResultText() string {
	return s.resultText
}

// Describe returns the loaded file's info line
func (s *Session) Describe() string {
	if s.source == nil {
		return "No file uploaded"
	}
	return s.source.Describe()
}

// Close releases the session's preview
func (s *Session) Close() {
	s.releaseArtifact()
}

func (s *Session) releaseArtifact() {
	if s.artifact != nil {
		s.store.Release(s.artifact.Handle)
		s.artifact = nil
	}
}

func (s *Session) String() string {
	return fmt.Sprintf("session(phase=%s seq=%d artifact=%t submitting=%t)",
		s.machine.Phase(), s.seq, s.artifact != nil, s.submitting)
}
