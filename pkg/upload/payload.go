package upload

import (
	"github.com/menta2k/plate-cropper/pkg/cropper"
	"github.com/menta2k/plate-cropper/pkg/source"
)

// DefaultFileName is used for payloads that carry no name of their own
const DefaultFileName = "cropped.png"

// File is the image transmitted for recognition
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Cropped     bool
}

// Payload picks what to transmit: the current crop when there is one,
// otherwise the original source. Neither argument is modified.
func Payload(src *source.Image, artifact *cropper.Artifact) (File, bool) {
	if artifact != nil {
		name := artifact.FileName
		if name == "" {
			name = DefaultFileName
		}
		return File{Name: name, ContentType: artifact.ContentType, Data: artifact.Data, Cropped: true}, true
	}
	if src != nil {
		name := src.Name
		if name == "" {
			name = DefaultFileName
		}
		return File{Name: name, ContentType: src.ContentType, Data: src.Data}, true
	}
	return File{}, false
}
