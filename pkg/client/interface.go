package client

import (
	"context"

	"github.com/menta2k/plate-cropper/pkg/types"
	"github.com/menta2k/plate-cropper/pkg/upload"
)

// Recognizer reads a license plate from a submitted image
type Recognizer interface {
	Recognize(ctx context.Context, file upload.File) (*types.PlateResult, error)
}
