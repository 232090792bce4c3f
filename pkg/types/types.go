package types

// Box represents a normalized selection rectangle with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Empty reports whether the box has no area
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// DisplayBox is the on-screen rectangle a preview is rendered into, in display pixels
type DisplayBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the box can be used to normalize pointer positions
func (d DisplayBox) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Dims holds the natural pixel dimensions of an image
type Dims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PlateResult is the recognition response for a submitted image
type PlateResult struct {
	Plate           *string  `json:"plate,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	ConfidenceDebug []string `json:"confidence_debug,omitempty"`
}
