package upload

import (
	"math"
	"strconv"
	"strings"

	"github.com/menta2k/plate-cropper/pkg/types"
)

// Result texts
const (
	PendingText = "Plate: -\nConfidence: -"
	WorkingText = "Processing..."
	NotDetected = "not detected"
	Placeholder = "-"
)

// FormatResult renders a recognition response for display
func FormatResult(result *types.PlateResult) string {
	plate := NotDetected
	confidence := Placeholder
	var debug []string

	if result != nil {
		if result.Plate != nil && strings.TrimSpace(*result.Plate) != "" {
			plate = *result.Plate
		}
		if result.Confidence != nil {
			confidence = FormatConfidence(*result.Confidence)
		}
		debug = result.ConfidenceDebug
	}

	var sb strings.Builder
	sb.WriteString("Plate: ")
	sb.WriteString(plate)
	sb.WriteString("\nConfidence: ")
	sb.WriteString(confidence)
	if len(debug) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(strings.Join(debug, "\n"))
	}
	return sb.String()
}

// FormatConfidence rounds to one decimal and drops trailing zeros: 92 -> "92%", 92.46 -> "92.5%"
func FormatConfidence(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	v = math.Round(v*10) / 10
	if v == 0 {
		// drop the sign of -0
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// FormatError renders a failure verbatim
func FormatError(err error) string {
	return "Error: " + err.Error()
}
