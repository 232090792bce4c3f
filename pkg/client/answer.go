package client

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/menta2k/plate-cropper/pkg/types"
)

// PlatePrompt asks a vision model for the plate text and a confidence
const PlatePrompt = `You read vehicle license plates.

Return JSON only:
{"plate": "string", "confidence": 0}

RULES
- "plate" is the registration text exactly as printed, uppercase, without spaces.
- "confidence" is your certainty from 0 to 100.
- If no plate is readable, return {"plate": "", "confidence": 0}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

type modelAnswer struct {
	Plate      string   `json:"plate"`
	Confidence *float64 `json:"confidence"`
}

// ParsePlateAnswer parses the JSON answer a vision model gives to PlatePrompt
func ParsePlateAnswer(raw string) (*types.PlateResult, error) {
	raw = SanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("model returned non-JSON response")
	}

	var answer modelAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	result := &types.PlateResult{}
	if plate := NormalizePlate(answer.Plate); plate != "" {
		result.Plate = &plate
	}
	if answer.Confidence != nil {
		conf := *answer.Confidence
		// some models answer in [0,1]
		if conf > 0 && conf <= 1 {
			conf *= 100
		}
		conf = math.Max(0, math.Min(100, conf))
		result.Confidence = &conf
	}
	return result, nil
}

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reInline   = regexp.MustCompile(`(?m)//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// SanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reInline.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

// NormalizePlate uppercases and removes whitespace and separators
func NormalizePlate(plate string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(plate) {
		if r == ' ' || r == '-' || r == '\t' || r == '\n' {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
