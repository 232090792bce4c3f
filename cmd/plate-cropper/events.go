package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// pointerEvent is one scripted pointer action over the preview
type pointerEvent struct {
	Kind string // click, move or leave
	X, Y float64
}

// parseEvents reads a script such as "click:100,75 move:200,150 click:300,225 leave"
func parseEvents(script string) ([]pointerEvent, error) {
	var events []pointerEvent
	for _, tok := range strings.Fields(script) {
		kind, coords, hasCoords := strings.Cut(tok, ":")
		kind = strings.ToLower(kind)
		switch kind {
		case "leave":
			if hasCoords {
				return nil, fmt.Errorf("leave takes no coordinates: %q", tok)
			}
			events = append(events, pointerEvent{Kind: kind})
		case "click", "move":
			xs, ys, ok := strings.Cut(coords, ",")
			if !hasCoords || !ok {
				return nil, fmt.Errorf("expected %s:x,y, got %q", kind, tok)
			}
			x, err := strconv.ParseFloat(xs, 64)
			if err != nil {
				return nil, fmt.Errorf("bad x in %q: %w", tok, err)
			}
			y, err := strconv.ParseFloat(ys, 64)
			if err != nil {
				return nil, fmt.Errorf("bad y in %q: %w", tok, err)
			}
			if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
				return nil, fmt.Errorf("non-finite coordinate in %q", tok)
			}
			events = append(events, pointerEvent{Kind: kind, X: x, Y: y})
		default:
			return nil, fmt.Errorf("unknown event %q", tok)
		}
	}
	return events, nil
}

// parseSize reads WxH
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("expected WxH, got %q", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("bad width in %q", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("bad height in %q", s)
	}
	return w, h, nil
}
