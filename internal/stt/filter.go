package stt

import (
	"strings"
)

// DefaultDisfluencyMarkers are tokens Whisper emits for speech it could not
// resolve into words.
var DefaultDisfluencyMarkers = []string{
	"[inaudible]", "[unclear]", "...",
	"uh", "um", "hmm",
}

// ClarityFilter decides whether a transcript carries enough content to act
// on, or whether the speaker should be asked to repeat themselves.
type ClarityFilter struct {
	markers map[string]struct{}
}

// NewClarityFilter creates a filter with the given markers. If markers is
// nil, DefaultDisfluencyMarkers is used.
func NewClarityFilter(markers []string) *ClarityFilter {
	if markers == nil {
		markers = DefaultDisfluencyMarkers
	}
	f := &ClarityFilter{markers: make(map[string]struct{}, len(markers))}
	for _, m := range markers {
		f.markers[strings.ToLower(m)] = struct{}{}
	}
	return f
}

// Unintelligible reports whether the transcript is too short or consists
// only of disfluency markers.
func (f *ClarityFilter) Unintelligible(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 3 {
		return true
	}

	for _, token := range strings.Fields(strings.ToLower(trimmed)) {
		token = strings.Trim(token, ".,!?;:")
		if token == "" {
			continue
		}
		if _, ok := f.markers[token]; !ok {
			return false
		}
	}
	return true
}
