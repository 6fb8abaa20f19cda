// Package emotion provides facial emotion detection via an external
// analysis service.
package emotion

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNoFace             = errors.New("no face detected")
	ErrServiceUnavailable = errors.New("emotion service unavailable")
)

// Emotion is one of the fixed capture targets.
type Emotion string

const (
	Neutral Emotion = "neutral"
	Happy   Emotion = "happy"
	Sad     Emotion = "sad"
	Angry   Emotion = "angry"
)

// CaptureOrder is the fixed calibration sequence. Capture only ever moves
// forward through it.
var CaptureOrder = []Emotion{Neutral, Happy, Sad, Angry}

// Region is a face bounding box in frame coordinates.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Area returns the region area in pixels.
func (r Region) Area() int {
	return r.W * r.H
}

// Detection is the per-face result for one analyzed frame. It is ephemeral:
// it drives the stability counter and the live overlay, then is discarded.
type Detection struct {
	Dominant  string             `json:"dominant_emotion"`
	Scores    map[string]float64 `json:"emotion"`
	Region    Region             `json:"region"`
	Timestamp time.Time          `json:"timestamp"`
}

// Confidence returns the score of the dominant emotion.
func (d Detection) Confidence() float64 {
	return d.Scores[d.Dominant]
}

// PlausibleIn reports whether the detected face region is usable for capture.
// Implausibly small regions give unreliable emotion reads; implausibly large
// ones are almost always detector artifacts.
func (d Detection) PlausibleIn(frameW, frameH, minSize int, maxAreaFrac float64) bool {
	if d.Region.W < minSize || d.Region.H < minSize {
		return false
	}
	if frameW > 0 && frameH > 0 {
		if float64(d.Region.Area()) > maxAreaFrac*float64(frameW*frameH) {
			return false
		}
	}
	return true
}
