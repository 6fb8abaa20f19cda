// Package vision provides camera frame acquisition for egoavatar.
package vision

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrCameraNotAvailable = errors.New("camera not available")
	ErrStreamEnded        = errors.New("camera stream ended")
)

// Frame represents a captured image frame
type Frame struct {
	Data      []byte    `json:"data"` // Image bytes (JPEG)
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Timestamp time.Time `json:"timestamp"`
}

// Source delivers camera frames one at a time. Implementations are scoped
// resources: Close releases the underlying device or stream and must be safe
// to call after a read error.
type Source interface {
	// Read blocks until the next frame is available.
	Read(ctx context.Context) (*Frame, error)

	// Close releases the capture source.
	Close() error
}

// Config holds frame source configuration
type Config struct {
	StreamURL string        `json:"stream_url"` // MJPEG stream endpoint
	Timeout   time.Duration `json:"timeout"`    // connect timeout
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		StreamURL: "http://localhost:8081/stream",
		Timeout:   10 * time.Second,
	}
}
