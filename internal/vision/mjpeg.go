package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MJPEGSource reads frames from an MJPEG (multipart/x-mixed-replace) HTTP
// stream, the interface exposed by common webcam gateways.
type MJPEGSource struct {
	url    string
	logger zerolog.Logger

	mu     sync.Mutex
	resp   *http.Response
	reader *multipart.Reader
	closed bool
}

// NewMJPEGSource connects to the given MJPEG stream URL.
func NewMJPEGSource(ctx context.Context, streamURL string, timeout time.Duration, logger zerolog.Logger) (*MJPEGSource, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	client := &http.Client{Timeout: 0} // stream stays open; timeout only on dial
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := client.Do(req.WithContext(dialCtx))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraNotAvailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrCameraNotAvailable, resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrCameraNotAvailable, resp.Header.Get("Content-Type"))
	}

	logger.Info().Str("url", streamURL).Msg("Camera stream connected")

	return &MJPEGSource{
		url:    streamURL,
		logger: logger.With().Str("component", "camera").Logger(),
		resp:   resp,
		reader: multipart.NewReader(resp.Body, params["boundary"]),
	}, nil
}

// Read returns the next JPEG frame from the stream.
func (s *MJPEGSource) Read(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStreamEnded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	part, err := s.reader.NextPart()
	if err != nil {
		if err == io.EOF {
			return nil, ErrStreamEnded
		}
		return nil, fmt.Errorf("read stream part: %w", err)
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	return &Frame{
		Data:      data,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Timestamp: time.Now(),
	}, nil
}

// Close terminates the stream and releases the connection.
func (s *MJPEGSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info().Msg("Camera stream released")
	return s.resp.Body.Close()
}
