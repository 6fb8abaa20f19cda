// Package relay streams annotated camera frames and emotion readings to a
// browser over WebSocket.
package relay

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/normanking/egoavatar/internal/emotion"
	"github.com/normanking/egoavatar/internal/vision"
)

// readyMessage tells the client the stream is about to start.
type readyMessage struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// Reading is one face's emotion classification.
type Reading struct {
	Emotion    string             `json:"emotion"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Region     emotion.Region     `json:"region"`
}

// frameMessage carries one annotated frame and its readings.
type frameMessage struct {
	Type      string    `json:"type"`
	Image     string    `json:"image"` // base64 JPEG
	Emotions  []Reading `json:"emotions"`
	Timestamp string    `json:"timestamp"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Config holds relay server configuration
type Config struct {
	Addr          string        `json:"addr"`
	AnalyzeEveryN int           `json:"analyze_every_n"` // classify every Nth frame (default 3)
	FrameInterval time.Duration `json:"frame_interval"`  // pacing between frames (default 66ms)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:          ":8082",
		AnalyzeEveryN: 3,
		FrameInterval: 66 * time.Millisecond,
	}
}

// Server relays frames to a single browser client. The camera is one
// physical resource; a second connection is refused rather than multiplexed.
type Server struct {
	source     vision.Source
	classifier emotion.Classifier
	cfg        Config
	logger     zerolog.Logger
	upgrader   websocket.Upgrader

	mu   sync.Mutex
	busy bool
}

// NewServer creates a relay server over the given frame source and
// classifier.
func NewServer(source vision.Source, classifier emotion.Classifier, cfg Config, logger zerolog.Logger) *Server {
	if cfg.AnalyzeEveryN <= 0 {
		cfg.AnalyzeEveryN = 3
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 66 * time.Millisecond
	}
	return &Server{
		source:     source,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger.With().Str("component", "relay").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run serves the WebSocket endpoint until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.handleClient(ctx, w, r)
	})

	srv := &http.Server{Addr: s.cfg.Addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.cfg.Addr).Msg("Relay server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleClient upgrades the connection and streams frames until the client
// disconnects or the context ends.
func (s *Server) handleClient(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		http.Error(w, "stream already in use", http.StatusConflict)
		return
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s.logger.Info().Str("remote", r.RemoteAddr).Msg("Client connected")

	if err := conn.WriteJSON(readyMessage{Type: "ready", Timestamp: time.Now().Format(time.RFC3339)}); err != nil {
		return
	}

	// The read pump only notices the client going away.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.streamFrames(ctx, conn, clientGone)
	s.logger.Info().Str("remote", r.RemoteAddr).Msg("Client disconnected")
}

func (s *Server) streamFrames(ctx context.Context, conn *websocket.Conn, clientGone <-chan struct{}) {
	var lastReadings []Reading
	var lastDetections []emotion.Detection
	frameCount := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-clientGone:
			return
		default:
		}

		frame, err := s.source.Read(ctx)
		if err != nil {
			if errors.Is(err, vision.ErrStreamEnded) || errors.Is(err, context.Canceled) {
				return
			}
			conn.WriteJSON(errorMessage{Type: "error", Message: err.Error()})
			s.logger.Warn().Err(err).Msg("Frame read failed")
			return
		}

		frameCount++
		if frameCount%s.cfg.AnalyzeEveryN == 0 {
			detections, err := s.classifier.Analyze(ctx, frame.Data)
			if err != nil {
				s.logger.Debug().Err(err).Msg("Frame analysis failed")
			} else {
				lastDetections = detections
				lastReadings = toReadings(detections)
			}
		}

		annotated, err := annotateFrame(frame.Data, lastDetections)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Frame annotation failed")
			annotated = frame.Data
		}

		msg := frameMessage{
			Type:      "frame",
			Image:     base64.StdEncoding.EncodeToString(annotated),
			Emotions:  lastReadings,
			Timestamp: frame.Timestamp.Format(time.RFC3339),
		}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-clientGone:
			return
		case <-time.After(s.cfg.FrameInterval):
		}
	}
}

func toReadings(detections []emotion.Detection) []Reading {
	readings := make([]Reading, 0, len(detections))
	for _, d := range detections {
		readings = append(readings, Reading{
			Emotion:    d.Dominant,
			Confidence: d.Confidence(),
			Scores:     d.Scores,
			Region:     d.Region,
		})
	}
	return readings
}
