package avatar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/normanking/egoavatar/internal/emotion"
	"github.com/normanking/egoavatar/internal/gifanim"
)

// photoFiles maps each emotion to its expected capture filename inside the
// session photo directory.
var photoFiles = map[emotion.Emotion]string{
	emotion.Neutral: "photo-1.jpg",
	emotion.Happy:   "photo-2.jpg",
	emotion.Sad:     "photo-3.jpg",
	emotion.Angry:   "photo-4.jpg",
}

// Result is the session generation outcome, marshaled to stdout by the CLI.
type Result struct {
	Success    bool                `json:"success"`
	SessionID  string              `json:"session_id"`
	Error      string              `json:"error,omitempty"`
	Portraits  map[string]string   `json:"portraits,omitempty"`
	GIFs       map[string]string   `json:"gifs,omitempty"`
	StopMotion map[string][]string `json:"stop_motion,omitempty"`
}

// ServiceConfig holds avatar pipeline configuration
type ServiceConfig struct {
	VariationCount int // stop-motion frames per emotion (default 2)
}

// Service runs the full session pipeline: base portrait, expression
// variants, stop-motion frames, animated GIFs.
type Service struct {
	generator *Generator
	puppeteer *Puppeteer
	assembler *gifanim.Assembler
	cfg       ServiceConfig
	logger    zerolog.Logger
}

// NewService wires the pipeline stages together.
func NewService(generator *Generator, puppeteer *Puppeteer, assembler *gifanim.Assembler, cfg ServiceConfig, logger zerolog.Logger) *Service {
	if cfg.VariationCount <= 0 {
		cfg.VariationCount = 2
	}
	return &Service{
		generator: generator,
		puppeteer: puppeteer,
		assembler: assembler,
		cfg:       cfg,
		logger:    logger.With().Str("component", "avatar-service").Logger(),
	}
}

// GenerateForSession runs the pipeline for one session. photoDir must hold
// the four captured emotion photos; output lands under outputDir/<session>/
// in portraits/, stop_motion/ and gifs/ subdirectories. Partial failures in
// variants, frames or GIFs degrade the result rather than failing it; only a
// missing photo set or a failed base portrait is fatal.
func (s *Service) GenerateForSession(ctx context.Context, sessionID, photoDir, outputDir string) *Result {
	s.logger.Info().Str("session", sessionID).Msg("Starting avatar generation")

	photos := make(map[emotion.Emotion]string, len(photoFiles))
	var missing []string
	for emo, name := range photoFiles {
		path := filepath.Join(photoDir, name)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
			continue
		}
		photos[emo] = path
	}
	if len(missing) > 0 {
		return s.fail(sessionID, fmt.Sprintf("missing photos: %v", missing))
	}

	baseDir := filepath.Join(outputDir, sessionID)
	portraitsDir := filepath.Join(baseDir, "portraits")
	stopMotionDir := filepath.Join(baseDir, "stop_motion")
	gifsDir := filepath.Join(baseDir, "gifs")
	for _, dir := range []string{portraitsDir, stopMotionDir, gifsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return s.fail(sessionID, fmt.Sprintf("create output directory: %v", err))
		}
	}

	basePath := filepath.Join(portraitsDir, "avatar_base_neutral.png")
	if err := s.generator.GenerateBasePortrait(ctx, photos[emotion.Neutral], basePath); err != nil {
		return s.fail(sessionID, fmt.Sprintf("base portrait: %v", err))
	}

	portraits := map[emotion.Emotion]string{emotion.Neutral: basePath}
	for _, emo := range []emotion.Emotion{emotion.Happy, emotion.Sad, emotion.Angry} {
		variantPath := filepath.Join(portraitsDir, fmt.Sprintf("avatar_%s.png", emo))
		if err := s.generator.GenerateExpressionVariant(ctx, basePath, photos[emo], string(emo), variantPath); err != nil {
			s.logger.Warn().Err(err).Str("emotion", string(emo)).Msg("Expression variant failed")
			continue
		}
		portraits[emo] = variantPath
	}

	variations, err := s.puppeteer.GenerateAllVariations(ctx, portraits, s.cfg.VariationCount, stopMotionDir)
	if err != nil {
		return s.fail(sessionID, fmt.Sprintf("stop-motion variations: %v", err))
	}

	gifs := make(map[emotion.Emotion]string)
	for _, emo := range emotion.CaptureOrder {
		frames, ok := variations[emo]
		if !ok {
			continue
		}
		gifPath := filepath.Join(gifsDir, fmt.Sprintf("%s_animation.gif", emo))
		if err := s.assembler.Assemble(frames, gifPath); err != nil {
			s.logger.Warn().Err(err).Str("emotion", string(emo)).Msg("GIF assembly failed")
			continue
		}
		gifs[emo] = gifPath
	}

	result := &Result{
		Success:    true,
		SessionID:  sessionID,
		Portraits:  make(map[string]string, len(portraits)),
		GIFs:       make(map[string]string, len(gifs)),
		StopMotion: make(map[string][]string, len(variations)),
	}
	for emo, path := range portraits {
		result.Portraits[string(emo)] = path
	}
	for emo := range gifs {
		result.GIFs[string(emo)] = fmt.Sprintf("/api/avatars/%s/%s_animation.gif", sessionID, emo)
	}
	for emo, paths := range variations {
		rel := make([]string, 0, len(paths))
		for _, p := range paths {
			r, err := filepath.Rel(baseDir, p)
			if err != nil {
				r = p
			}
			rel = append(rel, r)
		}
		result.StopMotion[string(emo)] = rel
	}

	s.logger.Info().Str("session", sessionID).Msg("Avatar generation complete")
	return result
}

// Status reports whether a session's animations are pending, still
// processing or complete.
func (s *Service) Status(sessionID, outputDir string) map[string]any {
	baseDir := filepath.Join(outputDir, sessionID)
	gifsDir := filepath.Join(baseDir, "gifs")

	if _, err := os.Stat(baseDir); err != nil {
		return map[string]any{"status": "pending", "session_id": sessionID, "gif_paths": map[string]string{}}
	}

	entries, err := os.ReadDir(gifsDir)
	if err != nil || len(entries) == 0 {
		return map[string]any{"status": "processing", "session_id": sessionID, "gif_paths": map[string]string{}}
	}

	gifPaths := make(map[string]string)
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".gif" {
			continue
		}
		for _, emo := range emotion.CaptureOrder {
			if entry.Name() == fmt.Sprintf("%s_animation.gif", emo) {
				gifPaths[string(emo)] = fmt.Sprintf("/api/avatars/%s/%s", sessionID, entry.Name())
			}
		}
	}
	return map[string]any{"status": "complete", "session_id": sessionID, "gif_paths": gifPaths}
}

func (s *Service) fail(sessionID, msg string) *Result {
	s.logger.Error().Str("session", sessionID).Str("error", msg).Msg("Avatar generation failed")
	return &Result{Success: false, SessionID: sessionID, Error: msg}
}
