package voice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/egoavatar/internal/persona"
	"github.com/normanking/egoavatar/internal/store"
	"github.com/normanking/egoavatar/internal/stt"
)

// CloneResult is the outcome of clone creation, marshaled to stdout by the
// CLI.
type CloneResult struct {
	Status            string `json:"status"`
	VoiceID           string `json:"voice_id,omitempty"`
	PersonalityPrompt string `json:"personality_prompt,omitempty"`
	Degraded          bool   `json:"degraded,omitempty"`
	DegradedReason    string `json:"degraded_reason,omitempty"`
	Error             string `json:"error,omitempty"`
}

// RetrainResult is the outcome of voice retraining.
type RetrainResult struct {
	Success     bool   `json:"success"`
	OldVoiceID  string `json:"old_voice_id,omitempty"`
	NewVoiceID  string `json:"new_voice_id,omitempty"`
	SamplesUsed int    `json:"samples_used,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ServiceConfig holds clone lifecycle configuration
type ServiceConfig struct {
	UploadsDir       string        // interview audio uploads
	VoiceMessagesDir string        // chat voice messages, used for retraining
	RetrainWindow    time.Duration // how recent retrain samples must be (default 24h)
	RetrainMinFiles  int           // minimum samples for retraining (default 3)
	RetrainMaxFiles  int           // cap on samples per retrain (default 10)
}

// Service manages the clone lifecycle: creation from interview audio and
// retraining from accumulated chat audio.
type Service struct {
	cloner      Cloner
	transcriber stt.Transcriber
	deriver     *persona.Deriver
	store       *store.Store
	cfg         ServiceConfig
	logger      zerolog.Logger
}

// NewService wires the clone lifecycle dependencies.
func NewService(cloner Cloner, transcriber stt.Transcriber, deriver *persona.Deriver, st *store.Store, cfg ServiceConfig, logger zerolog.Logger) *Service {
	if cfg.RetrainWindow <= 0 {
		cfg.RetrainWindow = 24 * time.Hour
	}
	if cfg.RetrainMinFiles <= 0 {
		cfg.RetrainMinFiles = 3
	}
	if cfg.RetrainMaxFiles <= 0 {
		cfg.RetrainMaxFiles = 10
	}
	return &Service{
		cloner:      cloner,
		transcriber: transcriber,
		deriver:     deriver,
		store:       st,
		cfg:         cfg,
		logger:      logger.With().Str("component", "clone-service").Logger(),
	}
}

// CreateForSession creates a voice clone from the most recent interview
// recording. Only the newest audio file is used; mixing recordings from
// different speakers degrades the clone. Transcription and persona
// derivation fall back rather than fail: a clone with a generic persona
// beats no clone.
func (s *Service) CreateForSession(ctx context.Context, sessionID, userName string) *CloneResult {
	s.logger.Info().Str("session", sessionID).Msg("Creating voice clone")

	audioPath, err := s.mostRecentAudio(s.cfg.UploadsDir)
	if err != nil {
		return &CloneResult{Status: "failed", Error: fmt.Sprintf("no interview audio: %v", err)}
	}

	sample, err := LoadSample(audioPath)
	if err != nil {
		return &CloneResult{Status: "failed", Error: err.Error()}
	}

	voiceID, err := s.cloner.CreateClone(ctx,
		fmt.Sprintf("Clone_%s_%s", userName, sessionID),
		fmt.Sprintf("Voice clone for %s", userName),
		[]Sample{sample},
	)
	if err != nil {
		return &CloneResult{Status: "failed", Error: fmt.Sprintf("clone creation: %v", err)}
	}

	transcriptResult := s.transcribe(ctx, audioPath)
	framed := persona.FrameTranscript(transcriptResult.Value)
	if transcriptResult.Degraded {
		// the sample transcript is already framed
		framed = transcriptResult.Value
	}

	personaResult := s.deriver.Derive(ctx, framed)

	clone := &store.VoiceClone{
		ID:                     voiceID,
		SessionID:              sessionID,
		UserName:               userName,
		VoiceID:                voiceID,
		PersonalityPrompt:      personaResult.Value,
		InterviewTranscription: framed,
	}
	if err := s.store.Create(clone); err != nil {
		return &CloneResult{Status: "failed", Error: fmt.Sprintf("save clone: %v", err)}
	}

	result := &CloneResult{
		Status:            "success",
		VoiceID:           voiceID,
		PersonalityPrompt: personaResult.Value,
	}
	if transcriptResult.Degraded || personaResult.Degraded {
		result.Degraded = true
		result.DegradedReason = strings.TrimSpace(transcriptResult.Reason + " " + personaResult.Reason)
	}
	return result
}

// transcribe attempts Whisper transcription and falls back to the sample
// transcript when the audio cannot be transcribed.
func (s *Service) transcribe(ctx context.Context, audioPath string) persona.Result {
	text, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Transcription failed, using sample transcript")
		return persona.Fallback(persona.SampleTranscript, fmt.Sprintf("transcription failed: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		return persona.Fallback(persona.SampleTranscript, "empty transcription")
	}
	return persona.Ok(text)
}

// Retrain rebuilds the voice from recent chat audio. The old identity is
// archived and a fresh clone row carries the persona and transcript forward.
func (s *Service) Retrain(ctx context.Context, voiceID string) *RetrainResult {
	s.logger.Info().Str("voice", voiceID).Msg("Retraining voice")

	info, err := s.store.ByVoiceID(voiceID)
	if err != nil {
		return &RetrainResult{Success: false, Error: "Voice not found"}
	}

	paths, err := s.recentAudio(s.cfg.VoiceMessagesDir, s.cfg.RetrainWindow)
	if err != nil || len(paths) < s.cfg.RetrainMinFiles {
		return &RetrainResult{
			Success: false,
			Error:   fmt.Sprintf("Not enough audio samples (need %d+, found %d)", s.cfg.RetrainMinFiles, len(paths)),
		}
	}
	if len(paths) > s.cfg.RetrainMaxFiles {
		paths = paths[:s.cfg.RetrainMaxFiles]
	}

	samples := make([]Sample, 0, len(paths))
	for _, path := range paths {
		sample, err := LoadSample(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable sample")
			continue
		}
		samples = append(samples, sample)
	}
	if len(samples) < s.cfg.RetrainMinFiles {
		return &RetrainResult{
			Success: false,
			Error:   fmt.Sprintf("Not enough audio samples (need %d+, found %d)", s.cfg.RetrainMinFiles, len(samples)),
		}
	}

	stamp := time.Now().Format("20060102_150405")
	newVoiceID, err := s.cloner.CreateClone(ctx,
		fmt.Sprintf("Retrained_%s_%s", info.UserName, stamp),
		fmt.Sprintf("Retrained voice clone for %s", info.UserName),
		samples,
	)
	if err != nil {
		return &RetrainResult{Success: false, Error: err.Error()}
	}

	if err := s.store.Archive(voiceID); err != nil {
		return &RetrainResult{Success: false, Error: fmt.Sprintf("archive old voice: %v", err)}
	}
	if err := s.store.Create(&store.VoiceClone{
		ID:                     newVoiceID,
		SessionID:              fmt.Sprintf("retrained_%s", stamp),
		UserName:               info.UserName,
		VoiceID:                newVoiceID,
		PersonalityPrompt:      info.PersonalityPrompt,
		InterviewTranscription: info.InterviewTranscription,
	}); err != nil {
		return &RetrainResult{Success: false, Error: fmt.Sprintf("save retrained voice: %v", err)}
	}

	return &RetrainResult{
		Success:     true,
		OldVoiceID:  voiceID,
		NewVoiceID:  newVoiceID,
		SamplesUsed: len(samples),
	}
}

// mostRecentAudio returns the newest non-backup audio file in dir.
func (s *Service) mostRecentAudio(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read uploads directory: %w", err)
	}

	var newest string
	var newestMod time.Time
	skipped := 0
	for _, entry := range entries {
		if entry.IsDir() || !isAudioFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			if newest != "" {
				skipped++
			}
			newest = filepath.Join(dir, entry.Name())
			newestMod = info.ModTime()
		} else {
			skipped++
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no audio files in %s", dir)
	}
	if skipped > 0 {
		s.logger.Warn().Int("ignored", skipped).Msg("Ignoring older audio files to prevent voice mixing")
	}
	return newest, nil
}

// recentAudio returns audio files in dir modified within the window, newest
// first.
func (s *Service) recentAudio(dir string, window time.Duration) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read voice messages directory: %w", err)
	}

	cutoff := time.Now().Add(-window)
	type fileMod struct {
		path string
		mod  time.Time
	}
	var files []fileMod
	for _, entry := range entries {
		if entry.IsDir() || !isAudioFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			files = append(files, fileMod{path: filepath.Join(dir, entry.Name()), mod: info.ModTime()})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].mod.After(files[j].mod)
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

func isAudioFile(name string) bool {
	if strings.HasSuffix(name, ".backup") {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".wav" || ext == ".mp3"
}
