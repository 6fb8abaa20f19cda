package avatar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/egoavatar/internal/emotion"
	"github.com/normanking/egoavatar/internal/genimage"
)

// variationPrompts describe subtle mouth shapes for stop-motion frames. The
// same pool serves every emotion; the portrait being varied already carries
// the expression.
var variationPrompts = []string{
	"Create a new image: Make the exact same person with a very subtle change - the mouth is gently closed with the lips touching, as if pronouncing the sound 'Mmm'. Keep everything else identical including expression, lighting, and pose.",
	"Create a new image: Make the exact same person with a very subtle change - the jaw is relaxed and the mouth is slightly open, as if saying a soft 'ah' sound. Keep everything else identical including expression, lighting, and pose.",
	"Create a new image: Make the exact same person with a very subtle change - the mouth is open and the lips are rounded, as if pronouncing an 'Ooh' sound. Keep everything else identical including expression, lighting, and pose.",
}

// Puppeteer generates stop-motion variation frames from emotion portraits.
type Puppeteer struct {
	gen    genimage.Generator
	delay  time.Duration // pause between vendor calls
	logger zerolog.Logger
}

// NewPuppeteer creates a variation generator. delay spaces out consecutive
// vendor calls; zero disables the pause.
func NewPuppeteer(gen genimage.Generator, delay time.Duration, logger zerolog.Logger) *Puppeteer {
	return &Puppeteer{
		gen:    gen,
		delay:  delay,
		logger: logger.With().Str("component", "puppeteer").Logger(),
	}
}

// GenerateVariations produces count mouth-shape variations of one emotion
// portrait, writing <emotion>_variation_NN.png files under outDir/<emotion>/.
// Individual failures are skipped; the returned slice holds the frames that
// succeeded, in order.
func (p *Puppeteer) GenerateVariations(ctx context.Context, avatarPath string, emo emotion.Emotion, count int, outDir string) ([]string, error) {
	base, err := os.ReadFile(avatarPath)
	if err != nil {
		return nil, fmt.Errorf("read avatar image: %w", err)
	}

	emotionDir := filepath.Join(outDir, string(emo))
	if err := os.MkdirAll(emotionDir, 0755); err != nil {
		return nil, fmt.Errorf("create variation directory: %w", err)
	}

	var paths []string
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		prompt := "Prioritise changing the mouth shape based on my following prompt: " +
			variationPrompts[i%len(variationPrompts)]
		prompt = fmt.Sprintf("%s This is variation %d of %d.", prompt, i+1, count)

		p.logger.Info().
			Str("emotion", string(emo)).
			Int("variation", i+1).
			Int("total", count).
			Msg("Generating variation")

		result, err := p.gen.Generate(ctx, prompt, genimage.PNG(base))
		if err != nil {
			p.logger.Error().Err(err).Int("variation", i+1).Msg("Variation generation failed")
			p.pause(ctx)
			continue
		}

		path := filepath.Join(emotionDir, fmt.Sprintf("%s_variation_%02d.png", emo, i+1))
		if err := writeNormalizedPNG(result, path); err != nil {
			p.logger.Error().Err(err).Int("variation", i+1).Msg("Failed to save variation")
			p.pause(ctx)
			continue
		}

		paths = append(paths, path)
		p.pause(ctx)
	}

	p.logger.Info().
		Str("emotion", string(emo)).
		Int("generated", len(paths)).
		Int("requested", count).
		Msg("Variations complete")
	return paths, nil
}

// GenerateAllVariations runs GenerateVariations for every emotion portrait.
// Emotions whose generation produced no frames are absent from the result.
func (p *Puppeteer) GenerateAllVariations(ctx context.Context, avatars map[emotion.Emotion]string, count int, outDir string) (map[emotion.Emotion][]string, error) {
	all := make(map[emotion.Emotion][]string)
	for _, emo := range emotion.CaptureOrder {
		avatarPath, ok := avatars[emo]
		if !ok {
			continue
		}
		paths, err := p.GenerateVariations(ctx, avatarPath, emo, count, outDir)
		if err != nil {
			if ctx.Err() != nil {
				return all, err
			}
			p.logger.Error().Err(err).Str("emotion", string(emo)).Msg("Skipping emotion variations")
			continue
		}
		if len(paths) > 0 {
			all[emo] = paths
		}
	}
	return all, nil
}

func (p *Puppeteer) pause(ctx context.Context) {
	if p.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(p.delay):
	}
}
