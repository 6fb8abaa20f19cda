// Package avatar turns captured emotion photos into a stylized portrait set,
// stop-motion frames, and looping animations.
package avatar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/normanking/egoavatar/internal/genimage"
)

const basePortraitPrompt = "FOLLOW CLOSELY TO WHAT IS GIVEN IN THEE PROVIDED IMAGE. Create a new image: Generate a clean, photorealistic, high-resolution, forward-facing digital portrait " +
	"based on the person in this image. The background should be a simple, neutral grey " +
	"studio background. The expression must be perfectly neutral. The style should be " +
	"a high-fidelity digital human with professional lighting and clear facial features. " +
	"Please generate a new image file."

const expressionVariantPrompt = "Create a new image: Using the first image as the base character model, modify its facial expression " +
	"to match the %[1]s emotion shown in the second image. It is critical to " +
	"maintain the identity, art style, and lighting of the base character. Only change " +
	"the facial expression to convey %[1]s emotion while keeping everything " +
	"else identical. Please generate a new image file."

// Generator produces the portrait set: one base portrait from the neutral
// capture, then one expression variant per remaining emotion.
type Generator struct {
	gen    genimage.Generator
	logger zerolog.Logger
}

// NewGenerator creates a portrait generator over the given image backend.
func NewGenerator(gen genimage.Generator, logger zerolog.Logger) *Generator {
	return &Generator{
		gen:    gen,
		logger: logger.With().Str("component", "avatar").Logger(),
	}
}

// GenerateBasePortrait creates the neutral base portrait from the captured
// neutral photo and writes it to outPath.
func (g *Generator) GenerateBasePortrait(ctx context.Context, neutralPhotoPath, outPath string) error {
	photo, err := os.ReadFile(neutralPhotoPath)
	if err != nil {
		return fmt.Errorf("read neutral photo: %w", err)
	}

	g.logger.Info().Str("photo", neutralPhotoPath).Msg("Generating base portrait")

	result, err := g.gen.Generate(ctx, basePortraitPrompt, imageInput(neutralPhotoPath, photo))
	if err != nil {
		return fmt.Errorf("generate base portrait: %w", err)
	}

	if err := writeNormalizedPNG(result, outPath); err != nil {
		return fmt.Errorf("save base portrait: %w", err)
	}
	g.logger.Info().Str("path", outPath).Msg("Base portrait generated")
	return nil
}

// GenerateExpressionVariant creates an emotional variant of the base
// portrait, guided by the captured emotion photo, and writes it to outPath.
// The base portrait keeps its identity and lighting; only the expression
// changes.
func (g *Generator) GenerateExpressionVariant(ctx context.Context, basePortraitPath, emotionPhotoPath, emotionName, outPath string) error {
	base, err := os.ReadFile(basePortraitPath)
	if err != nil {
		return fmt.Errorf("read base portrait: %w", err)
	}
	photo, err := os.ReadFile(emotionPhotoPath)
	if err != nil {
		return fmt.Errorf("read emotion photo: %w", err)
	}

	g.logger.Info().Str("emotion", emotionName).Msg("Generating expression variant")

	prompt := fmt.Sprintf(expressionVariantPrompt, emotionName)
	result, err := g.gen.Generate(ctx, prompt,
		genimage.PNG(base),
		imageInput(emotionPhotoPath, photo),
	)
	if err != nil {
		return fmt.Errorf("generate %s variant: %w", emotionName, err)
	}

	if err := writeNormalizedPNG(result, outPath); err != nil {
		return fmt.Errorf("save %s variant: %w", emotionName, err)
	}
	g.logger.Info().Str("emotion", emotionName).Str("path", outPath).Msg("Expression variant generated")
	return nil
}

// imageInput picks the MIME type from the file extension.
func imageInput(path string, data []byte) genimage.ImageInput {
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		return genimage.JPEG(data)
	default:
		return genimage.PNG(data)
	}
}
