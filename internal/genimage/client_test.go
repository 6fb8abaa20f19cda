package genimage

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(zerolog.Nop(), &ClientConfig{
		APIKey:   "test-key",
		Model:    "gemini-2.5-flash-image",
		Endpoint: "https://generativelanguage.googleapis.com/v1beta",
	})
	httpmock.ActivateNonDefault(c.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestGenerateReturnsImagePart(t *testing.T) {
	c := newTestClient(t)

	imgBytes := []byte{0x89, 0x50, 0x4E, 0x47}
	body := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{
					{"text": "Here is your portrait."},
					{"inlineData": map[string]any{
						"mimeType": "image/png",
						"data":     base64.StdEncoding.EncodeToString(imgBytes),
					}},
				},
			},
		}},
	}
	httpmock.RegisterResponder("POST",
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-image:generateContent",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "test-key", req.Header.Get("x-goog-api-key"))
			return httpmock.NewJsonResponse(200, body)
		})

	out, err := c.Generate(context.Background(), "a portrait", JPEG([]byte("fake")))
	require.NoError(t, err)
	assert.Equal(t, imgBytes, out)
}

func TestGenerateTextOnlyResponse(t *testing.T) {
	c := newTestClient(t)

	body := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{
					{"text": "I cannot generate that image."},
				},
			},
		}},
	}
	httpmock.RegisterResponder("POST",
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-image:generateContent",
		httpmock.NewJsonResponderOrPanic(200, body))

	_, err := c.Generate(context.Background(), "a portrait")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateAPIError(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder("POST",
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-image:generateContent",
		httpmock.NewStringResponder(429, `{"error":{"message":"quota"}}`))

	_, err := c.Generate(context.Background(), "a portrait")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	c := NewClient(zerolog.Nop(), &ClientConfig{})
	_, err := c.Generate(context.Background(), "a portrait")
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestClassifyPartUnknown(t *testing.T) {
	p := classifyPart(rawPart{})
	assert.Equal(t, PartUnknown, p.Kind)

	p = classifyPart(rawPart{InlineData: &struct {
		MIMEType string `json:"mimeType"`
		Data     string `json:"data"`
	}{MIMEType: "image/png", Data: "not-base64!!"}})
	assert.Equal(t, PartUnknown, p.Kind)
}
