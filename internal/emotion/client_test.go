package emotion

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(zerolog.Nop(), &ClientConfig{BaseURL: "http://analysis.test"})
	httpmock.ActivateNonDefault(c.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestAnalyzeDecodesDetections(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder("POST", "http://analysis.test/analyze",
		httpmock.NewStringResponder(200, `{
			"faces": [
				{
					"dominant_emotion": "happy",
					"emotion": {"happy": 0.91, "neutral": 0.06},
					"region": {"x": 40, "y": 30, "w": 60, "h": 60}
				},
				{
					"dominant_emotion": "",
					"emotion": {},
					"region": {"x": 0, "y": 0, "w": 0, "h": 0}
				}
			]
		}`))

	detections, err := c.Analyze(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)

	// The unscored second face is dropped, not reported as an error.
	require.Len(t, detections, 1)
	assert.Equal(t, "happy", detections[0].Dominant)
	assert.InDelta(t, 0.91, detections[0].Confidence(), 0.001)
	assert.Equal(t, Region{X: 40, Y: 30, W: 60, H: 60}, detections[0].Region)
	assert.False(t, detections[0].Timestamp.IsZero())
}

func TestAnalyzeNoFaces(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder("POST", "http://analysis.test/analyze",
		httpmock.NewStringResponder(200, `{"faces": []}`))

	detections, err := c.Analyze(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestAnalyzeServiceError(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder("POST", "http://analysis.test/analyze",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := c.Analyze(context.Background(), []byte("jpeg-bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestAnalyzeSendsMultipartFrame(t *testing.T) {
	c := newMockedClient(t)

	var contentType string
	httpmock.RegisterResponder("POST", "http://analysis.test/analyze",
		func(req *http.Request) (*http.Response, error) {
			contentType = req.Header.Get("Content-Type")
			return httpmock.NewStringResponse(200, `{"faces": []}`), nil
		})

	_, err := c.Analyze(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Contains(t, contentType, "multipart/form-data")
}
