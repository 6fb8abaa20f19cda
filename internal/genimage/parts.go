package genimage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// PartKind tags a decoded response part. The set is closed: anything the
// decoder does not recognize becomes PartUnknown and is skipped by callers.
type PartKind int

const (
	PartUnknown PartKind = iota
	PartText
	PartImage
)

// Part is one decoded piece of a generation response. Exactly one of Text or
// Image is populated, matching Kind.
type Part struct {
	Kind     PartKind
	Text     string
	MIMEType string
	Image    []byte
}

type rawPart struct {
	Text       string `json:"text"`
	InlineData *struct {
		MIMEType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []rawPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// decodeResponse parses a generateContent body and classifies every part
// once, up front. Callers then switch on Kind instead of re-inspecting the
// raw JSON.
func decodeResponse(raw []byte) ([]Part, error) {
	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var parts []Part
	for _, cand := range resp.Candidates {
		for _, rp := range cand.Content.Parts {
			parts = append(parts, classifyPart(rp))
		}
	}
	return parts, nil
}

func classifyPart(rp rawPart) Part {
	if rp.InlineData != nil {
		data, err := base64.StdEncoding.DecodeString(rp.InlineData.Data)
		if err != nil {
			return Part{Kind: PartUnknown}
		}
		return Part{Kind: PartImage, MIMEType: rp.InlineData.MIMEType, Image: data}
	}
	if rp.Text != "" {
		return Part{Kind: PartText, Text: rp.Text}
	}
	return Part{Kind: PartUnknown}
}
