// Package ai wraps the Gemini API for product image enhancement and text generation.
package ai

import (
	"context"
	"errors"
	"fmt"

	"artisanhub/internal/metrics"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// EnhancePrompt is sent alongside every product photo
const EnhancePrompt = "Enhance this product image for e-commerce"

var (
	// ErrNoImage is returned when the model answers without inline image data
	ErrNoImage = errors.New("model returned no image")
	// ErrEmptyResponse is returned when the model answers with no text
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Client talks to Gemini with one model for text and one for images
type Client struct {
	models     *genai.Models
	textModel  string
	imageModel string
}

// NewClient connects to the Gemini API with an API key
func NewClient(ctx context.Context, apiKey, textModel, imageModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{models: client.Models, textModel: textModel, imageModel: imageModel}, nil
}

// GenerateText sends a single text prompt and returns the concatenated text answer
func (c *Client) GenerateText(ctx context.Context, prompt string) (text string, err error) {
	defer func() { metrics.AICalls.WithLabelValues("generate_text", metrics.Outcome(err)).Inc() }()

	resp, err := c.models.GenerateContent(ctx, c.textModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}
	text = resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// EnhanceImage asks the image model for an improved version of a product photo
func (c *Client) EnhanceImage(ctx context.Context, data []byte, mimeType string) (out []byte, err error) {
	defer func() { metrics.AICalls.WithLabelValues("enhance_image", metrics.Outcome(err)).Inc() }()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(EnhancePrompt),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}
	resp, err := c.models.GenerateContent(ctx, c.imageModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("enhance image: %w", err)
	}
	img := inlineImage(resp)
	if img == nil {
		logrus.WithField("model", c.imageModel).Warn("Image model answered without image data")
		return nil, ErrNoImage
	}
	return img, nil
}

// inlineImage returns the last inline blob of the first candidate
func inlineImage(resp *genai.GenerateContentResponse) []byte {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var data []byte
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			data = part.InlineData.Data
		}
	}
	return data
}
