// Package ai wraps the Ollama chat API as the flow's expression
// collaborator. Every call is bounded by a timeout and every failure is
// converted to a deterministic fallback string so the draft can never be
// corrupted by the collaborator.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/seorin-dev/moodlog/internal/models"
)

const (
	// DefaultModel is the recommended chat model
	DefaultModel = "llama3.2"
	// DefaultVisionModel is the multimodal model used for draw mode
	DefaultVisionModel = "llava"
	// DefaultURL is the default Ollama API endpoint
	DefaultURL = "http://localhost:11434"
	// DefaultTimeout bounds a single collaborator call
	DefaultTimeout = 30 * time.Second
)

// FallbackResponse is returned whenever the collaborator fails or times
// out mid-flow.
const FallbackResponse = "The AI helper could not respond right now. Your entry is safe — keep expressing on your own, or save as is."

// FallbackClosing is returned when the closing message cannot be fetched.
const FallbackClosing = "Today's mood has been recorded."

// Request carries one collaborator interaction.
type Request struct {
	MoodColor   string
	MoodText    string
	Mode        models.Mode
	Interaction models.AIChoice // chat or develop
	UserContent string
	// IsFinal requests a terse, closing-style response with no
	// follow-up questions. It never blocks the interaction.
	IsFinal bool

	// Draw-mode extras.
	ImagePath        string
	GenerateNewImage bool
	NewImagePath     string
}

// Collaborator is the black-box AI contract consumed by the flow. Both
// methods return plain text and absorb their own failures.
type Collaborator interface {
	GetAIResponse(ctx context.Context, req Request) string
	GetClosingMessage(ctx context.Context, moodName, finalColor string, mode models.Mode, aiUsed bool) string
}

// Client talks to a local Ollama instance.
type Client struct {
	client      *api.Client
	model       string
	visionModel string
	timeout     time.Duration
}

// NewClient creates an Ollama-backed collaborator. Empty arguments fall
// back to the package defaults.
func NewClient(rawURL, model, visionModel string, timeout time.Duration) (*Client, error) {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	if visionModel == "" {
		visionModel = DefaultVisionModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}

	return &Client{
		client:      api.NewClient(base, http.DefaultClient),
		model:       model,
		visionModel: visionModel,
		timeout:     timeout,
	}, nil
}

// IsAvailable checks if Ollama is running and accessible
func IsAvailable(rawURL string) bool {
	if rawURL == "" {
		rawURL = DefaultURL
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(rawURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// GetAIResponse performs one chat/develop interaction and returns the
// response text, or the fallback string on any failure.
func (c *Client) GetAIResponse(ctx context.Context, req Request) string {
	// Image generation is part of the collaborator contract but this
	// backend cannot draw; surface it through the fallback path.
	if req.Mode == models.ModeDraw && req.Interaction == models.AIChoiceDevelop && req.GenerateNewImage {
		return "Generating a new image is not available right now. Here is what you could try instead: " +
			developDrawAdvice(req.UserContent)
	}

	model := c.model
	var images []api.ImageData
	if req.Mode == models.ModeDraw && req.ImagePath != "" {
		data, err := os.ReadFile(req.ImagePath)
		if err == nil {
			images = append(images, api.ImageData(data))
			model = c.visionModel
		}
		// An unreadable image degrades to a text-only exchange.
	}

	messages := []api.Message{
		{Role: "system", Content: systemPrompt(req)},
		{Role: "user", Content: userPrompt(req), Images: images},
	}

	text, err := c.chat(ctx, model, messages, 300)
	if err != nil || strings.TrimSpace(text) == "" {
		return FallbackResponse
	}
	return strings.TrimSpace(text)
}

// GetClosingMessage fetches the short session-closing note shown after a
// record is saved.
func (c *Client) GetClosingMessage(ctx context.Context, moodName, finalColor string, mode models.Mode, aiUsed bool) string {
	messages := []api.Message{
		{Role: "system", Content: closingSystemPrompt},
		{Role: "user", Content: closingUserPrompt(moodName, finalColor, mode, aiUsed)},
	}

	text, err := c.chat(ctx, c.model, messages, 100)
	if err != nil || strings.TrimSpace(text) == "" {
		return FallbackClosing
	}
	return strings.TrimSpace(text)
}

// chat runs one bounded, non-streaming chat completion.
func (c *Client) chat(ctx context.Context, model string, messages []api.Message, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": 0.7,
			"num_predict": maxTokens,
		},
	}

	var out strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	return out.String(), nil
}

// Disabled is the collaborator used when ai.enabled is off or Ollama is
// unreachable at startup. It keeps the flow intact with static text.
type Disabled struct{}

func (Disabled) GetAIResponse(context.Context, Request) string {
	return FallbackResponse
}

func (Disabled) GetClosingMessage(context.Context, string, string, models.Mode, bool) string {
	return FallbackClosing
}
