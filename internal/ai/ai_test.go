package ai

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/seorin-dev/moodlog/internal/models"
)

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient("", "", "", 0)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.model != DefaultModel {
		t.Errorf("model = %q, want %q", c.model, DefaultModel)
	}
	if c.visionModel != DefaultVisionModel {
		t.Errorf("visionModel = %q, want %q", c.visionModel, DefaultVisionModel)
	}
	if c.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, DefaultTimeout)
	}
}

func TestNewClientBadURL(t *testing.T) {
	if _, err := NewClient("://not-a-url", "", "", time.Second); err == nil {
		t.Error("expected error for malformed url")
	}
}

func TestSystemPromptChat(t *testing.T) {
	p := systemPrompt(Request{
		MoodColor:   "blue",
		MoodText:    "quiet and heavy",
		Mode:        models.ModeWrite,
		Interaction: models.AIChoiceChat,
	})
	if !strings.Contains(p, "blue") {
		t.Error("chat prompt should carry the mood color")
	}
	if !strings.Contains(p, "quiet and heavy") {
		t.Error("chat prompt should carry the mood text")
	}
	if strings.Contains(p, "last exchange") {
		t.Error("non-final prompt should not close the session")
	}
}

func TestSystemPromptFinal(t *testing.T) {
	p := systemPrompt(Request{
		MoodColor:   "red",
		Mode:        models.ModeWrite,
		Interaction: models.AIChoiceChat,
		IsFinal:     true,
	})
	if !strings.Contains(p, "Do not ask any questions") {
		t.Error("final prompt should forbid questions")
	}
}

func TestSystemPromptMusicPinsFormat(t *testing.T) {
	for _, choice := range []models.AIChoice{models.AIChoiceChat, models.AIChoiceDevelop} {
		p := systemPrompt(Request{
			MoodColor:   "mint",
			Mode:        models.ModeMusic,
			Interaction: choice,
		})
		if !strings.Contains(p, "'- Artist - Title'") {
			t.Errorf("music prompt for %s should pin the list-marked Artist - Title format", choice)
		}
	}
}

func TestUserPromptFallsBackPerMode(t *testing.T) {
	tests := []struct {
		mode models.Mode
		want string
	}{
		{models.ModeMusic, "recommend songs"},
		{models.ModeDraw, "my drawing"},
		{models.ModeWrite, "don't have more words"},
	}
	for _, tt := range tests {
		got := userPrompt(Request{Mode: tt.mode})
		if !strings.Contains(got, tt.want) {
			t.Errorf("userPrompt(%s) = %q, want substring %q", tt.mode, got, tt.want)
		}
	}
	if got := userPrompt(Request{Mode: models.ModeWrite, UserContent: "today was rough"}); got != "today was rough" {
		t.Errorf("non-empty content should pass through, got %q", got)
	}
}

func TestImageGenerationUnsupported(t *testing.T) {
	c, err := NewClient("http://localhost:1", "", "", time.Second)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	got := c.GetAIResponse(context.Background(), Request{
		MoodColor:        "purple",
		Mode:             models.ModeDraw,
		Interaction:      models.AIChoiceDevelop,
		GenerateNewImage: true,
		UserContent:      "a storm over the sea",
	})
	if !strings.Contains(got, "not available") {
		t.Errorf("expected unsupported-generation notice, got %q", got)
	}
	if !strings.Contains(got, "a storm over the sea") {
		t.Errorf("advice should build on the user's note, got %q", got)
	}
}

func TestDisabledCollaborator(t *testing.T) {
	var c Collaborator = Disabled{}
	if got := c.GetAIResponse(context.Background(), Request{Mode: models.ModeWrite}); got != FallbackResponse {
		t.Errorf("GetAIResponse = %q, want fallback", got)
	}
	if got := c.GetClosingMessage(context.Background(), "pink", "#ff69b4", models.ModeWrite, false); got != FallbackClosing {
		t.Errorf("GetClosingMessage = %q, want fallback", got)
	}
}

func TestIsAvailableUnreachable(t *testing.T) {
	if IsAvailable("http://127.0.0.1:1") {
		t.Error("IsAvailable should be false for an unreachable port")
	}
}
