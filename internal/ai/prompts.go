package ai

import (
	"fmt"
	"strings"

	"github.com/seorin-dev/moodlog/internal/models"
)

// systemPrompt selects the instruction set for one interaction. The
// collaborator never judges or diagnoses; it mirrors, asks, or refines.
func systemPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a warm companion inside a mood journal. ")
	b.WriteString("The user chose the mood color '" + req.MoodColor + "'")
	if req.MoodText != "" {
		b.WriteString(" and described their mood as: " + req.MoodText)
	}
	b.WriteString(".\n")

	switch req.Interaction {
	case models.AIChoiceDevelop:
		switch req.Mode {
		case models.ModeWrite:
			b.WriteString("Rewrite the user's text into a more polished, evocative version that stays true to their feeling. Return only the improved text, no preamble.")
		case models.ModeDraw:
			b.WriteString("Look at the user's drawing and their note. Suggest concrete ways to develop the drawing further: composition, color, a detail worth adding. Be specific and encouraging.")
		case models.ModeMusic:
			b.WriteString(musicFormatPrompt)
		}
	default: // chat
		switch req.Mode {
		case models.ModeDraw:
			b.WriteString("Look at the user's drawing and talk with them about it. Reflect what you see, connect it to their mood, and ask one gentle question.")
		case models.ModeMusic:
			b.WriteString(musicFormatPrompt)
		default:
			b.WriteString("Respond to what the user wrote. Acknowledge the feeling without judging it, reflect it back briefly, and ask at most one gentle question.")
		}
	}

	if req.IsFinal {
		b.WriteString("\nThis is the last exchange of the session. Close warmly in two or three sentences. Do not ask any questions.")
	}
	return b.String()
}

// musicFormatPrompt pins the machine-parsed recommendation format. The
// leading dash matters: the parser only reads list-marked lines.
const musicFormatPrompt = "Recommend 3 songs that fit the user's mood. " +
	"First line: one short sentence explaining why these fit. " +
	"Then one song per line, formatted exactly as '- Artist - Title'. No other text."

func userPrompt(req Request) string {
	if strings.TrimSpace(req.UserContent) != "" {
		return req.UserContent
	}
	// Empty content happens on auto-triggered interactions (music mode).
	switch req.Mode {
	case models.ModeMusic:
		return "Please recommend songs for this mood."
	case models.ModeDraw:
		return "Here is my drawing."
	default:
		return "I don't have more words right now."
	}
}

const closingSystemPrompt = "You write the single closing line of a mood journal session. " +
	"One or two sentences, warm and grounded, no questions, no emoji spam."

func closingUserPrompt(moodName, finalColor string, mode models.Mode, aiUsed bool) string {
	companion := "on their own"
	if aiUsed {
		companion = "together with you"
	}
	return fmt.Sprintf(
		"The user recorded a '%s' mood in %s mode %s. Their final color came out as %s. Send them off for the day.",
		moodName, mode, companion, finalColor,
	)
}

// developDrawAdvice is the text-only stand-in when image generation is
// requested but unsupported by the backend.
func developDrawAdvice(note string) string {
	if strings.TrimSpace(note) == "" {
		return "pick one element of your drawing and push its color a step bolder, then add one small detail that only you would notice."
	}
	return "start from what you wrote (\"" + note + "\") and let one detail of the drawing grow to match it."
}
