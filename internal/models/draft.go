package models

import "time"

// Step identifies a position in the guided recording flow. Steps are
// strictly ordered; every step's guard is a field set by an earlier one.
type Step string

const (
	StepAwaitingColor             Step = "awaiting_color"
	StepAwaitingText              Step = "awaiting_text"
	StepAwaitingMode              Step = "awaiting_mode"
	StepAwaitingExpression        Step = "awaiting_expression"
	StepAwaitingAIChoice          Step = "awaiting_ai_choice"
	StepAwaitingAIResult          Step = "awaiting_ai_result"
	StepAwaitingNextAction        Step = "awaiting_next_action"
	StepAwaitingColorConfirmation Step = "awaiting_color_confirmation"
	StepAwaitingFinalSave         Step = "awaiting_final_save"
	StepCompleted                 Step = "completed"
)

// AIChoice is the user's decision after an expression pass.
type AIChoice string

const (
	AIChoiceSave    AIChoice = "save"
	AIChoiceChat    AIChoice = "chat"
	AIChoiceDevelop AIChoice = "develop"
)

// IsValid reports whether c is one of the known AI choices.
func (c AIChoice) IsValid() bool {
	switch c {
	case AIChoiceSave, AIChoiceChat, AIChoiceDevelop:
		return true
	default:
		return false
	}
}

// NextAction is the user's decision after reviewing an AI response.
type NextAction string

const (
	NextContinueExpression NextAction = "continue_expression"
	NextContinueAI         NextAction = "continue_ai"
	NextSave               NextAction = "save"
)

// IsValid reports whether a is one of the known next actions.
func (a NextAction) IsValid() bool {
	switch a {
	case NextContinueExpression, NextContinueAI, NextSave:
		return true
	default:
		return false
	}
}

// DraftState accumulates a session's in-progress entry. Fields are merged
// additively as steps complete and the whole draft is dropped on
// finalization or when the user restarts the flow. It is never persisted.
type DraftState struct {
	// Step records the flow position for the states that cannot be
	// derived from guards alone (everything after expression).
	Step Step `json:"step,omitempty"`

	MoodColor string `json:"mood_color,omitempty"`
	MoodText  string `json:"mood_text,omitempty"`
	Mode      Mode   `json:"mode,omitempty"`

	TextContent   string `json:"text_content,omitempty"`
	DrawNote      string `json:"draw_note,omitempty"`
	Background    string `json:"background,omitempty"`
	ImageFilename string `json:"image_filename,omitempty"`
	MusicKeywords string `json:"music_keywords,omitempty"`

	ExpressionDone bool `json:"expression_done"`

	AIUsed          bool         `json:"ai_used"`
	AICount         int          `json:"ai_count"`
	AILimitExceeded bool         `json:"ai_limit_exceeded"`
	AIResponse      string       `json:"ai_response,omitempty"`
	LastAIChoice    AIChoice     `json:"last_ai_choice,omitempty"`

	ColorConfirmed bool    `json:"color_confirmed"`
	ColorIntensity float64 `json:"color_intensity"`
	FinalColor     string  `json:"final_color,omitempty"`
}

// HasColor reports whether the color-selection guard is satisfied.
func (d *DraftState) HasColor() bool { return d.MoodColor != "" }

// HasText reports whether the mood-text guard is satisfied.
func (d *DraftState) HasText() bool { return d.MoodText != "" }

// HasMode reports whether the mode-selection guard is satisfied.
func (d *DraftState) HasMode() bool { return d.Mode.IsValid() }

// HasAIResponse reports whether an AI response exists to show.
func (d *DraftState) HasAIResponse() bool { return d.AIResponse != "" }

// BuildRecord assembles the immutable record for this draft, stamped at
// the given finalization time. Only the channel selected by Mode is
// populated; the others stay null in the log.
func (d *DraftState) BuildRecord(at time.Time) *MoodRecord {
	rec := &MoodRecord{
		DateTime:           at.Format(TimeLayout),
		MoodText:           d.MoodText,
		Mode:               d.Mode,
		InitialColor:       d.MoodColor,
		FinalColor:         d.FinalColor,
		ColorIntensity:     d.ColorIntensity,
		ExpressionDone:     d.ExpressionDone,
		AIUsed:             d.AIUsed,
		AIInteractionCount: d.AICount,
		ColorConfirmed:     d.ColorConfirmed,
	}

	if d.Background != "" {
		rec.Background = strPtr(d.Background)
	}
	if d.AIResponse != "" {
		rec.AIResponse = strPtr(d.AIResponse)
	}

	switch d.Mode {
	case ModeWrite:
		rec.TextContent = strPtr(d.TextContent)
	case ModeDraw:
		rec.DrawNote = strPtr(d.DrawNote)
		if d.ImageFilename != "" {
			rec.ImageFilename = strPtr(d.ImageFilename)
		}
	case ModeMusic:
		rec.MusicKeywords = strPtr(d.MusicKeywords)
	}

	return rec
}

func strPtr(s string) *string { return &s }
