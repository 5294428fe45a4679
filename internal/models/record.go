// Package models defines the persisted mood record, the in-progress draft,
// and the closed sets of modes and flow actions.
package models

import (
	"fmt"
	"time"
)

// TimeLayout is the second-precision timestamp layout used for the
// date_time field. It doubles as the log's ordering and deletion key.
const TimeLayout = "2006-01-02T15:04:05"

// DateLayout is the calendar date key layout (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Mode selects which expression channel a record carries.
type Mode string

const (
	ModeWrite Mode = "write"
	ModeDraw  Mode = "draw"
	ModeMusic Mode = "music"
)

// IsValid reports whether m is one of the known expression modes.
func (m Mode) IsValid() bool {
	switch m {
	case ModeWrite, ModeDraw, ModeMusic:
		return true
	default:
		return false
	}
}

// MoodRecord is one finalized, immutable journal entry. Exactly one of the
// mode-specific content fields is meaningful, selected by Mode. Optional
// fields marshal as null so old and new log lines stay shape-compatible.
type MoodRecord struct {
	DateTime string `json:"date_time"`
	MoodText string `json:"mood_text"`
	Mode     Mode   `json:"mode"`

	InitialColor string `json:"initial_color"`
	// MoodColor is the legacy name for InitialColor; populated only when
	// reading pre-rework log lines.
	MoodColor      string  `json:"mood_color,omitempty"`
	FinalColor     string  `json:"final_color,omitempty"`
	ColorIntensity float64 `json:"color_intensity"`

	ExpressionDone     bool `json:"expression_done"`
	AIUsed             bool `json:"ai_used"`
	AIInteractionCount int  `json:"ai_interaction_count"`

	TextContent   *string `json:"text_content"`
	DrawNote      *string `json:"draw_note"`
	Background    *string `json:"background"`
	ImageFilename *string `json:"image_filename"`
	MusicKeywords *string `json:"music_keywords"`
	AIResponse    *string `json:"ai_response"`

	ColorConfirmed bool `json:"color_confirmed"`
}

// Color returns the record's base color name, falling back to the legacy
// mood_color field for old log lines.
func (r *MoodRecord) Color() string {
	if r.InitialColor != "" {
		return r.InitialColor
	}
	return r.MoodColor
}

// Time parses the record's timestamp in the local timezone.
func (r *MoodRecord) Time() (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, r.DateTime, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date_time %q: %w", r.DateTime, err)
	}
	return t, nil
}

// DateKey returns the record's calendar date key (YYYY-MM-DD), or an empty
// string if the timestamp does not parse.
func (r *MoodRecord) DateKey() string {
	t, err := r.Time()
	if err != nil {
		return ""
	}
	return t.Format(DateLayout)
}
