// Package flow implements the guided recording flow: a strictly ordered
// sequence of steps that turns a visitor's session into one immutable
// mood record. Each step mutates the session draft only when every
// earlier step's guard is satisfied.
package flow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/seorin-dev/moodlog/internal/ai"
	"github.com/seorin-dev/moodlog/internal/color"
	"github.com/seorin-dev/moodlog/internal/models"
	"github.com/seorin-dev/moodlog/internal/music"
	"github.com/seorin-dev/moodlog/internal/policy"
	"github.com/seorin-dev/moodlog/internal/session"
	"github.com/seorin-dev/moodlog/internal/store"
)

var (
	// ErrGuardNotMet means the operation was attempted out of order.
	ErrGuardNotMet = errors.New("flow step guard not met")
	// ErrQuotaExceeded means the AI interaction budget is spent.
	ErrQuotaExceeded = errors.New("ai interaction limit reached")
	// ErrRateLimited means the 24h record budget is spent; a record has
	// to be deleted before a new flow may start.
	ErrRateLimited = errors.New("daily record limit reached")
	// ErrInvalidInput covers unknown colors, modes, choices and empty
	// required content.
	ErrInvalidInput = errors.New("invalid input")
)

// overrideIntensities are the only accepted explicit confirmation
// levels. The 1.0 level intentionally exceeds the derived-intensity cap;
// an explicit choice is recorded as given.
var overrideIntensities = []float64{0, 0.25, 0.5, 0.75, 1.0}

// Flow coordinates drafts, the log store and the AI collaborator.
type Flow struct {
	store     *store.Store
	ai        ai.Collaborator
	sessions  *session.Manager
	dailyMax  int
	uploadDir string
	now       func() time.Time
}

func New(st *store.Store, collab ai.Collaborator, sessions *session.Manager, dailyMax int, uploadDir string) *Flow {
	return &Flow{
		store:     st,
		ai:        collab,
		sessions:  sessions,
		dailyMax:  dailyMax,
		uploadDir: uploadDir,
		now:       time.Now,
	}
}

// View is the flow state reported back after every operation.
type View struct {
	Step        models.Step       `json:"step"`
	Draft       models.DraftState `json:"draft"`
	AIUsage     string            `json:"ai_usage"`
	AIRemaining int               `json:"ai_remaining"`

	// Recommendations carries the parsed song list when the draft is a
	// music entry with an AI response.
	Recommendations *music.Recommendations `json:"recommendations,omitempty"`
}

// SaveResult is returned by Save after the record hits the log.
type SaveResult struct {
	Record  *models.MoodRecord `json:"record"`
	Closing string             `json:"closing_message"`
}

// RateLimitStatus reports the rolling 24h budget.
type RateLimitStatus struct {
	Count   int  `json:"count"`
	Max     int  `json:"max"`
	Allowed bool `json:"allowed"`
}

// CurrentStep derives the step a draft is actually at. Guards win over
// the recorded step: a draft missing an earlier field is sent back to
// the earliest unmet step instead of erroring.
func CurrentStep(d models.DraftState) models.Step {
	switch {
	case !d.HasColor():
		return models.StepAwaitingColor
	case !d.HasText():
		return models.StepAwaitingText
	case !d.HasMode():
		return models.StepAwaitingMode
	case !d.ExpressionDone:
		return models.StepAwaitingExpression
	case d.ColorConfirmed:
		return models.StepAwaitingFinalSave
	}

	switch d.Step {
	case models.StepAwaitingAIResult,
		models.StepAwaitingNextAction,
		models.StepAwaitingColorConfirmation:
		return d.Step
	default:
		return models.StepAwaitingAIChoice
	}
}

// Status reports the session's current flow state without mutating it.
func (f *Flow) Status(id string) View {
	d, _ := f.sessions.Get(id)
	return f.view(d)
}

// RateLimit reports how much of the rolling 24h record budget is used.
func (f *Flow) RateLimit() (RateLimitStatus, error) {
	recs, err := f.store.RecordsLast24h()
	if err != nil {
		return RateLimitStatus{}, fmt.Errorf("checking record budget: %w", err)
	}
	return RateLimitStatus{
		Count:   len(recs),
		Max:     f.dailyMax,
		Allowed: len(recs) < f.dailyMax,
	}, nil
}

// StartColor begins a new flow with the chosen mood color, discarding
// any draft the session had. Starting is refused while the 24h record
// budget is spent.
func (f *Flow) StartColor(id, name string) (View, error) {
	status, err := f.RateLimit()
	if err != nil {
		return View{}, err
	}
	if !status.Allowed {
		return View{}, fmt.Errorf("%w: %d records in the last 24h (max %d), delete one first",
			ErrRateLimited, status.Count, status.Max)
	}

	if !color.IsValid(name) {
		return View{}, fmt.Errorf("%w: unknown mood color %q", ErrInvalidInput, name)
	}

	d := models.DraftState{MoodColor: name, Step: models.StepAwaitingText}
	f.sessions.Put(id, d)
	return f.view(d), nil
}

// SetText records the one-line mood description.
func (f *Flow) SetText(id, text string) (View, error) {
	d, err := f.at(id, models.StepAwaitingText)
	if err != nil {
		return View{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return View{}, fmt.Errorf("%w: mood text must not be empty", ErrInvalidInput)
	}

	d.MoodText = text
	d.Step = models.StepAwaitingMode
	f.sessions.Put(id, d)
	return f.view(d), nil
}

// SetMode selects the expression channel for this entry.
func (f *Flow) SetMode(id string, mode models.Mode) (View, error) {
	d, err := f.at(id, models.StepAwaitingMode)
	if err != nil {
		return View{}, err
	}
	if !mode.IsValid() {
		return View{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, mode)
	}

	d.Mode = mode
	d.Step = models.StepAwaitingExpression
	f.sessions.Put(id, d)
	return f.view(d), nil
}

// ExpressionInput carries the mode-specific expression content. Only the
// fields for the draft's mode are read.
type ExpressionInput struct {
	Text string // write

	Note          string // draw
	ImageFilename string
	Background    string

	Keywords string // music
}

// SubmitExpression completes an expression pass. In music mode this also
// triggers the automatic song-recommendation interaction, which consumes
// AI quota when any remains.
func (f *Flow) SubmitExpression(ctx context.Context, id string, in ExpressionInput) (View, error) {
	d, err := f.at(id, models.StepAwaitingExpression)
	if err != nil {
		return View{}, err
	}

	switch d.Mode {
	case models.ModeWrite:
		if strings.TrimSpace(in.Text) == "" {
			return View{}, fmt.Errorf("%w: written expression must not be empty", ErrInvalidInput)
		}
		d.TextContent = in.Text

	case models.ModeDraw:
		if strings.TrimSpace(in.Note) == "" && in.ImageFilename == "" {
			return View{}, fmt.Errorf("%w: a drawing needs a note or an image", ErrInvalidInput)
		}
		d.DrawNote = in.Note
		if in.ImageFilename != "" {
			d.ImageFilename = in.ImageFilename
		}
		if in.Background != "" {
			d.Background = in.Background
		}

	case models.ModeMusic:
		if strings.TrimSpace(in.Keywords) == "" {
			return View{}, fmt.Errorf("%w: music keywords must not be empty", ErrInvalidInput)
		}
		d.MusicKeywords = in.Keywords
	}

	d.ExpressionDone = true
	d.Step = models.StepAwaitingAIChoice

	if d.Mode == models.ModeMusic {
		// Recommendations are part of the music channel itself, so the
		// interaction fires without being chosen. A spent quota does not
		// block the flow; the draft just carries the exceeded flag.
		if policy.CanUse(d.AICount) {
			d.AIResponse = f.ai.GetAIResponse(ctx, ai.Request{
				MoodColor:   d.MoodColor,
				MoodText:    d.MoodText,
				Mode:        d.Mode,
				Interaction: models.AIChoiceChat,
				UserContent: d.MusicKeywords,
				IsFinal:     policy.IsFinal(d.AICount + 1),
			})
			d.AICount++
			d.AIUsed = true
			d.Step = models.StepAwaitingAIResult
		} else {
			d.AILimitExceeded = true
		}
	}

	f.sessions.Put(id, d)
	return f.view(d), nil
}

// ChooseAI handles the post-expression decision: save skips straight to
// color confirmation, chat and develop spend one AI interaction.
func (f *Flow) ChooseAI(ctx context.Context, id string, choice models.AIChoice, content string) (View, error) {
	d, err := f.at(id, models.StepAwaitingAIChoice)
	if err != nil {
		return View{}, err
	}
	if !choice.IsValid() {
		return View{}, fmt.Errorf("%w: unknown ai choice %q", ErrInvalidInput, choice)
	}

	if choice == models.AIChoiceSave {
		d.LastAIChoice = choice
		d.Step = models.StepAwaitingColorConfirmation
		f.sessions.Put(id, d)
		return f.view(d), nil
	}

	// A spent quota refuses the interaction but leaves the draft where
	// it is; saving stays available.
	if !policy.CanUse(d.AICount) {
		d.AILimitExceeded = true
		f.sessions.Put(id, d)
		return f.view(d), fmt.Errorf("%w: %s", ErrQuotaExceeded, policy.UsageDisplay(d.AICount))
	}

	d = f.interact(ctx, d, choice, content)
	f.sessions.Put(id, d)
	return f.view(d), nil
}

// ContinueAI spends one more interaction on the running conversation.
func (f *Flow) ContinueAI(ctx context.Context, id, content string) (View, error) {
	d, err := f.at(id, models.StepAwaitingAIResult, models.StepAwaitingNextAction)
	if err != nil {
		return View{}, err
	}

	if !policy.CanUse(d.AICount) {
		d.AILimitExceeded = true
		f.sessions.Put(id, d)
		return f.view(d), fmt.Errorf("%w: %s", ErrQuotaExceeded, policy.UsageDisplay(d.AICount))
	}

	d = f.interact(ctx, d, d.LastAIChoice, content)
	f.sessions.Put(id, d)
	return f.view(d), nil
}

// Next handles the decision after reviewing an AI response.
func (f *Flow) Next(ctx context.Context, id string, action models.NextAction) (View, error) {
	d, err := f.at(id, models.StepAwaitingAIResult, models.StepAwaitingNextAction)
	if err != nil {
		return View{}, err
	}

	switch action {
	case models.NextContinueExpression:
		// Expressing again is never rationed. Existing content stays and
		// the next expression pass overwrites it.
		d.ExpressionDone = false
		d.Step = models.StepAwaitingExpression

	case models.NextContinueAI:
		// Rejected as a self-loop when the budget is spent; the other
		// next actions stay available.
		if !policy.CanUse(d.AICount) {
			d.AILimitExceeded = true
			f.sessions.Put(id, d)
			return f.view(d), fmt.Errorf("%w: %s", ErrQuotaExceeded, policy.UsageDisplay(d.AICount))
		}
		d = f.interact(ctx, d, d.LastAIChoice, "")

	case models.NextSave:
		d.Step = models.StepAwaitingColorConfirmation

	default:
		return View{}, fmt.Errorf("%w: unknown next action %q", ErrInvalidInput, action)
	}

	f.sessions.Put(id, d)
	return f.view(d), nil
}

// ConfirmColor fixes the entry's final color. Without an override the
// intensity is derived from what the session did; an explicit override
// must be one of the preset levels and is recorded as given.
func (f *Flow) ConfirmColor(id string, override *float64) (View, error) {
	d, err := f.at(id, models.StepAwaitingColorConfirmation)
	if err != nil {
		return View{}, err
	}

	intensity := color.Intensity(boolToInt(d.ExpressionDone), d.AICount)
	if override != nil {
		if !allowedOverride(*override) {
			return View{}, fmt.Errorf("%w: intensity %v is not one of the preset levels", ErrInvalidInput, *override)
		}
		intensity = *override
	}

	d.ColorIntensity = intensity
	d.FinalColor = color.Lighten(d.MoodColor, intensity)
	d.ColorConfirmed = true
	d.Step = models.StepAwaitingFinalSave
	f.sessions.Put(id, d)
	return f.view(d), nil
}

// Save appends the finished record to the log, fetches the closing
// message and drops the draft.
func (f *Flow) Save(ctx context.Context, id string) (SaveResult, error) {
	d, err := f.at(id, models.StepAwaitingFinalSave)
	if err != nil {
		return SaveResult{}, err
	}

	rec := d.BuildRecord(f.now())
	if err := f.store.Append(rec); err != nil {
		return SaveResult{}, fmt.Errorf("saving record: %w", err)
	}

	closing := f.ai.GetClosingMessage(ctx, d.MoodColor, d.FinalColor, d.Mode, d.AIUsed)
	f.sessions.Delete(id)

	return SaveResult{Record: rec, Closing: closing}, nil
}

// interact runs one collaborator exchange and folds it into the draft.
func (f *Flow) interact(ctx context.Context, d models.DraftState, choice models.AIChoice, content string) models.DraftState {
	if content == "" {
		content = expressionContent(d)
	}

	var imagePath string
	if d.Mode == models.ModeDraw && d.ImageFilename != "" {
		imagePath = filepath.Join(f.uploadDir, d.ImageFilename)
	}

	d.AIResponse = f.ai.GetAIResponse(ctx, ai.Request{
		MoodColor:   d.MoodColor,
		MoodText:    d.MoodText,
		Mode:        d.Mode,
		Interaction: choice,
		UserContent: content,
		IsFinal:     policy.IsFinal(d.AICount + 1),
		ImagePath:   imagePath,
	})
	d.AICount++
	d.AIUsed = true
	d.LastAIChoice = choice
	d.Step = models.StepAwaitingAIResult
	return d
}

// at loads the session's draft and checks it sits at one of the given
// steps.
func (f *Flow) at(id string, steps ...models.Step) (models.DraftState, error) {
	d, _ := f.sessions.Get(id)
	cur := CurrentStep(d)
	for _, s := range steps {
		if cur == s {
			return d, nil
		}
	}
	return models.DraftState{}, fmt.Errorf("%w: at %s", ErrGuardNotMet, cur)
}

func (f *Flow) view(d models.DraftState) View {
	v := View{
		Step:        CurrentStep(d),
		Draft:       d,
		AIUsage:     policy.UsageDisplay(d.AICount),
		AIRemaining: policy.Remaining(d.AICount),
	}
	if d.Mode == models.ModeMusic && d.AIResponse != "" {
		recs := music.Parse(d.AIResponse)
		v.Recommendations = &recs
	}
	return v
}

func allowedOverride(v float64) bool {
	for _, lvl := range overrideIntensities {
		if v == lvl {
			return true
		}
	}
	return false
}

// expressionContent is what the collaborator sees when the user sends no
// new message with an interaction.
func expressionContent(d models.DraftState) string {
	switch d.Mode {
	case models.ModeWrite:
		return d.TextContent
	case models.ModeDraw:
		return d.DrawNote
	case models.ModeMusic:
		return d.MusicKeywords
	default:
		return ""
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
