// Package color maps mood color names to RGB values and derives the
// progressively lightened display colors used across the app.
package color

import (
	"fmt"
	"sort"
)

// FallbackHex is returned for color names outside the palette.
const FallbackHex = "#999999"

// MaxActivityIntensity caps activity-derived lightening so a mood is
// never rendered as fully white.
const MaxActivityIntensity = 0.8

// RGB is a base palette color.
type RGB struct {
	R, G, B int
}

// palette maps mood color names to their base colors.
var palette = map[string]RGB{
	"pink":        {255, 105, 180},
	"green":       {50, 205, 50},
	"mint":        {79, 209, 197},
	"purple":      {148, 0, 211},
	"magenta":     {199, 21, 133},
	"blue":        {30, 144, 255},
	"navy":        {26, 58, 82},
	"anxiety":     {106, 90, 205},
	"orange":      {255, 140, 0},
	"tangerine":   {255, 99, 71},
	"red":         {220, 20, 60},
	"wine":        {114, 47, 55},
	"black":       {54, 69, 79},
	"panic":       {28, 28, 28},
	"shame":       {139, 125, 107},
	"embarrassed": {255, 182, 193},
	"proud":       {107, 142, 35},
	"jealousy":    {255, 179, 71},
	"longing":     {255, 215, 0},
	"grateful":    {255, 218, 185},
	"emptiness":   {169, 169, 169},
}

// labels maps color names to their localized display labels.
var labels = map[string]string{
	"pink":        "설렘",
	"green":       "즐거움",
	"mint":        "평온",
	"purple":      "외로움",
	"magenta":     "서운함",
	"blue":        "우울",
	"navy":        "지침",
	"anxiety":     "불안",
	"orange":      "초조함",
	"tangerine":   "서러움",
	"red":         "분노",
	"wine":        "답답함",
	"black":       "혼란",
	"panic":       "패닉",
	"shame":       "자괴감",
	"embarrassed": "창피함",
	"proud":       "뿌듯함",
	"jealousy":    "질투",
	"longing":     "그리움",
	"grateful":    "감사함",
	"emptiness":   "허무함",
}

// IsValid reports whether name is part of the palette.
func IsValid(name string) bool {
	_, ok := palette[name]
	return ok
}

// Names returns all palette color names, sorted for stable listings.
func Names() []string {
	names := make([]string, 0, len(palette))
	for name := range palette {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Label returns the localized display label for a color name.
// Unknown names fall back to the name itself.
func Label(name string) string {
	if label, ok := labels[name]; ok {
		return label
	}
	return name
}

// BaseHex returns the unlightened hex for a color name, or the neutral
// gray fallback for unknown names.
func BaseHex(name string) string {
	return Lighten(name, 0)
}

// Lighten interpolates the named color toward white by intensity.
// Intensity is clamped to [0, 1]; 0 is the base color and 1 is pure white.
// Unknown names yield the gray fallback, never an error.
func Lighten(name string, intensity float64) string {
	base, ok := palette[name]
	if !ok {
		return FallbackHex
	}

	if intensity < 0 {
		intensity = 0
	} else if intensity > 1 {
		intensity = 1
	}

	r := base.R + int(float64(255-base.R)*intensity)
	g := base.G + int(float64(255-base.G)*intensity)
	b := base.B + int(float64(255-base.B)*intensity)

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// Intensity derives the lightening applied by activity counts.
// Each expression pass contributes 0.2 and each AI interaction 0.15,
// capped at MaxActivityIntensity.
func Intensity(expressionCount, aiCount int) float64 {
	if expressionCount < 0 {
		expressionCount = 0
	}
	if aiCount < 0 {
		aiCount = 0
	}

	total := 0.2*float64(expressionCount) + 0.15*float64(aiCount)
	if total > MaxActivityIntensity {
		total = MaxActivityIntensity
	}
	return total
}

// FinalColor computes the activity-derived display color for a draft.
func FinalColor(name string, expressionDone, aiUsed bool, aiCount int) string {
	expressions := 0
	if expressionDone {
		expressions = 1
	}
	interactions := 0
	if aiUsed {
		interactions = aiCount
	}
	return Lighten(name, Intensity(expressions, interactions))
}

// Gradient describes a two-stop gradient for UI rendering.
type Gradient struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NewGradient builds the display gradient for a color at the given intensity.
// The lighter stop sits 0.2 above the base intensity.
func NewGradient(name string, intensity float64) Gradient {
	lighter := intensity + 0.2
	if lighter > 1 {
		lighter = 1
	}
	return Gradient{
		From: Lighten(name, lighter),
		To:   Lighten(name, intensity),
	}
}

// PreviewStep is a single intensity stop in a selection preview.
type PreviewStep struct {
	Intensity float64 `json:"intensity"`
	Hex       string  `json:"hex"`
}

// Preview produces steps evenly spaced intensities across
// [0, MaxActivityIntensity] with their hex values, for a selection UI.
func Preview(name string, steps int) []PreviewStep {
	if steps <= 0 {
		return nil
	}

	out := make([]PreviewStep, 0, steps)
	for i := 0; i < steps; i++ {
		intensity := 0.0
		if steps > 1 {
			intensity = float64(i) / float64(steps-1) * MaxActivityIntensity
		}
		out = append(out, PreviewStep{
			Intensity: intensity,
			Hex:       Lighten(name, intensity),
		})
	}
	return out
}
