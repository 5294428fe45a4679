// Package policy bounds how many AI interactions a single draft may use.
package policy

import "fmt"

// MaxAIInteractions is the per-draft cap on AI-assisted interactions.
const MaxAIInteractions = 2

// CanUse reports whether another AI interaction is allowed given the
// pre-increment interaction count. Callers must check this before
// invoking the collaborator.
func CanUse(count int) bool {
	return count < MaxAIInteractions
}

// IsFinal reports whether the interaction holding the given post-increment
// count is the last one allowed. A final interaction changes the
// collaborator's requested behavior rather than blocking it.
func IsFinal(count int) bool {
	return count >= MaxAIInteractions
}

// UsageDisplay formats the interaction count for UI display.
func UsageDisplay(count int) string {
	return fmt.Sprintf("%d/%d", count, MaxAIInteractions)
}

// Remaining returns how many interactions are left, never negative.
func Remaining(count int) int {
	remaining := MaxAIInteractions - count
	if remaining < 0 {
		return 0
	}
	return remaining
}
