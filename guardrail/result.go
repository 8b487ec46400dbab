package guardrail

// Result is the outcome of a single validator call or of a whole pipeline
// run: the (possibly rewritten) text, the text as first submitted, every
// finding in detection order, and the action that was ultimately taken.
type Result struct {
	// IsValid reports whether the text is acceptable under the issuing
	// component's policy. A redacted result counts as valid: the issue
	// was handled.
	IsValid bool `json:"is_valid"`

	// Text is the current text, rewritten if any redaction applied.
	Text string `json:"text"`

	// OriginalText is the text as first submitted, never mutated.
	OriginalText string `json:"original_text"`

	// Findings holds every finding in detection order.
	Findings []Finding `json:"findings"`

	// ActionTaken is the resolved action for this result.
	ActionTaken Action `json:"action_taken"`
}

// Blocked reports whether the result's action is ActionBlock.
func (r Result) Blocked() bool {
	return r.ActionTaken == ActionBlock
}

// HasFindings reports whether any findings were recorded.
func (r Result) HasFindings() bool {
	return len(r.Findings) > 0
}
