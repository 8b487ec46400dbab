package detector

import (
	"fmt"
	"unicode/utf8"

	"github.com/promptshield/promptshield/guardrail"
)

// Length enforces character and estimated-token ceilings. It produces at
// most two findings (one per ceiling), neither of which carries a span;
// a length violation is a property of the whole document.
type Length struct {
	maxChars  int
	maxTokens int
	action    guardrail.Action
}

// LengthOption configures a Length validator at creation time.
type LengthOption func(*Length)

// WithMaxChars sets the character ceiling. Zero means no limit.
func WithMaxChars(n int) LengthOption {
	return func(v *Length) { v.maxChars = n }
}

// WithMaxTokens sets the estimated-token ceiling. Zero means no limit.
func WithMaxTokens(n int) LengthOption {
	return func(v *Length) { v.maxTokens = n }
}

// WithLengthAction sets the action reported when the validator is
// invoked directly.
func WithLengthAction(action guardrail.Action) LengthOption {
	return func(v *Length) { v.action = action }
}

// NewLength creates a length validator. With no ceilings configured it
// never produces findings.
func NewLength(opts ...LengthOption) *Length {
	v := &Length{action: guardrail.ActionBlock}
	for _, o := range opts {
		o(v)
	}
	return v
}

// EstimateTokens gives a rough token count for English text using the
// common chars/4 approximation. For precise counts use a real tokenizer
// upstream.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text) / 4
	if n < 1 {
		return 1
	}
	return n
}

func (v *Length) Name() string { return "length" }

func (v *Length) Validate(text string) guardrail.Result {
	var findings []guardrail.Finding
	chars := utf8.RuneCountInString(text)

	if v.maxChars > 0 && chars > v.maxChars {
		findings = append(findings, guardrail.Finding{
			Validator:   v.Name(),
			Category:    "max_chars",
			Description: fmt.Sprintf("Text length %d exceeds limit of %d chars", chars, v.maxChars),
			Severity:    0.8,
		})
	}

	if v.maxTokens > 0 {
		if est := EstimateTokens(text); est > v.maxTokens {
			findings = append(findings, guardrail.Finding{
				Validator:   v.Name(),
				Category:    "max_tokens",
				Description: fmt.Sprintf("Estimated %d tokens exceeds limit of %d", est, v.maxTokens),
				Severity:    0.8,
			})
		}
	}

	action := guardrail.ActionPassthrough
	if len(findings) > 0 {
		action = v.action
	}
	return guardrail.Result{
		IsValid:      len(findings) == 0,
		Text:         text,
		OriginalText: text,
		Findings:     findings,
		ActionTaken:  action,
	}
}
