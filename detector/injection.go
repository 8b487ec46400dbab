package detector

import (
	"fmt"
	"regexp"

	"github.com/promptshield/promptshield/guardrail"
)

// InjectionPattern is one named detection rule in the injection table.
type InjectionPattern struct {
	Name     string
	Pattern  *regexp.Regexp
	Severity float64
}

// Instruction override and role-play coercion.
var (
	overridePattern = regexp.MustCompile(
		`(?i)\b(?:ignore|disregard|forget|override|bypass)\b.{0,30}` +
			`(?:previous|above|prior|all|earlier|system)\b.{0,30}` +
			`(?:instructions?|rules?|prompts?|guidelines?|constraints?)\b`,
	)
	newInstructionPattern = regexp.MustCompile(
		`(?i)\b(?:you are now|from now on|new instructions?|` +
			`your (?:new |real )(?:role|instructions?|purpose|objective)|act as if)\b`,
	)
	promptExtractionPattern = regexp.MustCompile(
		`(?i)(?:reveal|show|print|output|display|repeat|echo|dump|leak)` +
			`.{0,20}(?:system\s*prompt|initial\s*prompt|instructions?|hidden|secret)`,
	)
)

// Delimiter and role-marker smuggling.
var (
	delimiterPattern = regexp.MustCompile(
		"(?:```|<\\|(?:im_start|im_end|system|endoftext)\\|>|</?system>|" +
			"\\[INST\\]|\\[/INST\\]|<<SYS>>|<</SYS>>|###\\s*(?:System|Human|Assistant):)",
	)
	roleSwitchPattern = regexp.MustCompile(
		`(?im)^\s*(?:system|assistant|human|user)\s*:\s*\S`,
	)
)

// Encoding tricks.
var (
	base64PayloadPattern = regexp.MustCompile(
		`(?i)(?:decode|base64|eval|execute)\s*[(:]?\s*['"]?[A-Za-z0-9+/]{20,}={0,2}`,
	)
	zeroWidthPattern = regexp.MustCompile(
		`[\x{200B}\x{200C}\x{200D}\x{2060}\x{FEFF}]{3,}`,
	)
	hexEscapePattern = regexp.MustCompile(
		`(?i)(?:\\x[0-9a-f]{2}){4,}`,
	)
)

// DefaultInjectionPatterns returns a fresh copy of the built-in prompt
// injection rule table.
func DefaultInjectionPatterns() []InjectionPattern {
	return []InjectionPattern{
		{Name: "instruction_override", Pattern: overridePattern, Severity: 0.95},
		{Name: "new_instruction", Pattern: newInstructionPattern, Severity: 0.9},
		{Name: "system_prompt_extraction", Pattern: promptExtractionPattern, Severity: 0.9},
		{Name: "delimiter_injection", Pattern: delimiterPattern, Severity: 0.95},
		{Name: "role_switch", Pattern: roleSwitchPattern, Severity: 0.7},
		{Name: "base64_payload", Pattern: base64PayloadPattern, Severity: 0.85},
		{Name: "unicode_smuggling", Pattern: zeroWidthPattern, Severity: 0.8},
		{Name: "hex_encoded", Pattern: hexEscapePattern, Severity: 0.7},
	}
}

// Injection detects prompt injection attempts: instruction overrides,
// delimiter smuggling, and encoded payloads.
type Injection struct {
	patterns  []InjectionPattern
	threshold float64
	action    guardrail.Action
}

// InjectionOption configures an Injection validator at creation time.
type InjectionOption func(*Injection)

// WithInjectionPatterns replaces the built-in pattern table.
func WithInjectionPatterns(patterns []InjectionPattern) InjectionOption {
	return func(v *Injection) { v.patterns = patterns }
}

// WithInjectionThreshold sets the minimum pattern severity to keep.
func WithInjectionThreshold(threshold float64) InjectionOption {
	return func(v *Injection) { v.threshold = threshold }
}

// WithInjectionAction sets the action reported when the validator is
// invoked directly.
func WithInjectionAction(action guardrail.Action) InjectionOption {
	return func(v *Injection) { v.action = action }
}

// NewInjection creates an injection validator with the built-in table,
// a 0.5 severity threshold, and a block default action.
func NewInjection(opts ...InjectionOption) *Injection {
	v := &Injection{
		patterns:  DefaultInjectionPatterns(),
		threshold: 0.5,
		action:    guardrail.ActionBlock,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

func (v *Injection) Name() string { return "injection" }

// Validate keeps one finding per match whose pattern severity meets the
// threshold. The text is never rewritten.
func (v *Injection) Validate(text string) guardrail.Result {
	var findings []guardrail.Finding

	for _, pat := range v.patterns {
		if pat.Severity < v.threshold {
			continue
		}
		for _, loc := range pat.Pattern.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			findings = append(findings, guardrail.Finding{
				Validator:   v.Name(),
				Category:    pat.Name,
				Description: fmt.Sprintf("Potential injection (%s): '%s...'", pat.Name, excerpt(match, 50)),
				Span:        &guardrail.Span{Start: loc[0], End: loc[1]},
				Severity:    pat.Severity,
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
