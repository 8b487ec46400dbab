package detector

import (
	"fmt"
	"regexp"

	"github.com/promptshield/promptshield/guardrail"
)

// ToxicityCategory groups related patterns under one weight.
type ToxicityCategory struct {
	Name     string
	Patterns []*regexp.Regexp
	Weight   float64
}

var (
	profanityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:fuck|shit|damn|ass|bitch|crap|dick|piss)\w*\b`),
	}
	slurPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:retard(?:ed)?|spaz|cripple)\b`),
	}
	threatPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:i(?:'ll| will))\b.{0,20}\b(?:kill|hurt|destroy|attack|murder)\b`),
		regexp.MustCompile(`(?i)\b(?:bomb|weapon|explosive)\b.{0,20}\b(?:make|build|create|how to)\b`),
		regexp.MustCompile(`(?i)\b(?:how to)\b.{0,20}\b(?:bomb|weapon|explosive|poison|kill)\b`),
	}
	harassmentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:kys|kill\s*yourself|go\s*die)\b`),
		regexp.MustCompile(`(?i)\byou(?:'re| are)\b.{0,15}\b(?:worthless|pathetic|disgusting|ugly)\b`),
	}
)

// DefaultToxicityCategories returns a fresh copy of the built-in
// toxicity rule table.
func DefaultToxicityCategories() []ToxicityCategory {
	return []ToxicityCategory{
		{Name: "profanity", Patterns: profanityPatterns, Weight: 0.6},
		{Name: "slurs", Patterns: slurPatterns, Weight: 0.8},
		{Name: "threats", Patterns: threatPatterns, Weight: 1.0},
		{Name: "harassment", Patterns: harassmentPatterns, Weight: 0.9},
	}
}

// Toxicity scores text against weighted keyword categories. Unlike the
// per-match validators, the aggregate gates the whole outcome: findings
// are only reported when the highest match weight meets the threshold,
// so a single low-confidence match never surfaces on its own.
type Toxicity struct {
	categories []ToxicityCategory
	threshold  float64
	action     guardrail.Action
}

// ToxicityOption configures a Toxicity validator at creation time.
type ToxicityOption func(*Toxicity)

// WithToxicityCategories replaces the built-in category table.
func WithToxicityCategories(categories []ToxicityCategory) ToxicityOption {
	return func(v *Toxicity) { v.categories = categories }
}

// WithToxicityThreshold sets the aggregate score at which the text is
// considered toxic.
func WithToxicityThreshold(threshold float64) ToxicityOption {
	return func(v *Toxicity) { v.threshold = threshold }
}

// WithToxicityAction sets the action reported when the validator is
// invoked directly.
func WithToxicityAction(action guardrail.Action) ToxicityOption {
	return func(v *Toxicity) { v.action = action }
}

// NewToxicity creates a toxicity validator with the built-in categories,
// a 0.5 threshold, and a block default action.
func NewToxicity(opts ...ToxicityOption) *Toxicity {
	v := &Toxicity{
		categories: DefaultToxicityCategories(),
		threshold:  0.5,
		action:     guardrail.ActionBlock,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

func (v *Toxicity) Name() string { return "toxicity" }

// Validate collects a finding per match and reports them only when the
// maximum category weight across all matches meets the threshold.
func (v *Toxicity) Validate(text string) guardrail.Result {
	var findings []guardrail.Finding
	var maxScore float64

	for _, cat := range v.categories {
		for _, pat := range cat.Patterns {
			for _, loc := range pat.FindAllStringIndex(text, -1) {
				if cat.Weight > maxScore {
					maxScore = cat.Weight
				}
				findings = append(findings, guardrail.Finding{
					Validator:   v.Name(),
					Category:    cat.Name,
					Description: fmt.Sprintf("Toxic content (%s)", cat.Name),
					Span:        &guardrail.Span{Start: loc[0], End: loc[1]},
					Severity:    cat.Weight,
				})
			}
		}
	}

	triggered := maxScore >= v.threshold && len(findings) > 0
	if !triggered {
		findings = nil
	}

	action := guardrail.ActionPassthrough
	if triggered {
		action = v.action
	}
	return guardrail.Result{
		IsValid:      !triggered,
		Text:         text,
		OriginalText: text,
		Findings:     findings,
		ActionTaken:  action,
	}
}
