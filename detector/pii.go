package detector

import (
	"fmt"
	"regexp"

	"github.com/promptshield/promptshield/guardrail"
)

// PIIPattern is one named detection rule in the PII table.
type PIIPattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Placeholder string
	Severity    float64

	// Verify, when set, filters raw matches that the pattern alone
	// cannot reject (RE2 has no lookaround).
	Verify func(match string) bool
}

var (
	emailPattern = regexp.MustCompile(
		`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`,
	)

	// US phone numbers: optional +1, 3-3-4 digit groups with optional
	// space/dot/dash separators. The word boundaries keep it off longer
	// digit runs.
	phonePattern = regexp.MustCompile(
		`\b(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`,
	)

	// SSNs must be separator-delimited; a bare 9-digit run is far more
	// often an order number or ID than an SSN. Area/group/serial value
	// checks live in validSSN.
	ssnPattern = regexp.MustCompile(`\b\d{3}[\s\-]\d{2}[\s\-]\d{4}\b`)

	// Visa / MasterCard / Amex / Discover prefixes.
	cardPattern = regexp.MustCompile(
		`\b(?:4\d{3}|5[1-5]\d{2}|3[47]\d{2}|6(?:011|5\d{2}))[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{1,4}\b`,
	)

	ipPattern = regexp.MustCompile(
		`\b(?:(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\.){3}(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\b`,
	)

	awsKeyPattern = regexp.MustCompile(`\b(?:AKIA|ABIA|ACCA|ASIA)[0-9A-Z]{16}\b`)
)

// validSSN rejects matches with an invalid area (000, 666, 9xx), group
// (00), or serial (0000). The match is always ddd?dd?dddd with a single
// separator byte.
func validSSN(m string) bool {
	if len(m) != 11 {
		return false
	}
	area, group, serial := m[0:3], m[4:6], m[7:11]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" || serial == "0000" {
		return false
	}
	return true
}

// DefaultPIIPatterns returns a fresh copy of the built-in PII rule table.
// The compiled expressions are shared, the slice is the caller's to modify.
func DefaultPIIPatterns() []PIIPattern {
	return []PIIPattern{
		{Name: "email", Pattern: emailPattern, Placeholder: "[EMAIL_REDACTED]", Severity: 0.8},
		{Name: "phone", Pattern: phonePattern, Placeholder: "[PHONE_REDACTED]", Severity: 0.8},
		{Name: "ssn", Pattern: ssnPattern, Placeholder: "[SSN_REDACTED]", Severity: 1.0, Verify: validSSN},
		{Name: "credit_card", Pattern: cardPattern, Placeholder: "[CREDIT_CARD_REDACTED]", Severity: 1.0},
		{Name: "ip_address", Pattern: ipPattern, Placeholder: "[IP_REDACTED]", Severity: 0.5},
		{Name: "aws_access_key", Pattern: awsKeyPattern, Placeholder: "[AWS_KEY_REDACTED]", Severity: 1.0},
	}
}

// PII detects and optionally redacts personally identifiable information.
type PII struct {
	patterns []PIIPattern
	redact   bool
	action   guardrail.Action
}

// PIIOption configures a PII validator at creation time.
type PIIOption func(*PII)

// WithPIIPatterns replaces the built-in pattern table.
func WithPIIPatterns(patterns []PIIPattern) PIIOption {
	return func(p *PII) { p.patterns = patterns }
}

// WithPIIRedaction controls whether the returned text has matches
// replaced by placeholders. Findings are produced either way.
func WithPIIRedaction(enabled bool) PIIOption {
	return func(p *PII) { p.redact = enabled }
}

// WithPIIAction sets the action reported when the validator is invoked
// directly (a pipeline step's configured action takes precedence).
func WithPIIAction(action guardrail.Action) PIIOption {
	return func(p *PII) { p.action = action }
}

// NewPII creates a PII validator with the built-in pattern table,
// redaction enabled, and a redact default action.
func NewPII(opts ...PIIOption) *PII {
	p := &PII{
		patterns: DefaultPIIPatterns(),
		redact:   true,
		action:   guardrail.ActionRedact,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *PII) Name() string { return "pii" }

// Validate scans for every pattern in the table, producing one finding
// per match. When redaction is enabled the returned text has all spans
// spliced out right-to-left.
func (p *PII) Validate(text string) guardrail.Result {
	var findings []guardrail.Finding

	for _, pat := range p.patterns {
		for _, loc := range pat.Pattern.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			if pat.Verify != nil && !pat.Verify(match) {
				continue
			}
			findings = append(findings, guardrail.Finding{
				Validator:     p.Name(),
				Category:      pat.Name,
				Description:   fmt.Sprintf("Detected %s: %s***", pat.Name, excerpt(match, 4)),
				Span:          &guardrail.Span{Start: loc[0], End: loc[1]},
				Severity:      pat.Severity,
				RedactedValue: pat.Placeholder,
			})
		}
	}

	out := text
	if p.redact && len(findings) > 0 {
		out = guardrail.Splice(text, findings)
	}

	action := guardrail.ActionPassthrough
	if len(findings) > 0 {
		action = p.action
	}
	return guardrail.Result{
		IsValid:      len(findings) == 0,
		Text:         out,
		OriginalText: text,
		Findings:     findings,
		ActionTaken:  action,
	}
}
