package guardrail

// Span is a half-open [Start, End) byte-offset range into the text that was
// validated. Offsets always refer to the text as the validator received it,
// never to a rewritten copy.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Finding is one detected issue. Findings are created by a validator and
// read-only thereafter.
type Finding struct {
	// Validator identifies the producing validator (e.g. "pii").
	Validator string `json:"validator"`

	// Category is the sub-kind within the validator (e.g. "email",
	// "instruction_override").
	Category string `json:"category"`

	// Description is a human-readable explanation. It may include a
	// truncated excerpt of the matched text.
	Description string `json:"description"`

	// Span locates the match in the validated text. Nil when the finding
	// is not locatable (e.g. a document-level length violation).
	Span *Span `json:"span,omitempty"`

	// Severity is a detector-defined confidence/seriousness in [0, 1].
	Severity float64 `json:"severity"`

	// RedactedValue is the placeholder to substitute for Span. When set,
	// Span must also be set.
	RedactedValue string `json:"redacted_value,omitempty"`
}
