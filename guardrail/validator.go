package guardrail

// Validator is the interface every detector implements. Implementations
// take one immutable text input and return exactly one Result whose
// OriginalText equals the input. They must not mutate shared state, and
// detection failures (e.g. malformed input to a structural validator) are
// reported as findings, never as a panic or error: a validator always
// returns a result.
type Validator interface {
	// Name returns the validator's identifier (e.g. "pii", "injection").
	Name() string

	// Validate inspects text and returns the outcome.
	Validate(text string) Result
}
