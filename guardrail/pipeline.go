// Package guardrail implements an ordered composition of text validators
// with per-validator remediation actions.
//
// A Pipeline is built once with Add and then driven with Run, which folds
// each validator's findings into one final Result. BLOCK has absolute
// precedence and short-circuits; REDACT composes left-to-right, so each
// redaction operates on the output of the previous one. Step order is
// therefore semantically significant: a caller who wants injection
// detection to see unredacted text must add it before a PII redactor.
//
// A pipeline holds no request-scoped state. Once configuration is complete
// the same instance may be run concurrently from multiple goroutines,
// provided the validators themselves are free of shared mutable state
// (the built-in detectors qualify).
package guardrail

type step struct {
	validator Validator
	action    Action
}

// Pipeline is an ordered sequence of (validator, action) steps.
type Pipeline struct {
	steps []step
}

// NewPipeline creates an empty pipeline. Running an empty pipeline is the
// identity transform: the text comes back unchanged, valid, no findings.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add appends a validator with its action and returns the pipeline for
// chaining. Steps are never reordered.
func (p *Pipeline) Add(v Validator, action Action) *Pipeline {
	p.steps = append(p.steps, step{validator: v, action: action})
	return p
}

// Len returns the number of configured steps.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Run drives every validator in order against text and folds their
// results into one.
//
// For each step with findings:
//   - block: terminate immediately. The returned text is the text as
//     accumulated before this validator; a blocking validator's own
//     rewrite, if any, is discarded so no partially redacted copy of a
//     blocked payload leaks out.
//   - redact: adopt the validator's rewritten text for subsequent steps.
//   - warn: record the warning unless a redact was already recorded.
//
// After all steps, the result is valid when the final action is
// passthrough or warn; a redact counts as handled, hence valid too.
func (p *Pipeline) Run(text string) Result {
	original := text
	var all []Finding
	final := ActionPassthrough

	for _, s := range p.steps {
		res := s.validator.Validate(text)
		if !res.HasFindings() {
			continue
		}
		all = append(all, res.Findings...)

		switch s.action {
		case ActionBlock:
			return Result{
				IsValid:      false,
				Text:         text,
				OriginalText: original,
				Findings:     all,
				ActionTaken:  ActionBlock,
			}
		case ActionRedact:
			text = res.Text
			if final != ActionBlock {
				final = ActionRedact
			}
		case ActionWarn:
			if final == ActionPassthrough {
				final = ActionWarn
			}
		}
	}

	return Result{
		IsValid:      final != ActionBlock,
		Text:         text,
		OriginalText: original,
		Findings:     all,
		ActionTaken:  final,
	}
}
