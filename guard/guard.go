// Package guard applies a guardrail pipeline at call sites: wrapping
// text-producing functions and HTTP handlers. The pipeline itself never
// performs I/O or raises; this package is where a block decision becomes
// an error or an HTTP status.
package guard

import (
	"context"
	"strings"

	"github.com/promptshield/promptshield/guardrail"
)

// TextFunc is the function shape Input and Output wrap: typically an
// LLM call taking a prompt and returning a completion.
type TextFunc func(ctx context.Context, text string) (string, error)

// BlockedError is returned when a wrapped call is stopped by the
// pipeline. It carries the full result so callers can inspect findings.
type BlockedError struct {
	Result guardrail.Result
}

func (e *BlockedError) Error() string {
	cats := make([]string, 0, len(e.Result.Findings))
	for _, f := range e.Result.Findings {
		cats = append(cats, f.Category)
	}
	return "blocked by guardrails: " + strings.Join(cats, ", ")
}

// Input wraps fn so its text argument runs through the pipeline first.
// A block becomes a *BlockedError without calling fn; a redaction flows
// the rewritten text into fn.
func Input(p *guardrail.Pipeline, fn TextFunc) TextFunc {
	return func(ctx context.Context, text string) (string, error) {
		res := p.Run(text)
		if res.Blocked() {
			return "", &BlockedError{Result: res}
		}
		return fn(ctx, res.Text)
	}
}

// Output wraps fn so its returned text runs through the pipeline. A
// block becomes a *BlockedError; otherwise the caller receives the
// pipeline's (possibly redacted) text.
func Output(p *guardrail.Pipeline, fn TextFunc) TextFunc {
	return func(ctx context.Context, text string) (string, error) {
		out, err := fn(ctx, text)
		if err != nil {
			return "", err
		}
		res := p.Run(out)
		if res.Blocked() {
			return "", &BlockedError{Result: res}
		}
		return res.Text, nil
	}
}
