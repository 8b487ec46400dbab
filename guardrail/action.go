package guardrail

import "strconv"

// Action is the policy response applied when a validator reports findings.
type Action string

const (
	// ActionBlock rejects the text entirely and stops the pipeline.
	ActionBlock Action = "block"

	// ActionWarn flags the text but lets it through unchanged.
	ActionWarn Action = "warn"

	// ActionRedact adopts the validator's rewritten text and lets it through.
	ActionRedact Action = "redact"

	// ActionPassthrough is the no-op outcome when nothing was found.
	// It is never assigned to a pipeline step, only returned.
	ActionPassthrough Action = "passthrough"
)

// ParseAction converts a string into an Action. Unknown values return an
// error so misconfigured pipelines fail at build time rather than silently
// passing everything through.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionBlock, ActionWarn, ActionRedact, ActionPassthrough:
		return Action(s), nil
	}
	return "", &UnknownActionError{Value: s}
}

// UnknownActionError reports an action string that is not part of the
// closed Action set.
type UnknownActionError struct {
	Value string
}

func (e *UnknownActionError) Error() string {
	return "unknown action " + strconv.Quote(e.Value)
}
