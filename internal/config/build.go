package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/promptshield/promptshield/detector"
	"github.com/promptshield/promptshield/guardrail"
)

// Build assembles a runnable pipeline from a Config. Misconfiguration
// (unknown validator kinds, unknown actions, bad user regexes, invalid
// schemas) faults here, at build time, never during a run.
func Build(cfg *Config) (*guardrail.Pipeline, error) {
	p := guardrail.NewPipeline()

	for i, step := range cfg.Pipeline {
		action, err := stepAction(step)
		if err != nil {
			return nil, fmt.Errorf("pipeline step %d (%s): %w", i, step.Validator, err)
		}

		v, err := buildValidator(step, action)
		if err != nil {
			return nil, fmt.Errorf("pipeline step %d (%s): %w", i, step.Validator, err)
		}
		p.Add(v, action)
	}

	return p, nil
}

func stepAction(step Step) (guardrail.Action, error) {
	if step.Action == "" {
		// Per-kind defaults mirror each validator's own default action.
		if step.Validator == "pii" {
			return guardrail.ActionRedact, nil
		}
		return guardrail.ActionBlock, nil
	}
	return guardrail.ParseAction(step.Action)
}

func buildValidator(step Step, action guardrail.Action) (guardrail.Validator, error) {
	switch step.Validator {
	case "pii":
		opts := []detector.PIIOption{detector.WithPIIAction(action)}
		if step.Redact != nil {
			opts = append(opts, detector.WithPIIRedaction(*step.Redact))
		}
		if len(step.Patterns) > 0 {
			extra, err := compilePIIPatterns(step.Patterns)
			if err != nil {
				return nil, err
			}
			opts = append(opts, detector.WithPIIPatterns(append(detector.DefaultPIIPatterns(), extra...)))
		}
		return detector.NewPII(opts...), nil

	case "injection":
		opts := []detector.InjectionOption{detector.WithInjectionAction(action)}
		if step.Threshold != nil {
			opts = append(opts, detector.WithInjectionThreshold(*step.Threshold))
		}
		if len(step.Patterns) > 0 {
			extra, err := compileInjectionPatterns(step.Patterns)
			if err != nil {
				return nil, err
			}
			opts = append(opts, detector.WithInjectionPatterns(append(detector.DefaultInjectionPatterns(), extra...)))
		}
		return detector.NewInjection(opts...), nil

	case "toxicity":
		opts := []detector.ToxicityOption{detector.WithToxicityAction(action)}
		if step.Threshold != nil {
			opts = append(opts, detector.WithToxicityThreshold(*step.Threshold))
		}
		return detector.NewToxicity(opts...), nil

	case "length":
		return detector.NewLength(
			detector.WithMaxChars(step.MaxChars),
			detector.WithMaxTokens(step.MaxTokens),
			detector.WithLengthAction(action),
		), nil

	case "schema":
		if step.Schema == nil {
			return nil, fmt.Errorf("schema validator requires a schema")
		}
		return detector.NewSchema(step.Schema, detector.WithSchemaAction(action))

	default:
		return nil, fmt.Errorf("unknown validator %q", step.Validator)
	}
}

func compilePIIPatterns(patterns []UserPattern) ([]detector.PIIPattern, error) {
	out := make([]detector.PIIPattern, 0, len(patterns))
	for _, up := range patterns {
		re, err := regexp.Compile(up.Regex)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", up.Name, err)
		}
		placeholder := up.Placeholder
		if placeholder == "" {
			placeholder = "[" + strings.ToUpper(up.Name) + "_REDACTED]"
		}
		severity := up.Severity
		if severity == 0 {
			severity = 1.0
		}
		out = append(out, detector.PIIPattern{
			Name:        up.Name,
			Pattern:     re,
			Placeholder: placeholder,
			Severity:    severity,
		})
	}
	return out, nil
}

func compileInjectionPatterns(patterns []UserPattern) ([]detector.InjectionPattern, error) {
	out := make([]detector.InjectionPattern, 0, len(patterns))
	for _, up := range patterns {
		re, err := regexp.Compile(up.Regex)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", up.Name, err)
		}
		severity := up.Severity
		if severity == 0 {
			severity = 1.0
		}
		out = append(out, detector.InjectionPattern{
			Name:     up.Name,
			Pattern:  re,
			Severity: severity,
		})
	}
	return out, nil
}
