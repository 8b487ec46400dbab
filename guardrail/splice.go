package guardrail

import "sort"

// Splice rewrites text by substituting each finding's placeholder for its
// span. Findings without a span or without a redacted value are skipped.
//
// Replacements are applied right-to-left: findings are sorted descending
// by span start, so every later (leftward) splice still sees offsets
// computed against the original text. Applying them in detection order
// would corrupt offsets as soon as one placeholder differs in length from
// the text it replaces.
//
// Overlapping spans are not merged or deduplicated; when two matches
// overlap, the leftmost splice is applied last and wins. See the package
// documentation for why this is accepted.
func Splice(text string, findings []Finding) string {
	spanned := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.Span == nil || f.RedactedValue == "" {
			continue
		}
		if f.Span.Start < 0 || f.Span.End > len(text) || f.Span.Start > f.Span.End {
			continue
		}
		spanned = append(spanned, f)
	}

	sort.SliceStable(spanned, func(i, j int) bool {
		return spanned[i].Span.Start > spanned[j].Span.Start
	})

	for _, f := range spanned {
		start, end := f.Span.Start, f.Span.End
		// A prior overlapping splice may have shortened the text past
		// this span; clamp rather than panic.
		if start > len(text) {
			continue
		}
		if end > len(text) {
			end = len(text)
		}
		text = text[:start] + f.RedactedValue + text[end:]
	}
	return text
}
