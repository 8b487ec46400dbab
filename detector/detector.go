// Package detector provides the built-in validators: PII, prompt
// injection, toxicity, length, and structured-schema checks. Each is an
// independent pattern table plus thresholds; there is no hierarchy, and
// each holds only immutable configuration, so a single instance is safe
// for concurrent use.
package detector

// excerpt returns at most n runes of s, for embedding matched text in
// finding descriptions without reproducing the full sensitive value.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
