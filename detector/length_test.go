package detector

import (
	"strings"
	"testing"

	"github.com/promptshield/promptshield/guardrail"
)

func TestLengthNoLimitsNeverFlags(t *testing.T) {
	v := NewLength()
	res := v.Validate(strings.Repeat("x", 100000))

	if !res.IsValid || res.HasFindings() {
		t.Errorf("no-limit validator flagged: %v", res.Findings)
	}
}

func TestLengthMaxChars(t *testing.T) {
	v := NewLength(WithMaxChars(10))

	res := v.Validate("short")
	if !res.IsValid {
		t.Error("under the limit should be valid")
	}

	res = v.Validate("this is definitely too long")
	if res.IsValid {
		t.Fatal("over the limit should be invalid")
	}
	if !hasCategory(res.Findings, "max_chars") {
		t.Errorf("categories: %v", categories(res.Findings))
	}
	if res.Findings[0].Span != nil {
		t.Error("length findings are document-level, no span")
	}
	if res.ActionTaken != guardrail.ActionBlock {
		t.Errorf("expected block, got %s", res.ActionTaken)
	}
}

func TestLengthMaxTokens(t *testing.T) {
	v := NewLength(WithMaxTokens(5))

	// 40 chars is about 10 estimated tokens.
	res := v.Validate(strings.Repeat("word ", 8))
	if !hasCategory(res.Findings, "max_tokens") {
		t.Errorf("categories: %v", categories(res.Findings))
	}

	res = v.Validate("tiny")
	if res.HasFindings() {
		t.Errorf("4 chars is one token: %v", res.Findings)
	}
}

func TestLengthBothCeilingsProduceTwoFindings(t *testing.T) {
	v := NewLength(WithMaxChars(10), WithMaxTokens(2))
	res := v.Validate(strings.Repeat("a", 50))

	if len(res.Findings) != 2 {
		t.Errorf("expected 2 findings, got %v", categories(res.Findings))
	}
}

func TestLengthCountsRunesNotBytes(t *testing.T) {
	v := NewLength(WithMaxChars(4))
	// Four runes, twelve bytes.
	res := v.Validate("日本語字")
	if res.HasFindings() {
		t.Errorf("4 runes within a 4-char limit flagged: %v", res.Findings)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 1},
		{"ab", 1},
		{"abcd", 1},
		{strings.Repeat("a", 40), 10},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
