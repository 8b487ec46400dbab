// Package audit appends scan decisions to a JSONL trail. Each line is a
// self-contained event describing what was screened and what happened to
// it. The trail records finding summaries, never the screened text.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"

	"github.com/promptshield/promptshield/guardrail"
)

// Event is one audit line.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Action    string         `json:"action"`
	Valid     bool           `json:"valid"`
	TextBytes int            `json:"text_bytes"`
	Findings  []FindingEntry `json:"findings,omitempty"`
}

// FindingEntry is the auditable subset of a finding. Descriptions and
// redacted values stay out: they can echo the matched text.
type FindingEntry struct {
	Validator string  `json:"validator"`
	Category  string  `json:"category"`
	Severity  float64 `json:"severity"`
}

// Logger writes events to a single append-only file. Safe for
// concurrent use.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// New opens (creating if needed) the audit file at path.
func New(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Logger{file: f}, nil
}

// Log records one scan result. source identifies the entry point
// ("cli", "server", "middleware").
func (l *Logger) Log(source string, res guardrail.Result) error {
	ev := Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		Action:    string(res.ActionTaken),
		Valid:     res.IsValid,
		TextBytes: len(res.OriginalText),
	}
	for _, f := range res.Findings {
		ev.Findings = append(ev.Findings, FindingEntry{
			Validator: f.Validator,
			Category:  f.Category,
			Severity:  f.Severity,
		})
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
