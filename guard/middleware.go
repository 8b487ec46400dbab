package guard

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/segmentio/encoding/json"

	"github.com/promptshield/promptshield/guardrail"
)

// TextFields is the ordered list of JSON body fields the middleware
// checks for text to screen. The first present string field wins; when
// none match, the whole body is screened as plain text.
var TextFields = []string{"text", "message", "content", "prompt", "input", "query"}

const maxBodyBytes = 10 << 20

// Middleware returns an http.Handler that runs mutating-request bodies
// through the pipeline before passing to next. Blocked requests receive
// a 422 with a JSON description of the findings; redacted text is
// substituted back into the body before next sees it.
func Middleware(p *guardrail.Pipeline, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body.Close()

		text, field := ExtractText(body)
		res := p.Run(text)

		if res.Blocked() {
			writeBlocked(w, res)
			return
		}

		if res.ActionTaken == guardrail.ActionRedact && res.Text != text {
			if replaced, ok := replaceField(body, field, res.Text); ok {
				body = replaced
			}
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		r.Header.Set("Content-Length", strconv.Itoa(len(body)))
		next.ServeHTTP(w, r)
	})
}

// ExtractText pulls the text to screen out of a request body: the first
// TextFields entry holding a string in a JSON object, otherwise the raw
// body. The returned field name is empty for the raw-body fallback.
func ExtractText(body []byte) (text, field string) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range TextFields {
			if s, ok := payload[key].(string); ok {
				return s, key
			}
		}
	}
	return string(body), ""
}

// replaceField substitutes the redacted text back into the JSON body.
// A raw-body fallback (empty field) replaces the body wholesale.
func replaceField(body []byte, field, text string) ([]byte, bool) {
	if field == "" {
		return []byte(text), true
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	payload[field] = text
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}
	return out, true
}

func writeBlocked(w http.ResponseWriter, res guardrail.Result) {
	type blockedFinding struct {
		Category    string `json:"category"`
		Description string `json:"description"`
	}
	findings := make([]blockedFinding, 0, len(res.Findings))
	for _, f := range res.Findings {
		findings = append(findings, blockedFinding{Category: f.Category, Description: f.Description})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(map[string]any{
		"error":    "request blocked by content safety policy",
		"findings": findings,
	})
}
