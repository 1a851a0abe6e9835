// Package tag extracts tagged action lines from free text and defines the
// normalized identity key used for dedup and cross-store matching.
//
// Parsing is pure: the same input always yields the same items, and nothing
// here touches storage.
package tag

import (
	"strings"

	"remindsync/internal/model"
)

// Parser recognizes two line markers, e.g. "TODO:" and "DONE:".
// Marker matching is case-insensitive on the line prefix.
type Parser struct {
	Open string
	Done string
}

func NewParser(open, done string) Parser {
	return Parser{Open: open, Done: done}
}

// ParseLine classifies a single line. The second return is false for plain
// text, and for marker-only lines whose body is empty after trimming.
func (p Parser) ParseLine(line string) (model.ActionItem, bool) {
	trimmed := strings.TrimSpace(line)
	for _, m := range []struct {
		marker string
		state  model.ItemState
	}{
		{p.Open, model.StateOpen},
		{p.Done, model.StateCompleted},
	} {
		if len(trimmed) < len(m.marker) {
			continue
		}
		if !strings.EqualFold(trimmed[:len(m.marker)], m.marker) {
			continue
		}
		body := strings.TrimSpace(trimmed[len(m.marker):])
		if body == "" {
			return model.ActionItem{}, false
		}
		return model.ActionItem{Text: body, State: m.state}, true
	}
	return model.ActionItem{}, false
}

// Parse returns every tagged item in text, in line order. Untagged lines are
// ignored here; callers that persist documents must preserve them.
func (p Parser) Parse(text string) []model.ActionItem {
	var out []model.ActionItem
	for _, line := range strings.Split(text, "\n") {
		if it, ok := p.ParseLine(line); ok {
			out = append(out, it)
		}
	}
	return out
}

// FormatLine renders an item body back into a tagged line.
func (p Parser) FormatLine(state model.ItemState, body string) string {
	if state == model.StateCompleted {
		return p.Done + " " + body
	}
	return p.Open + " " + body
}

// HasAnnotation reports whether body ends with a provenance bracket group.
func HasAnnotation(body string) bool {
	body = strings.TrimSpace(body)
	if !strings.HasSuffix(body, "]") {
		return false
	}
	return strings.LastIndex(body, " [") > 0
}

// Annotate appends a provenance annotation. Already-annotated bodies are
// returned unchanged, which keeps annotation idempotent.
func Annotate(body, source string) string {
	body = strings.TrimSpace(body)
	if HasAnnotation(body) {
		return body
	}
	return body + " [" + source + "]"
}

// StripAnnotation removes a trailing provenance bracket group, if present.
func StripAnnotation(body string) string {
	body = strings.TrimSpace(body)
	if !strings.HasSuffix(body, "]") {
		return body
	}
	i := strings.LastIndex(body, " [")
	if i <= 0 {
		return body
	}
	return strings.TrimSpace(body[:i])
}

// AnnotationSource returns the source name inside a trailing bracket group.
func AnnotationSource(body string) (string, bool) {
	body = strings.TrimSpace(body)
	if !strings.HasSuffix(body, "]") {
		return "", false
	}
	i := strings.LastIndex(body, " [")
	if i <= 0 {
		return "", false
	}
	return strings.TrimSpace(body[i+2 : len(body)-1]), true
}

// Key computes the identity key of an item body: annotation stripped,
// whitespace trimmed, case-folded. Two items with the same key are the same
// logical item regardless of state.
func Key(body string) string {
	return strings.ToLower(strings.TrimSpace(StripAnnotation(body)))
}
