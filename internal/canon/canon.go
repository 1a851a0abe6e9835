// Package canon models the canonical task document: the single merged,
// deduplicated, organized list of record for all action items.
//
// A document is an ordered sequence of lines. Tagged lines carry action
// items; everything else (title, notes, blank lines) is preserved verbatim
// and never reordered relative to other untagged content.
package canon

import (
	"strings"

	"remindsync/internal/model"
	"remindsync/internal/tag"
)

type LineKind int

const (
	KindText LineKind = iota
	KindOpen
	KindDone
	KindSeparator
)

type Line struct {
	Kind LineKind
	Raw  string // verbatim original line (KindText only)
	Body string // tagged body, may include a provenance annotation
}

type Doc struct {
	parser    tag.Parser
	separator string
	Lines     []Line
}

// Parse splits text into canonical lines. Separator lines are recognized so
// that stale separators from previous passes can be dropped on reorganize.
func Parse(p tag.Parser, separator, text string) *Doc {
	d := &Doc{parser: p, separator: separator}
	if text == "" {
		return d
	}
	raw := strings.Split(text, "\n")
	// A trailing newline produces one empty trailing element; Render adds the
	// newline back, so drop it here to keep parse/render round-trips stable.
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	for _, line := range raw {
		if strings.TrimSpace(line) == separator {
			d.Lines = append(d.Lines, Line{Kind: KindSeparator})
			continue
		}
		if it, ok := p.ParseLine(line); ok {
			kind := KindOpen
			if it.State == model.StateCompleted {
				kind = KindDone
			}
			d.Lines = append(d.Lines, Line{Kind: kind, Body: it.Text})
			continue
		}
		d.Lines = append(d.Lines, Line{Kind: KindText, Raw: line})
	}
	return d
}

// Render writes the document back to text. Tagged lines are re-emitted from
// their parsed body, so tag casing and padding are normalized; untagged
// lines come back verbatim.
func (d *Doc) Render() string {
	if len(d.Lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, l := range d.Lines {
		switch l.Kind {
		case KindText:
			b.WriteString(l.Raw)
		case KindOpen:
			b.WriteString(d.parser.FormatLine(model.StateOpen, l.Body))
		case KindDone:
			b.WriteString(d.parser.FormatLine(model.StateCompleted, l.Body))
		case KindSeparator:
			b.WriteString(d.separator)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Items returns the tagged entries in document order.
func (d *Doc) Items() []model.ActionItem {
	var out []model.ActionItem
	for _, l := range d.Lines {
		switch l.Kind {
		case KindOpen, KindDone:
			state := model.StateOpen
			if l.Kind == KindDone {
				state = model.StateCompleted
			}
			it := model.ActionItem{Text: l.Body, State: state}
			if src, ok := tag.AnnotationSource(l.Body); ok {
				it.Source = src
			}
			out = append(out, it)
		}
	}
	return out
}

// OpenTexts returns the annotation-stripped text of every open entry, in
// document order. This is the projector's input.
func (d *Doc) OpenTexts() []string {
	var out []string
	for _, l := range d.Lines {
		if l.Kind == KindOpen {
			out = append(out, tag.StripAnnotation(l.Body))
		}
	}
	return out
}

// Build merges incoming open item texts into the document.
//
// Duplicates already in the document are collapsed first: when both an open
// and a completed line share a key, only the completed one survives
// (completion is terminal); repeated lines keep their first occurrence.
// Incoming items absent by key are appended as new open entries. State
// promotion never happens here; only the completion detector flips entries,
// driven by target-list state.
func (d *Doc) Build(incoming []string) (added int) {
	done := map[string]bool{}
	for _, l := range d.Lines {
		if l.Kind == KindDone {
			done[tag.Key(l.Body)] = true
		}
	}

	seen := map[string]bool{}
	kept := d.Lines[:0]
	for _, l := range d.Lines {
		if l.Kind == KindOpen || l.Kind == KindDone {
			key := tag.Key(l.Body)
			if l.Kind == KindOpen && done[key] {
				continue
			}
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		kept = append(kept, l)
	}
	d.Lines = kept

	for _, text := range incoming {
		key := tag.Key(text)
		if key == "" || seen[key] {
			continue
		}
		d.Lines = append(d.Lines, Line{Kind: KindOpen, Body: strings.TrimSpace(text)})
		seen[key] = true
		added++
	}
	return added
}

// Organize reorders lines into the stable display order: untagged content
// first (original relative order), then open entries, then one separator
// (only when completed entries exist), then completed entries. Stale
// separators are dropped.
func (d *Doc) Organize() {
	var text, open, doneLines []Line
	for _, l := range d.Lines {
		switch l.Kind {
		case KindText:
			text = append(text, l)
		case KindOpen:
			open = append(open, l)
		case KindDone:
			doneLines = append(doneLines, l)
		}
	}
	out := make([]Line, 0, len(text)+len(open)+len(doneLines)+1)
	out = append(out, text...)
	out = append(out, open...)
	if len(doneLines) > 0 {
		out = append(out, Line{Kind: KindSeparator})
		out = append(out, doneLines...)
	}
	d.Lines = out
}

// MarkCompleted flips the first open entry matching key to completed,
// preserving its body (and therefore its annotation). The returned body is
// the completed line's text; ok is false when no open entry matches.
func (d *Doc) MarkCompleted(key string) (body string, ok bool) {
	for i := range d.Lines {
		if d.Lines[i].Kind != KindOpen {
			continue
		}
		if tag.Key(d.Lines[i].Body) != key {
			continue
		}
		d.Lines[i].Kind = KindDone
		return d.Lines[i].Body, true
	}
	return "", false
}
