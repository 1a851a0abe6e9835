package canon

import (
	"sort"
	"strings"

	"remindsync/internal/tag"
)

// SourceEntry pairs one parsed item text with the document it came from.
// The annotator's lookup table is rebuilt from the sources on every pass and
// held only in memory.
type SourceEntry struct {
	Text   string
	Source string
}

// Annotate attaches a trailing " [Source]" annotation to tagged lines that
// lack one. Entries are tried longest-text-first so a short item text never
// falsely matches inside a longer one. A line matches an entry when its body
// equals the entry text exactly, or equals that text with the source name
// appended as a trailing word (some upstream compilers append the note
// title). Already-annotated lines are left untouched, so annotation is
// idempotent. Lines that match nothing stay unannotated; that is not an
// error.
func (d *Doc) Annotate(entries []SourceEntry) (annotated int) {
	sorted := make([]SourceEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Text) > len(sorted[j].Text)
	})

	for i := range d.Lines {
		l := &d.Lines[i]
		if l.Kind != KindOpen && l.Kind != KindDone {
			continue
		}
		if tag.HasAnnotation(l.Body) {
			continue
		}
		body := strings.TrimSpace(l.Body)
		for _, e := range sorted {
			if body != e.Text && body != e.Text+" "+e.Source {
				continue
			}
			l.Body = tag.Annotate(body, e.Source)
			annotated++
			break
		}
	}
	return annotated
}
