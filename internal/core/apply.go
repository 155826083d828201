package core

import (
	"fmt"
	"sort"
	"strings"
)

// ApplyChange returns a copy of op whose Content is OriginalContent with all
// edits substituted. Edit positions refer to OriginalContent, so the new
// content is assembled in a single pass over the sorted edits instead of
// patching incrementally.
func ApplyChange(op ChangeOperation) (ChangeOperation, error) {
	if op.applied {
		return op, fmt.Errorf("%s: %w", op.DocumentID, ErrAlreadyApplied)
	}

	edits := make([]Edit, len(op.Edits))
	copy(edits, op.Edits)
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Position < edits[j].Position })

	src := op.OriginalContent
	for i, e := range edits {
		if e.Position < 0 || e.End() > len(src) || src[e.Position:e.End()] != e.OriginalText {
			return op, fmt.Errorf("%s: %q at %d: %w", op.DocumentID, e.OriginalText, e.Position, ErrStaleEdit)
		}
		if i > 0 && e.Position < edits[i-1].End() {
			return op, &OverlapError{DocumentID: op.DocumentID, First: edits[i-1], Second: e}
		}
	}

	var b strings.Builder
	b.Grow(len(src))
	prev := 0
	for _, e := range edits {
		b.WriteString(src[prev:e.Position])
		b.WriteString(e.ReplacementText)
		prev = e.End()
	}
	b.WriteString(src[prev:])

	out := op
	out.Edits = edits
	out.Content = b.String()
	out.applied = true
	return out, nil
}
