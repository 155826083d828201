package core

import "sort"

// Range is a half-open byte span [Start, End) of a document's content.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether r shares at least one byte with [start, end).
func (r Range) Overlaps(start, end int) bool {
	return start < r.End && r.Start < end
}

// Document is the scan-time snapshot of one note.
type Document struct {
	ID      string   `json:"id"` // vault-relative path
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Aliases []string `json:"aliases,omitempty"`
	Ignored []Range  `json:"ignored,omitempty"` // sorted, non-overlapping
}

// DocumentRef identifies a document without its content.
type DocumentRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Ref returns the identity part of d.
func (d Document) Ref() DocumentRef {
	return DocumentRef{ID: d.ID, Title: d.Title}
}

// NewDocument builds a snapshot from a vault path and its content,
// extracting frontmatter aliases and the spans that must not be linked.
func NewDocument(id, content string) Document {
	aliases, ignored := parseMetadata(content)
	return Document{
		ID:      id,
		Title:   basename(id),
		Content: content,
		Aliases: aliases,
		Ignored: ignored,
	}
}

// IsIgnored reports whether [start, end) touches an ignored span.
func (d Document) IsIgnored(start, end int) bool {
	i := sort.Search(len(d.Ignored), func(i int) bool { return d.Ignored[i].End > start })
	return i < len(d.Ignored) && d.Ignored[i].Overlaps(start, end)
}

// mergeRanges sorts ranges and joins the ones that touch or overlap.
func mergeRanges(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	out := []Range{ranges[0]}
	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
