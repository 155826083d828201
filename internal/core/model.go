package core

import (
	"encoding/json"
	"fmt"
)

// SelectionOption is one display-text variant the operator can accept.
// Its selection flag is the only mutable state in a match result tree.
type SelectionOption struct {
	DisplayText string
	selected    bool
}

// Selected reports whether the operator accepted this option.
func (o *SelectionOption) Selected() bool { return o.selected }

// ToggleSelected flips the selection state.
func (o *SelectionOption) ToggleSelected() { o.selected = !o.selected }

// CandidateTarget is one document a reference may link to.
type CandidateTarget struct {
	TargetID    string
	TargetTitle string
	Options     []*SelectionOption
}

// Reference is a span of source text that may name another document.
type Reference struct {
	MatchedText string
	Position    int // byte offset into the source content
	Context     string
	Candidates  []*CandidateTarget
}

// End returns the byte offset just past the reference.
func (r *Reference) End() int { return r.Position + len(r.MatchedText) }

// DocumentResult holds the references found in one document.
type DocumentResult struct {
	Document   Document
	References []*Reference
}

// SelectedCount returns the number of selected options across all references.
func (r *DocumentResult) SelectedCount() int {
	n := 0
	for _, ref := range r.References {
		for _, c := range ref.Candidates {
			for _, o := range c.Options {
				if o.selected {
					n++
				}
			}
		}
	}
	return n
}

// Find returns the reference starting at position, or nil.
func (r *DocumentResult) Find(position int) *Reference {
	for _, ref := range r.References {
		if ref.Position == position {
			return ref
		}
	}
	return nil
}

// Wire format shared by engines and DecodeResults.
type (
	wireResult struct {
		Document   wireDocument    `json:"document"`
		References []wireReference `json:"references"`
	}
	wireDocument struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Content []byte `json:"content"` // base64, byte-exact
	}
	wireReference struct {
		MatchedText string          `json:"matched_text"`
		Position    int             `json:"position"`
		Context     string          `json:"context"`
		Candidates  []wireCandidate `json:"candidates"`
	}
	wireCandidate struct {
		TargetID    string       `json:"target_id"`
		TargetTitle string       `json:"target_title"`
		Options     []wireOption `json:"options"`
	}
	wireOption struct {
		DisplayText string `json:"display_text"`
		Selected    bool   `json:"selected,omitempty"`
	}
)

// DecodeResults turns serialized matcher output into the result tree,
// preserving reference and candidate order.
func DecodeResults(raw [][]byte) ([]*DocumentResult, error) {
	out := make([]*DocumentResult, 0, len(raw))
	for i, b := range raw {
		var w wireResult
		if err := json.Unmarshal(b, &w); err != nil {
			return nil, fmt.Errorf("decode result %d: %w", i, err)
		}
		res, err := w.tree()
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (w wireResult) tree() (*DocumentResult, error) {
	res := &DocumentResult{
		Document: Document{ID: w.Document.ID, Title: w.Document.Title, Content: string(w.Document.Content)},
	}
	for _, wr := range w.References {
		end := wr.Position + len(wr.MatchedText)
		if wr.Position < 0 || end > len(w.Document.Content) {
			return nil, fmt.Errorf("%s: reference %q at %d outside content", w.Document.ID, wr.MatchedText, wr.Position)
		}
		ref := &Reference{MatchedText: wr.MatchedText, Position: wr.Position, Context: wr.Context}
		for _, wc := range wr.Candidates {
			c := &CandidateTarget{TargetID: wc.TargetID, TargetTitle: wc.TargetTitle}
			for _, wo := range wc.Options {
				c.Options = append(c.Options, &SelectionOption{DisplayText: wo.DisplayText, selected: wo.Selected})
			}
			ref.Candidates = append(ref.Candidates, c)
		}
		res.References = append(res.References, ref)
	}
	return res, nil
}
