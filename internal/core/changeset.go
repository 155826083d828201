package core

import "github.com/tliron/commonlog"

var changesetLog = commonlog.GetLogger("mdlinker.changeset")

// LinkGenerator produces the link markup substituted for a reference.
// display is empty when the target's own title should be shown.
type LinkGenerator interface {
	Generate(target, source DocumentRef, display string) string
}

// Edit is one position-anchored substitution in a document's original content.
type Edit struct {
	Position        int    `json:"position"`
	OriginalText    string `json:"original_text"`
	ReplacementText string `json:"replacement_text"`
	TargetID        string `json:"target_id"`
}

// End returns the byte offset just past the replaced text.
func (e Edit) End() int { return e.Position + len(e.OriginalText) }

// DroppedSelection is a selected option that did not become an edit because
// an earlier option of the same reference was already selected.
type DroppedSelection struct {
	Position    int    `json:"position"`
	TargetID    string `json:"target_id"`
	DisplayText string `json:"display_text"`
}

// ChangeOperation holds the accepted edits of one document. Content is set
// by ApplyChange; OriginalContent is never modified.
type ChangeOperation struct {
	DocumentID      string
	OriginalContent string
	Content         string
	Edits           []Edit
	Dropped         []DroppedSelection
	applied         bool
}

// Applied reports whether Content holds the rewritten text.
func (op ChangeOperation) Applied() bool { return op.applied }

// BuildChangeSet derives one ChangeOperation per document with at least one
// selected option. Each reference yields at most one edit: the first selected
// option in candidate order wins and later selections are recorded as dropped.
func BuildChangeSet(results []*DocumentResult, gen LinkGenerator) map[string]*ChangeOperation {
	ops := make(map[string]*ChangeOperation)
	for _, res := range results {
		source := res.Document.Ref()
		op := &ChangeOperation{
			DocumentID:      source.ID,
			OriginalContent: res.Document.Content,
		}
		for _, ref := range res.References {
			taken := false
			for _, cand := range ref.Candidates {
				for _, opt := range cand.Options {
					if !opt.Selected() {
						continue
					}
					if taken {
						op.Dropped = append(op.Dropped, DroppedSelection{
							Position:    ref.Position,
							TargetID:    cand.TargetID,
							DisplayText: opt.DisplayText,
						})
						changesetLog.Warningf("%s@%d: extra selection %q -> %s ignored",
							source.ID, ref.Position, opt.DisplayText, cand.TargetID)
						continue
					}
					target := DocumentRef{ID: cand.TargetID, Title: cand.TargetTitle}
					display := opt.DisplayText
					if display == cand.TargetTitle {
						display = ""
					}
					op.Edits = append(op.Edits, Edit{
						Position:        ref.Position,
						OriginalText:    ref.MatchedText,
						ReplacementText: gen.Generate(target, source, display),
						TargetID:        cand.TargetID,
					})
					taken = true
				}
			}
		}
		if len(op.Edits) > 0 {
			ops[op.DocumentID] = op
		}
	}
	return ops
}

// EditCount returns the total number of edits across ops.
func EditCount(ops map[string]*ChangeOperation) int {
	n := 0
	for _, op := range ops {
		n += len(op.Edits)
	}
	return n
}
