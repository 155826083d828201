package core

import (
	"strings"
	"testing"
)

// stubLinks renders links as [[target>source|display]] so tests can see
// every argument the builder passed.
type stubLinks struct{}

func (stubLinks) Generate(target, source DocumentRef, display string) string {
	s := "[[" + target.ID + ">" + source.ID
	if display != "" {
		s += "|" + display
	}
	return s + "]]"
}

func newResult(id, content string, refs ...*Reference) *DocumentResult {
	return &DocumentResult{
		Document:   Document{ID: id, Title: basename(id), Content: content},
		References: refs,
	}
}

func newRef(text string, pos int, cands ...*CandidateTarget) *Reference {
	return &Reference{MatchedText: text, Position: pos, Candidates: cands}
}

func newCand(id string, options ...string) *CandidateTarget {
	c := &CandidateTarget{TargetID: id, TargetTitle: basename(id)}
	for _, o := range options {
		c.Options = append(c.Options, &SelectionOption{DisplayText: o})
	}
	return c
}

func TestBuildChangeSetOmitsUnselectedDocuments(t *testing.T) {
	results := []*DocumentResult{
		newResult("A.md", "about B", newRef("B", 6, newCand("B.md", "B"))),
		newResult("C.md", "about B", newRef("B", 6, newCand("B.md", "B"))),
	}
	results[1].References[0].Candidates[0].Options[0].ToggleSelected()

	ops := BuildChangeSet(results, stubLinks{})
	if _, ok := ops["A.md"]; ok {
		t.Error("A.md has no selections and must be absent")
	}
	op, ok := ops["C.md"]
	if !ok {
		t.Fatal("C.md missing")
	}
	if len(op.Edits) != 1 {
		t.Fatalf("len(Edits) = %d, want 1", len(op.Edits))
	}
	e := op.Edits[0]
	if e.Position != 6 || e.OriginalText != "B" || e.TargetID != "B.md" {
		t.Errorf("edit = %+v", e)
	}
	// Display equals target title, so it is omitted.
	if e.ReplacementText != "[[B.md>C.md]]" {
		t.Errorf("ReplacementText = %q, want [[B.md>C.md]]", e.ReplacementText)
	}
	if EditCount(ops) != 1 {
		t.Errorf("EditCount = %d, want 1", EditCount(ops))
	}
}

func TestBuildChangeSetEmptyInput(t *testing.T) {
	if ops := BuildChangeSet(nil, stubLinks{}); len(ops) != 0 {
		t.Errorf("ops = %v, want empty", ops)
	}
}

func TestBuildChangeSetExplicitDisplay(t *testing.T) {
	res := newResult("A.md", "the bee flies", newRef("bee", 4, newCand("Bee Notes.md", "bee", "Bee Notes")))
	res.References[0].Candidates[0].Options[0].ToggleSelected()
	ops := BuildChangeSet([]*DocumentResult{res}, stubLinks{})
	if got := ops["A.md"].Edits[0].ReplacementText; got != "[[Bee Notes.md>A.md|bee]]" {
		t.Errorf("ReplacementText = %q", got)
	}
}

func TestBuildChangeSetFirstSelectedWins(t *testing.T) {
	ref := newRef("B", 0,
		newCand("x/B.md", "B", "Bee"),
		newCand("y/B.md", "B"),
	)
	ref.Candidates[0].Options[1].ToggleSelected() // x/B.md "Bee"
	ref.Candidates[1].Options[0].ToggleSelected() // y/B.md "B"
	res := newResult("A.md", "B is here", ref)

	for i := 0; i < 3; i++ {
		ops := BuildChangeSet([]*DocumentResult{res}, stubLinks{})
		op := ops["A.md"]
		if len(op.Edits) != 1 {
			t.Fatalf("len(Edits) = %d, want exactly 1", len(op.Edits))
		}
		if op.Edits[0].TargetID != "x/B.md" {
			t.Errorf("TargetID = %q, want x/B.md (first selected in candidate order)", op.Edits[0].TargetID)
		}
		if len(op.Dropped) != 1 || op.Dropped[0].TargetID != "y/B.md" || op.Dropped[0].Position != 0 {
			t.Errorf("Dropped = %+v, want the y/B.md selection", op.Dropped)
		}
	}
}

func TestBuildChangeSetMultipleReferences(t *testing.T) {
	content := "B and C"
	res := newResult("A.md", content,
		newRef("B", 0, newCand("B.md", "B")),
		newRef("C", 6, newCand("C.md", "C")),
	)
	for _, ref := range res.References {
		ref.Candidates[0].Options[0].ToggleSelected()
	}
	op := BuildChangeSet([]*DocumentResult{res}, stubLinks{})["A.md"]
	if op.OriginalContent != content {
		t.Errorf("OriginalContent = %q", op.OriginalContent)
	}
	applied, err := ApplyChange(*op)
	if err != nil {
		t.Fatalf("ApplyChange: %v", err)
	}
	if want := "[[B.md>A.md]] and [[C.md>A.md]]"; applied.Content != want {
		t.Errorf("Content = %q, want %q", applied.Content, want)
	}
	if !strings.Contains(applied.OriginalContent, "B and C") {
		t.Error("OriginalContent changed")
	}
}
