package core

import (
	"errors"
	"testing"
)

func TestApplyChangeZeroEdits(t *testing.T) {
	op := ChangeOperation{DocumentID: "A.md", OriginalContent: "untouched\n"}
	got, err := ApplyChange(op)
	if err != nil {
		t.Fatalf("ApplyChange: %v", err)
	}
	if got.Content != op.OriginalContent {
		t.Errorf("Content = %q, want %q", got.Content, op.OriginalContent)
	}
}

func TestApplyChangeOrderIndependent(t *testing.T) {
	content := "alpha beta gamma delta"
	edits := []Edit{
		{Position: 0, OriginalText: "alpha", ReplacementText: "[[Alpha]]"},
		{Position: 6, OriginalText: "beta", ReplacementText: "B"},
		{Position: 11, OriginalText: "gamma", ReplacementText: "[[Gamma|gamma]]"},
		{Position: 17, OriginalText: "delta", ReplacementText: ""},
	}
	want := "[[Alpha]] B [[Gamma|gamma]] "

	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {2, 0, 3, 1}, {1, 3, 0, 2}}
	for _, order := range orders {
		var es []Edit
		for _, i := range order {
			es = append(es, edits[i])
		}
		got, err := ApplyChange(ChangeOperation{DocumentID: "A.md", OriginalContent: content, Edits: es})
		if err != nil {
			t.Fatalf("order %v: %v", order, err)
		}
		if got.Content != want {
			t.Errorf("order %v: Content = %q, want %q", order, got.Content, want)
		}
	}
}

func TestApplyChangeScenarioOnlyReferenceBytesChange(t *testing.T) {
	content := "See [[B]] and B."
	results := []*DocumentResult{
		newResult("A.md", content, newRef("[[B]]", 4, newCand("B.md", "B"))),
	}
	results[0].References[0].Candidates[0].Options[0].ToggleSelected()

	ops := BuildChangeSet(results, stubLinks{})
	op := ops["A.md"]
	if op == nil || len(op.Edits) != 1 || op.Edits[0].Position != 4 {
		t.Fatalf("ops = %+v, want one edit at 4", ops)
	}
	got, err := ApplyChange(*op)
	if err != nil {
		t.Fatal(err)
	}
	repl := op.Edits[0].ReplacementText
	if got.Content[:4] != content[:4] {
		t.Errorf("prefix changed: %q", got.Content[:4])
	}
	if got.Content[4:4+len(repl)] != repl {
		t.Errorf("replacement missing: %q", got.Content)
	}
	if got.Content[4+len(repl):] != content[9:] {
		t.Errorf("suffix changed: %q, want %q", got.Content[4+len(repl):], content[9:])
	}
}

func TestApplyChangeKeepsOriginal(t *testing.T) {
	op := ChangeOperation{
		DocumentID:      "A.md",
		OriginalContent: "x B y",
		Edits:           []Edit{{Position: 2, OriginalText: "B", ReplacementText: "[[B]]"}},
	}
	got, err := ApplyChange(op)
	if err != nil {
		t.Fatal(err)
	}
	if got.OriginalContent != "x B y" || got.Content != "x [[B]] y" {
		t.Errorf("got %q -> %q", got.OriginalContent, got.Content)
	}
	if op.Applied() || !got.Applied() {
		t.Error("input must stay unapplied, output applied")
	}
}

func TestApplyChangeRejectsReapply(t *testing.T) {
	op := ChangeOperation{
		DocumentID:      "A.md",
		OriginalContent: "x B y",
		Edits:           []Edit{{Position: 2, OriginalText: "B", ReplacementText: "[[B]]"}},
	}
	once, err := ApplyChange(op)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ApplyChange(once); !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("err = %v, want ErrAlreadyApplied", err)
	}
	// Re-invoking on the untouched operation is fine and deterministic.
	again, err := ApplyChange(op)
	if err != nil || again.Content != once.Content {
		t.Errorf("re-apply on original: %q, %v", again.Content, err)
	}
}

func TestApplyChangeOverlap(t *testing.T) {
	op := ChangeOperation{
		DocumentID:      "A.md",
		OriginalContent: "New York City",
		Edits: []Edit{
			{Position: 4, OriginalText: "York City", ReplacementText: "[[YC]]"},
			{Position: 0, OriginalText: "New York", ReplacementText: "[[NY]]"},
		},
	}
	_, err := ApplyChange(op)
	var oe *OverlapError
	if !errors.As(err, &oe) {
		t.Fatalf("err = %v, want *OverlapError", err)
	}
	if !errors.Is(err, ErrOverlappingEdits) {
		t.Error("OverlapError must match ErrOverlappingEdits")
	}
	if oe.DocumentID != "A.md" || oe.First.Position != 0 || oe.Second.Position != 4 {
		t.Errorf("overlap = %+v", oe)
	}
}

func TestApplyChangeStale(t *testing.T) {
	op := ChangeOperation{
		DocumentID:      "A.md",
		OriginalContent: "abc",
		Edits:           []Edit{{Position: 1, OriginalText: "zz", ReplacementText: "!"}},
	}
	if _, err := ApplyChange(op); !errors.Is(err, ErrStaleEdit) {
		t.Errorf("err = %v, want ErrStaleEdit", err)
	}
	op.Edits[0] = Edit{Position: 2, OriginalText: "cd"}
	if _, err := ApplyChange(op); !errors.Is(err, ErrStaleEdit) {
		t.Errorf("out of range: err = %v, want ErrStaleEdit", err)
	}
}
