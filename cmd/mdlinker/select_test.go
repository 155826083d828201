package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ryotapoi/mdlinker/internal/core"
)

func testResults() []*core.DocumentResult {
	opt := func(s string) *core.SelectionOption { return &core.SelectionOption{DisplayText: s} }
	return []*core.DocumentResult{{
		Document: core.Document{ID: "notes/a:b.md", Title: "a:b", Content: "Beta and Gamma"},
		References: []*core.Reference{
			{MatchedText: "Beta", Position: 0, Candidates: []*core.CandidateTarget{
				{TargetID: "Beta.md", TargetTitle: "Beta", Options: []*core.SelectionOption{opt("Beta")}},
				{TargetID: "old/Beta.md", TargetTitle: "Beta", Options: []*core.SelectionOption{opt("Beta")}},
			}},
			{MatchedText: "Gamma", Position: 9, Candidates: []*core.CandidateTarget{
				{TargetID: "Gamma Ray.md", TargetTitle: "Gamma Ray", Options: []*core.SelectionOption{opt("Gamma"), opt("Gamma Ray")}},
			}},
		},
	}}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		input   string
		want    selection
		wantErr bool
	}{
		{"A.md:4:1:2", selection{Path: "A.md", Position: 4, Candidate: 1, Option: 2}, false},
		{"notes/a:b.md:0:2:1", selection{Path: "notes/a:b.md", Position: 0, Candidate: 2, Option: 1}, false},
		{"./A.md:4:1:1", selection{Path: "A.md", Position: 4, Candidate: 1, Option: 1}, false},
		{"A.md:4:1", selection{}, true},
		{"A.md:4:0:1", selection{}, true},
		{"A.md:-1:1:1", selection{}, true},
		{":4:1:1", selection{}, true},
	}
	for _, tt := range tests {
		got, err := parseSelection(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSelection(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseSelection(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestApplySelections(t *testing.T) {
	results := testResults()
	err := applySelections(results, []selection{
		{Path: "notes/a:b.md", Position: 0, Candidate: 2, Option: 1},
		{Path: "notes/a:b.md", Position: 9, Candidate: 1, Option: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	refs := results[0].References
	if refs[0].Candidates[0].Options[0].Selected() || !refs[0].Candidates[1].Options[0].Selected() {
		t.Error("wrong candidate selected for Beta")
	}
	if !refs[1].Candidates[0].Options[1].Selected() {
		t.Error("Gamma Ray option not selected")
	}

	// Selecting twice keeps the option selected.
	if err := applySelections(results, []selection{{Path: "notes/a:b.md", Position: 9, Candidate: 1, Option: 2}}); err != nil {
		t.Fatal(err)
	}
	if !refs[1].Candidates[0].Options[1].Selected() {
		t.Error("repeated selection toggled the option off")
	}
}

func TestApplySelections_Errors(t *testing.T) {
	tests := []struct {
		sel  selection
		want string
	}{
		{selection{Path: "other.md", Position: 0, Candidate: 1, Option: 1}, "no references found"},
		{selection{Path: "notes/a:b.md", Position: 3, Candidate: 1, Option: 1}, "no reference at position 3"},
		{selection{Path: "notes/a:b.md", Position: 0, Candidate: 3, Option: 1}, "candidate 3 out of range"},
		{selection{Path: "notes/a:b.md", Position: 9, Candidate: 1, Option: 5}, "option 5 out of range"},
	}
	for _, tt := range tests {
		err := applySelections(testResults(), []selection{tt.sel})
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("applySelections(%+v) = %v, want %q", tt.sel, err, tt.want)
		}
	}
}

func TestAcceptAll(t *testing.T) {
	results := testResults()
	acceptAll(results)
	if n := selectedTotal(results); n != 2 {
		t.Errorf("selectedTotal = %d, want 2", n)
	}
	acceptAll(results)
	if n := selectedTotal(results); n != 2 {
		t.Errorf("second acceptAll changed the selection: %d", n)
	}
	refs := results[0].References
	if !refs[0].Candidates[0].Options[0].Selected() || refs[0].Candidates[1].Options[0].Selected() {
		t.Error("Beta: only the first candidate should be selected")
	}
	if !refs[1].Candidates[0].Options[0].Selected() || refs[1].Candidates[0].Options[1].Selected() {
		t.Error("Gamma: only the first option should be selected")
	}
}

func TestPromptSelections(t *testing.T) {
	results := testResults()
	var out bytes.Buffer
	// Beta: invalid answer, then choice 2 (old/Beta.md). Gamma: skipped.
	if err := promptSelections(strings.NewReader("9\n2\n\n"), &out, results); err != nil {
		t.Fatal(err)
	}
	refs := results[0].References
	if !refs[0].Candidates[1].Options[0].Selected() {
		t.Error("old/Beta.md not selected")
	}
	if selectedTotal(results) != 1 {
		t.Errorf("selectedTotal = %d, want 1", selectedTotal(results))
	}
	if !strings.Contains(out.String(), "invalid choice: 9") {
		t.Errorf("prompt output = %q", out.String())
	}
}

func TestPromptSelections_Quit(t *testing.T) {
	results := testResults()
	if err := promptSelections(strings.NewReader("q\n1\n"), &bytes.Buffer{}, results); err != nil {
		t.Fatal(err)
	}
	if selectedTotal(results) != 0 {
		t.Errorf("selectedTotal = %d, want 0", selectedTotal(results))
	}
}
