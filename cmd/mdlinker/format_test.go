package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ryotapoi/mdlinker/internal/core"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"json", false},
		{"text", false},
		{"yaml", true},
		{"", true},
	}
	for _, tt := range tests {
		err := validateFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestPrintResultsText(t *testing.T) {
	var buf bytes.Buffer
	printResultsText(&buf, testResults())
	out := buf.String()
	for _, want := range []string{
		"notes/a:b.md\n",
		"    2:1 old/Beta.md as \"Beta\"\n",
		"    1:2 Gamma Ray.md as \"Gamma Ray\"\n",
		"2 references in 1 documents\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printResultsText(&buf, nil)
	if buf.String() != "no references found\n" {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestPrintResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printResultsJSON(&buf, testResults()); err != nil {
		t.Fatal(err)
	}
	var got []struct {
		Path       string `json:"path"`
		References []struct {
			Position   int `json:"position"`
			Candidates []struct {
				Target  string   `json:"target"`
				Options []string `json:"options"`
			} `json:"candidates"`
		} `json:"references"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Path != "notes/a:b.md" || len(got[0].References) != 2 {
		t.Fatalf("got = %+v", got)
	}
	if c := got[0].References[1].Candidates[0]; c.Target != "Gamma Ray.md" || len(c.Options) != 2 {
		t.Errorf("candidate = %+v", c)
	}
}

func TestPrintChangeSetText(t *testing.T) {
	ops := map[string]*core.ChangeOperation{
		"b.md": {DocumentID: "b.md", Edits: []core.Edit{{Position: 4, OriginalText: "X", ReplacementText: "[[X]]", TargetID: "X.md"}}},
		"a.md": {
			DocumentID: "a.md",
			Edits:      []core.Edit{{Position: 0, OriginalText: "Y", ReplacementText: "[[Y]]", TargetID: "Y.md"}},
			Dropped:    []core.DroppedSelection{{Position: 0, TargetID: "old/Y.md", DisplayText: "Y"}},
		},
	}
	var buf bytes.Buffer
	printChangeSetText(&buf, ops)
	out := buf.String()
	if strings.Index(out, "a.md") > strings.Index(out, "b.md") {
		t.Errorf("documents not sorted:\n%s", out)
	}
	if !strings.Contains(out, "dropped old/Y.md") {
		t.Errorf("dropped selection not reported:\n%s", out)
	}
	if !strings.Contains(out, "2 edits in 2 documents (dry run)") {
		t.Errorf("summary missing:\n%s", out)
	}
}

func TestPrintOutcome(t *testing.T) {
	out := &core.Outcome{
		RunID: "run-1",
		Edits: 3,
		Documents: []core.DocumentOutcome{
			{DocumentID: "a.md", Edits: 2},
			{DocumentID: "b.md", Edits: 1, Err: &core.WriteError{DocumentID: "b.md", Err: errors.New("read-only")}},
		},
	}
	var buf bytes.Buffer
	printOutcomeText(&buf, out)
	if !strings.Contains(buf.String(), "failed: b.md") || !strings.Contains(buf.String(), "linked 2 of 3 mentions in 1 documents") {
		t.Errorf("text = %q", buf.String())
	}

	buf.Reset()
	if err := printOutcomeJSON(&buf, out); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["applied"] != float64(2) || got["edits"] != float64(3) {
		t.Errorf("json = %v", got)
	}
}

func TestPrintHistoryJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printHistoryJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("json = %q, want []", buf.String())
	}
}

func TestPrintRunDetailText(t *testing.T) {
	d := &runDetail{ID: "run-1", Changes: []changeDetail{
		{Change: core.StoredChange{DocumentID: "a.md", Status: core.StatusWritten},
			Edits: []core.Edit{{Position: 4, OriginalText: "X", ReplacementText: "[[X]]"}}},
		{Change: core.StoredChange{DocumentID: "b.md", Status: core.StatusFailed, Error: "read-only"}},
	}}
	var buf bytes.Buffer
	printRunDetailText(&buf, d)
	for _, want := range []string{
		"run run-1\n",
		"a.md (written)\n  4 \"X\" -> \"[[X]]\"\n",
		"b.md (failed)\n  error: read-only\n",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestProgressLine(t *testing.T) {
	p := core.NewProgress(2000).Advance(core.ScanEvent{Scanned: 1500, DocumentID: "x.md"})
	if got, want := progressLine(p), "scanning 1,500/2,000 documents (75%) x.md"; got != want {
		t.Errorf("progressLine = %q, want %q", got, want)
	}
}
