package core

import "testing"

func TestVaultLinksWikilink(t *testing.T) {
	handles := []DocumentHandle{{ID: "A.md"}, {ID: "sub/B.md"}, {ID: "x/Dup.md"}, {ID: "y/Dup.md"}}
	g, err := NewVaultLinks("", handles)
	if err != nil {
		t.Fatal(err)
	}
	src := DocumentRef{ID: "A.md", Title: "A"}

	tests := []struct {
		target  DocumentRef
		display string
		want    string
	}{
		{DocumentRef{ID: "sub/B.md", Title: "B"}, "", "[[B]]"},
		{DocumentRef{ID: "sub/B.md", Title: "B"}, "bee", "[[B|bee]]"},
		{DocumentRef{ID: "x/Dup.md", Title: "Dup"}, "", "[[x/Dup]]"},
		{DocumentRef{ID: "y/Dup.md", Title: "Dup"}, "dupe", "[[y/Dup|dupe]]"},
	}
	for _, tt := range tests {
		if got := g.Generate(tt.target, src, tt.display); got != tt.want {
			t.Errorf("Generate(%s, %q) = %q, want %q", tt.target.ID, tt.display, got, tt.want)
		}
	}
}

func TestVaultLinksMarkdown(t *testing.T) {
	g, err := NewVaultLinks(FormatMarkdown, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := g.Generate(DocumentRef{ID: "notes/My Note.md", Title: "My Note"}, DocumentRef{ID: "daily/today.md"}, "")
	if want := "[My Note](../notes/My%20Note.md)"; got != want {
		t.Errorf("Generate = %q, want %q", got, want)
	}
	got = g.Generate(DocumentRef{ID: "B (old).md", Title: "B (old)"}, DocumentRef{ID: "A.md"}, "b")
	if want := "[b](B%20%28old%29.md)"; got != want {
		t.Errorf("Generate = %q, want %q", got, want)
	}
}

func TestVaultLinksInvalidFormat(t *testing.T) {
	if _, err := NewVaultLinks("html", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
