package core

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"A.md", "A.md"},
		{"./A.md", "A.md"},
		{"sub/../B.md", "B.md"},
		{"sub//C.md", "sub/C.md"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.input); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBasename(t *testing.T) {
	tests := []struct {
		input, want, key string
	}{
		{"A.md", "A", "a"},
		{"sub/Project Atlas.md", "Project Atlas", "project atlas"},
		{"sub/Note.MD", "Note", "note"},
		{"v1.2.md", "v1.2", "v1.2"},
	}
	for _, tt := range tests {
		if got := basename(tt.input); got != tt.want {
			t.Errorf("basename(%q) = %q, want %q", tt.input, got, tt.want)
		}
		if got := basenameKey(tt.input); got != tt.key {
			t.Errorf("basenameKey(%q) = %q, want %q", tt.input, got, tt.key)
		}
	}
}
