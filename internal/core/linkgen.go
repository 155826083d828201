package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	FormatWikilink = "wikilink"
	FormatMarkdown = "markdown"
)

// VaultLinks generates wikilinks or markdown links between vault notes.
// It implements LinkGenerator.
type VaultLinks struct {
	format         string
	basenameCounts map[string]int
}

// NewVaultLinks returns a generator for format. handles is the full vault
// listing, used to decide whether a basename link is unambiguous.
func NewVaultLinks(format string, handles []DocumentHandle) (*VaultLinks, error) {
	if format == "" {
		format = FormatWikilink
	}
	if format != FormatWikilink && format != FormatMarkdown {
		return nil, fmt.Errorf("invalid link format: %q (must be wikilink or markdown)", format)
	}
	counts := make(map[string]int, len(handles))
	for _, h := range handles {
		counts[basenameKey(h.ID)]++
	}
	return &VaultLinks{format: format, basenameCounts: counts}, nil
}

var _ LinkGenerator = (*VaultLinks)(nil)

// Generate returns link markup from source to target.
func (g *VaultLinks) Generate(target, source DocumentRef, display string) string {
	if g.format == FormatMarkdown {
		return g.markdown(target, source, display)
	}
	return g.wikilink(target, display)
}

// wikilink uses the bare basename when it is unique in the vault and the
// vault path without .md otherwise.
func (g *VaultLinks) wikilink(target DocumentRef, display string) string {
	linkTarget := buildRewritePath(target.ID)
	if g.basenameCounts[basenameKey(target.ID)] <= 1 {
		linkTarget = basename(target.ID)
	}
	if display != "" && display != linkTarget {
		return "[[" + linkTarget + "|" + display + "]]"
	}
	return "[[" + linkTarget + "]]"
}

// markdown links to the target path relative to the source directory.
func (g *VaultLinks) markdown(target, source DocumentRef, display string) string {
	text := display
	if text == "" {
		text = target.Title
	}
	rel, err := filepath.Rel(filepath.Dir(filepath.FromSlash(source.ID)), filepath.FromSlash(target.ID))
	if err != nil {
		rel = target.ID
	}
	return "[" + text + "](" + escapeLinkPath(filepath.ToSlash(rel)) + ")"
}

// buildRewritePath constructs the vault-relative link path for a target.
// Only .md extension is removed (e.g. "A.md" → "A", "image.png" → "image.png").
func buildRewritePath(targetPath string) string {
	if strings.HasSuffix(strings.ToLower(targetPath), ".md") {
		return targetPath[:len(targetPath)-3]
	}
	return targetPath
}

var linkPathEscaper = strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29")

func escapeLinkPath(p string) string {
	return linkPathEscaper.Replace(p)
}
