package core

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// lineSpan is one line of content with its byte offset.
type lineSpan struct {
	text  string
	start int
}

func splitLines(content string) []lineSpan {
	var out []lineSpan
	offset := 0
	for _, l := range strings.SplitAfter(content, "\n") {
		if l == "" {
			continue
		}
		out = append(out, lineSpan{text: l, start: offset})
		offset += len(l)
	}
	return out
}

// parseMetadata extracts frontmatter aliases and the byte spans that must
// never be proposed as references: frontmatter, fenced code, inline code,
// existing wikilinks and markdown links, and bare URLs.
func parseMetadata(content string) ([]string, []Range) {
	lines := splitLines(content)
	var ignored []Range
	var aliases []string

	startLine := 0
	if fmEnd := frontmatterEnd(lines); fmEnd > 0 {
		aliases = parseFrontmatterAliases(lines[1:fmEnd])
		end := lines[fmEnd].start + len(lines[fmEnd].text)
		ignored = append(ignored, Range{Start: 0, End: end})
		startLine = fmEnd + 1
	}

	fenceStart := -1
	for i := startLine; i < len(lines); i++ {
		ln := lines[i]
		trim := strings.TrimSpace(ln.text)
		if strings.HasPrefix(trim, "```") || strings.HasPrefix(trim, "~~~") {
			if fenceStart < 0 {
				fenceStart = ln.start
			} else {
				ignored = append(ignored, Range{Start: fenceStart, End: ln.start + len(ln.text)})
				fenceStart = -1
			}
			continue
		}
		if fenceStart >= 0 {
			continue
		}
		ignored = append(ignored, lineIgnores(ln.text, ln.start)...)
	}
	if fenceStart >= 0 {
		// Unclosed fence: the rest of the document is code.
		ignored = append(ignored, Range{Start: fenceStart, End: len(content)})
	}
	return aliases, mergeRanges(ignored)
}

// lineIgnores returns the ignored spans of a single non-fenced line.
func lineIgnores(line string, base int) []Range {
	var out []Range
	i := 0
	for i < len(line) {
		switch {
		case line[i] == '`':
			end := strings.IndexByte(line[i+1:], '`')
			if end < 0 {
				// No closing backtick: rest of line is code.
				out = append(out, Range{Start: base + i, End: base + len(line)})
				return out
			}
			next := i + 1 + end + 1
			out = append(out, Range{Start: base + i, End: base + next})
			i = next
		case strings.HasPrefix(line[i:], "[["):
			end := strings.Index(line[i+2:], "]]")
			if end < 0 {
				i += 2
				continue
			}
			next := i + 2 + end + 2
			out = append(out, Range{Start: base + i, End: base + next})
			i = next
		case line[i] == '[':
			next := markdownLinkEnd(line, i)
			if next < 0 {
				i++
				continue
			}
			out = append(out, Range{Start: base + i, End: base + next})
			i = next
		case isURL(line[i:]):
			next := i
			for next < len(line) && !isSpaceByte(line[next]) {
				next++
			}
			out = append(out, Range{Start: base + i, End: base + next})
			i = next
		default:
			i++
		}
	}
	return out
}

// markdownLinkEnd returns the index just past "[text](url)" starting at
// open, or -1 if there is no markdown link there.
func markdownLinkEnd(line string, open int) int {
	closeText := strings.IndexByte(line[open+1:], ']')
	if closeText < 0 {
		return -1
	}
	mid := open + 1 + closeText
	if mid+1 >= len(line) || line[mid+1] != '(' {
		return -1
	}
	closeURL := strings.IndexByte(line[mid+2:], ')')
	if closeURL < 0 {
		return -1
	}
	return mid + 2 + closeURL + 1
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// frontmatterEnd returns the line index of the closing "---" of frontmatter.
// Returns -1 if no valid frontmatter is found.
func frontmatterEnd(lines []lineSpan) int {
	if len(lines) == 0 || strings.TrimSpace(lines[0].text) != "---" {
		return -1
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i].text) == "---" {
			return i
		}
	}
	return -1
}

// parseFrontmatterAliases reads "aliases" (or "alias") from the YAML between
// the frontmatter markers. Sequences and comma-separated scalars are accepted.
func parseFrontmatterAliases(lines []lineSpan) []string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.text)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(b.String()), &doc); err != nil {
		return nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}
	for i := 0; i < len(mapping.Content)-1; i += 2 {
		key := mapping.Content[i]
		val := mapping.Content[i+1]
		if key.Value != "aliases" && key.Value != "alias" {
			continue
		}
		switch val.Kind {
		case yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind == yaml.ScalarNode {
					add(item.Value)
				}
			}
		case yaml.ScalarNode:
			for _, a := range strings.Split(val.Value, ",") {
				add(a)
			}
		}
	}
	return out
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}
