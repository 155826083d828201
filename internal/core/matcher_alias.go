package core

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

const contextRadius = 40

// AliasOptions configures AliasEngine.
type AliasOptions struct {
	Workers    int
	IgnoreCase bool
	MinLength  int // titles and aliases shorter than this never match
	CacheSize  int // compiled target patterns kept in memory
}

// AliasEngine finds mentions of a document's title or aliases in the text
// of other documents. It implements Engine.
type AliasEngine struct {
	opts     AliasOptions
	patterns *lru.Cache[string, *regexp.Regexp]
}

// NewAliasEngine returns an engine with defaults filled in.
func NewAliasEngine(opts AliasOptions) (*AliasEngine, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MinLength <= 0 {
		opts.MinLength = 1
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 512
	}
	cache, err := lru.New[string, *regexp.Regexp](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &AliasEngine{opts: opts, patterns: cache}, nil
}

var _ Engine = (*AliasEngine)(nil)

// Match scans the focus document (single mode) or every document (corpus
// mode) against all other documents.
func (e *AliasEngine) Match(ctx context.Context, req Request, progress func(ScanEvent)) ([][]byte, error) {
	focus, docs, err := decodeRequest(req)
	if err != nil {
		return nil, err
	}
	sources := docs
	if focus != nil {
		sources = []Document{*focus}
	}

	out := make([][]byte, len(sources))
	var scanned atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range sources {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := sources[i]
			res, err := e.scanDocument(src, docs)
			if err != nil {
				return fmt.Errorf("%s: %w", src.ID, err)
			}
			if len(res.References) > 0 {
				b, err := json.Marshal(res)
				if err != nil {
					return fmt.Errorf("%s: %w", src.ID, err)
				}
				out[i] = b
			}
			progress(ScanEvent{Scanned: int(scanned.Add(1)), DocumentID: src.ID})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := out[:0]
	for _, b := range out {
		if b != nil {
			results = append(results, b)
		}
	}
	return results, nil
}

type hit struct {
	start, end int
	target     Document
}

func (e *AliasEngine) scanDocument(src Document, targets []Document) (wireResult, error) {
	res := wireResult{Document: wireDocument{ID: src.ID, Title: src.Title, Content: []byte(src.Content)}}

	var hits []hit
	for _, target := range targets {
		if e.sameTitle(target.Title, src.Title) {
			continue
		}
		re, err := e.pattern(target)
		if err != nil {
			return res, err
		}
		if re == nil {
			continue
		}
		for _, loc := range boundedMatches(re, src.Content) {
			if src.IsIgnored(loc[0], loc[1]) {
				continue
			}
			hits = append(hits, hit{start: loc[0], end: loc[1], target: target})
		}
	}

	// Leftmost-longest wins; hits on the identical span become extra
	// candidates of one reference, everything else overlapping is dropped.
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end > b.end
		}
		return a.target.ID < b.target.ID
	})
	lastEnd := -1
	var cur *wireReference
	for _, h := range hits {
		if cur != nil && h.start == cur.Position && h.end == cur.Position+len(cur.MatchedText) {
			if cur.Candidates[len(cur.Candidates)-1].TargetID != h.target.ID {
				cur.Candidates = append(cur.Candidates, candidateFor(h.target, cur.MatchedText))
			}
			continue
		}
		if h.start < lastEnd {
			continue
		}
		matched := src.Content[h.start:h.end]
		res.References = append(res.References, wireReference{
			MatchedText: matched,
			Position:    h.start,
			Context:     contextAround(src.Content, h.start, h.end),
			Candidates:  []wireCandidate{candidateFor(h.target, matched)},
		})
		cur = &res.References[len(res.References)-1]
		lastEnd = h.end
	}
	return res, nil
}

func candidateFor(target Document, matched string) wireCandidate {
	c := wireCandidate{TargetID: target.ID, TargetTitle: target.Title}
	c.Options = append(c.Options, wireOption{DisplayText: matched})
	if target.Title != matched {
		c.Options = append(c.Options, wireOption{DisplayText: target.Title})
	}
	return c
}

// pattern returns the compiled alternation of target's title and aliases,
// or nil when none is long enough to match.
func (e *AliasEngine) pattern(target Document) (*regexp.Regexp, error) {
	terms := e.terms(target)
	if len(terms) == 0 {
		return nil, nil
	}
	key := target.ID + "\x00" + strings.Join(terms, "\x00")
	if re, ok := e.patterns.Get(key); ok {
		return re, nil
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	expr := "(?:" + strings.Join(quoted, "|") + ")"
	if e.opts.IgnoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("pattern for %s: %w", target.ID, err)
	}
	e.patterns.Add(key, re)
	return re, nil
}

// terms lists title and aliases, longest first so the alternation prefers
// the longest name at a given position.
func (e *AliasEngine) terms(target Document) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range append([]string{target.Title}, target.Aliases...) {
		t = strings.TrimSpace(t)
		if utf8.RuneCountInString(t) < e.opts.MinLength || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// sameTitle reports whether a target is the source itself by name. Notes
// sharing a title never link to each other.
func (e *AliasEngine) sameTitle(a, b string) bool {
	if e.opts.IgnoreCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// boundedMatches returns the non-overlapping word-bounded matches of re in
// s. When the match at a position is glued to a word, shorter alternatives
// starting there are tried before moving on.
func boundedMatches(re *regexp.Regexp, s string) [][2]int {
	var out [][2]int
	pos := 0
	for pos < len(s) {
		loc := re.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		for end > start && !isWordBounded(s, start, end) {
			end = shorterMatch(re, s, start, end)
		}
		if end == start {
			_, size := utf8.DecodeRuneInString(s[start:])
			pos = start + size
			continue
		}
		out = append(out, [2]int{start, end})
		pos = end
	}
	return out
}

// shorterMatch returns the end of the longest match of re starting at start
// and ending before end, or start when there is none.
func shorterMatch(re *regexp.Regexp, s string, start, end int) int {
	if end-1 <= start {
		return start
	}
	loc := re.FindStringIndex(s[start : end-1])
	if loc == nil || loc[0] != 0 {
		return start
	}
	return start + loc[1]
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isWordBounded reports whether [start, end) is not glued to a word
// character on either side. Unlike regexp's \b it understands non-ASCII text.
func isWordBounded(s string, start, end int) bool {
	if start > 0 {
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		first, _ := utf8.DecodeRuneInString(s[start:])
		if isWordRune(before) && isWordRune(first) {
			return false
		}
	}
	if end < len(s) {
		last, _ := utf8.DecodeLastRuneInString(s[:end])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(last) && isWordRune(after) {
			return false
		}
	}
	return true
}

// contextAround returns the line holding [start, end), cut to a window of
// contextRadius bytes on each side at rune boundaries.
func contextAround(s string, start, end int) string {
	from := strings.LastIndexByte(s[:start], '\n') + 1
	to := len(s)
	if i := strings.IndexByte(s[end:], '\n'); i >= 0 {
		to = end + i
	}
	if start-from > contextRadius {
		from = start - contextRadius
		for from < start && !utf8.RuneStart(s[from]) {
			from++
		}
	}
	if to-end > contextRadius {
		to = end + contextRadius
		for to > end && !utf8.RuneStart(s[to]) {
			to--
		}
	}
	return strings.TrimSpace(s[from:to])
}
