package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ryotapoi/mdlinker/internal/core"
)

// selection is one parsed --select value. Candidate and Option are 1-based
// as printed by scan.
type selection struct {
	Path      string
	Position  int
	Candidate int
	Option    int
}

// parseSelection parses path:position:candidate:option. The path may itself
// contain colons; the last three fields are numbers.
func parseSelection(raw string) (selection, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 4 {
		return selection{}, fmt.Errorf("invalid --select %q (want path:position:candidate:option)", raw)
	}
	n := len(parts)
	nums := make([]int, 3)
	for i, p := range parts[n-3:] {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return selection{}, fmt.Errorf("invalid --select %q: %q is not a non-negative number", raw, p)
		}
		nums[i] = v
	}
	if nums[1] < 1 || nums[2] < 1 {
		return selection{}, fmt.Errorf("invalid --select %q: candidate and option start at 1", raw)
	}
	path := strings.Join(parts[:n-3], ":")
	if path == "" {
		return selection{}, fmt.Errorf("invalid --select %q: empty path", raw)
	}
	return selection{Path: core.NormalizePath(path), Position: nums[0], Candidate: nums[1], Option: nums[2]}, nil
}

// applySelections marks each selected option. An unknown document,
// reference, candidate or option is an error.
func applySelections(results []*core.DocumentResult, sels []selection) error {
	byID := make(map[string]*core.DocumentResult, len(results))
	for _, r := range results {
		byID[r.Document.ID] = r
	}
	for _, s := range sels {
		r, ok := byID[s.Path]
		if !ok {
			return fmt.Errorf("no references found in %s", s.Path)
		}
		ref := r.Find(s.Position)
		if ref == nil {
			return fmt.Errorf("%s: no reference at position %d", s.Path, s.Position)
		}
		if s.Candidate > len(ref.Candidates) {
			return fmt.Errorf("%s:%d: candidate %d out of range (1-%d)", s.Path, s.Position, s.Candidate, len(ref.Candidates))
		}
		cand := ref.Candidates[s.Candidate-1]
		if s.Option > len(cand.Options) {
			return fmt.Errorf("%s:%d: option %d out of range (1-%d)", s.Path, s.Position, s.Option, len(cand.Options))
		}
		if opt := cand.Options[s.Option-1]; !opt.Selected() {
			opt.ToggleSelected()
		}
	}
	return nil
}

// acceptAll selects the first option of the first candidate of every reference.
func acceptAll(results []*core.DocumentResult) {
	for _, r := range results {
		for _, ref := range r.References {
			if len(ref.Candidates) == 0 || len(ref.Candidates[0].Options) == 0 {
				continue
			}
			if opt := ref.Candidates[0].Options[0]; !opt.Selected() {
				opt.ToggleSelected()
			}
		}
	}
}

func selectedTotal(results []*core.DocumentResult) int {
	n := 0
	for _, r := range results {
		n += r.SelectedCount()
	}
	return n
}

type choice struct {
	cand *core.CandidateTarget
	opt  *core.SelectionOption
}

// promptSelections asks for one choice per reference. An empty answer
// skips the reference and "q" skips everything left.
func promptSelections(in io.Reader, out io.Writer, results []*core.DocumentResult) error {
	sc := bufio.NewScanner(in)
	for _, r := range results {
		for _, ref := range r.References {
			var choices []choice
			for _, c := range ref.Candidates {
				for _, o := range c.Options {
					choices = append(choices, choice{cand: c, opt: o})
				}
			}
			if len(choices) == 0 {
				continue
			}
			fmt.Fprintf(out, "\n%s:%d  %q\n  %s\n", r.Document.ID, ref.Position, ref.MatchedText, ref.Context)
			for i, ch := range choices {
				fmt.Fprintf(out, "  %d) %s as %q\n", i+1, ch.cand.TargetID, ch.opt.DisplayText)
			}

			for {
				fmt.Fprintf(out, "link [1-%d, enter to skip, q to quit]: ", len(choices))
				if !sc.Scan() {
					return sc.Err()
				}
				answer := strings.TrimSpace(sc.Text())
				if answer == "" {
					break
				}
				if answer == "q" {
					return nil
				}
				i, err := strconv.Atoi(answer)
				if err != nil || i < 1 || i > len(choices) {
					fmt.Fprintf(out, "invalid choice: %s\n", answer)
					continue
				}
				if opt := choices[i-1].opt; !opt.Selected() {
					opt.ToggleSelected()
				}
				break
			}
		}
	}
	return nil
}
