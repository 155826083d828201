package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ryotapoi/mdlinker/internal/core"
)

// validateFormat checks that format is "json" or "text".
func validateFormat(format string) error {
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %q (must be json or text)", format)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Scan output ---

func printResultsJSON(w io.Writer, results []*core.DocumentResult) error {
	docs := make([]map[string]any, 0, len(results))
	for _, r := range results {
		refs := make([]map[string]any, 0, len(r.References))
		for _, ref := range r.References {
			cands := make([]map[string]any, 0, len(ref.Candidates))
			for _, c := range ref.Candidates {
				opts := make([]string, 0, len(c.Options))
				for _, o := range c.Options {
					opts = append(opts, o.DisplayText)
				}
				cands = append(cands, map[string]any{
					"target":  c.TargetID,
					"title":   c.TargetTitle,
					"options": opts,
				})
			}
			refs = append(refs, map[string]any{
				"text":       ref.MatchedText,
				"position":   ref.Position,
				"context":    ref.Context,
				"candidates": cands,
			})
		}
		docs = append(docs, map[string]any{
			"path":       r.Document.ID,
			"references": refs,
		})
	}
	return writeJSON(w, docs)
}

// printResultsText numbers candidates and options from 1, matching --select.
func printResultsText(w io.Writer, results []*core.DocumentResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no references found")
		return
	}
	total := 0
	for _, r := range results {
		fmt.Fprintf(w, "%s\n", r.Document.ID)
		for _, ref := range r.References {
			total++
			fmt.Fprintf(w, "  %d %q: %s\n", ref.Position, ref.MatchedText, ref.Context)
			for ci, c := range ref.Candidates {
				for oi, o := range c.Options {
					fmt.Fprintf(w, "    %d:%d %s as %q\n", ci+1, oi+1, c.TargetID, o.DisplayText)
				}
			}
		}
	}
	fmt.Fprintf(w, "%s references in %s documents\n",
		humanize.Comma(int64(total)), humanize.Comma(int64(len(results))))
}

// --- Change set output (dry run) ---

func sortedOps(ops map[string]*core.ChangeOperation) []*core.ChangeOperation {
	out := make([]*core.ChangeOperation, 0, len(ops))
	for _, op := range ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out
}

func printChangeSetJSON(w io.Writer, ops map[string]*core.ChangeOperation) error {
	docs := make([]map[string]any, 0, len(ops))
	for _, op := range sortedOps(ops) {
		edits := make([]map[string]any, 0, len(op.Edits))
		for _, e := range op.Edits {
			edits = append(edits, map[string]any{
				"position": e.Position,
				"from":     e.OriginalText,
				"to":       e.ReplacementText,
				"target":   e.TargetID,
			})
		}
		m := map[string]any{
			"path":  op.DocumentID,
			"edits": edits,
		}
		if len(op.Dropped) > 0 {
			dropped := make([]map[string]any, 0, len(op.Dropped))
			for _, d := range op.Dropped {
				dropped = append(dropped, map[string]any{
					"position": d.Position,
					"target":   d.TargetID,
					"display":  d.DisplayText,
				})
			}
			m["dropped"] = dropped
		}
		docs = append(docs, m)
	}
	return writeJSON(w, docs)
}

func printChangeSetText(w io.Writer, ops map[string]*core.ChangeOperation) {
	if len(ops) == 0 {
		fmt.Fprintln(w, "no changes")
		return
	}
	for _, op := range sortedOps(ops) {
		fmt.Fprintf(w, "%s\n", op.DocumentID)
		for _, e := range op.Edits {
			fmt.Fprintf(w, "  %d %q -> %q\n", e.Position, e.OriginalText, e.ReplacementText)
		}
		for _, d := range op.Dropped {
			fmt.Fprintf(w, "  %d dropped %s as %q (reference already linked)\n", d.Position, d.TargetID, d.DisplayText)
		}
	}
	fmt.Fprintf(w, "%s edits in %s documents (dry run)\n",
		humanize.Comma(int64(core.EditCount(ops))), humanize.Comma(int64(len(ops))))
}

// --- Outcome output ---

func printOutcomeJSON(w io.Writer, out *core.Outcome) error {
	docs := make([]map[string]any, 0, len(out.Documents))
	for _, d := range out.Documents {
		m := map[string]any{
			"path":  d.DocumentID,
			"edits": d.Edits,
		}
		if d.Err != nil {
			m["error"] = d.Err.Error()
		}
		docs = append(docs, m)
	}
	return writeJSON(w, map[string]any{
		"run":       out.RunID,
		"edits":     out.Edits,
		"applied":   out.AppliedEdits(),
		"documents": docs,
	})
}

func printOutcomeText(w io.Writer, out *core.Outcome) {
	for _, d := range out.Failed() {
		fmt.Fprintf(w, "failed: %s: %v\n", d.DocumentID, d.Err)
	}
	fmt.Fprintf(w, "linked %s of %s mentions in %s documents (run %s)\n",
		humanize.Comma(int64(out.AppliedEdits())), humanize.Comma(int64(out.Edits)),
		humanize.Comma(int64(len(out.Succeeded()))), out.RunID)
}

// --- History output ---

func printHistoryJSON(w io.Writer, runs []core.RunSummary) error {
	if runs == nil {
		runs = []core.RunSummary{}
	}
	return writeJSON(w, runs)
}

func printHistoryText(w io.Writer, runs []core.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-6s  %s  %d documents, %d edits",
			r.ID, r.Mode, humanize.Time(time.Unix(r.StartedAt, 0)), r.Documents, r.Edits)
		if r.Failed > 0 {
			fmt.Fprintf(w, ", %d failed", r.Failed)
		}
		if r.Reverted > 0 {
			fmt.Fprintf(w, ", %d reverted", r.Reverted)
		}
		fmt.Fprintln(w)
	}
}

func printRunDetailJSON(w io.Writer, d *runDetail) error {
	docs := make([]map[string]any, 0, len(d.Changes))
	for _, ch := range d.Changes {
		edits := make([]map[string]any, 0, len(ch.Edits))
		for _, e := range ch.Edits {
			edits = append(edits, map[string]any{
				"position": e.Position,
				"from":     e.OriginalText,
				"to":       e.ReplacementText,
				"target":   e.TargetID,
			})
		}
		m := map[string]any{
			"path":   ch.Change.DocumentID,
			"status": ch.Change.Status,
			"edits":  edits,
		}
		if ch.Change.Error != "" {
			m["error"] = ch.Change.Error
		}
		docs = append(docs, m)
	}
	return writeJSON(w, map[string]any{
		"run":       d.ID,
		"documents": docs,
	})
}

func printRunDetailText(w io.Writer, d *runDetail) {
	fmt.Fprintf(w, "run %s\n", d.ID)
	for _, ch := range d.Changes {
		fmt.Fprintf(w, "%s (%s)\n", ch.Change.DocumentID, ch.Change.Status)
		if ch.Change.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", ch.Change.Error)
		}
		for _, e := range ch.Edits {
			fmt.Fprintf(w, "  %d %q -> %q\n", e.Position, e.OriginalText, e.ReplacementText)
		}
	}
}

// --- Undo output ---

func printUndoJSON(w io.Writer, res *core.UndoResult) error {
	failed := make([]map[string]any, 0, len(res.Failed))
	for _, f := range res.Failed {
		failed = append(failed, map[string]any{"path": f.DocumentID, "error": f.Err.Error()})
	}
	return writeJSON(w, map[string]any{
		"run":       res.RunID,
		"restored":  nonNil(res.Restored),
		"conflicts": nonNil(res.Conflicts),
		"skipped":   nonNil(res.Skipped),
		"failed":    failed,
	})
}

func printUndoText(w io.Writer, res *core.UndoResult) {
	for _, p := range res.Restored {
		fmt.Fprintf(w, "restored: %s\n", p)
	}
	for _, p := range res.Conflicts {
		fmt.Fprintf(w, "conflict: %s (changed since the run)\n", p)
	}
	for _, f := range res.Failed {
		fmt.Fprintf(w, "failed: %s: %v\n", f.DocumentID, f.Err)
	}
	fmt.Fprintf(w, "restored %d documents from run %s\n", len(res.Restored), res.RunID)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
