package main

import (
	"context"
	"flag"
	"os"

	"github.com/ryotapoi/mdlinker/internal/core"
)

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	vault := fs.String("vault", ".", "vault root directory")
	format := fs.String("format", "text", "output format (json or text)")
	run := fs.String("run", "", "list the edits of one run (id or unique prefix)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validateFormat(*format); err != nil {
		return err
	}

	hist, err := core.OpenHistory(*vault)
	if err != nil {
		return err
	}
	defer hist.Close()

	ctx := context.Background()
	if *run != "" {
		detail, err := loadRunDetail(ctx, hist, *run)
		if err != nil {
			return err
		}
		switch *format {
		case "json":
			return printRunDetailJSON(os.Stdout, detail)
		default:
			printRunDetailText(os.Stdout, detail)
			return nil
		}
	}

	runs, err := hist.Runs(ctx)
	if err != nil {
		return err
	}
	switch *format {
	case "json":
		return printHistoryJSON(os.Stdout, runs)
	default:
		printHistoryText(os.Stdout, runs)
		return nil
	}
}

// runDetail is one run with the recorded edits of each changed document.
type runDetail struct {
	ID      string
	Changes []changeDetail
}

type changeDetail struct {
	Change core.StoredChange
	Edits  []core.Edit
}

func loadRunDetail(ctx context.Context, hist *core.History, prefix string) (*runDetail, error) {
	id, err := hist.ResolveRunID(ctx, prefix)
	if err != nil {
		return nil, err
	}
	changes, err := hist.Changes(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &runDetail{ID: id}
	for _, ch := range changes {
		edits, err := hist.Edits(ctx, ch.ID)
		if err != nil {
			return nil, err
		}
		d.Changes = append(d.Changes, changeDetail{Change: ch, Edits: edits})
	}
	return d, nil
}
