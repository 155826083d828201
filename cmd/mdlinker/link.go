package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/ryotapoi/mdlinker/internal/core"
)

func runLink(args []string) error {
	fs := flag.NewFlagSet("link", flag.ContinueOnError)
	vault := fs.String("vault", ".", "vault root directory")
	format := fs.String("format", "text", "output format (json or text)")
	file := fs.String("file", "", "link only this document against the vault")
	linkFormat := fs.String("link-format", "", "link markup (wikilink or markdown); overrides mdlinker.yaml")
	all := fs.Bool("accept-all", false, "accept the first option of the first candidate of every reference")
	interactive := fs.Bool("interactive", false, "choose an option for every reference on stdin")
	dryRun := fs.Bool("dry-run", false, "print the change set without writing")
	noHistory := fs.Bool("no-history", false, "do not record the run for undo")
	verbose := fs.Int("verbose", 0, "additional log verbosity")
	var selects multiString
	fs.Var(&selects, "select", "accept path:position:candidate:option (repeatable, candidate and option start at 1)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validateFormat(*format); err != nil {
		return err
	}

	modes := 0
	for _, on := range []bool{*all, *interactive, len(selects) > 0} {
		if on {
			modes++
		}
	}
	if modes != 1 {
		return fmt.Errorf("exactly one of --accept-all, --interactive or --select is required")
	}
	sels := make([]selection, 0, len(selects))
	for _, raw := range selects {
		s, err := parseSelection(raw)
		if err != nil {
			return err
		}
		sels = append(sels, s)
	}

	s, err := openSession(*vault, *linkFormat, *verbose)
	if err != nil {
		return err
	}
	var opts []core.Option
	if !*dryRun && !*noHistory {
		hist, err := core.OpenHistory(*vault)
		if err != nil {
			return err
		}
		defer hist.Close()
		opts = append(opts, core.WithRecorder(hist))
	}

	ctx := context.Background()
	w := s.workflow(opts...)
	if err := scanVault(ctx, w, *file); err != nil {
		return err
	}
	results, err := w.Results()
	if err != nil {
		return err
	}

	switch {
	case *all:
		acceptAll(results)
	case *interactive:
		if err := promptSelections(os.Stdin, os.Stderr, results); err != nil {
			return err
		}
	default:
		if err := applySelections(results, sels); err != nil {
			return err
		}
	}
	if *format == "text" {
		fmt.Fprintf(os.Stderr, "%s mentions selected\n", humanize.Comma(int64(selectedTotal(results))))
	}

	if *dryRun {
		ops := core.BuildChangeSet(results, s.gen)
		switch *format {
		case "json":
			return printChangeSetJSON(os.Stdout, ops)
		default:
			printChangeSetText(os.Stdout, ops)
			return nil
		}
	}

	if err := w.Commit(ctx); err != nil {
		return err
	}
	if _, err := w.Wait(ctx, core.StateFinished); err != nil {
		return err
	}
	out := w.Outcome()
	switch *format {
	case "json":
		if err := printOutcomeJSON(os.Stdout, out); err != nil {
			return err
		}
	default:
		printOutcomeText(os.Stdout, out)
	}
	if failed := out.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d documents were not written", len(failed), len(out.Documents))
	}
	return nil
}
