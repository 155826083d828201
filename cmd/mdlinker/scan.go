package main

import (
	"context"
	"flag"
	"os"
)

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	vault := fs.String("vault", ".", "vault root directory")
	format := fs.String("format", "text", "output format (json or text)")
	file := fs.String("file", "", "scan only this document against the vault")
	verbose := fs.Int("verbose", 0, "additional log verbosity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validateFormat(*format); err != nil {
		return err
	}

	s, err := openSession(*vault, "", *verbose)
	if err != nil {
		return err
	}
	ctx := context.Background()
	w := s.workflow()
	if err := scanVault(ctx, w, *file); err != nil {
		return err
	}
	results, err := w.Results()
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		return printResultsJSON(os.Stdout, results)
	default:
		printResultsText(os.Stdout, results)
		return nil
	}
}
