package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ryotapoi/mdlinker/internal/core"
)

func runUndo(args []string) error {
	fs := flag.NewFlagSet("undo", flag.ContinueOnError)
	vault := fs.String("vault", ".", "vault root directory")
	format := fs.String("format", "text", "output format (json or text)")
	run := fs.String("run", "", "run id or unique prefix (see history)")
	verbose := fs.Int("verbose", 0, "additional log verbosity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validateFormat(*format); err != nil {
		return err
	}
	if *run == "" {
		return fmt.Errorf("--run is required")
	}

	cfg, err := core.LoadConfig(*vault)
	if err != nil {
		return err
	}
	configureLogging(cfg.Log, *verbose)
	store, err := core.NewVaultStorage(*vault, nil)
	if err != nil {
		return err
	}
	hist, err := core.OpenHistory(*vault)
	if err != nil {
		return err
	}
	defer hist.Close()

	res, err := core.Undo(context.Background(), store, hist, *run)
	if err != nil {
		return err
	}
	switch *format {
	case "json":
		if err := printUndoJSON(os.Stdout, res); err != nil {
			return err
		}
	default:
		printUndoText(os.Stdout, res)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d documents could not be restored", len(res.Failed))
	}
	return nil
}
