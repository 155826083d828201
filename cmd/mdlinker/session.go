package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ryotapoi/mdlinker/internal/core"
	"github.com/tliron/commonlog"
)

// session bundles the collaborators every scanning command needs.
type session struct {
	cfg    core.Config
	store  *core.VaultStorage
	gen    *core.VaultLinks
	engine *core.AliasEngine
}

// openSession loads mdlinker.yaml and builds storage, link generator and
// matcher for vault. linkFormat overrides the configured format when set.
func openSession(vault, linkFormat string, verbose int) (*session, error) {
	cfg, err := core.LoadConfig(vault)
	if err != nil {
		return nil, err
	}
	if linkFormat != "" {
		cfg.Link.Format = linkFormat
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	configureLogging(cfg.Log, verbose)

	store, err := core.NewVaultStorage(vault, cfg.Scan.ExcludePaths)
	if err != nil {
		return nil, err
	}
	handles, err := store.ListDocuments(context.Background())
	if err != nil {
		return nil, err
	}
	gen, err := core.NewVaultLinks(cfg.Link.Format, handles)
	if err != nil {
		return nil, err
	}
	engine, err := core.NewAliasEngine(cfg.AliasOptions())
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, store: store, gen: gen, engine: engine}, nil
}

func configureLogging(cfg core.LogConfig, verbose int) {
	var path *string
	if cfg.File != "" {
		path = &cfg.File
	}
	commonlog.Configure(cfg.Verbosity+verbose, path)
}

func (s *session) workflow(opts ...core.Option) *core.Workflow {
	opts = append([]core.Option{core.WithWriteConcurrency(s.cfg.Write.Concurrency)}, opts...)
	return core.NewWorkflow(s.store, core.NewMatcherClient(s.engine), s.gen, opts...)
}

// scanVault starts w (single mode when file is set) and blocks until the
// scan resolved, drawing progress on stderr.
func scanVault(ctx context.Context, w *core.Workflow, file string) error {
	var err error
	if file != "" {
		err = w.StartSingle(ctx, file)
	} else {
		err = w.Start(ctx)
	}
	if err != nil {
		return err
	}

	stop := showProgress(w, os.Stderr)
	st, err := w.Wait(ctx, core.StateSelecting)
	stop()
	if err != nil {
		return err
	}
	if st != core.StateSelecting {
		return fmt.Errorf("scan: %w", w.Err())
	}
	return nil
}
