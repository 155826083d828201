package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/ryotapoi/mdlinker/internal/core"
)

// showProgress redraws a one-line scan counter on out until the returned
// stop func is called. Nothing is drawn when out is not a terminal.
func showProgress(w *core.Workflow, out *os.File) (stop func()) {
	fd := out.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return func() {}
	}
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			changed := w.Changed()
			fmt.Fprintf(out, "\r\033[K%s", progressLine(w.Progress()))
			select {
			case <-changed:
			case <-done:
				fmt.Fprint(out, "\r\033[K")
				return
			}
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

func progressLine(p core.Progress) string {
	line := fmt.Sprintf("scanning %s/%s documents (%.0f%%)",
		humanize.Comma(int64(p.Scanned)), humanize.Comma(int64(p.Total)), p.Fraction()*100)
	if p.Last != "" {
		line += " " + p.Last
	}
	return line
}
