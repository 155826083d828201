package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	_ "github.com/tliron/commonlog/simple"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scan":
		err = runScan(os.Args[2:])
	case "link":
		err = runLink(os.Args[2:])
	case "history":
		err = runHistory(os.Args[2:])
	case "undo":
		err = runUndo(os.Args[2:])
	case "--version":
		printVersion(os.Stdout)
		return
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	v := version
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	fmt.Fprintf(w, "mdlinker version %s\n", v)
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: mdlinker <command> [options]

Link Commands:
  scan     Find unlinked mentions of other notes
  link     Scan, select candidates and rewrite mentions as links

Run Commands:
  history  List recorded link runs
  undo     Restore the documents changed by a run

Run 'mdlinker <command> --help' for command-specific help.
Use 'mdlinker --version' for version information.
`)
}
