// Command trowser is the CLI entry point for the log browser: it parses
// the head/tail buffering flags, an optional alternate config file, and
// the single positional source argument, then drives a Context through
// its initial load. It has no interactive UI of its own — per spec.md,
// window chrome and dialogs are out of scope; this binary exercises the
// core engine headlessly, the way the teacher's cmd/lci/main.go drives
// its indexer from flags before handing off to a server loop.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/trowser/internal/app"
	"github.com/standardbeagle/trowser/internal/config"
	"github.com/standardbeagle/trowser/internal/pipeloader"
	"github.com/standardbeagle/trowser/internal/trowser"
	"github.com/standardbeagle/trowser/internal/version"
)

func main() {
	cliApp := &cli.App{
		Name:                   "trowser",
		Usage:                  "browse, search, filter and bookmark large line-oriented text files",
		Version:                version.Version,
		UseShortOptionHandling: true,
		ArgsUsage:              "<file|->",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tail",
				Aliases: []string{"t"},
				Usage:   "keep the last N bytes (tail buffering)",
			},
			&cli.StringFlag{
				Name:    "head",
				Aliases: []string{"h"},
				Usage:   "keep the first N bytes (head buffering, default 20 MiB)",
			},
			&cli.StringFlag{
				Name:    "rcfile",
				Aliases: []string{"r"},
				Usage:   "alternate configuration file",
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "trowser:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		cli.ShowAppHelp(c)
		os.Exit(1)
	}
	source := c.Args().Get(0)

	mode, capacity, err := parseBufferFlags(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, "trowser:", err)
		os.Exit(1)
	}

	configPath := c.String("rcfile")
	if configPath == "" {
		configPath = app.DefaultConfigPath()
	}
	cfg := config.Load(configPath)
	if capacity > 0 {
		cfg.SetBufferCapacity(capacity)
	}

	incrementalFmt := trowser.FormatSpec{}
	log := slog.Default()

	ctx := app.New(cfg, configPath, incrementalFmt, log)
	if err := ctx.Reload(source, mode, cfg.BufferCapacity()); err != nil {
		return fmt.Errorf("load %s: %w", source, err)
	}

	for !ctx.Loader.Done() {
		ctx.Loader.Step()
		for ctx.Sched.Pending() > 0 {
			ctx.Sched.RunOne()
		}
	}
	ctx.Doc.AppendLines(splitLines(ctx.Loader.LoadedData(true)))

	ctx.SaveConfig()
	return nil
}

// parseBufferFlags resolves -t/-h into a pipeloader.Mode and byte
// capacity, per spec.md §6: "No options -> head mode with default cap."
// and "Bad option or unparseable numeric argument: print message and
// exit 1."
func parseBufferFlags(c *cli.Context) (pipeloader.Mode, int64, error) {
	tail := c.String("tail")
	head := c.String("head")

	if tail != "" && head != "" {
		return 0, 0, fmt.Errorf("-t/--tail and -h/--head are mutually exclusive")
	}
	if tail != "" {
		n, err := strconv.ParseInt(tail, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --tail value %q: %w", tail, err)
		}
		return pipeloader.ModeTail, n, nil
	}
	if head != "" {
		n, err := strconv.ParseInt(head, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --head value %q: %w", head, err)
		}
		return pipeloader.ModeHead, n, nil
	}
	return pipeloader.ModeHead, config.DefaultHeadCapacity, nil
}

// splitLines splits data on '\n', matching AppendLines's "already split
// on the terminator" contract. A trailing unterminated fragment (common
// when a capacity cap cuts a stream mid-line) is kept as a final block.
func splitLines(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
