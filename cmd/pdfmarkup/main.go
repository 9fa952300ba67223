package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wudi/pdfmarkup/config"
	"github.com/wudi/pdfmarkup/observability"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"bake", "flatten annotations into a PDF", runBake},
	{"import", "store an annotation export", runImport},
	{"toc", "embed a table of contents", runTOC},
	{"split", "extract a page range", runSplit},
	{"protect", "password-protect a PDF with qpdf", runProtect},
	{"images", "convert images to a PDF", runImages},
	{"id", "print the document id of a file", runID},
	{"serve", "serve the protection endpoint", runServe},
}

// env is the process-wide state shared by every command.
type env struct {
	cfg    config.Config
	logger observability.Logger
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cfg := config.Load()
	logger, err := observability.NewLogrusWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfmarkup: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(ctx, &env{cfg: cfg, logger: logger}, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "pdfmarkup %s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: pdfmarkup <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
}
