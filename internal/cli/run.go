package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/wizvis"
	"github.com/aretw0/wizvis/internal/presentation/tui"
)

// RunOptions contains all the configuration for the inspect command.
type RunOptions struct {
	// Path is the definition to open; empty starts with nothing loaded.
	Path string
	// DataPath overrides the definition's declared baseline.
	DataPath string
	Watch    bool
	// Debounce is how long watch waits for file events to settle.
	Debounce time.Duration
	Quiet    bool
	Color    bool
	In       io.Reader
	Out      io.Writer
	Logger   *slog.Logger
}

// Run opens the definition and drives an interactive session until the input
// ends, the user quits or a signal arrives.
func Run(parent context.Context, insp *wizvis.Inspector, opts RunOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	sigCtx := NewSignalContext(parent)
	defer sigCtx.Cancel()

	if !opts.Quiet {
		tui.PrintBanner(opts.Out, wizvis.Version)
	}

	if opts.Path != "" {
		if err := open(sigCtx, insp, opts.Path, opts.DataPath); err != nil {
			return fmt.Errorf("error opening %s: %w", opts.Path, err)
		}
	}

	if opts.Watch {
		watcher, err := NewDefinitionWatcher(insp, opts.Debounce, opts.Logger)
		if err != nil {
			return err
		}
		go watcher.Run(sigCtx, opts.Out)
	}

	session := NewSession(insp, opts.Out, WithColor(opts.Color))
	if insp.Loaded() {
		if err := session.Execute(sigCtx, "status"); err != nil {
			return err
		}
	} else if !opts.Quiet {
		printSystemMessage(opts.Out, "No definition loaded. Use 'open <file>' or 'help'.")
	}

	reader := NewInterruptibleReader(opts.In, sigCtx.Done())
	err := session.Run(sigCtx, reader)
	if sig := sigCtx.Signal(); sig != nil && !opts.Quiet {
		fmt.Fprintln(opts.Out)
		printSystemMessage(opts.Out, "Interrupted (%s).", sig)
	}
	return handleExecutionError(err)
}

// open loads path once, applying the data override when one is given.
func open(ctx context.Context, insp *wizvis.Inspector, path, dataPath string) error {
	if dataPath == "" {
		return insp.Open(ctx, path)
	}
	return insp.Open(ctx, path, wizvis.WithDataPath(dataPath))
}
