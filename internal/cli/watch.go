package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/zshscan/zshscan/internal/suggest"
	"github.com/zshscan/zshscan/runtime/driver"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Rescan a file incrementally on every write, resuming from serialized scanner state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, args[0])
		},
	}
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	fs := driver.ScanFile(src)
	printTokens(cmd, src, fs.Tokens)
	reportPendingHeredocs(cmd, src, fs)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: editors that write via
	// rename-and-replace would otherwise drop the watch after the first
	// save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	// fsnotify delivers events on its own goroutine's channel; this loop is
	// the single goroutine that owns the scan state.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evAbs, err := filepath.Abs(ev.Name)
			if err != nil || evAbs != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			next, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "read %s: %v\n", path, err)
				continue
			}
			rescanned, suffix := fs.Rescan(next)
			fs = rescanned
			printTokens(cmd, next, suffix)
			reportPendingHeredocs(cmd, next, fs)
		}
	}
}

// reportPendingHeredocs warns about heredocs whose end delimiter never
// appeared, suggesting the closest identifier in the file as the word the
// author likely meant.
func reportPendingHeredocs(cmd *cobra.Command, src []byte, fs *driver.FileScan) {
	if len(fs.PendingHeredocs) == 0 {
		return
	}
	words := suggest.Words(src)
	for _, delim := range fs.PendingHeredocs {
		msg := fmt.Sprintf("warning: heredoc %q not terminated before end of file", delim)
		candidates := words[:0:0]
		for _, w := range words {
			if w != delim {
				candidates = append(candidates, w)
			}
		}
		if nearest := suggest.Nearest(delim, candidates); nearest != "" {
			msg += fmt.Sprintf("; did you mean %q?", nearest)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	}
}
