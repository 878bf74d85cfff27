package cli

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/pkg/validation"
)

// ValidateOptions carries the validate command's flags.
type ValidateOptions struct {
	LibraryPath string
	Flows       []string // names to check; empty checks the whole library
	JSON        bool     // machine readable summaries on stdout
	Plain       bool     // plain text report instead of markdown
	Watch       bool     // stay up and revalidate on changes
	Debug       bool
	Programs    string
}

// ErrValidationFailed reports findings at error severity or worse. The
// report was already rendered, so commands translate this into an exit
// code without printing it again.
var ErrValidationFailed = errors.New("validation failed")

// Validate analyzes flows and renders the findings. In watch mode it
// stays up and revalidates whenever the library changes.
func Validate(ctx context.Context, opts ValidateOptions) error {
	logger := createLogger(opts.Debug)
	engine, err := NewEngine(opts.runOptions(), logger)
	if err != nil {
		return err
	}

	if opts.Watch {
		return watchValidate(ctx, engine, opts)
	}

	ok, err := validateOnce(engine, opts)
	if err != nil {
		return err
	}
	if !ok {
		return ErrValidationFailed
	}
	return nil
}

func (o ValidateOptions) runOptions() RunOptions {
	return RunOptions{
		LibraryPath: o.LibraryPath,
		Debug:       o.Debug,
		Programs:    o.Programs,
	}
}

// validateOnce analyzes every requested flow and renders the combined
// report. It reports false when any flow has findings that make it
// unrunnable.
func validateOnce(engine *espalier.Engine, opts ValidateOptions) (bool, error) {
	names := opts.Flows
	if len(names) == 0 {
		var err error
		names, err = engine.ListFlows()
		if err != nil {
			return false, err
		}
		if len(names) == 0 {
			return false, fmt.Errorf("no flows found in %s", opts.LibraryPath)
		}
	}

	ok := true
	summaries := make([]*validation.Summary, 0, len(names))
	for _, name := range names {
		summary, err := engine.Validate(name)
		if err != nil {
			return false, fmt.Errorf("validating %s: %w", name, err)
		}
		if !summary.IsValid() {
			ok = false
		}
		summaries = append(summaries, summary)
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return ok, enc.Encode(summaries)
	}

	render := summaryRenderer(opts)
	for _, summary := range summaries {
		fmt.Print(render(summary))
	}
	return ok, nil
}

// summaryRenderer picks how reports reach the terminal: markdown
// through the styled renderer normally, the plain text report when
// asked for or when styling fails.
func summaryRenderer(opts ValidateOptions) func(*validation.Summary) string {
	if opts.Plain {
		return func(s *validation.Summary) string { return s.Report() + "\n" }
	}
	render := tui.NewRenderer()
	return func(s *validation.Summary) string {
		out, err := render(tui.ValidationMarkdown(s))
		if err != nil {
			return s.Report() + "\n"
		}
		return out
	}
}

// watchValidate revalidates on every library change until interrupted.
// Findings do not end the loop; the operator is editing toward green.
func watchValidate(ctx context.Context, engine *espalier.Engine, opts ValidateOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := validateOnce(engine, opts); err != nil {
		return err
	}
	printSystemMessage("Watching '%s' for changes. Ctrl+C stops.", opts.LibraryPath)

	changes, err := engine.Watch(ctx)
	if err != nil {
		// The library cannot push notifications, so poll for edits.
		changes = pollChanges(ctx, opts.LibraryPath)
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			printSystemMessage("Stopped watching.")
			return nil
		case _, open := <-changes:
			if !open {
				return nil
			}
			printSystemMessage("Change detected, revalidating.")
			if _, err := validateOnce(engine, opts); err != nil {
				return err
			}
		}
	}
}

// pollInterval paces the fallback fingerprint scan.
const pollInterval = 2 * time.Second

// pollChanges fingerprints the library on an interval, for libraries
// that cannot push change notifications.
func pollChanges(ctx context.Context, dir string) <-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		last := fingerprint(dir)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				next := fingerprint(dir)
				if next == last {
					continue
				}
				last = next
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch
}

// fingerprint digests names, sizes and mtimes of the documents under
// dir; noticing an edit does not need content hashing. Run state under
// .espalier is skipped so a run in progress does not look like an
// edit.
func fingerprint(dir string) string {
	sum := md5.New()
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".espalier" {
				return fs.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".yaml", ".yml", ".json":
		default:
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		fmt.Fprintf(sum, "%s|%d|%d\n", path, info.Size(), info.ModTime().UnixNano())
		return nil
	})
	return hex.EncodeToString(sum.Sum(nil))
}
