package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/go-drift/lumen/cmd/lumen/internal/config"
	"github.com/go-drift/lumen/pkg/errors"
)

func init() {
	RegisterCommand(&Command{
		Name:  "watch",
		Short: "Re-render a page whenever it or lumen.yaml changes",
		Long: `Render a page, then watch it and lumen.yaml and render again after
every change. Changes are debounced; a failing render is logged and the
previous output is kept.

Stop with Ctrl-C.`,
		Usage: "lumen watch -o output [--pretty] <file.html>",
		Run:   runWatch,
	})
}

const debounceDuration = 100 * time.Millisecond

func runWatch(args []string) error {
	opts, err := parseRenderArgs(args)
	if err != nil {
		return err
	}
	if opts.input == "-" || opts.output == "" {
		return fmt.Errorf("watch needs an input file and -o output")
	}
	cfg, logger, err := loadProject()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	w := &watcher{opts: opts, cfg: cfg, logger: logger, debounce: debounceDuration}
	return w.run(ctx)
}

// watcher re-renders opts.input whenever it or the manifest changes.
type watcher struct {
	opts     renderOptions
	cfg      *config.Resolved
	logger   zerolog.Logger
	debounce time.Duration
	// rendered, if set, receives the result of each render.
	rendered func(err error)
}

func (w *watcher) run(ctx context.Context) error {
	input, err := filepath.Abs(w.opts.input)
	if err != nil {
		return err
	}
	manifest := filepath.Join(w.cfg.Root, config.FileName)
	if manifest, err = filepath.Abs(manifest); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	// Watch directories: editors often replace files instead of writing them.
	for _, dir := range uniqueDirs(input, manifest) {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.render(false)

	var timer *time.Timer
	var fire <-chan time.Time
	reload := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Name != input && event.Name != manifest {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			w.logger.Debug().Str("file", event.Name).Stringer("op", event.Op).Msg("change detected")
			reload = reload || event.Name == manifest
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.render(reload)
			reload = false

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			errors.Report(&errors.LumenError{Op: "cmd.watch", Kind: errors.KindLifecycle, Err: err})
		}
	}
}

// render renders once, reloading the manifest first if asked. Failures,
// panics included, are reported and leave the previous output in place.
func (w *watcher) render(reload bool) {
	err := errors.Guard("cmd.watch", func() error { return w.renderErr(reload) })
	var le *errors.LumenError
	switch {
	case errors.As(err, &le) && le.Kind == errors.KindPanic:
		// Already reported by Guard.
	case err != nil:
		errors.Report(&errors.LumenError{Op: "cmd.watch", Kind: errors.KindRender, Err: err})
	default:
		w.logger.Info().Str("output", w.opts.output).Msg("rendered")
	}
	if w.rendered != nil {
		w.rendered(err)
	}
}

func (w *watcher) renderErr(reload bool) error {
	if reload {
		cfg, err := config.Resolve(w.cfg.Root)
		if err != nil {
			return err
		}
		w.cfg = cfg
	}
	return renderOnce(w.cfg, w.logger, w.opts)
}

func uniqueDirs(paths ...string) []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, p := range paths {
		dir := filepath.Dir(p)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
