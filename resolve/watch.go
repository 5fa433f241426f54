package resolve

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssnest/state"
)

// events for files we have just written ourselves are ignored for that long
// (on top of debounce interval)
const selfWriteWindow = time.Second

// Watch processes source once and then again every time stylesheets under it
// change, until interrupted.
func Watch(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, dst, err := prepare(ctx, cmd)
	if err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("watch")

	// every change regenerates outputs produced earlier
	env.Overwrite = true

	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("unable to watch source: %w", err)
	}

	w := newWatcher(src, fi.IsDir(), dst, env.Cfg.Watch.Debounce, log)
	env.OnOutput = w.produced

	log.Info("Initial processing", zap.String("source", src), zap.String("destination", dst))
	if err := process(ctx, src, dst, log); err != nil {
		log.Error("Initial processing failed", zap.Error(err))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create file system watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.subscribe(fsw); err != nil {
		return err
	}

	log.Info("Watching for changes", zap.String("source", src), zap.Duration("debounce", w.debounce))
	defer func(start time.Time) {
		log.Info("Watching stopped", zap.Duration("elapsed", time.Since(start)),
			zap.Int("processed", env.Stats.Processed), zap.Int("skipped", env.Stats.Skipped), zap.Int("failed", env.Stats.Failed))
	}(time.Now())

	return w.loop(ctx, fsw.Events, fsw.Errors)
}

type watcher struct {
	// directory names are made relative to
	root string
	// set when single file is watched
	single   string
	dst      string
	debounce time.Duration
	log      *zap.Logger

	add     func(string) error
	pending map[string]struct{}
	written map[string]time.Time
}

func newWatcher(src string, isDir bool, dst string, debounce time.Duration, log *zap.Logger) *watcher {
	w := &watcher{
		root:     src,
		dst:      dst,
		debounce: debounce,
		log:      log,
		add:      func(string) error { return nil },
		pending:  make(map[string]struct{}),
		written:  make(map[string]time.Time),
	}
	if !isDir {
		// editors often replace files instead of writing them in place, so
		// directory is watched
		w.root, w.single = filepath.Dir(src), src
	}
	return w
}

func (w *watcher) produced(name string) {
	w.written[name] = time.Now()
}

// subscribe adds root and (unless single file is watched) all directories
// under it.
func (w *watcher) subscribe(fsw *fsnotify.Watcher) error {
	w.add = fsw.Add
	if w.single != "" {
		return w.add(w.root)
	}
	return w.addTree(w.root)
}

func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("Unable to watch path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		return nil
	})
}

// handle records interesting event, returns true when something was queued.
func (w *watcher) handle(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	if w.single != "" && ev.Name != w.single {
		return false
	}
	if at, ok := w.written[ev.Name]; ok && time.Since(at) < w.debounce+selfWriteWindow {
		w.log.Debug("Ignoring own output", zap.String("file", ev.Name))
		return false
	}

	fi, err := os.Stat(ev.Name)
	if err != nil {
		// already gone
		return false
	}
	if fi.IsDir() {
		if w.single == "" && ev.Has(fsnotify.Create) {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("Unable to watch new directory", zap.String("dir", ev.Name), zap.Error(err))
			}
		}
		return false
	}
	w.pending[ev.Name] = struct{}{}
	return true
}

// flush processes everything queued so far in natural order.
func (w *watcher) flush(ctx context.Context) {
	names := make([]string, 0, len(w.pending))
	for name := range w.pending {
		names = append(names, name)
	}
	clear(w.pending)
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})

	for _, path := range names {
		if ctx.Err() != nil {
			return
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		if w.single != "" {
			rel = filepath.Base(path)
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			w.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if isArchive {
			if err := processArchive(ctx, path, "", filepath.Dir(rel), w.dst, w.log); err != nil {
				w.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}
		if ok, err := processFile(ctx, path, rel, w.dst, w.log); err != nil {
			w.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
		} else if !ok {
			w.log.Debug("Ignoring change, not a stylesheet", zap.String("file", path))
		}
	}
}

// loop collects events and processes changed files once no more events
// arrive for debounce interval. Cancelled context is normal termination.
func (w *watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(w.pending) > 0 {
				w.log.Info("Dropping unprocessed changes", zap.Int("files", len(w.pending)))
			}
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.log.Warn("File system watcher error", zap.Error(err))
		case <-timer.C:
			w.flush(ctx)
		}
	}
}
