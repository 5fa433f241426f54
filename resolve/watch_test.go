package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	cli "github.com/urfave/cli/v3"
)

func waitForFile(t *testing.T, path, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil && string(data) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s did not get expected content in time", path)
}

func TestWatcher_Handle(t *testing.T) {
	_, env := setupTestEnv(t)
	src := t.TempDir()
	css := filepath.Join(src, "a.css")
	writeFile(t, css, "a { b: c }")

	w := newWatcher(src, true, t.TempDir(), 10*time.Millisecond, env.Log)

	if w.handle(fsnotify.Event{Name: css, Op: fsnotify.Chmod}) {
		t.Error("chmod should be ignored")
	}
	if w.handle(fsnotify.Event{Name: filepath.Join(src, "gone.css"), Op: fsnotify.Write}) {
		t.Error("vanished file should be ignored")
	}
	if !w.handle(fsnotify.Event{Name: css, Op: fsnotify.Write}) {
		t.Error("write should be queued")
	}
	if !w.handle(fsnotify.Event{Name: css, Op: fsnotify.Create}) {
		t.Error("create should be queued")
	}
	if len(w.pending) != 1 {
		t.Errorf("pending = %v, want single entry", w.pending)
	}
}

func TestWatcher_HandleIgnoresOwnOutput(t *testing.T) {
	_, env := setupTestEnv(t)
	src := t.TempDir()
	out := filepath.Join(src, "out.css")
	writeFile(t, out, "a { b: c }")

	w := newWatcher(src, true, src, 10*time.Millisecond, env.Log)
	w.produced(out)

	if w.handle(fsnotify.Event{Name: out, Op: fsnotify.Write}) {
		t.Error("own output should be ignored")
	}
	w.written[out] = time.Now().Add(-time.Minute)
	if !w.handle(fsnotify.Event{Name: out, Op: fsnotify.Write}) {
		t.Error("later change of the same file should be queued")
	}
}

func TestWatcher_HandleNewDirectory(t *testing.T) {
	_, env := setupTestEnv(t)
	src := t.TempDir()
	sub := filepath.Join(src, "sub")
	if err := os.MkdirAll(filepath.Join(sub, "deeper"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	w := newWatcher(src, true, t.TempDir(), 10*time.Millisecond, env.Log)
	var added []string
	w.add = func(name string) error {
		added = append(added, name)
		return nil
	}

	if w.handle(fsnotify.Event{Name: sub, Op: fsnotify.Create}) {
		t.Error("directory itself should not be queued")
	}
	if len(added) != 2 || added[0] != sub || added[1] != filepath.Join(sub, "deeper") {
		t.Errorf("added = %v", added)
	}
}

func TestWatcher_HandleSingleFile(t *testing.T) {
	_, env := setupTestEnv(t)
	dir := t.TempDir()
	css := filepath.Join(dir, "a.css")
	other := filepath.Join(dir, "b.css")
	writeFile(t, css, "a { b: c }")
	writeFile(t, other, "a { b: c }")

	w := newWatcher(css, false, t.TempDir(), 10*time.Millisecond, env.Log)
	if w.root != dir || w.single != css {
		t.Fatalf("root = %q, single = %q", w.root, w.single)
	}
	if w.handle(fsnotify.Event{Name: other, Op: fsnotify.Write}) {
		t.Error("other files in directory should be ignored")
	}
	if !w.handle(fsnotify.Event{Name: css, Op: fsnotify.Write}) {
		t.Error("watched file should be queued")
	}
}

func TestWatcher_Flush(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "sub", "a.css"), nestedSample)
	writeFile(t, filepath.Join(src, "notes.txt"), "text")
	writeZip(t, filepath.Join(src, "pack.zip"), map[string]string{"z.css": nestedSample})

	w := newWatcher(src, true, dst, 10*time.Millisecond, env.Log)
	for _, name := range []string{filepath.Join(src, "sub", "a.css"), filepath.Join(src, "notes.txt"), filepath.Join(src, "pack.zip")} {
		w.pending[name] = struct{}{}
	}
	w.flush(ctx)

	if len(w.pending) != 0 {
		t.Errorf("pending not cleared: %v", w.pending)
	}
	if got := readFile(t, filepath.Join(dst, "sub", "a.css")); got != resolvedSample {
		t.Errorf("output =\n%s", got)
	}
	if got := readFile(t, filepath.Join(dst, "z.css")); got != resolvedSample {
		t.Errorf("archive output =\n%s", got)
	}
	if env.Stats.Processed != 2 {
		t.Errorf("stats = %+v", env.Stats)
	}
}

func TestWatcher_Loop(t *testing.T) {
	ctx, env := setupTestEnv(t)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	src := t.TempDir()
	dst := t.TempDir()
	css := filepath.Join(src, "a.css")
	writeFile(t, css, nestedSample)

	w := newWatcher(src, true, dst, 100*time.Millisecond, env.Log)
	events := make(chan fsnotify.Event)
	errs := make(chan error)

	done := make(chan error, 1)
	go func() { done <- w.loop(ctx, events, errs) }()

	events <- fsnotify.Event{Name: css, Op: fsnotify.Write}
	events <- fsnotify.Event{Name: css, Op: fsnotify.Write}
	errs <- os.ErrPermission

	waitForFile(t, filepath.Join(dst, "a.css"), resolvedSample)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("loop() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
	if env.Stats.Processed != 1 {
		t.Errorf("stats = %+v, want single processing for burst of events", env.Stats)
	}
}

func TestWatcher_LoopClosedChannel(t *testing.T) {
	_, env := setupTestEnv(t)
	w := newWatcher(t.TempDir(), true, t.TempDir(), time.Millisecond, env.Log)

	events := make(chan fsnotify.Event)
	close(events)
	if err := w.loop(context.Background(), events, make(chan error)); err != nil {
		t.Errorf("loop() error = %v", err)
	}
}

func TestWatch(t *testing.T) {
	ctx, env := setupTestEnv(t)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	env.Cfg.Watch.Debounce = 20 * time.Millisecond

	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.css"), "a { b: c }")

	cmd := &cli.Command{
		Name: "watch",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input-cp"},
			&cli.BoolFlag{Name: "nodirs"},
			&cli.BoolFlag{Name: "overwrite"},
		},
		Action: Watch,
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Run(ctx, []string{"watch", src, dst}) }()

	// initial pass
	waitForFile(t, filepath.Join(dst, "a.css"), "a {\n  b: c;\n}\n")

	// changes are picked up and earlier output is replaced, watcher may not be
	// subscribed yet so the change is repeated
	deadline := time.Now().Add(5 * time.Second)
	for {
		writeFile(t, filepath.Join(src, "a.css"), nestedSample)
		time.Sleep(100 * time.Millisecond)
		if data, err := os.ReadFile(filepath.Join(dst, "a.css")); err == nil && string(data) == resolvedSample {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("change was not processed in time")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop")
	}
}
