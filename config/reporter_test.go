package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestReport(t *testing.T) *Report {
	t.Helper()
	conf := ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	return r
}

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("failed to open report: %v", err)
	}
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport_Archive(t *testing.T) {
	r := newTestReport(t)

	src := filepath.Join(t.TempDir(), "site.css")
	if err := os.WriteFile(src, []byte(".a { .b { color: red } }"), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	r.Store("source.css", src)
	r.StoreData("tree-2.txt", []byte("Block root [0] @-\n"))
	r.StoreData("tree-10.txt", []byte("Block root [1] @-\n"))
	if err := r.StoreCopy("copy", src); err != nil {
		t.Fatalf("StoreCopy() error: %v", err)
	}

	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	files := readArchive(t, name)
	if files["source.css"] != ".a { .b { color: red } }" {
		t.Errorf("source.css = %q", files["source.css"])
	}
	if files["tree-2.txt"] != "Block root [0] @-\n" {
		t.Errorf("tree-2.txt = %q", files["tree-2.txt"])
	}
	if files["copy"] != ".a { .b { color: red } }" {
		t.Errorf("copy = %q", files["copy"])
	}

	manifest := files["MANIFEST"]
	i2, i10 := strings.Index(manifest, "tree-2.txt"), strings.Index(manifest, "tree-10.txt")
	if i2 < 0 || i10 < 0 || i2 > i10 {
		t.Errorf("manifest is not in natural order:\n%s", manifest)
	}
}

func TestReport_StoreCopyKeepsSnapshot(t *testing.T) {
	r := newTestReport(t)

	src := filepath.Join(t.TempDir(), "site.css")
	if err := os.WriteFile(src, []byte("before"), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	if err := r.StoreCopy("site.css", src); err != nil {
		t.Fatalf("StoreCopy() error: %v", err)
	}
	if err := os.WriteFile(src, []byte("after"), 0644); err != nil {
		t.Fatalf("failed to rewrite source: %v", err)
	}
	// same name is versioned
	if err := r.StoreCopy("site.css", src); err != nil {
		t.Fatalf("StoreCopy() error: %v", err)
	}

	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	files := readArchive(t, name)
	if files["site.css"] != "before" {
		t.Errorf("site.css = %q, want snapshot taken at the time of call", files["site.css"])
	}
	var versioned bool
	for k, v := range files {
		if strings.HasPrefix(k, "site.css-") && v == "after" {
			versioned = true
		}
	}
	if !versioned {
		t.Errorf("second copy not found in %v", files)
	}
}

func TestReportClose_RemovesScratchDirs(t *testing.T) {
	r := newTestReport(t)

	srcDir := t.TempDir()
	for _, name := range []string{"a.css", "b.css"} {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte("a{}"), 0644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}
		if err := r.StoreCopy(name, filepath.Join(srcDir, name)); err != nil {
			t.Fatalf("StoreCopy() error: %v", err)
		}
	}
	scratch := r.scratch
	if scratch == "" {
		t.Fatal("expected scratch directory")
	}
	if entries, err := os.ReadDir(scratch); err != nil || len(entries) != 2 {
		t.Fatalf("scratch directory content = %v, %v", entries, err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		os.RemoveAll(scratch)
		t.Errorf("expected scratch directory to be removed")
	}
	// stored originals are left alone
	if _, err := os.Stat(filepath.Join(srcDir, "a.css")); err != nil {
		t.Errorf("source should not be removed, got error: %v", err)
	}
}

func TestReport_StoreCopyRejectsDirectory(t *testing.T) {
	r := newTestReport(t)
	defer r.Close()

	if err := r.StoreCopy("dir", t.TempDir()); err == nil {
		t.Error("expected error for directory")
	}
	if err := r.StoreCopy("missing", filepath.Join(t.TempDir(), "missing.css")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReport_StoreConflictPanics(t *testing.T) {
	r := newTestReport(t)
	defer r.Close()

	r.Store("final.log", "/tmp/a.log")
	r.Store("final.log", "/tmp/a.log")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on conflicting store")
		}
	}()
	r.Store("final.log", "/tmp/b.log")
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	r.Store("x", "y")
	r.StoreData("x", nil)
	if err := r.StoreCopy("x", "y"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Error("nil report should have no name")
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
