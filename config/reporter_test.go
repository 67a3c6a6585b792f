package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReportClose_RemovesCopies(t *testing.T) {
	reportFile, err := os.CreateTemp(t.TempDir(), "report-*.zip")
	if err != nil {
		t.Fatalf("failed to create temp report file: %v", err)
	}

	r := &Report{
		entries: make(map[string]entry),
		file:    reportFile,
	}

	// Directory with content, stored by copy - temporary copy must go away
	// on Close while the original survives.
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "debug.txt"), []byte("test"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if err := r.StoreCopy("workdir", src); err != nil {
		t.Fatalf("StoreCopy() error: %v", err)
	}
	copied := r.entries["workdir"].actual
	if copied == src {
		t.Fatalf("StoreCopy did not make a copy, actual path is the original")
	}

	// Entry stored by reference - never touched by Close.
	kept := filepath.Join(t.TempDir(), "result.txt")
	if err := os.WriteFile(kept, []byte("keep"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	r.Store("result-file", kept)

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	if _, err := os.Stat(copied); !os.IsNotExist(err) {
		os.RemoveAll(copied)
		t.Errorf("expected temporary copy to be removed, but it still exists")
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("original directory should not be removed, got error: %v", err)
	}
	if _, err := os.Stat(kept); err != nil {
		t.Errorf("stored file should not be removed, got error: %v", err)
	}
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
