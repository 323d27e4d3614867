package workdir

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	if _, err := New(root); err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
}

func TestNewRejectsEmptyRoot(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty root")
	}
}

func TestAcquireIsExclusivePerDirectory(t *testing.T) {
	root := t.TempDir()
	first, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer first.Release()

	second, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Acquire(); err == nil {
		second.Release()
		t.Fatal("second Acquire on the same directory should fail")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	second.Release()
}

func TestNewRunScratchIsUniquePerRun(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	idA, dirA, err := m.NewRunScratch()
	if err != nil {
		t.Fatalf("NewRunScratch: %v", err)
	}
	idB, dirB, err := m.NewRunScratch()
	if err != nil {
		t.Fatalf("NewRunScratch: %v", err)
	}
	if idA == idB || dirA == dirB {
		t.Errorf("scratch dirs not unique: %q vs %q", dirA, dirB)
	}
	for _, dir := range []string{dirA, dirB} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("scratch %q missing: %v", dir, err)
		}
	}
}

func TestCleanupRemovesScratch(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, dir, err := m.NewRunScratch()
	if err != nil {
		t.Fatalf("NewRunScratch: %v", err)
	}
	if err := m.Cleanup(dir); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("scratch still present after cleanup: %v", err)
	}
}

func TestCleanupKeepsScratchWhenAsked(t *testing.T) {
	m, err := New(t.TempDir(), WithKeepScratch(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, dir, err := m.NewRunScratch()
	if err != nil {
		t.Fatalf("NewRunScratch: %v", err)
	}
	if err := m.Cleanup(dir); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("scratch should survive with keep enabled: %v", err)
	}
}

func TestCleanupRefusesPathsOutsideRunsTree(t *testing.T) {
	root := t.TempDir()
	m, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	outside := t.TempDir()
	if err := m.Cleanup(outside); err == nil {
		t.Fatal("expected refusal for path outside the runs tree")
	}
	if err := m.Cleanup(filepath.Join(root, "runs")); err == nil {
		t.Fatal("expected refusal for the runs root itself")
	}
}
