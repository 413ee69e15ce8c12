package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestAtomicWrite(t *testing.T) {
	t.Parallel()

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "reports", "nested", "out.xml")
		if err := AtomicWrite(path, []byte("<a/>")); err != nil {
			t.Fatalf("AtomicWrite() error = %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "<a/>" {
			t.Errorf("content = %q", got)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != FilePerm {
			t.Errorf("mode = %v, want %v", info.Mode().Perm(), FilePerm)
		}
	})

	t.Run("replaces existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.xml")
		if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := AtomicWrite(path, []byte("new")); err != nil {
			t.Fatalf("AtomicWrite() error = %v", err)
		}
		got, _ := os.ReadFile(path)
		if string(got) != "new" {
			t.Errorf("content = %q, want new", got)
		}
	})
}

func TestAtomicWriteFunc_FailureKeepsPriorFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.xml")
	if err := os.WriteFile(path, []byte("prior artifact"), 0o600); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("render failed")
	err := AtomicWriteFunc(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("AtomicWriteFunc() error = %v, want %v", err, boom)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "prior artifact" {
		t.Errorf("prior artifact changed to %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLockedWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.xml")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := LockedWrite(path, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "writer-%d", i)
				return err
			})
			if err != nil {
				t.Errorf("LockedWrite() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(got), "writer-") || len(got) > len("writer-7") {
		t.Errorf("content = %q, want a single complete write", got)
	}
}

func TestLockPath(t *testing.T) {
	t.Parallel()

	if got := LockPath(filepath.Join("reports", "junit.xml")); got != filepath.Join("reports", ".junit.xml.lock") {
		t.Errorf("LockPath() = %q", got)
	}
}
