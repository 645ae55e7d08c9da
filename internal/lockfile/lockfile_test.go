package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquire_Release(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "ludotran.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("lock file not created: %v", err)
	}
	want := fmt.Sprintf("%d", os.Getpid())
	if strings.TrimSpace(string(data)) != want {
		t.Errorf("expected pid %s in lock file, got %q", want, data)
	}

	if err := lock.Release(); err != nil {
		t.Errorf("Release failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected lock file removed after Release")
	}
}

func TestAcquire_SecondRunBlocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ludotran.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	_, err = Acquire(path)
	if err == nil {
		t.Fatal("expected second Acquire to fail")
	}
	if !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("%d", os.Getpid())) {
		t.Errorf("expected holder pid in error, got %v", err)
	}
}

func TestAcquire_AfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ludotran.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	second, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after Release failed: %v", err)
	}
	second.Release()
}

func TestRelease_Twice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ludotran.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("first Release failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release should be harmless, got %v", err)
	}
}

func TestRelease_Nil(t *testing.T) {
	var lock *Lock
	if err := lock.Release(); err != nil {
		t.Errorf("nil Release should be a no-op, got %v", err)
	}
}
