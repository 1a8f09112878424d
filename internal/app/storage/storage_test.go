package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Load(ctx, "absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(absent) = %v, want ErrNotFound", err)
	}

	if err := kv.Save(ctx, "key", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := kv.Load(ctx, "key")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("Load = %s", got)
	}

	if err := kv.Save(ctx, "key", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = kv.Load(ctx, "key")
	if string(got) != `{"a":2}` {
		t.Errorf("after overwrite = %s", got)
	}

	if err := kv.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kv.Load(ctx, "key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete = %v, want ErrNotFound", err)
	}
	if err := kv.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete(absent) = %v, want nil", err)
	}
}

func TestMemory(t *testing.T) {
	testKV(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	value := []byte("original")
	if err := kv.Save(ctx, "k", value); err != nil {
		t.Fatalf("Save: %v", err)
	}
	value[0] = 'X'

	got, err := kv.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("stored value aliased caller's buffer: %s", got)
	}
	got[0] = 'Y'
	again, _ := kv.Load(ctx, "k")
	if string(again) != "original" {
		t.Errorf("returned value aliased stored buffer: %s", again)
	}
}

func TestFile(t *testing.T) {
	kv, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	testKV(t, kv)
}

func TestFileSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := first.Save(ctx, "medfin_family_members", []byte(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second, err := NewFile(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := second.Load(ctx, "medfin_family_members")
	if err != nil || string(got) != `[]` {
		t.Errorf("Load after reopen = %s, %v", got, err)
	}
}

func TestFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := kv.Save(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
	if _, err := os.Stat(filepath.Join(dir, "k.json")); err != nil {
		t.Errorf("expected k.json: %v", err)
	}
}
