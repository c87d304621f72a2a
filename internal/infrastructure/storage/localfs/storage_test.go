package localfs

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveNestedKeyReturnsAbsolutePath(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	path, err := storage.Save(ctx, "s-1/bike.jpg", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Fatalf("saved path must be absolute: %q", path)
	}

	f, err := storage.Open(ctx, "s-1/bike.jpg")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(raw) != "image-bytes" {
		t.Fatalf("content = %q", raw)
	}
}

func TestSaveOverwritesSameKey(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if _, err := storage.Save(ctx, "s-1/id.jpg", strings.NewReader("first")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := storage.Save(ctx, "s-1/id.jpg", strings.NewReader("second")); err != nil {
		t.Fatalf("second save: %v", err)
	}

	f, err := storage.Open(ctx, "s-1/id.jpg")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	raw, _ := io.ReadAll(f)
	if string(raw) != "second" {
		t.Fatalf("re-upload must replace content, got %q", raw)
	}
}

func TestSaveRejectsEscapingKeys(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"../outside.jpg", "/etc/passwd", "a/../../b", "."} {
		if _, err := storage.Save(ctx, key, strings.NewReader("x")); err == nil {
			t.Fatalf("Save(%q) must reject the key", key)
		}
	}
}
