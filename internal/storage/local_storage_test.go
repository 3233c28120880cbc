package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	tmpDir := t.TempDir()
	store, err := NewLocalStore(tmpDir, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store, tmpDir
}

func TestLocalStore_VideoLayout(t *testing.T) {
	store, tmpDir := newTestStore(t)

	folder, err := store.CreateVideoDir("procedure42")
	if err != nil {
		t.Fatalf("Failed to create video dir: %v", err)
	}
	if folder != filepath.Join(tmpDir, "procedure42") {
		t.Errorf("Unexpected folder path: %s", folder)
	}

	content := []byte("fake mp4 content")
	path, err := store.SaveVideo(folder, "procedure42.mp4", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Failed to save video: %v", err)
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved video: %v", err)
	}
	if !bytes.Equal(saved, content) {
		t.Error("Saved content mismatch")
	}

	framesDir, err := store.EnsureFramesDir(folder)
	if err != nil {
		t.Fatalf("Failed to create frames dir: %v", err)
	}
	if framesDir != filepath.Join(folder, "frames") {
		t.Errorf("Unexpected frames dir: %s", framesDir)
	}
}

func TestLocalStore_DuplicateFolderConflict(t *testing.T) {
	store, _ := newTestStore(t)

	folder, err := store.CreateVideoDir("dup")
	if err != nil {
		t.Fatalf("Failed to create video dir: %v", err)
	}
	if _, err := store.SaveVideo(folder, "dup.mp4", bytes.NewReader([]byte("original"))); err != nil {
		t.Fatalf("Failed to save video: %v", err)
	}

	_, err = store.CreateVideoDir("dup")
	if !errors.Is(err, ErrFolderExists) {
		t.Fatalf("Expected ErrFolderExists, got %v", err)
	}

	// The guard must not have overwritten the original file.
	saved, err := os.ReadFile(filepath.Join(folder, "dup.mp4"))
	if err != nil {
		t.Fatalf("Original file is gone: %v", err)
	}
	if string(saved) != "original" {
		t.Error("Original file was overwritten")
	}
}

func TestLocalStore_OpenFrame(t *testing.T) {
	store, _ := newTestStore(t)

	folder, _ := store.CreateVideoDir("vid")
	framesDir, _ := store.EnsureFramesDir(folder)

	content := []byte("jpeg bytes")
	if err := os.WriteFile(filepath.Join(framesDir, "vid_0005.jpg"), content, 0644); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}

	f, err := store.OpenFrame(framesDir, "vid_0005.jpg")
	if err != nil {
		t.Fatalf("Failed to open frame: %v", err)
	}
	defer f.Close()

	buf := make([]byte, len(content))
	if _, err := f.Read(buf); err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	if !bytes.Equal(buf, content) {
		t.Error("Frame content mismatch")
	}
}

func TestLocalStore_PathTraversalPrevention(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.CreateVideoDir("../escape"); err == nil {
		t.Error("Path traversal was not prevented in CreateVideoDir")
	}
	if _, err := store.OpenFrame("frames", "../../../etc/passwd"); err == nil {
		t.Error("Path traversal was not prevented in OpenFrame")
	}
	if err := store.RemoveVideoDir("/etc"); err == nil {
		t.Error("RemoveVideoDir escaped the upload root")
	}
}

func TestLocalStore_RemoveVideoDir(t *testing.T) {
	store, _ := newTestStore(t)

	folder, _ := store.CreateVideoDir("gone")
	framesDir, _ := store.EnsureFramesDir(folder)
	os.WriteFile(filepath.Join(framesDir, "gone_0000.jpg"), []byte("x"), 0644)

	if err := store.RemoveVideoDir(folder); err != nil {
		t.Fatalf("Failed to remove video dir: %v", err)
	}
	if _, err := os.Stat(folder); !os.IsNotExist(err) {
		t.Error("Video folder still exists")
	}
}
