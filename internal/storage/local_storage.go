package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const framesSubdir = "frames"

// LocalStore lays videos out as uploads/<base>/<file>.mp4 with extracted
// frames in uploads/<base>/frames/. The frames directory path persisted on
// the video record must always resolve to this convention.
type LocalStore struct {
	basePath string
	logger   *zap.Logger
}

func NewLocalStore(basePath string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{basePath: basePath, logger: logger}, nil
}

// CreateVideoDir creates the per-video folder. An existing folder means a
// duplicate upload and fails with ErrFolderExists without touching anything.
func (ls *LocalStore) CreateVideoDir(base string) (string, error) {
	cleaned, err := ls.safeName(base)
	if err != nil {
		return "", err
	}

	folder := filepath.Join(ls.basePath, cleaned)
	if _, err := os.Stat(folder); err == nil {
		return "", fmt.Errorf("%w: %s", ErrFolderExists, cleaned)
	}
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("failed to create video folder: %w", err)
	}
	return folder, nil
}

func (ls *LocalStore) SaveVideo(folder, filename string, r io.Reader) (string, error) {
	cleaned, err := ls.safeName(filename)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(folder, cleaned)
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return fullPath, nil
}

func (ls *LocalStore) EnsureFramesDir(folder string) (string, error) {
	framesDir := filepath.Join(folder, framesSubdir)
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create frames directory: %w", err)
	}
	return framesDir, nil
}

func (ls *LocalStore) FramePath(framesDir, name string) (string, error) {
	cleaned, err := ls.safeName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(framesDir, cleaned), nil
}

func (ls *LocalStore) OpenFrame(framesDir, name string) (io.ReadSeekCloser, error) {
	fullPath, err := ls.FramePath(framesDir, name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	return file, nil
}

// RemoveVideoDir deletes a video folder with everything in it. The folder
// must live under the upload root.
func (ls *LocalStore) RemoveVideoDir(folder string) error {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("invalid folder path: %w", err)
	}
	base, err := filepath.Abs(ls.basePath)
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}
	if !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return fmt.Errorf("folder %s is outside the upload root", folder)
	}

	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("failed to delete video folder: %w", err)
	}
	ls.logger.Info("deleted video folder", zap.String("folder", abs))
	return nil
}

func (ls *LocalStore) safeName(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.Contains(cleaned, "..") ||
		strings.ContainsRune(cleaned, filepath.Separator) {
		return "", fmt.Errorf("invalid name: %s", name)
	}
	return cleaned, nil
}
