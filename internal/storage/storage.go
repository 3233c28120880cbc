package storage

import (
	"errors"
	"io"
)

// ErrFolderExists is returned when a video folder of the same name already
// exists under the upload root. Uploads never overwrite an existing folder;
// the caller surfaces this as a duplicate-upload conflict.
var ErrFolderExists = errors.New("video folder already exists")

// Store is the filesystem side of the frame store: one directory per video
// under the upload root, holding the source file and a frames/ subdirectory.
type Store interface {
	CreateVideoDir(base string) (string, error)
	SaveVideo(folder, filename string, r io.Reader) (string, error)
	EnsureFramesDir(folder string) (string, error)
	FramePath(framesDir, name string) (string, error)
	OpenFrame(framesDir, name string) (io.ReadSeekCloser, error)
	RemoveVideoDir(folder string) error
}
