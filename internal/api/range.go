package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"

	"go.uber.org/zap"
)

// rangeChunkSize is how much of a requested byte span is read from disk at a
// time, so a multi-gigabyte span never sits in memory at once.
const rangeChunkSize = 1 << 20

var rangePattern = regexp.MustCompile(`^bytes=(\d+)-(\d*)$`)

// ServeVideoHandler streams the original video bytes. A single
// "bytes=<start>-<end>?" Range header yields a 206 with the requested span;
// no header, or one we cannot parse, yields the whole file.
func (app *App) ServeVideoHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.resolveVideo(w, r)
	if !ok {
		return
	}

	info, err := os.Stat(video.FilePath)
	if err != nil {
		app.writeError(w, http.StatusNotFound, "Video file not found")
		return
	}
	size := info.Size()

	start, end, ok := parseRange(r.Header.Get("Range"), size)
	if !ok {
		app.serveWholeFile(w, video.FilePath, size)
		return
	}

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.Header().Set("Content-Type", "video/mp4")
	w.WriteHeader(http.StatusPartialContent)

	if err := app.copyFileRange(w, video.FilePath, start, end-start+1); err != nil {
		// Headers are gone already; a client disconnect mid-stream is normal.
		app.Logger.Debug("range copy aborted", zap.String("video_id", video.ID), zap.Error(err))
	}
}

// parseRange accepts exactly one bytes=<start>-<end>? expression. Anything
// else reports ok=false and the caller falls back to the whole file.
func parseRange(header string, size int64) (start, end int64, ok bool) {
	if header == "" || size == 0 {
		return 0, 0, false
	}

	match := rangePattern.FindStringSubmatch(header)
	if match == nil {
		return 0, 0, false
	}

	start, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	end = size - 1
	if match[2] != "" {
		end, err = strconv.ParseInt(match[2], 10, 64)
		if err != nil {
			return 0, 0, false
		}
	}
	if end > size-1 {
		end = size - 1
	}
	if start > end || start >= size {
		return 0, 0, false
	}
	return start, end, true
}

func (app *App) serveWholeFile(w http.ResponseWriter, path string, size int64) {
	file, err := os.Open(path)
	if err != nil {
		app.writeError(w, http.StatusNotFound, "Video file not found")
		return
	}
	defer file.Close()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Type", "video/mp4")
	if _, err := io.Copy(w, file); err != nil {
		app.Logger.Debug("full-file copy aborted", zap.Error(err))
	}
}

func (app *App) copyFileRange(w io.Writer, path string, offset, length int64) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, rangeChunkSize)
	remaining := length
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		read, err := file.Read(buf[:n])
		if read > 0 {
			if _, werr := w.Write(buf[:read]); werr != nil {
				return werr
			}
			remaining -= int64(read)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return nil
}
