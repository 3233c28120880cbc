package media

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Probe reads frame rate, frame count, dimensions and duration from the
// container. A zero frame rate fails with ErrInvalidMedia.
func (f *FFmpeg) Probe(ctx context.Context, videoPath string) (ProbeResult, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return ProbeResult{}, fmt.Errorf("video file not accessible: %w", err)
	}

	var result ProbeResult
	var err error

	if f.ffprobePath != "" {
		result, err = f.probeWithFFprobe(ctx, videoPath)
	} else {
		result, err = f.probeWithFFmpeg(ctx, videoPath)
	}
	if err != nil {
		return ProbeResult{}, err
	}

	if result.FPS == 0 {
		return ProbeResult{}, fmt.Errorf("%w: zero frame rate in %s", ErrInvalidMedia, videoPath)
	}
	if result.Duration == 0 && result.FPS > 0 && result.FrameCount > 0 {
		result.Duration = float64(result.FrameCount) / result.FPS
	}
	if result.FrameCount == 0 && result.Duration > 0 {
		result.FrameCount = int(math.Round(result.Duration * result.FPS))
	}

	f.logger.Info("probed video",
		zap.String("path", videoPath),
		zap.Float64("fps", result.FPS),
		zap.Int("frames", result.FrameCount),
		zap.Float64("duration", result.Duration),
	)

	return result, nil
}

func (f *FFmpeg) probeWithFFprobe(ctx context.Context, videoPath string) (ProbeResult, error) {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		videoPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("%w: ffprobe failed: %v", ErrInvalidMedia, err)
	}

	var result ProbeResult
	for _, line := range strings.Split(string(output), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || value == "N/A" {
			continue
		}
		switch key {
		case "width":
			result.Width, _ = strconv.Atoi(value)
		case "height":
			result.Height, _ = strconv.Atoi(value)
		case "r_frame_rate":
			result.FPS = parseRational(value)
		case "nb_frames":
			result.FrameCount, _ = strconv.Atoi(value)
		case "duration":
			result.Duration, _ = strconv.ParseFloat(value, 64)
		}
	}

	if result.Width == 0 || result.Height == 0 {
		return ProbeResult{}, fmt.Errorf("%w: no video stream dimensions in %s", ErrInvalidMedia, videoPath)
	}
	return result, nil
}

// probeWithFFmpeg scrapes "Duration:", "NNN fps" and "WxH" out of ffmpeg's
// stderr banner when ffprobe is unavailable.
func (f *FFmpeg) probeWithFFmpeg(ctx context.Context, videoPath string) (ProbeResult, error) {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, "-i", videoPath, "-f", "null", "-")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()
	output := stderr.String()

	var result ProbeResult

	if idx := strings.Index(output, "Duration: "); idx != -1 {
		rest := output[idx+len("Duration: "):]
		if end := strings.Index(rest, ","); end != -1 {
			result.Duration = parseClock(rest[:end])
		}
	}

	for _, token := range strings.Split(output, ",") {
		token = strings.TrimSpace(token)
		if fpsStr, ok := strings.CutSuffix(token, " fps"); ok {
			result.FPS, _ = strconv.ParseFloat(fpsStr, 64)
		}
		if result.Width == 0 {
			if w, h, ok := parseDimensions(token); ok {
				result.Width, result.Height = w, h
			}
		}
	}

	if result.Width == 0 || result.Height == 0 {
		return ProbeResult{}, fmt.Errorf("%w: could not parse stream info for %s", ErrInvalidMedia, videoPath)
	}
	return result, nil
}

// parseRational handles ffprobe frame rates like "30000/1001" or "25/1".
func parseRational(value string) float64 {
	num, den, ok := strings.Cut(value, "/")
	if !ok {
		v, _ := strconv.ParseFloat(value, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// parseClock converts "HH:MM:SS.cc" to seconds.
func parseClock(value string) float64 {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0
	}
	hours, err1 := strconv.ParseFloat(parts[0], 64)
	minutes, err2 := strconv.ParseFloat(parts[1], 64)
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return hours*3600 + minutes*60 + seconds
}

// parseDimensions matches tokens like "1920x1080" or "640x480 [SAR 1:1 ...]".
func parseDimensions(token string) (int, int, bool) {
	if idx := strings.IndexByte(token, ' '); idx != -1 {
		token = token[:idx]
	}
	wStr, hStr, ok := strings.Cut(token, "x")
	if !ok {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(wStr)
	h, err2 := strconv.Atoi(hStr)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
