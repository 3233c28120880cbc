package media

import (
	"errors"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// ErrInvalidMedia marks a container the decoder cannot make sense of, such
// as a probe reporting a zero frame rate. The client cannot recover from
// this without re-encoding the file.
var ErrInvalidMedia = errors.New("invalid media")

// ProbeResult carries the container metadata the pipeline needs.
type ProbeResult struct {
	FPS        float64
	FrameCount int
	Width      int
	Height     int
	Duration   float64
}

// RawFrame is one decoded frame in rgb24 layout. Index is the zero-based
// decode position within the video.
type RawFrame struct {
	Index  int
	Width  int
	Height int
	Pix    []byte
}

// FrameSource yields decoded frames in order until io.EOF.
type FrameSource interface {
	Next() (RawFrame, error)
	Close() error
}

// FFmpeg shells out to the ffmpeg/ffprobe binaries for probing and decoding.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
}

func NewFFmpeg(logger *zap.Logger) (*FFmpeg, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	// ffprobe is optional; Probe falls back to parsing ffmpeg stderr.
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		logger.Warn("ffprobe not found in PATH, falling back to ffmpeg output parsing")
		ffprobePath = ""
	}

	logger.Info("media engine ready",
		zap.String("ffmpeg", ffmpegPath),
		zap.String("ffprobe", ffprobePath),
	)

	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      logger,
	}, nil
}
