package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"go.uber.org/zap"
)

// Decoder reads rgb24 raw frames from an ffmpeg stdout pipe. Decoding runs
// in the external process; reading a frame blocks the calling goroutine, so
// extraction passes run on their own worker goroutine.
type Decoder struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	reader    *bufio.Reader
	stderr    bytes.Buffer
	width     int
	height    int
	frameSize int
	index     int
	logger    *zap.Logger
}

// OpenDecoder starts a decode of the whole video at its native frame rate.
// Width and height come from a prior Probe call.
func (f *FFmpeg) OpenDecoder(ctx context.Context, videoPath string, width, height int) (FrameSource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrInvalidMedia, width, height)
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-i", videoPath,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-vsync", "0",
		"pipe:1",
	)

	d := &Decoder{
		cmd:       cmd,
		width:     width,
		height:    height,
		frameSize: width * height * 3,
		logger:    f.logger,
	}
	cmd.Stderr = &d.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open decoder pipe: %w", err)
	}
	d.stdout = stdout
	d.reader = bufio.NewReaderSize(stdout, d.frameSize)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	f.logger.Debug("decoder started",
		zap.String("path", videoPath),
		zap.Int("width", width),
		zap.Int("height", height),
	)

	return d, nil
}

// Next returns the next decoded frame, or io.EOF after the last one. A short
// read mid-frame means the decode itself broke and is fatal.
func (d *Decoder) Next() (RawFrame, error) {
	pix := make([]byte, d.frameSize)
	n, err := io.ReadFull(d.reader, pix)
	if err == io.EOF {
		return RawFrame{}, io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		return RawFrame{}, fmt.Errorf("truncated frame %d (%d of %d bytes): %s",
			d.index, n, d.frameSize, lastLine(d.stderr.String()))
	}
	if err != nil {
		return RawFrame{}, fmt.Errorf("failed to read frame %d: %w", d.index, err)
	}

	frame := RawFrame{
		Index:  d.index,
		Width:  d.width,
		Height: d.height,
		Pix:    pix,
	}
	d.index++
	return frame, nil
}

func (d *Decoder) Close() error {
	d.stdout.Close()
	if err := d.cmd.Wait(); err != nil {
		// Expected when Close runs before the stream is drained; the
		// decode result has already been consumed or discarded.
		d.logger.Debug("ffmpeg exited with error", zap.Error(err))
	}
	return nil
}

func lastLine(s string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(lines[len(lines)-1])
}
