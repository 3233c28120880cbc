package models

import "github.com/google/uuid"

// Frame is one extracted still image. FrameNumber is the decode-position
// index of the frame in the source video, so with a sampling stride of N the
// numbers advance 0, N, 2N, ... Timestamp is the wall-clock position within
// the video (HH:MM:SS) and TimestampMS carries the sub-second remainder.
type Frame struct {
	ID          string
	VideoID     string
	FilePath    string
	FrameNumber int
	Timestamp   string
	TimestampMS int
}

func NewFrame(videoID, filePath string, frameNumber int, timestamp string, timestampMS int) Frame {
	return Frame{
		ID:          uuid.New().String(),
		VideoID:     videoID,
		FilePath:    filePath,
		FrameNumber: frameNumber,
		Timestamp:   timestamp,
		TimestampMS: timestampMS,
	}
}
