package models

import (
	"time"

	"github.com/google/uuid"
)

// Video is one uploaded source video. FrameCount and FramesDirPath are only
// authoritative once FramesFinished is true.
type Video struct {
	ID             string
	Title          string
	Description    string
	Physician      string
	FilePath       string
	FramesDirPath  string
	Duration       int
	FrameCount     int
	UploadDate     time.Time
	FramesFinished bool
	Annotated      bool
}

func NewVideo(title, description, physician, filePath, framesDirPath string, duration int, uploadDate time.Time) *Video {
	return &Video{
		ID:            uuid.New().String(),
		Title:         title,
		Description:   description,
		Physician:     physician,
		FilePath:      filePath,
		FramesDirPath: framesDirPath,
		Duration:      duration,
		UploadDate:    uploadDate,
	}
}
