package models

import "github.com/google/uuid"

// Annotation is a bounding box drawn on a frame. Annotation editing lives in
// a separate service; this backend only stores the rows and cascades them on
// video deletion.
type Annotation struct {
	ID        string
	VideoID   string
	FrameID   string
	Label     string
	X1        float64
	Y1        float64
	X2        float64
	Y2        float64
	StartTime float64
	EndTime   float64
}

func NewAnnotation(videoID, frameID, label string, x1, y1, x2, y2 float64) Annotation {
	return Annotation{
		ID:      uuid.New().String(),
		VideoID: videoID,
		FrameID: frameID,
		Label:   label,
		X1:      x1,
		Y1:      y1,
		X2:      x2,
		Y2:      y2,
	}
}
