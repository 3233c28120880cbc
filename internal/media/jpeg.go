package media

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
)

// WriteJPEG encodes a raw rgb24 frame as a JPEG file. A failure here is
// recoverable for the caller: the frame is skipped and extraction goes on.
func WriteJPEG(frame RawFrame, path string, quality int) error {
	if frame.Width <= 0 || frame.Height <= 0 {
		return fmt.Errorf("empty frame %d", frame.Index)
	}
	if len(frame.Pix) < frame.Width*frame.Height*3 {
		return fmt.Errorf("frame %d pixel buffer too small", frame.Index)
	}

	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		src := y * frame.Width * 3
		dst := y * img.Stride
		for x := 0; x < frame.Width; x++ {
			img.Pix[dst+0] = frame.Pix[src+0]
			img.Pix[dst+1] = frame.Pix[src+1]
			img.Pix[dst+2] = frame.Pix[src+2]
			img.Pix[dst+3] = 0xff
			src += 3
			dst += 4
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	defer file.Close()

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: quality}); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}
