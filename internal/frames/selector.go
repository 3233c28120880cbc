// Package frames computes which of a video's extracted frames to return.
// The policies are independent of how frames were produced: the rate policy
// works over persisted frame records, the count and window policies over the
// ordered frame file listing (the legacy compat path).
package frames

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kdimtricp/framecast/internal/models"
)

// Descriptor is the lightweight view handed to clients for per-frame fetch.
type Descriptor struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// ByRate keeps every frame whose frame number is evenly divisible by rate,
// ascending by frame number. rate=1 keeps everything.
func ByRate(frames []models.Frame, rate int) []models.Frame {
	if rate < 1 {
		rate = 1
	}

	selected := make([]models.Frame, 0, len(frames))
	for _, frame := range frames {
		if frame.FrameNumber%rate == 0 {
			selected = append(selected, frame)
		}
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].FrameNumber < selected[j].FrameNumber
	})
	return selected
}

// ByCount spreads target picks evenly across the ordered list using integer
// stride total/target. When the division is uneven the tail is never reached,
// so fewer than target entries can come back; that is accepted, not
// corrected. total <= target returns the list unchanged.
func ByCount(names []string, target int) []string {
	if target < 1 || len(names) <= target {
		return names
	}

	step := len(names) / target
	selected := make([]string, 0, target)
	for i := 0; i < target; i++ {
		selected = append(selected, names[i*step])
	}
	return selected
}

// Window returns the frame whose ordinal equals number plus up to radius
// neighbors on each side by position, resorted ascending by ordinal. found
// reports whether the exact ordinal was present; when it is not, the window
// is still anchored at position 0 but the anchor itself is not included —
// callers must not confuse that with a match at index 0.
func Window(names []string, number, radius int) ([]string, bool) {
	index := 0
	found := false
	window := make([]string, 0, 2*radius+1)

	for i, name := range names {
		ordinal, err := Ordinal(name)
		if err != nil {
			continue
		}
		if ordinal == number {
			index = i
			found = true
			window = append(window, name)
			break
		}
	}

	for i := 0; i < radius; i++ {
		if index+i+1 < len(names) {
			window = append(window, names[index+i+1])
		}
		if index-i-1 >= 0 {
			window = append(window, names[index-i-1])
		}
	}

	sort.Slice(window, func(i, j int) bool {
		a, _ := Ordinal(window[i])
		b, _ := Ordinal(window[j])
		return a < b
	})
	return window, found
}

// Ordinal parses the frame number out of a filename of the form
// <anything>_<digits>.<ext>.
func Ordinal(name string) (int, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	idx := strings.LastIndexByte(base, '_')
	if idx == -1 || idx == len(base)-1 {
		return 0, fmt.Errorf("no ordinal suffix in %q", name)
	}

	digits := base[idx+1:]
	ordinal := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("malformed ordinal suffix in %q", name)
		}
		ordinal = ordinal*10 + int(r-'0')
	}
	return ordinal, nil
}

// ListDir returns the frame file names of a directory sorted ascending by
// ordinal. A missing directory yields an empty list; a file with a malformed
// name is excluded and logged, never fatal.
func ListDir(dir string, logger *zap.Logger) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("frames directory not found", zap.String("dir", dir))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read frames directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := Ordinal(entry.Name()); err != nil {
			logger.Warn("skipping frame file with malformed name",
				zap.String("dir", dir),
				zap.String("name", entry.Name()),
			)
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Slice(names, func(i, j int) bool {
		a, _ := Ordinal(names[i])
		b, _ := Ordinal(names[j])
		return a < b
	})
	return names, nil
}
