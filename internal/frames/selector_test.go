package frames

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/kdimtricp/framecast/internal/models"
)

func framesWithNumbers(numbers ...int) []models.Frame {
	frames := make([]models.Frame, 0, len(numbers))
	for _, n := range numbers {
		frames = append(frames, models.Frame{
			ID:          fmt.Sprintf("frame-%d", n),
			FrameNumber: n,
		})
	}
	return frames
}

func numbersOf(frames []models.Frame) []int {
	numbers := make([]int, 0, len(frames))
	for _, f := range frames {
		numbers = append(numbers, f.FrameNumber)
	}
	return numbers
}

func TestByRate(t *testing.T) {
	tests := []struct {
		name    string
		numbers []int
		rate    int
		want    []int
	}{
		{
			name:    "rate 1 keeps everything",
			numbers: []int{0, 1, 2, 3, 4},
			rate:    1,
			want:    []int{0, 1, 2, 3, 4},
		},
		{
			name:    "rate 3 keeps multiples of 3",
			numbers: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
			rate:    3,
			want:    []int{0, 3, 6, 9},
		},
		{
			name:    "stride-spaced input",
			numbers: []int{0, 5, 10, 15},
			rate:    10,
			want:    []int{0, 10},
		},
		{
			name:    "unsorted input comes back ascending",
			numbers: []int{6, 0, 3, 9},
			rate:    3,
			want:    []int{0, 3, 6, 9},
		},
		{
			name:    "empty input",
			numbers: nil,
			rate:    2,
			want:    []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := numbersOf(ByRate(framesWithNumbers(tt.numbers...), tt.rate))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ByRate = %v, want %v", got, tt.want)
			}
		})
	}
}

func names(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("video_%04d.jpg", i))
	}
	return out
}

func TestByCount(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		target int
		want   []string
	}{
		{
			name:   "total greater than target picks evenly",
			total:  10,
			target: 5,
			want:   []string{"video_0000.jpg", "video_0002.jpg", "video_0004.jpg", "video_0006.jpg", "video_0008.jpg"},
		},
		{
			name:   "total equal to target returns all",
			total:  4,
			target: 4,
			want:   names(4),
		},
		{
			name:   "total smaller than target returns all",
			total:  3,
			target: 10,
			want:   names(3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ByCount(names(tt.total), tt.target)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ByCount = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestByCount_ExactTargetWhenDivisible(t *testing.T) {
	for total := 11; total <= 40; total++ {
		got := ByCount(names(total), 10)
		if len(got) != 10 {
			t.Errorf("total=%d: expected 10 picks, got %d", total, len(got))
		}
	}
}

func TestWindow(t *testing.T) {
	list := []string{
		"v_0000.jpg", "v_0005.jpg", "v_0010.jpg", "v_0015.jpg", "v_0020.jpg", "v_0025.jpg",
	}

	t.Run("target in the middle", func(t *testing.T) {
		window, found := Window(list, 15, 2)
		if !found {
			t.Fatal("expected target to be found")
		}
		want := []string{"v_0005.jpg", "v_0010.jpg", "v_0015.jpg", "v_0020.jpg", "v_0025.jpg"}
		if !reflect.DeepEqual(window, want) {
			t.Errorf("Window = %v, want %v", window, want)
		}
	})

	t.Run("target at the start clips the left side", func(t *testing.T) {
		window, found := Window(list, 0, 2)
		if !found {
			t.Fatal("expected target to be found")
		}
		want := []string{"v_0000.jpg", "v_0005.jpg", "v_0010.jpg"}
		if !reflect.DeepEqual(window, want) {
			t.Errorf("Window = %v, want %v", window, want)
		}
	})

	t.Run("absent target anchors at zero without the anchor frame", func(t *testing.T) {
		window, found := Window(list, 7, 2)
		if found {
			t.Fatal("expected target to be absent")
		}
		want := []string{"v_0005.jpg", "v_0010.jpg"}
		if !reflect.DeepEqual(window, want) {
			t.Errorf("Window = %v, want %v", window, want)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		window, found := Window(nil, 3, 2)
		if found || len(window) != 0 {
			t.Errorf("Window = %v, found=%v", window, found)
		}
	})
}

func TestOrdinal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"plain", "video_0042.jpg", 42, false},
		{"title with underscores", "my_video_0100.jpg", 100, false},
		{"no suffix", "video.jpg", 0, true},
		{"non numeric", "video_final.jpg", 0, true},
		{"trailing underscore", "video_.jpg", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Ordinal(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ordinal(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Ordinal(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestListDir(t *testing.T) {
	logger := zap.NewNop()

	t.Run("missing directory yields empty list", func(t *testing.T) {
		names, err := ListDir(filepath.Join(t.TempDir(), "nope"), logger)
		if err != nil {
			t.Fatalf("ListDir failed: %v", err)
		}
		if len(names) != 0 {
			t.Errorf("Expected empty list, got %v", names)
		}
	})

	t.Run("sorts by ordinal and skips malformed names", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"v_0010.jpg", "v_0002.jpg", "notes.txt", "v_0001.jpg"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
				t.Fatalf("Failed to write %s: %v", name, err)
			}
		}

		names, err := ListDir(dir, logger)
		if err != nil {
			t.Fatalf("ListDir failed: %v", err)
		}
		want := []string{"v_0001.jpg", "v_0002.jpg", "v_0010.jpg"}
		if !reflect.DeepEqual(names, want) {
			t.Errorf("ListDir = %v, want %v", names, want)
		}
	})
}
