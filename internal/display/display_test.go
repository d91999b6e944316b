package display

import "testing"

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		expected string
	}{
		{name: "Full HD", w: 1920, h: 1080, expected: "16x9"},
		{name: "Ultrawide", w: 3440, h: 1440, expected: "43x18"},
		{name: "MacBook", w: 2560, h: 1600, expected: "8x5"},
		{name: "Portrait", w: 1080, h: 1920, expected: "9x16"},
		{name: "Square", w: 500, h: 500, expected: "1x1"},
		{name: "Zero Height", w: 1920, h: 0, expected: ""},
		{name: "Negative", w: -1, h: 10, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AspectRatio(tt.w, tt.h); got != tt.expected {
				t.Errorf("AspectRatio(%d, %d) = %q, want %q", tt.w, tt.h, got, tt.expected)
			}
		})
	}

	if got := (Resolution{Width: 1280, Height: 1024}).AspectRatio(); got != "5x4" {
		t.Errorf("Resolution.AspectRatio() = %q, want 5x4", got)
	}
}
