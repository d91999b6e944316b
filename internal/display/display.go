// Package display inspects the attached screens.
package display

import (
	"fmt"

	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// Resolution is a screen size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// AspectRatio returns the reduced ratio, e.g. "16x9" for 1920x1080.
func (r Resolution) AspectRatio() string {
	return AspectRatio(r.Width, r.Height)
}

// AspectRatio reduces w:h by their greatest common divisor. Degenerate sizes yield "".
func AspectRatio(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	d := gcd(w, h)
	return fmt.Sprintf("%dx%d", w/d, h/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Primary detects the resolution of the primary display. ok is false when no
// display could be queried.
func Primary(logger *zap.Logger) (res Resolution, ok bool) {
	defer func() {
		// screenshot panics on some headless setups
		if r := recover(); r != nil {
			logger.Debug("Display detection failed", zap.Any("reason", r))
			res, ok = Resolution{}, false
		}
	}()

	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		logger.Debug("No active displays detected")
		return Resolution{}, false
	}

	// Use primary monitor (index 0)
	bounds := screenshot.GetDisplayBounds(0)
	res = Resolution{Width: bounds.Dx(), Height: bounds.Dy()}
	if res.Width <= 0 || res.Height <= 0 {
		return Resolution{}, false
	}

	logger.Debug("Screen resolution detected",
		zap.Int("width", res.Width),
		zap.Int("height", res.Height))
	return res, true
}

// DefaultAspectRatios returns the primary display's aspect ratio as a one element
// slice, or nil when it cannot be detected.
func DefaultAspectRatios(logger *zap.Logger) []string {
	res, ok := Primary(logger)
	if !ok {
		return nil
	}
	return []string{res.AspectRatio()}
}
