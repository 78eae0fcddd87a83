package canopy

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// screenshotter is implemented by surfaces that can capture presented frames.
type screenshotter interface {
	Screenshot(label string)
}

// Screenshot queues a labeled capture of the next presented frame and touches
// the app so that frame is rendered. Surfaces that cannot capture log a
// warning instead.
func (a *App) Screenshot(label string) {
	s, ok := a.surface.(screenshotter)
	if !ok {
		a.rootLogger.Warn("surface does not support screenshots", "label", label)
		return
	}
	s.Screenshot(label)
	a.Touch()
}

// Screenshot queues a labeled screenshot to be captured at the next Present.
// The resulting PNG is written to ScreenshotDir with a timestamped filename.
func (c *Canvas) Screenshot(label string) {
	c.screenshotQueue = append(c.screenshotQueue, label)
}

// flushScreenshots captures frame for every queued label and writes each as
// a PNG file.
func (c *Canvas) flushScreenshots(frame *ebiten.Image) {
	if len(c.screenshotQueue) == 0 {
		return
	}
	defer func() { c.screenshotQueue = c.screenshotQueue[:0] }()

	if err := os.MkdirAll(c.ScreenshotDir, 0o755); err != nil {
		c.logger.Error("screenshot failed", "dir", c.ScreenshotDir, "err", err)
		return
	}

	img := readFrame(frame)
	stamp := time.Now().Format("20060102_150405")
	for _, label := range c.screenshotQueue {
		path := screenshotPath(c.ScreenshotDir, stamp, label)
		if err := writePNG(path, img); err != nil {
			c.logger.Error("screenshot failed", "label", label, "err", err)
			continue
		}
		c.logger.Info("screenshot saved", "path", path)
	}
}

// readFrame copies frame into a straight-alpha image.
func readFrame(frame *ebiten.Image) *image.NRGBA {
	bounds := frame.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, 4*w*h)
	frame.ReadPixels(pixels)

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	unpremultiply(img.Pix, pixels)
	return img
}

// unpremultiply converts premultiplied RGBA pixels in src to straight alpha
// in dst. Both slices hold 4 bytes per pixel.
func unpremultiply(dst, src []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		r, g, b, a := src[i], src[i+1], src[i+2], src[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		dst[i] = r
		dst[i+1] = g
		dst[i+2] = b
		dst[i+3] = a
	}
}

func screenshotPath(dir, stamp, label string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
