package canopy

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// imageExtensions lists the file types the image loader accepts.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}

// Image is a drawable texture. After MakeFont it can also write text from a
// strip of fixed-size glyph cells.
type Image struct {
	img  *ebiten.Image
	font *bitmapFont
}

// bitmapFont maps characters to cells of a horizontal glyph strip.
type bitmapFont struct {
	w, h  int
	index map[rune]int
}

// NewImage wraps an Ebitengine image as a resource.
func NewImage(img *ebiten.Image) *Image {
	return &Image{img: img}
}

func loadImage(_ *App, path string) (Resource, error) {
	src, err := decodeImage(path)
	if err != nil {
		return nil, err
	}
	return NewImage(ebiten.NewImageFromImage(src)), nil
}

// decodeImage reads and decodes an image file with the registered decoders.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Ebiten returns the underlying image.
func (i *Image) Ebiten() *ebiten.Image { return i.img }

// Size returns the image size in pixels.
func (i *Image) Size() (int, int) {
	b := i.img.Bounds()
	return b.Dx(), b.Dy()
}

// Draw draws the image, or its Src region, at (X, Y) scaled to Width x Height
// when both are set.
func (i *Image) Draw(dst *ebiten.Image, opts DrawOptions) {
	src := i.img
	if !opts.Src.Empty() {
		src = i.img.SubImage(opts.Src).(*ebiten.Image)
	}
	op := &ebiten.DrawImageOptions{}
	b := src.Bounds()
	if opts.Width > 0 && opts.Height > 0 && b.Dx() > 0 && b.Dy() > 0 {
		op.GeoM.Scale(opts.Width/float64(b.Dx()), opts.Height/float64(b.Dy()))
	}
	op.GeoM.Translate(opts.X, opts.Y)
	op.ColorScale = opts.Tint.colorScale()
	dst.DrawImage(src, op)
}

// MakeFont turns the image into a bitmap font: cell n of the top row, w x h
// pixels, holds the n-th character of charset.
func (i *Image) MakeFont(w, h int, charset string) {
	f := &bitmapFont{w: w, h: h, index: make(map[rune]int)}
	n := 0
	for _, r := range charset {
		if _, dup := f.index[r]; !dup {
			f.index[r] = n
		}
		n++
	}
	i.font = f
}

// IsFont reports whether MakeFont was called.
func (i *Image) IsFont() bool { return i.font != nil }

// glyph is one placed character: the source cell and where it lands.
type glyph struct {
	src  image.Rectangle
	x, y float64
}

// layout places text starting at (x, y). Characters missing from the charset
// are skipped and do not advance the pen.
func (f *bitmapFont) layout(x, y float64, text string, buf []glyph) []glyph {
	for _, r := range text {
		n, ok := f.index[r]
		if !ok {
			continue
		}
		buf = append(buf, glyph{
			src: image.Rect(n*f.w, 0, (n+1)*f.w, f.h),
			x:   x,
			y:   y,
		})
		x += float64(f.w)
	}
	return buf
}

// WriteText draws text with the bitmap font.
func (i *Image) WriteText(dst *ebiten.Image, x, y float64, text string, tint Color) error {
	if i.font == nil {
		return ErrNotWritable
	}
	cs := tint.colorScale()
	for _, g := range i.font.layout(x, y, text, nil) {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(g.x, g.y)
		op.ColorScale = cs
		dst.DrawImage(i.img.SubImage(g.src).(*ebiten.Image), op)
	}
	return nil
}

// Close releases the texture.
func (i *Image) Close() error {
	i.img.Deallocate()
	return nil
}
