// Package imaging renders avatar thumbnails.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/incuna/user-management/internal/core/domain"
)

// MaxSourcePixels bounds the decoded size of a source image.
const MaxSourcePixels = 40_000_000

var ErrTooLarge = domain.ErrImageTooLarge

// Resizer scales images with Catmull-Rom resampling and encodes PNG.
type Resizer struct{}

func NewResizer() *Resizer { return &Resizer{} }

// Check fully decodes src and fails with domain.ErrInvalidImage or
// ErrTooLarge when it could not be thumbnailed later.
func (r *Resizer) Check(src io.Reader) error {
	_, _, err := decode(src)
	return err
}

// Thumbnail scales src to fit within width x height. When one side is zero
// it is derived from the other keeping the aspect ratio.
func (r *Resizer) Thumbnail(src io.Reader, width, height int) ([]byte, error) {
	img, cfg, err := decode(src)
	if err != nil {
		return nil, err
	}

	w, h := fit(cfg.Width, cfg.Height, width, height)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

// decode reads the header first so oversized images are rejected before
// their pixels are allocated.
func decode(src io.Reader) (image.Image, image.Config, error) {
	var buf bytes.Buffer
	tee := io.TeeReader(src, &buf)

	cfg, _, err := image.DecodeConfig(tee)
	if err != nil {
		return nil, cfg, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, cfg, ErrTooLarge
	}

	img, _, err := image.Decode(io.MultiReader(&buf, src))
	if err != nil {
		return nil, cfg, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	return img, cfg, nil
}

// fit returns the largest size with the source aspect ratio that fits in
// the requested box.
func fit(srcW, srcH, width, height int) (int, int) {
	switch {
	case width == 0 && height == 0:
		return srcW, srcH
	case height == 0:
		return width, max(1, srcH*width/srcW)
	case width == 0:
		return max(1, srcW*height/srcH), height
	}

	w, h := width, srcH*width/srcW
	if h > height {
		w, h = srcW*height/srcH, height
	}
	return max(1, w), max(1, h)
}
