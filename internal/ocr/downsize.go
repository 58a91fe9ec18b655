package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"sort"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
)

// DefaultMaxPixels bounds the decoded size of an image (25 megapixels).
const DefaultMaxPixels int64 = 25_000_000

// ErrImageTooLarge is returned for images whose declared dimensions exceed the pixel cap.
var ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")

// Preprocessor applies the resolution-versus-latency policy: bigger payloads get a
// smaller maximum dimension so recognition stays inside the job timeout.
type Preprocessor struct {
	tiers     []common.DownsizeTier // sorted by MinBytes, descending
	grayscale bool
	maxPixels int64
}

// Prepared is the image handed to the engine.
type Prepared struct {
	Data           []byte
	Width, Height  int
	OriginalWidth  int
	OriginalHeight int
	MaxDimension   int
	Scaled         bool
}

func NewPreprocessor(tiers []common.DownsizeTier, grayscale bool) *Preprocessor {
	sorted := make([]common.DownsizeTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinBytes > sorted[j].MinBytes })
	return &Preprocessor{tiers: sorted, grayscale: grayscale, maxPixels: DefaultMaxPixels}
}

// WithMaxPixels sets the width*height cap checked before decoding. n <= 0 keeps the default.
func (p *Preprocessor) WithMaxPixels(n int64) *Preprocessor {
	if n > 0 {
		p.maxPixels = n
	}
	return p
}

// MaxDimensionFor returns the longest-side cap for a payload of size bytes, or 0 for none.
func (p *Preprocessor) MaxDimensionFor(size int64) int {
	for _, t := range p.tiers {
		if size >= t.MinBytes {
			return t.MaxDimension
		}
	}
	return 0
}

// Prepare decodes data, scales it down to the tier's cap with Catmull-Rom resampling,
// optionally converts to grayscale, and re-encodes as PNG. The header is read first so
// oversized images are rejected without allocating their pixels.
func (p *Preprocessor) Prepare(ctx context.Context, data []byte) (Prepared, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Prepared{}, fmt.Errorf("decode image header: %w", err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > p.maxPixels {
		return Prepared{}, fmt.Errorf("%w: %s image is %dx%d, limit %d pixels", ErrImageTooLarge, format, cfg.Width, cfg.Height, p.maxPixels)
	}
	if err := ctx.Err(); err != nil {
		return Prepared{}, err
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Prepared{}, fmt.Errorf("decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Prepared{}, err
	}
	b := src.Bounds()
	out := Prepared{
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
		Width:          b.Dx(),
		Height:         b.Dy(),
		MaxDimension:   p.MaxDimensionFor(int64(len(data))),
	}
	if out.Width == 0 || out.Height == 0 {
		return Prepared{}, fmt.Errorf("decode image: empty %s image", format)
	}

	w, h := fitWithin(out.Width, out.Height, out.MaxDimension)
	out.Scaled = w != out.Width || h != out.Height

	var dst draw.Image
	rect := image.Rect(0, 0, w, h)
	if p.grayscale {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	if out.Scaled {
		draw.CatmullRom.Scale(dst, rect, src, b, draw.Src, nil)
	} else {
		draw.Draw(dst, rect, src, b.Min, draw.Src)
	}
	out.Width, out.Height = w, h
	if err := ctx.Err(); err != nil {
		return Prepared{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Prepared{}, fmt.Errorf("encode png: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

// fitWithin scales (w,h) so the longest side is at most max, keeping the aspect ratio.
func fitWithin(w, h, max int) (int, int) {
	if max <= 0 || (w <= max && h <= max) {
		return w, h
	}
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}
