// Package overlay loads decorative RGBA assets and derives the per-call resized, mirrored and
// plane-split copies the filters composite.
package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/andresmejia3/facefx/internal/compositor"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrAssetLoad is returned when an overlay source is missing, corrupt or has no alpha channel.
var ErrAssetLoad = errors.New("asset load failed")

// DBPrefix marks an asset location that lives in the asset store rather than on disk.
const DBPrefix = "db:"

// Asset is an immutable straight-alpha image. It is never written after construction, so a
// single Asset may be shared by concurrent callers.
type Asset struct {
	img *image.NRGBA
}

// Fetcher returns the encoded bytes of a named asset.
type Fetcher interface {
	GetAsset(ctx context.Context, name string) ([]byte, error)
}

// Load decodes the image file at path.
func Load(path string) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetLoad, err)
	}
	defer f.Close()

	a, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Resolve loads location from disk, or from db when it carries the "db:" prefix.
func Resolve(ctx context.Context, location string, db Fetcher) (*Asset, error) {
	name, ok := strings.CutPrefix(location, DBPrefix)
	if !ok {
		return Load(location)
	}
	if db == nil {
		return nil, fmt.Errorf("%w: %s requires a database connection", ErrAssetLoad, location)
	}
	data, err := db.GetAsset(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetLoad, location, err)
	}
	a, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return a, nil
}

// Decode reads a PNG, GIF, JPEG or WebP stream. The decoded image must carry an alpha channel,
// which rules out JPEG and opaque PNG/WebP encodings.
func Decode(r io.Reader) (*Asset, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetLoad, err)
	}
	switch v := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
	case *image.Paletted:
		if !translucentPalette(v.Palette) {
			return nil, fmt.Errorf("%w: %s palette has no transparent entry", ErrAssetLoad, format)
		}
	default:
		return nil, fmt.Errorf("%w: %s image has no alpha channel", ErrAssetLoad, format)
	}
	a := FromImage(img)
	if a.Width() == 0 || a.Height() == 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrAssetLoad, format)
	}
	return a, nil
}

// translucentPalette reports whether any entry is below full opacity, i.e. the source carried
// a tRNS chunk or a GIF transparent index.
func translucentPalette(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a < 0xffff {
			return true
		}
	}
	return false
}

// FromImage copies img into a new asset.
func FromImage(img image.Image) *Asset {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			s := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[s:s+b.Dx()*4])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	return &Asset{img: dst}
}

// Solid returns a w×h asset filled with c.
func Solid(w, h int, c color.NRGBA) *Asset {
	img := image.NewNRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return &Asset{img: img}
}

// Width of the source image.
func (a *Asset) Width() int { return a.img.Rect.Dx() }

// Height of the source image.
func (a *Asset) Height() int { return a.img.Rect.Dy() }

// Resize returns a fresh w×h bilinear copy. Each dimension is floored at one pixel so that
// tiny faces still produce a drawable overlay.
func (a *Asset) Resize(w, h int) *image.NRGBA {
	w, h = max(w, 1), max(h, 1)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), a.img, a.img.Bounds(), xdraw.Src, nil)
	return dst
}

// Mirror returns img reflected left to right.
func Mirror(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			copy(row[(w-1-x)*4:(w-x)*4], src[x*4:x*4+4])
		}
	}
	return dst
}

// Planes splits img into the normalized alpha and RGB planes consumed by compositor.Blend.
func Planes(img *image.NRGBA) compositor.Layer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	l := compositor.Layer{
		Width:  w,
		Height: h,
		Alpha:  make([]float64, w*h),
		RGB:    make([]uint8, w*h*compositor.Channels),
	}
	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			k := y*w + x
			p := src[x*4 : x*4+4]
			l.RGB[k*3], l.RGB[k*3+1], l.RGB[k*3+2] = p[0], p[1], p[2]
			l.Alpha[k] = float64(p[3]) / 255.0
		}
	}
	return l
}
