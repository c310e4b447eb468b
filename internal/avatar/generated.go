package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"golang.org/x/image/draw"
)

// DefaultGeneratedSize is the edge length of generated avatars in pixels.
const DefaultGeneratedSize = 256

var (
	backgroundColor = color.RGBA{0xee, 0xf1, 0xf5, 0xff}
	skinColor       = color.RGBA{0xf2, 0xc9, 0xa0, 0xff}
	hairColor       = color.RGBA{0x4a, 0x2f, 0x1b, 0xff}
	featureColor    = color.RGBA{0x2b, 0x2b, 0x2b, 0xff}
	blushColor      = color.RGBA{0xf0, 0x8c, 0x9a, 0xff}

	clothesColors = []color.RGBA{
		{0x4f, 0x8f, 0xd8, 0xff}, // Tshirt
		{0xd8, 0x4f, 0x4f, 0xff}, // Sport
		{0x2c, 0x33, 0x48, 0xff}, // Formal
	}
)

// GeneratedAssets draws every combination from flat layers: body, head,
// face and hair, the same order as the preview layers. Encoded images are
// cached per key.
type GeneratedAssets struct {
	size int

	mu    sync.Mutex
	cache map[string]*Asset
}

func NewGeneratedAssets(size int) *GeneratedAssets {
	if size <= 0 {
		size = DefaultGeneratedSize
	}
	return &GeneratedAssets{size: size, cache: make(map[string]*Asset)}
}

func (g *GeneratedAssets) Load(key string) (*Asset, error) {
	sel, ok := ParseKey(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, key)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if a, ok := g.cache[key]; ok {
		return a, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Compose(sel, g.size)); err != nil {
		return nil, fmt.Errorf("encode avatar %s: %w", key, err)
	}
	a := &Asset{Key: key, Data: buf.Bytes(), ContentType: "image/png"}
	g.cache[key] = a
	return a, nil
}

// ParseKey is the inverse of DeriveKey.
func ParseKey(key string) (Selection, bool) {
	digits, ok := strings.CutPrefix(key, "char")
	if !ok || len(digits) != 3 {
		return Selection{}, false
	}
	var idx [3]int
	for i := range digits {
		idx[i] = int(digits[i]-'0') - 1
	}
	sel := Selection{Hair: idx[0], Clothes: idx[1], Face: idx[2]}
	if sel.Validate() != nil {
		return Selection{}, false
	}
	return sel, true
}

// Compose renders sel on a size x size canvas.
func Compose(sel Selection, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fill(img, img.Bounds(), backgroundColor)

	u := size / 16
	cx := size / 2
	headR := 4 * u
	headCY := 6 * u

	// body
	fill(img, image.Rect(cx-5*u, 11*u, cx+5*u, size), clothesColors[sel.Clothes])
	fill(img, image.Rect(cx-u, 10*u, cx+u, 11*u), skinColor)

	disc(img, cx, headCY, headR, skinColor)

	// face
	eyeY := headCY - u/2
	disc(img, cx-3*u/2, eyeY, u/3+1, featureColor)
	disc(img, cx+3*u/2, eyeY, u/3+1, featureColor)
	mouthY := headCY + 3*u/2
	switch sel.Face {
	case 0: // Smile
		fill(img, image.Rect(cx-3*u/2, mouthY, cx+3*u/2, mouthY+u/4+1), featureColor)
		fill(img, image.Rect(cx-2*u, mouthY-u/2, cx-3*u/2, mouthY+u/4+1), featureColor)
		fill(img, image.Rect(cx+3*u/2, mouthY-u/2, cx+2*u, mouthY+u/4+1), featureColor)
	case 1: // Calm
		fill(img, image.Rect(cx-u, mouthY, cx+u, mouthY+u/4+1), featureColor)
	case 2: // Cute
		disc(img, cx, mouthY, u/2, featureColor)
		disc(img, cx-5*u/2, headCY+u/2, u/2, blushColor)
		disc(img, cx+5*u/2, headCY+u/2, u/2, blushColor)
	}

	// hair
	switch sel.Hair {
	case 1: // Short
		fill(img, image.Rect(cx-headR, headCY-headR, cx+headR, headCY-2*u), hairColor)
	case 2: // Long
		fill(img, image.Rect(cx-headR, headCY-headR, cx+headR, headCY-2*u), hairColor)
		fill(img, image.Rect(cx-headR-u, headCY-2*u, cx-headR+u/2, 12*u), hairColor)
		fill(img, image.Rect(cx+headR-u/2, headCY-2*u, cx+headR+u, 12*u), hairColor)
	}
	return img
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func disc(dst *image.RGBA, cx, cy, r int, c color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(dst.Bounds()) {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}

// Verify loads every combination from src and reports the ones it cannot
// serve.
func Verify(src AssetSource) error {
	var errs []error
	for h := range HairOptions {
		for c := range ClothesOptions {
			for f := range FaceOptions {
				if _, err := src.Load(DeriveKey(h, c, f)); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}
