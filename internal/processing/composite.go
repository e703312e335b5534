package processing

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"golang.org/x/image/draw"

	"imagepack-viewer/internal/imagepack"
	"imagepack-viewer/internal/types"
)

var (
	ErrInsufficientImages  = errors.New("image pack needs at least two images")
	ErrDegenerateResize    = errors.New("resize would produce an empty image")
	ErrHeightMismatch      = errors.New("resized views differ in height")
	ErrInvalidTargetHeight = errors.New("target height must be positive")
)

// Frame is a side-by-side composite of the left and right views.
// R, G and B carry the three output channels; alpha is always opaque.
type Frame struct {
	Image      *image.RGBA
	ViewWidths [2]int
	Sequence   uint64
	CapturedAt time.Time
}

func (f *Frame) Width() int  { return f.Image.Rect.Dx() }
func (f *Frame) Height() int { return f.Image.Rect.Dy() }

// RGB returns the three channel values at (x, y).
func (f *Frame) RGB(x, y int) (r, g, b uint8) {
	c := f.Image.RGBAAt(x, y)
	return c.R, c.G, c.B
}

// Composite builds the display frame from the first two images of pack,
// each scaled to targetHeight with its aspect ratio preserved.
// Entries after the second are ignored. A record whose pixel count does
// not match its dimensions fails with *imagepack.DimensionMismatchError.
func Composite(pack types.ImagePack, targetHeight int) (*Frame, error) {
	if targetHeight <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTargetHeight, targetHeight)
	}
	if len(pack) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientImages, len(pack))
	}

	var views [2]*image.RGBA
	for i := range views {
		record := pack[i]
		if want := uint64(record.Width) * uint64(record.Height); uint64(len(record.Pix)) != want {
			return nil, &imagepack.DimensionMismatchError{Index: i, Width: record.Width, Height: record.Height, Len: len(record.Pix)}
		}
		width, err := ScaledWidth(record.Width, record.Height, targetHeight)
		if err != nil {
			return nil, fmt.Errorf("imgs[%d]: %w", i, err)
		}
		views[i] = Resize(ExpandGray(record), width, targetHeight)
	}

	img, err := Concat(views[0], views[1])
	if err != nil {
		return nil, err
	}
	return &Frame{
		Image:      img,
		ViewWidths: [2]int{views[0].Rect.Dx(), views[1].Rect.Dx()},
	}, nil
}

// ExpandGray replicates each grayscale sample into R, G and B. record.Pix
// must hold at least Width*Height samples.
func ExpandGray(record types.ImageRecord) *image.RGBA {
	w, h := int(record.Width), int(record.Height)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, v := range record.Pix[:w*h] {
		p := dst.Pix[i*4 : i*4+4 : i*4+4]
		p[0] = v
		p[1] = v
		p[2] = v
		p[3] = 0xff
	}
	return dst
}

// ScaledWidth returns floor(width * targetHeight/height).
func ScaledWidth(width, height uint32, targetHeight int) (int, error) {
	if width == 0 || height == 0 {
		return 0, fmt.Errorf("%w: source is %dx%d", ErrDegenerateResize, width, height)
	}
	scale := float64(targetHeight) / float64(height)
	scaled := int(math.Floor(float64(width) * scale))
	if scaled < 1 {
		return 0, fmt.Errorf("%w: %dx%d scaled to height %d has width %d",
			ErrDegenerateResize, width, height, targetHeight, scaled)
	}
	return scaled, nil
}

// Resize scales src to width x height with bilinear interpolation.
func Resize(src *image.RGBA, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if src.Rect.Dx() == width && src.Rect.Dy() == height {
		draw.Copy(dst, image.Point{}, src, src.Rect, draw.Src, nil)
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst
}

// Concat places right next to left.
func Concat(left, right *image.RGBA) (*image.RGBA, error) {
	if left.Rect.Dy() != right.Rect.Dy() {
		return nil, fmt.Errorf("%w: %d != %d", ErrHeightMismatch, left.Rect.Dy(), right.Rect.Dy())
	}
	lw := left.Rect.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, lw+right.Rect.Dx(), left.Rect.Dy()))
	draw.Copy(dst, image.Point{}, left, left.Rect, draw.Src, nil)
	draw.Copy(dst, image.Pt(lw, 0), right, right.Rect, draw.Src, nil)
	return dst, nil
}
