package types

import "image"

// ImageRecord is one 8-bit grayscale image of an image pack.
// Pix holds Height rows of Width bytes, row-major, without padding.
type ImageRecord struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Pix    []byte `json:"-"`
}

// Gray wraps the record as an *image.Gray sharing Pix.
func (r ImageRecord) Gray() *image.Gray {
	return &image.Gray{
		Pix:    r.Pix,
		Stride: int(r.Width),
		Rect:   image.Rect(0, 0, int(r.Width), int(r.Height)),
	}
}

// ImagePack is the ordered set of images from one server reply.
// Position is significant: entry 0 is the left view, entry 1 the right view.
type ImagePack []ImageRecord
