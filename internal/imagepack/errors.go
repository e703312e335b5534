package imagepack

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPack     = errors.New("malformed image pack")
	ErrDimensionMismatch = errors.New("image dimension mismatch")
)

// DimensionMismatchError reports an entry whose pixel data length is not
// Width*Height.
type DimensionMismatchError struct {
	Index  int
	Width  uint32
	Height uint32
	Len    int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("imgs[%d]: %dx%d image carries %d bytes, want %d",
		e.Index, e.Width, e.Height, e.Len, uint64(e.Width)*uint64(e.Height))
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
