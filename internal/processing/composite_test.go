package processing

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagepack-viewer/internal/imagepack"
	"imagepack-viewer/internal/types"
)

func uniform(w, h int, v byte) types.ImageRecord {
	return fill(w, h, func(int, int) byte { return v })
}

func fill(w, h int, f func(x, y int) byte) types.ImageRecord {
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = f(x, y)
		}
	}
	return types.ImageRecord{Width: uint32(w), Height: uint32(h), Pix: pix}
}

func TestCompositeInsufficientImages(t *testing.T) {
	for _, pack := range []types.ImagePack{nil, {}, {uniform(4, 4, 1)}} {
		_, err := Composite(pack, 400)
		assert.ErrorIs(t, err, ErrInsufficientImages, "pack of %d", len(pack))
	}
}

func TestCompositeDimensions(t *testing.T) {
	pack := types.ImagePack{uniform(100, 50, 1), uniform(200, 100, 2)}

	frame, err := Composite(pack, 400)
	require.NoError(t, err)
	assert.Equal(t, 400, frame.Height())
	assert.Equal(t, [2]int{800, 800}, frame.ViewWidths)
	assert.Equal(t, 1600, frame.Width())
}

func TestCompositeFloorsScaledWidth(t *testing.T) {
	pack := types.ImagePack{uniform(640, 480, 1), uniform(333, 100, 2)}

	frame, err := Composite(pack, 400)
	require.NoError(t, err)
	// 640*400/480 = 533.3, 333*4 = 1332
	assert.Equal(t, [2]int{533, 1332}, frame.ViewWidths)
	assert.Equal(t, 533+1332, frame.Width())
	assert.Equal(t, 400, frame.Height())
}

func TestCompositeIgnoresExtraEntries(t *testing.T) {
	pack := types.ImagePack{uniform(10, 10, 1), uniform(10, 10, 2), uniform(1, 1000, 3)}

	frame, err := Composite(pack, 20)
	require.NoError(t, err)
	assert.Equal(t, 40, frame.Width())
}

func TestCompositeDegenerateResize(t *testing.T) {
	_, err := Composite(types.ImagePack{uniform(10, 10, 0), uniform(1, 1000, 0)}, 400)
	require.ErrorIs(t, err, ErrDegenerateResize)
	assert.Contains(t, err.Error(), "imgs[1]")

	_, err = Composite(types.ImagePack{{}, uniform(10, 10, 0)}, 400)
	assert.ErrorIs(t, err, ErrDegenerateResize)
}

func TestCompositeRejectsShortPixelData(t *testing.T) {
	short := types.ImageRecord{Width: 4, Height: 4, Pix: make([]byte, 3)}

	for i, pack := range []types.ImagePack{
		{short, uniform(4, 4, 1)},
		{uniform(4, 4, 1), short},
	} {
		var frame *Frame
		var err error
		require.NotPanics(t, func() { frame, err = Composite(pack, 8) })
		assert.Nil(t, frame)
		require.ErrorIs(t, err, imagepack.ErrDimensionMismatch)

		var mismatch *imagepack.DimensionMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, i, mismatch.Index)
		assert.Equal(t, 3, mismatch.Len)
	}

	long := types.ImageRecord{Width: 2, Height: 2, Pix: make([]byte, 5)}
	_, err := Composite(types.ImagePack{uniform(2, 2, 0), long}, 2)
	assert.ErrorIs(t, err, imagepack.ErrDimensionMismatch)
}

func TestCompositeInvalidTargetHeight(t *testing.T) {
	_, err := Composite(types.ImagePack{uniform(2, 2, 0), uniform(2, 2, 0)}, 0)
	assert.ErrorIs(t, err, ErrInvalidTargetHeight)
}

func TestExpandGrayIsLossless(t *testing.T) {
	record := fill(16, 16, func(x, y int) byte { return byte(x*16 + y) })

	rgba := ExpandGray(record)
	require.Equal(t, image.Rect(0, 0, 16, 16), rgba.Rect)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			want := record.Pix[y*16+x]
			c := rgba.RGBAAt(x, y)
			assert.Equal(t, want, c.R)
			assert.Equal(t, want, c.G)
			assert.Equal(t, want, c.B)
			assert.Equal(t, uint8(0xff), c.A)
		}
	}
}

func TestResizeSameSizeCopies(t *testing.T) {
	src := ExpandGray(fill(5, 3, func(x, y int) byte { return byte(x + y*5) }))

	dst := Resize(src, 5, 3)
	assert.Equal(t, src.Pix, dst.Pix)
	assert.NotSame(t, &src.Pix[0], &dst.Pix[0])
}

func TestConcatHeightMismatch(t *testing.T) {
	left := image.NewRGBA(image.Rect(0, 0, 4, 4))
	right := image.NewRGBA(image.Rect(0, 0, 4, 5))

	_, err := Concat(left, right)
	assert.ErrorIs(t, err, ErrHeightMismatch)
}

func TestCompositeRoundTripSamples(t *testing.T) {
	// left: vertical split 10 | 240, right: horizontal split 30 / 180
	left := fill(100, 50, func(x, _ int) byte {
		if x < 50 {
			return 10
		}
		return 240
	})
	right := fill(200, 100, func(_, y int) byte {
		if y < 50 {
			return 30
		}
		return 180
	})

	pack, err := imagepack.Decode(imagepack.Encode(types.ImagePack{left, right}))
	require.NoError(t, err)

	frame, err := Composite(pack, 400)
	require.NoError(t, err)
	require.Equal(t, 1600, frame.Width())

	samples := []struct {
		x, y int
		want uint8
	}{
		{100, 200, 10},
		{350, 20, 10},
		{700, 200, 240},
		{450, 390, 240},
		{800 + 400, 50, 30},
		{800 + 10, 150, 30},
		{800 + 400, 350, 180},
		{1590, 250, 180},
	}
	for _, s := range samples {
		r, g, b := frame.RGB(s.x, s.y)
		assert.Equal(t, s.want, r, "R at (%d,%d)", s.x, s.y)
		assert.Equal(t, r, g, "G at (%d,%d)", s.x, s.y)
		assert.Equal(t, r, b, "B at (%d,%d)", s.x, s.y)
	}
}
