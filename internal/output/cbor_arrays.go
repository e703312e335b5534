package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"

	"imagepack-viewer/internal/types"
)

const (
	tagMultiDimArray = 40
	tagUint8         = 64
)

// PackDocument is the CBOR export of one image pack. Each image is a
// tag 40 multi-dimensional array of [height, width] wrapping a tag 64
// uint8 typed array.
type PackDocument struct {
	Type       string     `cbor:"type"`
	Sequence   uint64     `cbor:"sequence"`
	CapturedAt float64    `cbor:"captured_at"`
	Imgs       []cbor.Tag `cbor:"imgs"`
}

func EncodePackCBOR(seq uint64, capturedAt time.Time, pack types.ImagePack) ([]byte, error) {
	doc := PackDocument{
		Type:       "imagepack",
		Sequence:   seq,
		CapturedAt: float64(capturedAt.UnixNano()) / 1e9,
		Imgs:       make([]cbor.Tag, 0, len(pack)),
	}
	for _, record := range pack {
		doc.Imgs = append(doc.Imgs, encodeMultiDimArray(record))
	}
	return cbor.Marshal(doc)
}

// WritePackCBOR writes <ts>_<seq>_pack.cbor into outputDir.
func WritePackCBOR(outputDir string, runTimestamp string, seq uint64, capturedAt time.Time, pack types.ImagePack) (string, error) {
	data, err := EncodePackCBOR(seq, capturedAt, pack)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	name := filepath.Join(outputDir, fmt.Sprintf("%s_%06d_pack.cbor", runTimestamp, seq))
	return name, os.WriteFile(name, data, 0o644)
}

func DecodePackCBOR(data []byte) (PackDocument, types.ImagePack, error) {
	var doc PackDocument
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return PackDocument{}, nil, err
	}
	if doc.Type != "imagepack" {
		return doc, nil, fmt.Errorf("unexpected document type %q", doc.Type)
	}
	pack := make(types.ImagePack, 0, len(doc.Imgs))
	for i, tag := range doc.Imgs {
		record, err := decodeMultiDimArray(tag)
		if err != nil {
			return doc, nil, fmt.Errorf("imgs[%d]: %w", i, err)
		}
		pack = append(pack, record)
	}
	return doc, pack, nil
}

func encodeMultiDimArray(record types.ImageRecord) cbor.Tag {
	pix := record.Pix
	if pix == nil {
		pix = []byte{}
	}
	return cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{record.Height, record.Width},
			cbor.Tag{Number: tagUint8, Content: pix},
		},
	}
}

func decodeMultiDimArray(tag cbor.Tag) (types.ImageRecord, error) {
	if tag.Number != tagMultiDimArray {
		return types.ImageRecord{}, fmt.Errorf("expected multidim tag 40, got %d", tag.Number)
	}

	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		return types.ImageRecord{}, errors.New("invalid multidim array content")
	}

	dimsRaw, ok := items[0].([]any)
	if !ok || len(dimsRaw) != 2 {
		return types.ImageRecord{}, errors.New("invalid multidim dimensions")
	}
	rows, err := toUint32(dimsRaw[0])
	if err != nil {
		return types.ImageRecord{}, err
	}
	cols, err := toUint32(dimsRaw[1])
	if err != nil {
		return types.ImageRecord{}, err
	}

	data, ok := items[1].(cbor.Tag)
	if !ok || data.Number != tagUint8 {
		return types.ImageRecord{}, errors.New("expected uint8 typed array tag 64")
	}
	pix, ok := data.Content.([]byte)
	if !ok {
		return types.ImageRecord{}, fmt.Errorf("unsupported typed array content %T", data.Content)
	}
	if uint64(rows)*uint64(cols) != uint64(len(pix)) {
		return types.ImageRecord{}, errors.New("dimension mismatch")
	}
	return types.ImageRecord{Width: cols, Height: rows, Pix: pix}, nil
}

func toUint32(v any) (uint32, error) {
	switch n := v.(type) {
	case uint64:
		return uint32(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative dimension %d", n)
		}
		return uint32(n), nil
	case uint32:
		return n, nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative dimension %d", n)
		}
		return uint32(n), nil
	default:
		return 0, fmt.Errorf("unsupported int type %T", v)
	}
}
