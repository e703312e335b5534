// Package imagepack reads and writes the protobuf image pack message
// exchanged with the capture server (see api/proto/imagepack.proto).
package imagepack

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"imagepack-viewer/internal/types"
)

const (
	fieldImgs protowire.Number = 1

	fieldWidth     protowire.Number = 1
	fieldHeight    protowire.Number = 2
	fieldImageData protowire.Number = 3
)

// Decode parses one serialized image pack. Records keep wire order and
// their Pix slices alias payload.
func Decode(payload []byte) (types.ImagePack, error) {
	pack := types.ImagePack{}
	b := payload
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed("pack tag", protowire.ParseError(n))
		}
		b = b[n:]

		if num != fieldImgs {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, malformed(fmt.Sprintf("unknown field %d", num), protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if typ != protowire.BytesType {
			return nil, fmt.Errorf("%w: imgs has wire type %d", ErrMalformedPack, typ)
		}
		entry, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, malformed(fmt.Sprintf("imgs[%d]", len(pack)), protowire.ParseError(n))
		}
		b = b[n:]

		record, err := decodeEntry(entry, len(pack))
		if err != nil {
			return nil, err
		}
		pack = append(pack, record)
	}
	return pack, nil
}

func decodeEntry(b []byte, index int) (types.ImageRecord, error) {
	var record types.ImageRecord
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return record, malformed(fmt.Sprintf("imgs[%d] tag", index), protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case fieldWidth, fieldHeight:
			if typ != protowire.VarintType {
				return record, fmt.Errorf("%w: imgs[%d] field %d has wire type %d", ErrMalformedPack, index, num, typ)
			}
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return record, malformed(fmt.Sprintf("imgs[%d] field %d", index, num), protowire.ParseError(n))
			}
			b = b[n:]
			if num == fieldWidth {
				record.Width = uint32(v)
			} else {
				record.Height = uint32(v)
			}
		case fieldImageData:
			if typ != protowire.BytesType {
				return record, fmt.Errorf("%w: imgs[%d] image_data has wire type %d", ErrMalformedPack, index, typ)
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return record, malformed(fmt.Sprintf("imgs[%d] image_data", index), protowire.ParseError(n))
			}
			b = b[n:]
			record.Pix = v
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return record, malformed(fmt.Sprintf("imgs[%d] unknown field %d", index, num), protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if uint64(len(record.Pix)) != uint64(record.Width)*uint64(record.Height) {
		return record, &DimensionMismatchError{
			Index:  index,
			Width:  record.Width,
			Height: record.Height,
			Len:    len(record.Pix),
		}
	}
	return record, nil
}

// Encode serializes pack with proto3 rules: zero dimensions and empty pixel
// data are omitted from the entry.
func Encode(pack types.ImagePack) []byte {
	var out []byte
	for _, record := range pack {
		entry := appendEntry(nil, record)
		out = protowire.AppendTag(out, fieldImgs, protowire.BytesType)
		out = protowire.AppendBytes(out, entry)
	}
	return out
}

func appendEntry(b []byte, record types.ImageRecord) []byte {
	if record.Width != 0 {
		b = protowire.AppendTag(b, fieldWidth, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(record.Width))
	}
	if record.Height != 0 {
		b = protowire.AppendTag(b, fieldHeight, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(record.Height))
	}
	if len(record.Pix) > 0 {
		b = protowire.AppendTag(b, fieldImageData, protowire.BytesType)
		b = protowire.AppendBytes(b, record.Pix)
	}
	return b
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedPack, what, err)
}
