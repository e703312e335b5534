package viewer

import (
	"imagepack-viewer/internal/output"
	"imagepack-viewer/internal/processing"
	"imagepack-viewer/internal/types"
)

// FileSnapshotter writes snapshots below Dir, prefixed with RunTimestamp.
// With CBOR set the source pack is also exported as a CBOR document.
type FileSnapshotter struct {
	Dir          string
	RunTimestamp string
	CBOR         bool
}

func (s FileSnapshotter) Snapshot(frame *processing.Frame, pack types.ImagePack) error {
	ts := s.RunTimestamp
	if ts == "" {
		ts = processing.Timestamp()
	}
	if _, err := output.WriteSnapshot(s.Dir, ts, frame, pack); err != nil {
		return err
	}
	if !s.CBOR {
		return nil
	}
	_, err := output.WritePackCBOR(s.Dir, ts, frame.Sequence, frame.CapturedAt, pack)
	return err
}
