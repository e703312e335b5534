package viewer

//go:generate mockgen -source=interfaces.go -destination=mock/viewer_mock.go -package=mock

import (
	"context"

	"imagepack-viewer/internal/processing"
	"imagepack-viewer/internal/types"
)

// Requester fetches one serialized image pack per call.
type Requester interface {
	RequestImagePack(ctx context.Context) ([]byte, error)
}

// Presenter shows composite frames and reports key presses.
// PollKey must not block.
type Presenter interface {
	Show(frame *processing.Frame) error
	PollKey() (string, bool)
}

// RawRecorder persists reply payloads before they are decoded.
type RawRecorder interface {
	Record(payload []byte) error
}

// Snapshotter saves a presented frame together with its source pack.
type Snapshotter interface {
	Snapshot(frame *processing.Frame, pack types.ImagePack) error
}

// StatsPublisher forwards frame statistics to the presentation surface.
// Publish must not block.
type StatsPublisher interface {
	Publish(message any)
}
