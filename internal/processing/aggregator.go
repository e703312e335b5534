package processing

import (
	"sync"
	"time"

	"imagepack-viewer/internal/types"
)

// Aggregator keeps the frame rate over the last window frames and the
// statistics of the most recent frame.
type Aggregator struct {
	mu         sync.Mutex
	window     int
	times      []time.Time
	frameCount uint64
	latest     types.FrameStats
}

func NewAggregator(window int) *Aggregator {
	if window < 2 {
		window = 2
	}
	return &Aggregator{
		window: window,
		times:  make([]time.Time, 0, window),
	}
}

// AddFrame records frame, shown at now, built from pack.
func (a *Aggregator) AddFrame(frame *Frame, pack types.ImagePack, now time.Time) types.FrameStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.times) == a.window {
		copy(a.times, a.times[1:])
		a.times = a.times[:a.window-1]
	}
	a.times = append(a.times, now)
	a.frameCount++

	views := make([]types.ViewStats, 0, 2)
	for i := 0; i < len(pack) && i < 2; i++ {
		views = append(views, ViewStatsOf(pack[i]))
	}
	a.latest = types.FrameStats{
		Sequence: frame.Sequence,
		Width:    frame.Width(),
		Height:   frame.Height(),
		FPS:      a.fps(),
		Views:    views,
	}
	return a.latest
}

func (a *Aggregator) fps() float64 {
	if len(a.times) < 2 {
		return 0
	}
	span := a.times[len(a.times)-1].Sub(a.times[0])
	if span <= 0 {
		return 0
	}
	return float64(len(a.times)-1) / span.Seconds()
}

// FrameCount reports the frames added since the last Reset.
func (a *Aggregator) FrameCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frameCount
}

// Reset starts a new run: the frame count, the FPS window and the latest
// statistics are cleared.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frameCount = 0
	a.times = a.times[:0]
	a.latest = types.FrameStats{}
}

// Snapshot returns a copy of the latest frame statistics.
func (a *Aggregator) Snapshot() types.FrameStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.latest
	out.Views = append([]types.ViewStats(nil), a.latest.Views...)
	return out
}

// ViewStatsOf computes min, max and mean intensity of record.
func ViewStatsOf(record types.ImageRecord) types.ViewStats {
	if len(record.Pix) == 0 {
		return types.ViewStats{}
	}
	minVal := record.Pix[0]
	maxVal := record.Pix[0]
	var sum uint64
	for _, v := range record.Pix {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		sum += uint64(v)
	}
	return types.ViewStats{
		Min:  minVal,
		Max:  maxVal,
		Mean: float64(sum) / float64(len(record.Pix)),
	}
}

func Timestamp() string {
	return time.Now().Format("20060102_150405")
}
