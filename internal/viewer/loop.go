// Package viewer drives the request, decode, composite and present cycle.
package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"imagepack-viewer/internal/config"
	"imagepack-viewer/internal/imagepack"
	"imagepack-viewer/internal/logger"
	"imagepack-viewer/internal/processing"
	"imagepack-viewer/internal/transport"
	"imagepack-viewer/internal/types"
)

const statsWindow = 30

type Options struct {
	TargetHeight int
	Delay        time.Duration
	OnError      string
}

type Loop struct {
	requester   Requester
	presenter   Presenter
	recorder    RawRecorder
	snapshotter Snapshotter
	publisher   StatsPublisher
	opts        Options
	log         *logger.Logger
	metrics     *Metrics
	agg         *processing.Aggregator
	now         func() time.Time

	seq uint64

	mu        sync.Mutex
	stage     string
	lastFrame *processing.Frame
	lastPack  types.ImagePack
}

type Option func(*Loop)

func WithRecorder(r RawRecorder) Option {
	return func(l *Loop) { l.recorder = r }
}

func WithSnapshotter(s Snapshotter) Option {
	return func(l *Loop) { l.snapshotter = s }
}

func WithStatsPublisher(p StatsPublisher) Option {
	return func(l *Loop) { l.publisher = p }
}

func WithLogger(log *logger.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

func NewLoop(requester Requester, presenter Presenter, opts Options, options ...Option) *Loop {
	if opts.OnError == "" {
		opts.OnError = config.OnErrorExit
	}
	l := &Loop{
		requester: requester,
		presenter: presenter,
		opts:      opts,
		log:       logger.Nop(),
		metrics:   &Metrics{},
		agg:       processing.NewAggregator(statsWindow),
		now:       time.Now,
		stage:     "idle",
	}
	for _, o := range options {
		o(l)
	}
	return l
}

func (l *Loop) Metrics() *Metrics { return l.metrics }

func (l *Loop) Stats() types.FrameStats { return l.agg.Snapshot() }

// Status reports the current stage, the last frame statistics and the
// counters, in the shape served on /status.
func (l *Loop) Status() map[string]any {
	l.mu.Lock()
	stage := l.stage
	l.mu.Unlock()
	return map[string]any{
		"stage":              stage,
		"frame":              l.agg.Snapshot(),
		"frames_since_error": l.agg.FrameCount(),
		"metrics":            l.metrics.Snapshot(),
	}
}

func (l *Loop) setStage(stage string) {
	l.mu.Lock()
	l.stage = stage
	l.mu.Unlock()
}

// Run repeats Step until ctx is done, the presenter reports a quit key or,
// under the exit policy, an iteration fails. Cancellation is not an error.
func (l *Loop) Run(ctx context.Context) error {
	defer l.setStage("stopped")
	for {
		if ctx.Err() != nil {
			return nil
		}
		if l.handleKeys() {
			l.log.Info().Msg("quit requested")
			return nil
		}

		if _, err := l.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var se *StageError
			stage := Stage("unknown")
			if errors.As(err, &se) {
				stage = se.Stage
			}
			l.metrics.failure(stage)
			l.setStage("error")
			l.log.Error().Err(err).Str("stage", string(stage)).Msg("iteration failed")
			if l.opts.OnError != config.OnErrorSkip {
				return err
			}
			// FPS restarts after a failed iteration
			l.agg.Reset()
		}

		if l.opts.Delay <= 0 {
			continue
		}
		timer := time.NewTimer(l.opts.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Step performs one iteration and returns the frame it presented.
func (l *Loop) Step(ctx context.Context) (*processing.Frame, error) {
	l.setStage("requesting")
	start := time.Now()
	l.metrics.requests.Add(1)
	payload, err := l.requester.RequestImagePack(ctx)
	l.metrics.requestNanos.Add(since(start))
	if err != nil {
		if errors.Is(err, transport.ErrTimeout) {
			l.metrics.timeouts.Add(1)
		}
		return nil, stageErr(StageTransport, err)
	}
	l.metrics.replies.Add(1)
	l.metrics.bytesReceived.Add(uint64(len(payload)))

	if l.recorder != nil {
		if err := l.recorder.Record(payload); err != nil {
			l.metrics.recordFailures.Add(1)
			l.log.Warn().Err(err).Msg("raw log write failed")
		}
	}

	l.setStage("decoding")
	start = time.Now()
	pack, err := imagepack.Decode(payload)
	l.metrics.decodeNanos.Add(since(start))
	if err != nil {
		return nil, stageErr(StageDecode, err)
	}

	l.setStage("compositing")
	start = time.Now()
	frame, err := processing.Composite(pack, l.opts.TargetHeight)
	l.metrics.compositeNanos.Add(since(start))
	if err != nil {
		return nil, stageErr(StageComposite, err)
	}
	l.seq++
	frame.Sequence = l.seq
	frame.CapturedAt = l.now()

	l.setStage("presenting")
	start = time.Now()
	err = l.presenter.Show(frame)
	l.metrics.presentNanos.Add(since(start))
	if err != nil {
		return nil, stageErr(StagePresent, err)
	}
	l.metrics.framesPresented.Add(1)
	stats := l.agg.AddFrame(frame, pack, frame.CapturedAt)

	if l.publisher != nil {
		l.publisher.Publish(types.StatsMessage{Type: "stats", Stats: stats})
	}

	l.mu.Lock()
	l.lastFrame = frame
	l.lastPack = pack
	l.stage = "idle"
	l.mu.Unlock()

	l.log.Debug().
		Uint64("seq", frame.Sequence).
		Int("width", frame.Width()).
		Int("height", frame.Height()).
		Float64("fps", stats.FPS).
		Msg("frame presented")
	return frame, nil
}

// handleKeys drains pending key presses and reports whether one of them
// asked to quit.
func (l *Loop) handleKeys() bool {
	for {
		key, ok := l.presenter.PollKey()
		if !ok {
			return false
		}
		switch key {
		case "q", "Q", "Escape":
			return true
		case "k", "K":
			l.snapshot()
		}
	}
}

func (l *Loop) snapshot() {
	l.mu.Lock()
	frame, pack := l.lastFrame, l.lastPack
	l.mu.Unlock()
	if l.snapshotter == nil {
		l.log.Warn().Msg("snapshots disabled")
		return
	}
	if frame == nil {
		l.log.Warn().Msg("snapshot requested before the first frame")
		return
	}
	if err := l.snapshotter.Snapshot(frame, pack); err != nil {
		l.metrics.snapshotsFailed.Add(1)
		l.log.Error().Err(err).Uint64("seq", frame.Sequence).Msg("snapshot failed")
		return
	}
	l.metrics.snapshotsOK.Add(1)
	l.log.Info().Uint64("seq", frame.Sequence).Msg("snapshot written")
}
