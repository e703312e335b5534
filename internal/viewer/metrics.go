package viewer

import (
	"sync/atomic"
	"time"
)

// Metrics are updated by the loop goroutine and read by the status handler.
type Metrics struct {
	requests          atomic.Uint64
	replies           atomic.Uint64
	bytesReceived     atomic.Uint64
	timeouts          atomic.Uint64
	transportFailures atomic.Uint64
	decodeFailures    atomic.Uint64
	compositeFailures atomic.Uint64
	presentFailures   atomic.Uint64
	framesPresented   atomic.Uint64
	recordFailures    atomic.Uint64
	snapshotsOK       atomic.Uint64
	snapshotsFailed   atomic.Uint64
	requestNanos      atomic.Uint64
	decodeNanos       atomic.Uint64
	compositeNanos    atomic.Uint64
	presentNanos      atomic.Uint64
}

func since(start time.Time) uint64 {
	return uint64(time.Since(start).Nanoseconds())
}

func (m *Metrics) failure(stage Stage) {
	switch stage {
	case StageTransport:
		m.transportFailures.Add(1)
	case StageDecode:
		m.decodeFailures.Add(1)
	case StageComposite:
		m.compositeFailures.Add(1)
	case StagePresent:
		m.presentFailures.Add(1)
	}
}

func (m *Metrics) FramesPresented() uint64 { return m.framesPresented.Load() }

func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"requests_total":           m.requests.Load(),
		"replies_total":            m.replies.Load(),
		"bytes_received_total":     m.bytesReceived.Load(),
		"timeouts_total":           m.timeouts.Load(),
		"transport_failures_total": m.transportFailures.Load(),
		"decode_failures_total":    m.decodeFailures.Load(),
		"composite_failures_total": m.compositeFailures.Load(),
		"present_failures_total":   m.presentFailures.Load(),
		"frames_presented_total":   m.framesPresented.Load(),
		"record_failures_total":    m.recordFailures.Load(),
		"snapshots_ok_total":       m.snapshotsOK.Load(),
		"snapshots_failed_total":   m.snapshotsFailed.Load(),
		"request_nanos_total":      m.requestNanos.Load(),
		"decode_nanos_total":       m.decodeNanos.Load(),
		"composite_nanos_total":    m.compositeNanos.Load(),
		"present_nanos_total":      m.presentNanos.Load(),
	}
}
