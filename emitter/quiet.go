package emitter

import (
	"github.com/m-lab/ndt7-client/ndt7/model"
	"github.com/m-lab/ndt7-client/summary"
)

// Quiet wraps another emitter and forwards only errors and the final
// summary, suppressing per-measurement output.
type Quiet struct {
	inner Emitter
}

// NewQuiet creates a Quiet emitter wrapping inner.
func NewQuiet(inner Emitter) *Quiet {
	return &Quiet{inner: inner}
}

// OnStarting is suppressed.
func (q *Quiet) OnStarting(kind model.SubtestKind) error {
	return nil
}

// OnConnected is suppressed.
func (q *Quiet) OnConnected(kind model.SubtestKind, fqdn string) error {
	return nil
}

// OnDownloadEvent is suppressed.
func (q *Quiet) OnDownloadEvent(m *model.Measurement) error {
	return nil
}

// OnUploadEvent is suppressed.
func (q *Quiet) OnUploadEvent(m *model.Measurement) error {
	return nil
}

// OnError forwards the failure.
func (q *Quiet) OnError(kind model.SubtestKind, err error) error {
	return q.inner.OnError(kind, err)
}

// OnComplete is suppressed.
func (q *Quiet) OnComplete(kind model.SubtestKind) error {
	return nil
}

// OnSummary forwards the summary.
func (q *Quiet) OnSummary(s *summary.Summary) error {
	return q.inner.OnSummary(s)
}
