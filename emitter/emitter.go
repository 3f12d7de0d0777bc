// Package emitter contains the interface turning the measurement
// stream into user-facing output, plus a human readable and a machine
// readable implementation. Any number of independent implementations
// may consume the same event sequence without the engines knowing.
package emitter

import (
	"github.com/m-lab/ndt7-client/ndt7/model"
	"github.com/m-lab/ndt7-client/summary"
)

// Emitter receives the lifecycle events of an ndt7 run.
type Emitter interface {
	// OnStarting is called when a subtest is about to begin.
	OnStarting(kind model.SubtestKind) error

	// OnConnected is called once the connection for a subtest has
	// been established with the given server.
	OnConnected(kind model.SubtestKind, fqdn string) error

	// OnDownloadEvent is called for each measurement of the
	// download subtest.
	OnDownloadEvent(m *model.Measurement) error

	// OnUploadEvent is called for each measurement of the
	// upload subtest.
	OnUploadEvent(m *model.Measurement) error

	// OnError is called when a subtest fails.
	OnError(kind model.SubtestKind, err error) error

	// OnComplete is called when a subtest finishes.
	OnComplete(kind model.SubtestKind) error

	// OnSummary is called after all subtests, with the run summary.
	OnSummary(s *summary.Summary) error
}
