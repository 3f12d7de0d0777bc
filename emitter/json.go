package emitter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/m-lab/ndt7-client/ndt7/model"
	"github.com/m-lab/ndt7-client/summary"
)

// event is the envelope written by the JSON emitter: one object per
// line, tagged by event type.
type event struct {
	Type        string             `json:"type"`
	Test        model.SubtestKind  `json:"test,omitempty"`
	FQDN        string             `json:"fqdn,omitempty"`
	Error       string             `json:"error,omitempty"`
	Measurement *model.Measurement `json:"measurement,omitempty"`
	Summary     *summary.Summary   `json:"summary,omitempty"`
}

// JSON emits one JSON object per line for each event, suitable for
// machine consumption.
type JSON struct {
	out io.Writer
}

// NewJSON creates a JSON emitter writing to out.
func NewJSON(out io.Writer) *JSON {
	return &JSON{out: out}
}

func (j *JSON) emit(ev event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(j.out, "%s\n", data)
	return err
}

// OnStarting handles the starting event.
func (j *JSON) OnStarting(kind model.SubtestKind) error {
	return j.emit(event{Type: "starting", Test: kind})
}

// OnConnected handles the connected event.
func (j *JSON) OnConnected(kind model.SubtestKind, fqdn string) error {
	return j.emit(event{Type: "connected", Test: kind, FQDN: fqdn})
}

// OnDownloadEvent handles a download measurement.
func (j *JSON) OnDownloadEvent(m *model.Measurement) error {
	return j.emit(event{Type: "measurement", Test: model.SubtestDownload, Measurement: m})
}

// OnUploadEvent handles an upload measurement.
func (j *JSON) OnUploadEvent(m *model.Measurement) error {
	return j.emit(event{Type: "measurement", Test: model.SubtestUpload, Measurement: m})
}

// OnError handles a subtest failure.
func (j *JSON) OnError(kind model.SubtestKind, failure error) error {
	return j.emit(event{Type: "error", Test: kind, Error: failure.Error()})
}

// OnComplete handles the completion of a subtest.
func (j *JSON) OnComplete(kind model.SubtestKind) error {
	return j.emit(event{Type: "complete", Test: kind})
}

// OnSummary handles the final summary.
func (j *JSON) OnSummary(s *summary.Summary) error {
	return j.emit(event{Type: "summary", Summary: s})
}
