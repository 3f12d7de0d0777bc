package emitter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/m-lab/ndt7-client/ndt7/model"
	"github.com/m-lab/ndt7-client/summary"
)

func TestHumanReadableDownloadEvent(t *testing.T) {
	var buf bytes.Buffer
	h := NewHumanReadable(&buf)
	err := h.OnDownloadEvent(&model.Measurement{
		AppInfo: &model.AppInfo{
			ElapsedTime: 1000000,
			NumBytes:    1000000,
		},
		Origin: model.OriginClient,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "8.0 Mbit/s") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestHumanReadableIgnoresServerDownloadEvent(t *testing.T) {
	var buf bytes.Buffer
	h := NewHumanReadable(&buf)
	rtt := int64(1000)
	err := h.OnDownloadEvent(&model.Measurement{
		TCPInfo: &model.TCPInfo{MinRTT: &rtt},
		Origin:  model.OriginServer,
	})
	if err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got: %q", buf.String())
	}
}

func TestHumanReadableUploadEvent(t *testing.T) {
	var buf bytes.Buffer
	h := NewHumanReadable(&buf)
	received, elapsed := int64(2000000), int64(1000000)
	err := h.OnUploadEvent(&model.Measurement{
		TCPInfo: &model.TCPInfo{
			BytesReceived: &received,
			ElapsedTime:   &elapsed,
		},
		Origin: model.OriginServer,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "16.0 Mbit/s") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestHumanReadableSummary(t *testing.T) {
	var buf bytes.Buffer
	h := NewHumanReadable(&buf)
	err := h.OnSummary(&summary.Summary{
		ServerFQDN: "mlab1-lga06.measurement-lab.org",
		ClientIP:   "93.184.216.34",
		Download: &summary.SubtestSummary{
			ThroughputMbps:    100.5,
			LatencyMs:         12.0,
			RetransmissionPct: 0.5,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"mlab1-lga06", "Download", "100.5 Mbit/s", "12.0 ms", "0.5 %"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q: %q", want, out)
		}
	}
}

func TestJSONEvents(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSON(&buf)
	if err := j.OnStarting(model.SubtestUpload); err != nil {
		t.Fatal(err)
	}
	var ev map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatal(err)
	}
	if ev["type"] != "starting" || ev["test"] != "upload" {
		t.Fatalf("unexpected event: %v", ev)
	}
}

func TestJSONMeasurementEvent(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSON(&buf)
	err := j.OnDownloadEvent(&model.Measurement{
		AppInfo: &model.AppInfo{ElapsedTime: 10, NumBytes: 20},
		Origin:  model.OriginClient,
		Test:    model.SubtestDownload,
	})
	if err != nil {
		t.Fatal(err)
	}
	var ev struct {
		Type        string             `json:"type"`
		Measurement *model.Measurement `json:"measurement"`
	}
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "measurement" || ev.Measurement == nil || ev.Measurement.AppInfo.NumBytes != 20 {
		t.Fatalf("unexpected event: %s", buf.String())
	}
}

func TestQuietSuppressesAllButErrorsAndSummary(t *testing.T) {
	var buf bytes.Buffer
	q := NewQuiet(NewJSON(&buf))
	if err := q.OnStarting(model.SubtestDownload); err != nil {
		t.Fatal(err)
	}
	if err := q.OnConnected(model.SubtestDownload, "host"); err != nil {
		t.Fatal(err)
	}
	if err := q.OnDownloadEvent(&model.Measurement{}); err != nil {
		t.Fatal(err)
	}
	if err := q.OnComplete(model.SubtestDownload); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got: %q", buf.String())
	}
	if err := q.OnError(model.SubtestDownload, errors.New("mocked error")); err != nil {
		t.Fatal(err)
	}
	if err := q.OnSummary(&summary.Summary{}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Count(buf.String(), "\n")
	if lines != 2 {
		t.Fatalf("expected two events, got %d: %q", lines, buf.String())
	}
}
