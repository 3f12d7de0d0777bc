package emitter

import (
	"fmt"
	"io"

	"github.com/m-lab/ndt7-client/ndt7/model"
	"github.com/m-lab/ndt7-client/summary"
)

// HumanReadable emits live progress and a formatted summary suitable
// for a terminal.
type HumanReadable struct {
	out io.Writer
}

// NewHumanReadable creates a human readable emitter writing to out.
func NewHumanReadable(out io.Writer) *HumanReadable {
	return &HumanReadable{out: out}
}

// OnStarting handles the starting event.
func (h *HumanReadable) OnStarting(kind model.SubtestKind) error {
	_, err := fmt.Fprintf(h.out, "\rstarting %s", kind)
	return err
}

// OnConnected handles the connected event.
func (h *HumanReadable) OnConnected(kind model.SubtestKind, fqdn string) error {
	_, err := fmt.Fprintf(h.out, "\r%s in progress with %s\n", kind, fqdn)
	return err
}

// OnDownloadEvent prints the current average download speed, computed
// from the client's application level counters.
func (h *HumanReadable) OnDownloadEvent(m *model.Measurement) error {
	if m.Origin != model.OriginClient || m.AppInfo == nil || m.AppInfo.ElapsedTime <= 0 {
		return nil
	}
	speed := 8.0 * float64(m.AppInfo.NumBytes) / float64(m.AppInfo.ElapsedTime)
	_, err := fmt.Fprintf(h.out, "\rAvg. speed: %7.1f Mbit/s", speed)
	return err
}

// OnUploadEvent prints the current average upload speed, computed from
// the server's view of the connection.
func (h *HumanReadable) OnUploadEvent(m *model.Measurement) error {
	if m.Origin != model.OriginServer || m.TCPInfo == nil {
		return nil
	}
	tcp := m.TCPInfo
	if tcp.BytesReceived == nil || tcp.ElapsedTime == nil || *tcp.ElapsedTime <= 0 {
		return nil
	}
	speed := 8.0 * float64(*tcp.BytesReceived) / float64(*tcp.ElapsedTime)
	_, err := fmt.Fprintf(h.out, "\rAvg. speed: %7.1f Mbit/s", speed)
	return err
}

// OnError handles a subtest failure.
func (h *HumanReadable) OnError(kind model.SubtestKind, failure error) error {
	_, err := fmt.Fprintf(h.out, "\n%s test failed: %s\n", kind, failure)
	return err
}

// OnComplete handles the completion of a subtest.
func (h *HumanReadable) OnComplete(kind model.SubtestKind) error {
	_, err := fmt.Fprintf(h.out, "\n%s: complete\n", kind)
	return err
}

// OnSummary prints the final summary.
func (h *HumanReadable) OnSummary(s *summary.Summary) error {
	if _, err := fmt.Fprintf(h.out, "\nTest results\n\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(h.out, "%10s: %s\n", "Server", s.ServerFQDN); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(h.out, "%10s: %s\n", "Client", s.ClientIP); err != nil {
		return err
	}
	if s.Download != nil {
		if err := h.printSubtest("Download", s.Download); err != nil {
			return err
		}
	}
	if s.Upload != nil {
		if err := h.printSubtest("Upload", s.Upload); err != nil {
			return err
		}
	}
	return nil
}

func (h *HumanReadable) printSubtest(name string, s *summary.SubtestSummary) error {
	if _, err := fmt.Fprintf(h.out, "\n%22s\n", name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(h.out, "%15s: %7.1f Mbit/s\n", "Throughput", s.ThroughputMbps); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(h.out, "%15s: %7.1f ms\n", "Latency", s.LatencyMs); err != nil {
		return err
	}
	_, err := fmt.Fprintf(h.out, "%15s: %7.1f %%\n", "Retransmission", s.RetransmissionPct)
	return err
}
