// Package summary condenses the terminal measurements of an ndt7 run
// into the few numbers a human cares about.
package summary

import (
	"net"

	"github.com/m-lab/ndt7-client/ndt7/model"
)

// SubtestSummary contains the metrics derived for one subtest.
type SubtestSummary struct {
	// ThroughputMbps is the measured throughput in Mbit/s.
	ThroughputMbps float64 `json:"throughput_mbps"`

	// LatencyMs is the minimum round-trip time in milliseconds.
	LatencyMs float64 `json:"latency_ms"`

	// RetransmissionPct is the share of sent bytes that were
	// retransmitted, as a percentage.
	RetransmissionPct float64 `json:"retransmission_pct"`
}

// Summary contains the results of a whole ndt7 run. It is built exactly
// once, from the last client and server measurement of each subtest.
type Summary struct {
	// ServerFQDN is the server we measured against.
	ServerFQDN string `json:"server_fqdn"`

	// ClientIP is the client IP address without port.
	ClientIP string `json:"client_ip"`

	// ServerIP is the server IP address without port.
	ServerIP string `json:"server_ip"`

	// Download is the download subtest summary, if the subtest
	// produced enough data to compute one.
	Download *SubtestSummary `json:"download,omitempty"`

	// Upload is the upload subtest summary, if the subtest produced
	// enough data to compute one.
	Upload *SubtestSummary `json:"upload,omitempty"`
}

// New derives a Summary. The downloadClient and downloadServer arguments
// are the last client- and server-origin measurements of the download
// subtest; uploadServer is the last server-origin measurement of the
// upload subtest. Any of them may be nil, suppressing the parts of the
// summary that depend on them.
//
// The download throughput comes from the client's application level
// counters, while latency and retransmission come from the server's
// kernel counters. The upload summary is derived entirely from the
// server's view of the connection.
func New(serverFQDN string, downloadClient, downloadServer, uploadServer *model.Measurement) *Summary {
	s := &Summary{ServerFQDN: serverFQDN}
	for _, m := range []*model.Measurement{downloadServer, uploadServer} {
		if m != nil && m.ConnectionInfo != nil {
			s.ClientIP = stripPort(m.ConnectionInfo.Client)
			s.ServerIP = stripPort(m.ConnectionInfo.Server)
			break
		}
	}
	s.Download = downloadSummary(downloadClient, downloadServer)
	s.Upload = uploadSummary(uploadServer)
	return s
}

func downloadSummary(client, server *model.Measurement) *SubtestSummary {
	if client == nil || client.AppInfo == nil || client.AppInfo.ElapsedTime <= 0 {
		return nil
	}
	if server == nil || server.TCPInfo == nil {
		return nil
	}
	return &SubtestSummary{
		ThroughputMbps:    throughput(client.AppInfo.NumBytes, client.AppInfo.ElapsedTime),
		LatencyMs:         latency(server.TCPInfo),
		RetransmissionPct: retransmission(server.TCPInfo),
	}
}

func uploadSummary(server *model.Measurement) *SubtestSummary {
	if server == nil || server.TCPInfo == nil {
		return nil
	}
	tcp := server.TCPInfo
	if tcp.ElapsedTime == nil || *tcp.ElapsedTime <= 0 {
		return nil
	}
	var received int64
	if tcp.BytesReceived != nil {
		received = *tcp.BytesReceived
	}
	return &SubtestSummary{
		ThroughputMbps:    throughput(received, *tcp.ElapsedTime),
		LatencyMs:         latency(tcp),
		RetransmissionPct: retransmission(tcp),
	}
}

// throughput computes Mbit/s from bytes and elapsed microseconds. The
// unit conversions cancel out: 8 bytes/µs equals 8 Mbit/s.
func throughput(numBytes, elapsedMicroseconds int64) float64 {
	return 8.0 * float64(numBytes) / float64(elapsedMicroseconds)
}

func latency(tcp *model.TCPInfo) float64 {
	if tcp.MinRTT == nil {
		return 0
	}
	return float64(*tcp.MinRTT) / 1000.0
}

func retransmission(tcp *model.TCPInfo) float64 {
	if tcp.BytesSent == nil || *tcp.BytesSent <= 0 || tcp.BytesRetrans == nil {
		return 0
	}
	return float64(*tcp.BytesRetrans) / float64(*tcp.BytesSent) * 100.0
}

// stripPort removes the port from an `ip:port` string. Malformed
// addresses pass through unchanged.
func stripPort(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return host
}
