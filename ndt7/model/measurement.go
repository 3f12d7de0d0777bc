// Package model contains the ndt7 data model.
package model

// Origin indicates which side produced a measurement.
type Origin string

const (
	// OriginClient indicates a measurement computed by the client.
	OriginClient = Origin("client")

	// OriginServer indicates a measurement reported by the server.
	OriginServer = Origin("server")
)

// SubtestKind indicates the subtest a measurement belongs to.
type SubtestKind string

const (
	// SubtestDownload is the download subtest.
	SubtestDownload = SubtestKind("download")

	// SubtestUpload is the upload subtest.
	SubtestUpload = SubtestKind("upload")
)

// The Measurement struct contains measurement results. This structure is
// serialised as JSON and sent as a textual message. Every field is optional
// and a default constructed Measurement serialises to the empty object, to
// interoperate with servers emitting sparse objects.
type Measurement struct {
	// AppInfo contains application level measurements.
	AppInfo *AppInfo `json:"AppInfo,omitempty"`

	// ConnectionInfo contains connection endpoint information.
	ConnectionInfo *ConnectionInfo `json:"ConnectionInfo,omitempty"`

	// Origin indicates who computed this measurement.
	Origin Origin `json:"Origin,omitempty"`

	// Test indicates the subtest this measurement belongs to.
	Test SubtestKind `json:"Test,omitempty"`

	// TCPInfo contains kernel level measurements.
	TCPInfo *TCPInfo `json:"TCPInfo,omitempty"`
}
