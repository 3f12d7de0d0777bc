// Package spec contains constants defined in the ndt7 specification.
package spec

import "time"

// DownloadURLPath selects the download subtest.
const DownloadURLPath = "/ndt/v7/download"

// UploadURLPath selects the upload subtest.
const UploadURLPath = "/ndt/v7/upload"

// SecWebSocketProtocol is the WebSocket subprotocol used by ndt7.
const SecWebSocketProtocol = "net.measurementlab.ndt.v7"

// LocateURL is the M-Lab Locate v2 endpoint returning the nearest
// servers able to run an ndt7 measurement.
const LocateURL = "https://locate.measurementlab.net/v2/nearest/ndt/ndt7"

// InitialMessageSize is the initial size of binary messages sent
// during the upload subtest.
const InitialMessageSize = 1 << 13

// MaxMessageSize is the maximum size of binary messages sent during the
// upload subtest, and the maximum size of incoming messages that we are
// willing to process.
const MaxMessageSize = 1 << 20

// ScalingFraction is the denominator of the message-scaling rule: when the
// current message size is not bigger than 1/ScalingFraction of the total
// bytes sent so far, the message size doubles.
const ScalingFraction = 16

// DownloadTimeout is the time after which the download subtest must stop.
const DownloadTimeout = 15 * time.Second

// UploadTimeout is the time after which the upload subtest must stop.
const UploadTimeout = 10 * time.Second

// IOTimeout bounds connection establishment and individual I/O
// operations performed outside of a running subtest.
const IOTimeout = 7 * time.Second

// MinMeasurementInterval is the minimum interval between two consecutive
// client-side measurements.
const MinMeasurementInterval = 250 * time.Millisecond
