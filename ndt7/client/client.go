// Package client implements an ndt7 client. The client is able to
// discover a suitable M-Lab server, connect to it, and run download and
// upload subtests, emitting measurements on a per-subtest stream.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/m-lab/go/warnonerror"
	"github.com/m-lab/ndt7-client/locate"
	"github.com/m-lab/ndt7-client/logging"
	"github.com/m-lab/ndt7-client/ndt7/errorx"
	"github.com/m-lab/ndt7-client/ndt7/metrics"
	"github.com/m-lab/ndt7-client/ndt7/model"
	"github.com/m-lab/ndt7-client/ndt7/spec"
)

// libraryName identifies this library in the User-Agent header.
const libraryName = "ndt7-client-go"

// libraryVersion is the version of this library.
const libraryVersion = "0.1.0"

// streamBufferSize is the capacity of a subtest's measurement stream.
const streamBufferSize = 64

// Result is a single item on a subtest's measurement stream. Either
// Measurement is set, or Err is set and no further items follow.
type Result struct {
	// Measurement is the measurement produced by the subtest.
	Measurement model.Measurement

	// Err is the error that terminated the subtest. A stream that
	// closes without a trailing error completed successfully.
	Err error
}

// Target is the outcome of resolving a server to measure against. An
// empty URL means the corresponding subtest is not available.
type Target struct {
	// Machine identifies the server, typically by FQDN.
	Machine string

	// DownloadURL is the service URL for the download subtest.
	DownloadURL string

	// UploadURL is the service URL for the upload subtest.
	UploadURL string
}

// Client is an ndt7 client. The zero value is not usable: construct
// a client using NewClient.
type Client struct {
	// ClientName is the name of the application using this library.
	ClientName string

	// ClientVersion is the version of the application.
	ClientVersion string

	// Dialer is the WebSocket dialer used to connect.
	Dialer websocket.Dialer

	// InsecureNoTLS uses cleartext WebSockets when synthesizing
	// service URLs from a hostname. This is insecure.
	InsecureNoTLS bool

	// InsecureSkipTLSVerify disables TLS certificate verification.
	// This is insecure and should only be used for diagnostic runs
	// against servers with self-signed certificates.
	InsecureSkipTLSVerify bool

	// Locate is the discovery client used by DiscoverTarget.
	Locate *locate.Client
}

// NewClient creates a new ndt7 client. The clientName and clientVersion
// identify the calling application to M-Lab servers.
func NewClient(clientName, clientVersion string) *Client {
	c := &Client{
		ClientName:    clientName,
		ClientVersion: clientVersion,
	}
	c.Dialer.HandshakeTimeout = spec.IOTimeout
	c.Locate = locate.NewClient(c.UserAgent())
	return c
}

// UserAgent returns the User-Agent string identifying the application
// and this library.
func (c *Client) UserAgent() string {
	return fmt.Sprintf("%s/%s %s/%s", c.ClientName, c.ClientVersion,
		libraryName, libraryVersion)
}

// scheme returns the WebSocket scheme to use for synthesized URLs.
func (c *Client) scheme() string {
	if c.InsecureNoTLS {
		return "ws"
	}
	return "wss"
}

// DiscoverTarget queries the Locate API and returns the closest server
// together with its download and upload service URLs.
func (c *Client) DiscoverTarget(ctx context.Context) (*Target, error) {
	targets, err := c.Locate.Nearest(ctx)
	if err != nil {
		return nil, err
	}
	target := &Target{Machine: targets[0].Machine}
	for key, serviceURL := range targets[0].URLs {
		if strings.Contains(key, spec.DownloadURLPath) {
			target.DownloadURL = serviceURL
		} else if strings.Contains(key, spec.UploadURLPath) {
			target.UploadURL = serviceURL
		}
	}
	return target, nil
}

// ResolveServiceURL classifies an explicit service URL by inspecting its
// path and returns a target where exactly one subtest is populated. A URL
// whose path contains neither subtest marker is unsupported and causes
// an error without any connection attempt.
func (c *Client) ResolveServiceURL(serviceURL string) (*Target, error) {
	parsed, err := url.Parse(serviceURL)
	if err != nil || parsed.Hostname() == "" {
		return nil, &errorx.ServiceUnsupportedError{URL: serviceURL}
	}
	target := &Target{Machine: parsed.Hostname()}
	switch {
	case strings.Contains(parsed.Path, spec.DownloadURLPath):
		target.DownloadURL = serviceURL
	case strings.Contains(parsed.Path, spec.UploadURLPath):
		target.UploadURL = serviceURL
	default:
		return nil, &errorx.ServiceUnsupportedError{URL: serviceURL}
	}
	return target, nil
}

// ResolveHostname synthesizes download and upload service URLs for the
// given host, which may include a port.
func (c *Client) ResolveHostname(hostname string) *Target {
	return &Target{
		Machine:     hostname,
		DownloadURL: fmt.Sprintf("%s://%s%s", c.scheme(), hostname, spec.DownloadURLPath),
		UploadURL:   fmt.Sprintf("%s://%s%s", c.scheme(), hostname, spec.UploadURLPath),
	}
}

// connect establishes the WebSocket connection for a subtest. We append
// the client identity query parameters without disturbing parameters
// already present in the service URL, notably the access token.
func (c *Client) connect(ctx context.Context, serviceURL string) (*websocket.Conn, error) {
	parsed, err := url.Parse(serviceURL)
	if err != nil {
		return nil, &errorx.ServiceUnsupportedError{URL: serviceURL}
	}
	query := parsed.Query()
	query.Set("client_name", c.ClientName)
	query.Set("client_version", c.ClientVersion)
	query.Set("client_os", runtime.GOOS)
	query.Set("client_arch", runtime.GOARCH)
	parsed.RawQuery = query.Encode()
	headers := http.Header{}
	headers.Add("Sec-WebSocket-Protocol", spec.SecWebSocketProtocol)
	headers.Add("User-Agent", c.UserAgent())
	dialer := c.Dialer
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = spec.IOTimeout
	}
	if c.InsecureSkipTLSVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		logging.Logger.Warn("connect: disabling TLS certificate verification (INSECURE!)")
	}
	ctx, cancel := context.WithTimeout(ctx, spec.IOTimeout)
	defer cancel()
	conn, _, err := dialer.DialContext(ctx, parsed.String(), headers)
	if err != nil {
		if isTimeout(err) {
			return nil, errorx.ErrConnectTimeout
		}
		return nil, &errorx.TransportError{Err: err}
	}
	conn.SetReadLimit(spec.MaxMessageSize)
	return conn, nil
}

// isTimeout returns whether err was caused by a deadline expiring.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// StartDownload connects to the given service URL and runs the download
// subtest in a background goroutine. The returned stream carries the
// subtest's measurements in production order and closes when the subtest
// is over; a trailing Result with Err set means the subtest failed.
//
// The stream has a fixed capacity: a consumer that stops reading loses
// records rather than stalling the measurement. This trades delivery
// completeness for engine liveness.
func (c *Client) StartDownload(ctx context.Context, serviceURL string) (<-chan Result, error) {
	conn, err := c.connect(ctx, serviceURL)
	if err != nil {
		metrics.Connections.WithLabelValues(string(model.SubtestDownload), "error").Inc()
		return nil, err
	}
	metrics.Connections.WithLabelValues(string(model.SubtestDownload), "ok").Inc()
	stream := make(chan Result, streamBufferSize)
	go func() {
		defer close(stream)
		defer warnonerror.Close(conn, "Could not close connection")
		download(conn, stream)
	}()
	return stream, nil
}

// StartUpload is like StartDownload except that it runs the upload
// subtest. The same stream contract applies.
func (c *Client) StartUpload(ctx context.Context, serviceURL string) (<-chan Result, error) {
	conn, err := c.connect(ctx, serviceURL)
	if err != nil {
		metrics.Connections.WithLabelValues(string(model.SubtestUpload), "error").Inc()
		return nil, err
	}
	metrics.Connections.WithLabelValues(string(model.SubtestUpload), "ok").Inc()
	stream := make(chan Result, streamBufferSize)
	go func() {
		defer close(stream)
		// upload closes the connection itself to unblock its goroutines,
		// so a second Close here may fail and that is fine.
		defer conn.Close()
		upload(conn, stream)
	}()
	return stream, nil
}

// emit delivers a measurement to the stream without blocking. When the
// stream is full the record is dropped: the consumer is not keeping up
// and we prefer keeping the subtest running over completeness.
func emit(stream chan<- Result, kind model.SubtestKind, m model.Measurement) {
	select {
	case stream <- Result{Measurement: m}:
	default:
		metrics.DroppedMeasurements.WithLabelValues(string(kind)).Inc()
	}
}

// emitError delivers the terminal error of a subtest. Like emit, it does
// not block on a stalled consumer.
func emitError(stream chan<- Result, kind model.SubtestKind, err error) {
	metrics.SubtestResults.WithLabelValues(string(kind), "error").Inc()
	select {
	case stream <- Result{Err: err}:
	default:
		metrics.DroppedMeasurements.WithLabelValues(string(kind)).Inc()
	}
}
