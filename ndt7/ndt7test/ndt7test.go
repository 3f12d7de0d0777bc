// Package ndt7test provides a minimal in-process ndt7 server capable of
// running client subtests in unittests. The server sends enough protocol
// traffic to exercise the client engines and can be configured to
// misbehave in the ways the client must detect.
package ndt7test

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-lab/ndt7-client/ndt7/model"
	"github.com/m-lab/ndt7-client/ndt7/spec"
)

// Handler handles ndt7 subtests server-side.
type Handler struct {
	// DownloadDuration is how long the server keeps sending during
	// a download subtest before closing the connection.
	DownloadDuration time.Duration

	// UploadDuration is how long the server keeps reading during an
	// upload subtest before closing the connection.
	UploadDuration time.Duration

	// CorruptMeasurements makes the server send text messages that
	// are not valid JSON.
	CorruptMeasurements bool

	// BinaryDuringUpload makes the server send a binary message to
	// the client during the upload subtest, which is a protocol
	// violation the client must detect.
	BinaryDuringUpload bool
}

// NewServer creates a local httptest server speaking enough ndt7 to run
// client subtests. The handler is returned so tests can adjust its
// behavior before connecting.
func NewServer(t *testing.T) (*Handler, *httptest.Server) {
	t.Helper()
	handler := &Handler{
		DownloadDuration: 500 * time.Millisecond,
		UploadDuration:   500 * time.Millisecond,
	}
	mux := http.NewServeMux()
	mux.Handle(spec.DownloadURLPath, http.HandlerFunc(handler.Download))
	mux.Handle(spec.UploadURLPath, http.HandlerFunc(handler.Upload))
	server := httptest.NewServer(mux)
	return handler, server
}

// DownloadURL returns the ws:// URL of the download endpoint.
func DownloadURL(server *httptest.Server) string {
	return strings.Replace(server.URL, "http://", "ws://", 1) + spec.DownloadURLPath
}

// UploadURL returns the ws:// URL of the upload endpoint.
func UploadURL(server *httptest.Server) string {
	return strings.Replace(server.URL, "http://", "ws://", 1) + spec.UploadURLPath
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  spec.MaxMessageSize,
	WriteBufferSize: spec.MaxMessageSize,
}

func upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	if r.Header.Get("Sec-WebSocket-Protocol") != spec.SecWebSocketProtocol {
		w.Header().Set("Connection", "Close")
		w.WriteHeader(http.StatusBadRequest)
		return nil, http.ErrNotSupported
	}
	headers := http.Header{}
	headers.Add("Sec-WebSocket-Protocol", spec.SecWebSocketProtocol)
	return upgrader.Upgrade(w, r, headers)
}

// serverMeasurement fabricates the kind of measurement the real server
// would compute from TCP_INFO instrumentation.
func (h *Handler) serverMeasurement(conn *websocket.Conn, start time.Time, received int64) []byte {
	if h.CorruptMeasurements {
		return []byte("{")
	}
	elapsed := time.Since(start).Microseconds()
	minRTT := int64(25000)
	bytesSent := int64(1000)
	bytesRetrans := int64(50)
	m := model.Measurement{
		ConnectionInfo: &model.ConnectionInfo{
			Client: conn.RemoteAddr().String(),
			Server: conn.LocalAddr().String(),
			UUID:   "ndt7test-0000",
		},
		TCPInfo: &model.TCPInfo{
			ElapsedTime:   &elapsed,
			MinRTT:        &minRTT,
			BytesSent:     &bytesSent,
			BytesRetrans:  &bytesRetrans,
			BytesReceived: &received,
		},
	}
	data, err := json.Marshal(m)
	if err != nil {
		panic(err) // cannot happen with a valid model
	}
	return data
}

// Download handles the download subtest: it floods the client with
// binary messages, interleaving periodic measurements, then closes.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrade(w, r)
	if err != nil {
		return
	}
	defer conn.Close()
	start := time.Now()
	deadline := start.Add(h.DownloadDuration)
	conn.SetWriteDeadline(deadline.Add(time.Second))
	payload := make([]byte, 1<<13)
	rand.Read(payload)
	lastMeasurement := start
	for time.Now().Before(deadline) {
		if now := time.Now(); now.Sub(lastMeasurement) >= 100*time.Millisecond {
			lastMeasurement = now
			data := h.serverMeasurement(conn, start, 0)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			return
		}
	}
	// Final measurement so the client has a terminal server record.
	if err := conn.WriteMessage(websocket.TextMessage, h.serverMeasurement(conn, start, 0)); err != nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Done sending")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	// Await the client's close, bounded by a read deadline.
	conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Upload handles the upload subtest: it reads whatever the client
// sends, periodically reporting the received byte count back, then
// closes the connection.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrade(w, r)
	if err != nil {
		return
	}
	defer conn.Close()
	start := time.Now()
	deadline := start.Add(h.UploadDuration)
	conn.SetReadDeadline(deadline.Add(time.Second))
	conn.SetReadLimit(spec.MaxMessageSize)
	if h.BinaryDuringUpload {
		conn.WriteMessage(websocket.BinaryMessage, []byte("unexpected"))
	}
	var received int64
	lastMeasurement := start
	for time.Now().Before(deadline) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received += int64(len(data))
		if now := time.Now(); now.Sub(lastMeasurement) >= 100*time.Millisecond {
			lastMeasurement = now
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := conn.WriteMessage(websocket.TextMessage,
				h.serverMeasurement(conn, start, received)); err != nil {
				return
			}
		}
	}
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	conn.WriteMessage(websocket.TextMessage, h.serverMeasurement(conn, start, received))
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Done receiving")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
