package client

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-lab/ndt7-client/logging"
	"github.com/m-lab/ndt7-client/ndt7/errorx"
	"github.com/m-lab/ndt7-client/ndt7/metrics"
	"github.com/m-lab/ndt7-client/ndt7/model"
	"github.com/m-lab/ndt7-client/ndt7/spec"
)

// download runs the download subtest on an established connection. It
// receives messages until the server closes the connection or the
// subtest deadline expires; both are normal completion. Binary messages
// only contribute their length to the byte total; text messages are
// server measurements that we stamp, forward, and also count.
func download(conn *websocket.Conn, stream chan<- Result) {
	logging.Logger.Debug("download: start")
	defer logging.Logger.Debug("download: stop")
	start := time.Now()
	if err := conn.SetReadDeadline(start.Add(spec.DownloadTimeout)); err != nil { // Liveness!
		emitError(stream, model.SubtestDownload, &errorx.TransportError{Err: err})
		return
	}
	var total int64
	prev := start
	for {
		mtype, mdata, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || isTimeout(err) {
				metrics.SubtestResults.WithLabelValues(string(model.SubtestDownload), "ok").Inc()
				return
			}
			logging.Logger.WithError(err).Warn("download: conn.ReadMessage failed")
			emitError(stream, model.SubtestDownload, &errorx.TransportError{Err: err})
			return
		}
		// Text messages are counted too: their serialized length is
		// part of what flowed over the wire.
		total += int64(len(mdata))
		if mtype == websocket.TextMessage {
			var measurement model.Measurement
			if err := json.Unmarshal(mdata, &measurement); err != nil {
				logging.Logger.WithError(err).Warn("download: json.Unmarshal failed")
				emitError(stream, model.SubtestDownload, &errorx.SerializationError{Err: err})
				return
			}
			measurement.Origin = model.OriginServer
			measurement.Test = model.SubtestDownload
			emit(stream, model.SubtestDownload, measurement)
		}
		if now := time.Now(); now.Sub(prev) >= spec.MinMeasurementInterval {
			prev = now
			emit(stream, model.SubtestDownload, model.Measurement{
				AppInfo: &model.AppInfo{
					ElapsedTime: now.Sub(start).Microseconds(),
					NumBytes:    total,
				},
				Origin: model.OriginClient,
				Test:   model.SubtestDownload,
			})
		}
	}
}
