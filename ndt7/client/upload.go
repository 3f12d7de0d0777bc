package client

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-lab/ndt7-client/logging"
	"github.com/m-lab/ndt7-client/ndt7/errorx"
	"github.com/m-lab/ndt7-client/ndt7/metrics"
	"github.com/m-lab/ndt7-client/ndt7/model"
	"github.com/m-lab/ndt7-client/ndt7/spec"
)

// upload runs the upload subtest on an established connection. Two
// operations race: the sender, writing growing binary messages, and the
// counter-flow reader, collecting server measurements. Whichever of the
// deadline, a reader termination, or a sender error happens first ends
// the subtest; the other loop is abandoned at its next suspension point
// when we close the connection.
func upload(conn *websocket.Conn, stream chan<- Result) {
	logging.Logger.Debug("upload: start")
	defer logging.Logger.Debug("upload: stop")
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), spec.UploadTimeout)
	defer cancel()
	measurements := make(chan model.Measurement)
	errch := make(chan error, 2)
	go func() {
		errch <- sender(ctx, conn, start, measurements)
	}()
	go func() {
		errch <- counterflow(ctx, conn, measurements)
	}()
	var err error
	reaped := 0
	terminated := false
	for !terminated {
		select {
		case m := <-measurements:
			emit(stream, model.SubtestUpload, m)
		case <-ctx.Done():
			terminated = true // the deadline elapsing is normal completion
		case err = <-errch:
			reaped++
			terminated = true
		}
	}
	cancel()
	conn.Close()
	// Reap the remaining loops, discarding anything produced after the
	// terminal event: no records may follow an error on the stream.
	for reaped < 2 {
		select {
		case <-measurements:
		case <-errch:
			reaped++
		}
	}
	if err != nil {
		logging.Logger.WithError(err).Warn("upload: subtest failed")
		emitError(stream, model.SubtestUpload, err)
		return
	}
	metrics.SubtestResults.WithLabelValues(string(model.SubtestUpload), "ok").Inc()
}

// sender writes binary messages until the deadline, growing the message
// according to the scaling rule: double the size whenever the current
// size is within 1/16 of the total bytes sent, up to 1 MiB. It also
// produces a client measurement at every measurement interval.
func sender(ctx context.Context, conn *websocket.Conn, start time.Time,
	measurements chan<- model.Measurement) error {
	logging.Logger.Debug("upload: sender start")
	defer logging.Logger.Debug("upload: sender stop")
	if err := conn.SetWriteDeadline(start.Add(spec.UploadTimeout)); err != nil { // Liveness!
		return &errorx.TransportError{Err: err}
	}
	size := spec.InitialMessageSize
	message, err := makePreparedMessage(size)
	if err != nil {
		return &errorx.TransportError{Err: err}
	}
	var total int64
	prev := start
	for ctx.Err() == nil {
		if err := conn.WritePreparedMessage(message); err != nil {
			if ctx.Err() != nil || isTimeout(err) {
				return nil // the deadline fired mid-send
			}
			if errors.Is(err, websocket.ErrCloseSent) {
				return nil // the peer closed first
			}
			logging.Logger.WithError(err).Warn("upload: conn.WritePreparedMessage failed")
			return &errorx.TransportError{Err: err}
		}
		total += int64(size)
		if next := nextMessageSize(size, total); next != size {
			size = next
			if message, err = makePreparedMessage(size); err != nil {
				return &errorx.TransportError{Err: err}
			}
		}
		if now := time.Now(); now.Sub(prev) >= spec.MinMeasurementInterval {
			prev = now
			m := model.Measurement{
				AppInfo: &model.AppInfo{
					ElapsedTime: now.Sub(start).Microseconds(),
					NumBytes:    total,
				},
				Origin: model.OriginClient,
				Test:   model.SubtestUpload,
			}
			select {
			case measurements <- m:
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}

// nextMessageSize applies the message scaling rule: the message doubles
// when the current size is not bigger than 1/ScalingFraction of the
// total bytes sent and the maximum size has not been reached yet.
func nextMessageSize(size int, total int64) int {
	if size < spec.MaxMessageSize && int64(size) <= total/spec.ScalingFraction {
		return size << 1
	}
	return size
}

// counterflow reads the measurements that the server sends back during
// the upload. The server is not expected to send binary messages in
// this direction: receiving one is a protocol violation.
func counterflow(ctx context.Context, conn *websocket.Conn,
	measurements chan<- model.Measurement) error {
	logging.Logger.Debug("upload: counterflow start")
	defer logging.Logger.Debug("upload: counterflow stop")
	for ctx.Err() == nil {
		mtype, mdata, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || isTimeout(err) ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			logging.Logger.WithError(err).Warn("upload: conn.ReadMessage failed")
			return &errorx.TransportError{Err: err}
		}
		if mtype != websocket.TextMessage {
			return &errorx.ProtocolViolationError{
				Reason: "received binary message during upload",
			}
		}
		var measurement model.Measurement
		if err := json.Unmarshal(mdata, &measurement); err != nil {
			logging.Logger.WithError(err).Warn("upload: json.Unmarshal failed")
			return &errorx.SerializationError{Err: err}
		}
		measurement.Origin = model.OriginServer
		measurement.Test = model.SubtestUpload
		select {
		case measurements <- measurement:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}
