package controller

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/frame"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/serialport"
)

// Transport applies frame-level byte stuffing/unstuffing and Fletcher-16
// verification on top of a raw serialport.Port, exposing the
// "read_frame(blocking) -> Result<(msg_type, body), FrameError>" contract
// from spec §4.1.
type Transport struct {
	port serialport.Port
}

// NewTransport wraps port.
func NewTransport(port serialport.Port) *Transport {
	return &Transport{port: port}
}

// ReadFrame blocks for at most timeout waiting for one complete frame. On
// any framing error it returns a *frame.Error (Timeout/BadEscape/
// BadLength/BadChecksum) describing what to do: the caller should treat
// this as a local recovery point and simply try again (the serial input up
// to the failure point has already been consumed).
func (t *Transport) ReadFrame(ctx context.Context, timeout time.Duration) (msgType byte, body []byte, err error) {
	deadline := time.Now().Add(timeout)

	// Scan for the start byte.
	var b [1]byte
	for {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, nil, frame.ErrTimeout
		}
		if err := t.port.SetReadTimeout(remaining); err != nil {
			return 0, nil, frame.ErrClosed
		}
		n, err := t.port.Read(b[:])
		if err != nil {
			return 0, nil, classifyReadErr(err)
		}
		if n == 1 && b[0] == frame.StartByte {
			break
		}
	}

	// Collect stuffed bytes, unstuffing incrementally, until we have the
	// length byte plus the declared body and checksum.
	var unstuffed []byte
	var pendingEscape bool
	for {
		if len(unstuffed) >= 1 {
			declaredLen := int(unstuffed[0])
			if len(unstuffed) >= 1+declaredLen+2 {
				break
			}
		}

		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, nil, frame.ErrTimeout
		}
		if err := t.port.SetReadTimeout(remaining); err != nil {
			return 0, nil, frame.ErrClosed
		}
		n, err := t.port.Read(b[:])
		if err != nil {
			return 0, nil, classifyReadErr(err)
		}
		if n != 1 {
			continue
		}

		v := b[0]
		if pendingEscape {
			pendingEscape = false
			switch v {
			case 0x5E:
				unstuffed = append(unstuffed, frame.StartByte)
			case 0x5D:
				unstuffed = append(unstuffed, frame.EscapeByte)
			default:
				return 0, nil, frame.ErrBadEscape
			}
			continue
		}
		if v == frame.EscapeByte {
			pendingEscape = true
			continue
		}
		unstuffed = append(unstuffed, v)
	}

	return frame.Decode(unstuffed)
}

// WriteFrame stuffs and transmits a complete frame for msgType/body.
func (t *Transport) WriteFrame(msgType byte, body []byte) error {
	encoded := frame.Encode(msgType, body)
	_, err := t.port.Write(encoded)
	if err != nil {
		return errors.Join(ErrSerialIO, err)
	}
	return nil
}

// classifyReadErr maps the underlying port error to a frame-level sentinel
// where one applies; any other I/O error is returned unwrapped so the
// caller can recognize it as a fatal SerialIoError (spec §7) rather than a
// locally-recoverable FrameError.
func classifyReadErr(err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return frame.ErrTimeout
	}
	if errors.Is(err, io.EOF) {
		return frame.ErrClosed
	}
	return err
}
