// Package serialport defines the minimal byte-stream interface the
// controller needs from the physical serial device driver. Per spec §1 the
// driver itself is a collaborator consumed only through this interface
// ("assumed to provide a raw byte-stream read/write interface with a
// blocking-read timeout"); this package supplies that interface plus a
// termios-backed implementation of a real device path, built on top of
// github.com/daedaluz/goserial.
package serialport

import (
	"context"
	"time"
)

// Port is the byte-stream contract the controller depends on. A test
// double can satisfy this with an in-memory pipe; production code gets it
// from Open.
type Port interface {
	// SetReadTimeout bounds the next Read call; an expired read returns
	// (0, os.ErrDeadlineExceeded) so the controller can treat it as
	// frame.ErrTimeout.
	SetReadTimeout(d time.Duration) error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Config describes how to open a real serial device.
type Config struct {
	Device string
	Baud   int
}

// Open configures and opens the serial device at cfg.Device using the
// POSIX termios settings appropriate for cfg.Baud (8N1, raw mode, no
// hardware flow control), returning a Port ready for use by the
// controller. The platform-specific implementation lives in
// port_linux.go / port_other.go.
//
// This is intentionally minimal: NX-584 interface modules are fixed at one
// of a handful of standard baud rates and the wire protocol is
// byte-oriented, so no parity/stop-bit/flow-control configurability is
// exposed beyond the documented default (spec §6: BAUD, default 38400).
func Open(cfg Config) (Port, error) {
	return openPort(cfg)
}

// ReadFrameBytes returns ctx's error if ctx is already done; otherwise it
// blocks, bounded by timeout (ctx is not consulted again), for at least one byte from p,
// returning io.EOF-compatible errors untouched; it exists so the controller
// can wrap Read calls with context cancellation during shutdown without
// threading a context through the Port interface itself.
func ReadFrameBytes(ctx context.Context, p Port, timeout time.Duration, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		return 0, err
	}
	return p.Read(buf)
}
