//go:build linux

package serialport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	serial "github.com/daedaluz/goserial"
)

// baudFlags maps the documented NX-584 baud rates (spec §6: BAUD, default
// 38400) to goserial's termios speed constants.
var baudFlags = map[int]serial.CFlag{
	1200:   serial.B1200,
	2400:   serial.B2400,
	4800:   serial.B4800,
	9600:   serial.B9600,
	19200:  serial.B19200,
	38400:  serial.B38400,
	57600:  serial.B57600,
	115200: serial.B115200,
}

// goPort adapts *serial.Port (github.com/daedaluz/goserial) to the Port
// interface. goserial's own SetReadTimeout/Read pair blocks on a poll(2)
// wait rather than a kernel read deadline, so a timed-out read surfaces as
// whatever error the underlying poll wait returns; Read translates that
// into os.ErrDeadlineExceeded so callers (controller/transport.go) can test
// with errors.Is regardless of the library's internal representation.
type goPort struct {
	port    *serial.Port
	timeout time.Duration
}

func openPort(cfg Config) (Port, error) {
	speed, ok := baudFlags[cfg.Baud]
	if !ok {
		return nil, fmt.Errorf("serialport: unsupported baud rate %d", cfg.Baud)
	}

	p, err := serial.Open(cfg.Device, serial.NewOptions())
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Device, err)
	}

	if err := p.MakeRaw(); err != nil {
		p.Close()
		return nil, fmt.Errorf("serialport: set raw mode: %w", err)
	}

	attrs, err := p.GetAttr()
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("serialport: get attrs: %w", err)
	}
	attrs.SetSpeed(speed)
	attrs.Cflag |= serial.CLOCAL | serial.CREAD
	if err := p.SetAttr(serial.TCSANOW, attrs); err != nil {
		p.Close()
		return nil, fmt.Errorf("serialport: set attrs: %w", err)
	}

	return &goPort{port: p}, nil
}

func (p *goPort) SetReadTimeout(d time.Duration) error {
	p.timeout = d
	if d <= 0 {
		p.port.SetReadTimeout(-1)
	} else {
		p.port.SetReadTimeout(d)
	}
	return nil
}

func (p *goPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err != nil && n == 0 && p.timeout > 0 && !errors.Is(err, serial.ErrClosed) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("serialport: read: %w", os.ErrDeadlineExceeded)
	}
	return n, err
}

func (p *goPort) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *goPort) Close() error                { return p.port.Close() }
