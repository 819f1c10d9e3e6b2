package controller

import (
	"os"
	"sync"
	"time"
)

// scriptedPort is a test double for serialport.Port that serves a fixed
// byte stream to Read calls (pre-encoded frames concatenated in the order
// the test expects requests to be made) and records every Write.
type scriptedPort struct {
	mu      sync.Mutex
	toRead  []byte
	written [][]byte
	closed  bool
}

func newScriptedPort(frames ...[]byte) *scriptedPort {
	p := &scriptedPort{}
	for _, f := range frames {
		p.toRead = append(p.toRead, f...)
	}
	return p
}

func (p *scriptedPort) SetReadTimeout(d time.Duration) error { return nil }

func (p *scriptedPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, os.ErrClosed
	}
	if len(p.toRead) == 0 {
		return 0, os.ErrDeadlineExceeded
	}
	n := copy(b, p.toRead[:1])
	p.toRead = p.toRead[1:]
	return n, nil
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]byte, len(b))
	copy(cp, b)
	p.written = append(p.written, cp)
	return len(b), nil
}

func (p *scriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *scriptedPort) writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}
