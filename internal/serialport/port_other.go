//go:build !linux

package serialport

import "fmt"

// goserial's termios ioctls are Linux-specific; the NX-584 bridge targets
// Linux hosts (spec §1), so no other platform's serial stack is wired up.
func openPort(cfg Config) (Port, error) {
	return nil, fmt.Errorf("serialport: serial device support not implemented on this platform")
}
