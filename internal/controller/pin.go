package controller

import (
	"fmt"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/catalog"
)

// PackPIN nibble-packs a 4 or 6 digit PIN into 3 bytes, little-within-byte:
// each byte holds two digits with the second digit in the high nibble and
// the first in the low nibble. A 4-digit PIN is padded with two zero
// digits, so pack("1234") == [0x21, 0x43, 0x00] and pack("123456") ==
// [0x21, 0x43, 0x65] (spec §8, property 8).
func PackPIN(pin string) ([]byte, error) {
	if len(pin) != 4 && len(pin) != 6 {
		return nil, fmt.Errorf("%w: PIN must be 4 or 6 digits, got %d", ErrInvalidCode, len(pin))
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: PIN must be all digits", ErrInvalidCode)
		}
	}

	padded := pin
	if len(padded) == 4 {
		padded += "00"
	}

	out := make([]byte, 3)
	for i := 0; i < 3; i++ {
		d1 := padded[2*i] - '0'
		d2 := padded[2*i+1] - '0'
		out[i] = (d2 << 4) | d1
	}
	return out, nil
}

// PackUser validates a 1-99 user number for use in a 0x3D keypad command.
func PackUser(user int) (byte, error) {
	if user < 1 || user > 99 {
		return 0, fmt.Errorf("%w: user number must be 1-99, got %d", ErrInvalidCode, user)
	}
	return byte(user), nil
}

// partitionMask returns the single-partition bitmask for partition (1-based),
// per spec §4.3: "bit 0 = partition 1".
func partitionMask(partition int) byte {
	return 1 << uint(partition-1)
}

// BuildPINKeypadFrame builds the body of a 0x3C Primary Keypad Function (PIN)
// command: 3 PIN bytes, the target partition mask, then the function code.
func BuildPINKeypadFrame(pin string, partition int, function byte) (msgType byte, body []byte, err error) {
	packed, err := PackPIN(pin)
	if err != nil {
		return 0, nil, err
	}
	body = append(append([]byte{}, packed...), partitionMask(partition), function)
	return catalog.CodeKeypadFunctionPIN, body, nil
}

// BuildUserKeypadFrame builds the body of a 0x3D Primary Keypad Function
// (User#) command: the user byte, the target partition mask, then the
// function code.
func BuildUserKeypadFrame(user int, partition int, function byte) (msgType byte, body []byte, err error) {
	userByte, err := PackUser(user)
	if err != nil {
		return 0, nil, err
	}
	body = []byte{userByte, partitionMask(partition), function}
	return catalog.CodeKeypadFunctionUser, body, nil
}
