package controller

import "errors"

// Domain errors for the controller package, grounded on the sentinel-error
// taxonomy pattern used throughout the bridge packages (one var per error
// kind, wrapped with %w at the detection site).
var (
	// ErrCommandFailed is returned after a queued command exhausts its
	// attempts (NACK or response timeout on every attempt).
	ErrCommandFailed = errors.New("controller: command failed")

	// ErrPanelMisconfigured is returned when the Interface Configuration
	// Response does not declare all required broadcast types enabled.
	ErrPanelMisconfigured = errors.New("controller: panel misconfigured")

	// ErrSerialClosed is returned when the serial port is closed out from
	// under the controller.
	ErrSerialClosed = errors.New("controller: serial port closed")

	// ErrSerialIO is returned for any other serial I/O failure.
	ErrSerialIO = errors.New("controller: serial I/O error")

	// ErrUnknownIndex names the error kind for a message that references a
	// zone or partition index that is not registered. The status handlers do
	// not return it: they log such a message at error level and drop it.
	ErrUnknownIndex = errors.New("controller: unknown zone/partition index")

	// ErrInvalidCode is returned when the configured PIN/user code cannot
	// be packed into a keypad command body.
	ErrInvalidCode = errors.New("controller: invalid PIN or user code")
)
