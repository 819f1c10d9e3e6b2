// Package controller implements the serial I/O loop, command queue with
// retries, transition dispatch, startup synchronization, and arm/disarm
// command emission (spec §4.3).
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/catalog"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/frame"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/panelmodel"
)

// Config holds the controller's tunable timing and panel-access parameters.
type Config struct {
	PanelID      string
	MaxZones     int
	IgnoredZones map[int]bool

	PIN  string
	User int // 0 means "use PIN instead"

	AckTimeout           time.Duration
	ResponseTimeout      time.Duration
	MaxAttempts          int
	RetryBackoff         time.Duration
	PollTimeout          time.Duration
	ZoneDiscoverySpacing time.Duration // not read: zone discovery is published with no delay between zones
	RepublishInterval    time.Duration
}

// DefaultConfig returns the spec-documented defaults (§4.3, §5, §9).
func DefaultConfig() Config {
	return Config{
		MaxZones:             8,
		AckTimeout:           time.Second,
		ResponseTimeout:      time.Second,
		MaxAttempts:          3,
		RetryBackoff:         250 * time.Millisecond,
		PollTimeout:          50 * time.Millisecond,
		ZoneDiscoverySpacing: time.Second,
		RepublishInterval:    60 * time.Minute,
	}
}

// CommandRequest is an arm/disarm request originating from MQTT, queued for
// the controller's main loop to process in enqueue order.
type CommandRequest struct {
	ID        string
	Partition int
	Function  byte // catalog.FunctionDisarm / FunctionArmAway / FunctionArmHome
}

// Controller owns the serial transport, the panel registry, and the
// outbound command inbox. It is the single ordering authority for all
// panel state mutation (spec §5): exactly one goroutine calls Sync and Run.
type Controller struct {
	transport *Transport
	model     *panelmodel.Model
	cfg       Config
	publisher Publisher
	logger    Logger

	// inbox is written by MQTT callback goroutines and drained only by
	// Run's loop; this is the "thread-safe inbox" in spec §5.
	inbox chan CommandRequest

	lastRepublish time.Time
	onRepublish   func()
}

// New constructs a Controller. publisher and logger must be non-nil;
// callers that don't care about logging can pass a no-op implementation.
func New(transport *Transport, model *panelmodel.Model, cfg Config, publisher Publisher, logger Logger) *Controller {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{
		transport: transport,
		model:     model,
		cfg:       cfg,
		publisher: publisher,
		logger:    logger,
		inbox:     make(chan CommandRequest, 64),
	}
}

// SetRepublishHandler registers the callback Run invokes every
// RepublishInterval (spec §4.3's broker-restart resilience republish).
func (c *Controller) SetRepublishHandler(fn func()) {
	c.onRepublish = fn
}

// Enqueue pushes an MQTT-originated command onto the inbox, non-blocking.
// If the inbox is full the command is dropped and logged at warn, rather
// than blocking the MQTT callback goroutine.
func (c *Controller) Enqueue(req CommandRequest) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	select {
	case c.inbox <- req:
	default:
		c.logger.Warn("command inbox full, dropping request", "id", req.ID, "partition", req.Partition)
	}
}

// Model returns the controller's panel registry.
func (c *Controller) Model() *panelmodel.Model { return c.model }

// exchange transmits one request frame and, depending on expectsAck/
// expectedResponse, waits for the panel's ACK and/or the expected response
// type, retrying up to cfg.MaxAttempts times with cfg.RetryBackoff between
// attempts (spec §4.3 "Send-and-wait protocol").
func (c *Controller) exchange(ctx context.Context, msgType byte, body []byte, expectsAck bool, expectedResponse byte) ([]byte, error) {
	maxAttempts := c.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.transport.WriteFrame(msgType, body); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerialIO, err)
		}

		if expectsAck {
			acked, err := c.waitForAck(ctx)
			if err != nil {
				lastErr = err
				if attempt < maxAttempts {
					c.sleepBackoff(ctx)
					continue
				}
				return nil, fmt.Errorf("%w: %s: %w", ErrCommandFailed, describeCode(msgType), lastErr)
			}
			if !acked {
				lastErr = errors.New("NACK")
				if attempt < maxAttempts {
					c.sleepBackoff(ctx)
					continue
				}
				return nil, fmt.Errorf("%w: %s: NACK", ErrCommandFailed, describeCode(msgType))
			}
		}

		if expectedResponse == 0 {
			return nil, nil
		}

		respBody, err := c.waitForResponse(ctx, expectedResponse)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				c.sleepBackoff(ctx)
				continue
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrCommandFailed, describeCode(msgType), lastErr)
		}
		return respBody, nil
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrCommandFailed, describeCode(msgType), lastErr)
}

func describeCode(code byte) string {
	if entry, ok := catalog.Lookup(code); ok {
		return entry.Name
	}
	return fmt.Sprintf("code %#x", code)
}

func (c *Controller) sleepBackoff(ctx context.Context) {
	t := time.NewTimer(c.cfg.RetryBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// waitForAck reads frames until an ACK (true) or NACK (false) arrives, or
// the ack timeout expires. Intervening transition frames are dispatched
// without satisfying the wait.
func (c *Controller) waitForAck(ctx context.Context) (bool, error) {
	deadline := time.Now().Add(c.cfg.AckTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, fmt.Errorf("timeout waiting for ACK")
		}
		msgType, body, err := c.transport.ReadFrame(ctx, remaining)
		if err != nil {
			if isFrameTimeout(err) {
				return false, fmt.Errorf("timeout waiting for ACK")
			}
			c.logFrameError(err)
			continue
		}
		code := msgType & frame.TypeMask
		switch code {
		case catalog.CodeAck:
			return true, nil
		case catalog.CodeNack:
			return false, nil
		default:
			c.handleFrame(code, body)
		}
	}
}

// waitForResponse reads frames until one of type want arrives, or the
// response timeout expires. A non-matching, non-transition frame fails the
// command per spec §4.3 ("a response of the wrong type fails the command").
func (c *Controller) waitForResponse(ctx context.Context, want byte) ([]byte, error) {
	deadline := time.Now().Add(c.cfg.ResponseTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("timeout waiting for response")
		}
		msgType, body, err := c.transport.ReadFrame(ctx, remaining)
		if err != nil {
			if isFrameTimeout(err) {
				return nil, fmt.Errorf("timeout waiting for response")
			}
			c.logFrameError(err)
			continue
		}
		code := msgType & frame.TypeMask
		if code == want {
			return body, nil
		}
		entry, ok := catalog.Lookup(code)
		if ok && entry.Transition {
			c.handleFrame(code, body)
			continue
		}
		return nil, fmt.Errorf("unexpected response type %s while waiting for %s", describeCode(code), describeCode(want))
	}
}

func isFrameTimeout(err error) bool {
	return errors.Is(err, frame.ErrTimeout)
}

func (c *Controller) logFrameError(err error) {
	c.logger.Warn("frame error, discarding frame", "error", err)
}
