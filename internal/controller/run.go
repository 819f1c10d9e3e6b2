package controller

import (
	"context"
	"errors"
	"time"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/catalog"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/frame"
)

// Run is the controller's main loop (spec §4.3 "Main loop"), entered after
// Sync succeeds. It interleaves draining the MQTT command inbox, polling
// the serial reader with a short timeout, and periodic republish. It
// returns nil when ctx is cancelled, ErrSerialClosed when the port is
// closed, and an error wrapping ErrSerialIO for any other read failure
// that is not a framing error.
func (c *Controller) Run(ctx context.Context) error {
	c.lastRepublish = time.Now()

	for {
		if ctx.Err() != nil {
			return nil
		}

		c.drainInbox(ctx)

		msgType, body, err := c.transport.ReadFrame(ctx, c.cfg.PollTimeout)
		switch {
		case err == nil:
			c.handleFrame(msgType&frame.TypeMask, body)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		case errors.Is(err, frame.ErrTimeout):
			// no frame within the poll window; normal, keep looping.
		case errors.Is(err, frame.ErrClosed):
			return ErrSerialClosed
		default:
			var fe *frame.Error
			if !errors.As(err, &fe) {
				return errors.Join(ErrSerialIO, err)
			}
			c.logFrameError(err)
		}

		if c.cfg.RepublishInterval > 0 && time.Since(c.lastRepublish) >= c.cfg.RepublishInterval {
			if c.onRepublish != nil {
				c.onRepublish()
			}
			c.lastRepublish = time.Now()
		}
	}
}

// drainInbox processes every command currently queued from MQTT, strictly
// sequentially (spec §4.3: "at most one outstanding request at a time").
func (c *Controller) drainInbox(ctx context.Context) {
	for {
		select {
		case req := <-c.inbox:
			c.executeCommand(ctx, req)
		default:
			return
		}
	}
}

func (c *Controller) executeCommand(ctx context.Context, req CommandRequest) {
	var msgType byte
	var body []byte
	var err error

	if c.cfg.User > 0 {
		msgType, body, err = BuildUserKeypadFrame(c.cfg.User, req.Partition, req.Function)
	} else {
		msgType, body, err = BuildPINKeypadFrame(c.cfg.PIN, req.Partition, req.Function)
	}
	if err != nil {
		c.logger.Error("cannot build keypad command", "id", req.ID, "error", err)
		return
	}

	if _, err := c.exchange(ctx, msgType, body, true, 0); err != nil {
		c.logger.Error("keypad command failed", "id", req.ID, "partition", req.Partition,
			"function", functionName(req.Function), "error", err)
		return
	}
	c.logger.Info("keypad command sent", "id", req.ID, "partition", req.Partition,
		"function", functionName(req.Function))
}

func functionName(fn byte) string {
	switch fn {
	case catalog.FunctionDisarm:
		return "disarm"
	case catalog.FunctionArmAway:
		return "arm_away"
	case catalog.FunctionArmHome:
		return "arm_home"
	default:
		return "unknown"
	}
}
