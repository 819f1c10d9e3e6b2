package controller

import (
	"encoding/binary"
	"fmt"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/catalog"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/panelmodel"
)

// Publisher is the bridge-side sink for panel state changes. Implementations
// must not block for long; the controller is the sole ordering authority
// and publishing should be fire-and-forget from its point of view (spec
// §5).
type Publisher interface {
	PublishPartitionState(p *panelmodel.Partition)
	PublishZoneState(z *panelmodel.Zone)
}

// Logger is the structured-logging interface the controller depends on,
// matching the Debug/Info/Warn/Error shape used throughout the bridge
// packages.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// handleFrame dispatches one decoded frame by its catalog entry. It is
// called both for frames read by the main loop and for frames encountered
// while waiting on a queued command's response (spec §4.3: "Intervening
// unrelated frames ... are dispatched normally but do not satisfy the
// wait").
func (c *Controller) handleFrame(code byte, body []byte) {
	entry, ok := catalog.Lookup(code)
	if !ok {
		c.logger.Warn("received frame with unknown message type", "code", fmt.Sprintf("%#x", code))
		return
	}
	if !entry.ValidLength(body) {
		c.logger.Warn("discarding frame with invalid body length", "code", entry.Name, "len", len(body))
		return
	}
	if !entry.Transition {
		return
	}

	switch entry.Handler {
	case catalog.HandlerPartitionStatus:
		c.handlePartitionStatus(body)
	case catalog.HandlerZoneStatus:
		c.handleZoneStatus(body)
	case catalog.HandlerZoneSnapshot:
		c.handleZoneSnapshot(body)
	case catalog.HandlerSystemStatus:
		c.handleSystemStatusTransition(body)
	}
}

func (c *Controller) handlePartitionStatus(body []byte) {
	if len(body) != 7 {
		return
	}
	index := int(body[0])
	var condBytes [6]byte
	copy(condBytes[:], body[1:7])
	conditions := panelmodel.Decode(condBytes)

	p, ok := c.model.Partition(index)
	if !ok {
		c.logger.Error("partition status for unregistered index", "index", index)
		return
	}
	p.SetConditions(conditions)
	if c.model.Synced() {
		c.publisher.PublishPartitionState(p)
	}
}

func (c *Controller) handleZoneStatus(body []byte) {
	if len(body) != 7 {
		return
	}
	index := int(binary.BigEndian.Uint16(body[0:2]))
	typeFlags := panelmodel.ZoneTypeFlags(body[2])<<16 | panelmodel.ZoneTypeFlags(body[3])<<8 | panelmodel.ZoneTypeFlags(body[4])
	conditions := panelmodel.ZoneConditionFlags(binary.BigEndian.Uint16(body[5:7]))

	z, ok := c.model.Zone(index)
	if !ok {
		c.logger.Error("zone status for unregistered index", "index", index)
		return
	}
	z.SetStatus(typeFlags, conditions)
	if c.model.Synced() {
		c.publisher.PublishZoneState(z)
	}
}

// handleZoneSnapshot treats the Zone Snapshot broadcast as advisory-only,
// per the open design question in spec §9: the bit layout mapping zones to
// flags is unspecified, so no zone field is mutated from it.
func (c *Controller) handleZoneSnapshot(body []byte) {
	c.logger.Debug("zone snapshot received (advisory only, not decoded)", "len", len(body))
}

// handleSystemStatusTransition handles a System Status broadcast arriving
// after sync is complete. Only the startup sync sequence is allowed to
// create partitions from this message (spec §3: no registry mutation
// after sync), so a post-sync occurrence is informational only.
func (c *Controller) handleSystemStatusTransition(body []byte) {
	c.logger.Debug("system status update received", "len", len(body))
}
