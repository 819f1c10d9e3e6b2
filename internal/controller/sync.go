package controller

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/catalog"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/panelmodel"
)

// Sync runs the startup synchronization sequence (spec §4.3): interface
// config validation, system status, per-partition status, and per-zone
// name+status. It fails with ErrPanelMisconfigured when required broadcasts
// are disabled, or with the error of a failed request. Status responses
// handled before the model is marked synced update the model without being
// passed to the publisher, so nothing reaches MQTT until the caller
// publishes discovery and state after Sync returns.
func (c *Controller) Sync(ctx context.Context) error {
	if err := c.syncInterfaceConfig(ctx); err != nil {
		return err
	}

	activePartitions, err := c.syncSystemStatus(ctx)
	if err != nil {
		return err
	}
	for _, idx := range activePartitions {
		if _, err := c.model.AddPartition(idx); err != nil {
			return fmt.Errorf("registering partition %d: %w", idx, err)
		}
	}

	for _, p := range c.model.Partitions() {
		if err := c.syncPartitionStatus(ctx, p.Index); err != nil {
			return err
		}
	}

	for idx := 1; idx <= c.cfg.MaxZones; idx++ {
		if c.cfg.IgnoredZones[idx] {
			continue
		}
		if err := c.syncZone(ctx, idx); err != nil {
			return err
		}
	}

	c.model.MarkSynced()
	return nil
}

// syncInterfaceConfig requests the panel's Interface Configuration and
// validates that every required broadcast type (§4.2) is declared enabled.
func (c *Controller) syncInterfaceConfig(ctx context.Context) error {
	body, err := c.exchange(ctx, catalog.CodeInterfaceConfigRequest, nil, false, catalog.CodeInterfaceConfigResponse)
	if err != nil {
		return fmt.Errorf("%w: interface configuration request: %w", ErrPanelMisconfigured, err)
	}
	for _, required := range catalog.RequiredBroadcastCodes {
		if !messageTypeBitSet(body, required) {
			return fmt.Errorf("%w: panel does not declare %s enabled", ErrPanelMisconfigured, describeCode(required))
		}
	}
	return nil
}

// messageTypeBitSet reads bit `code` of the Interface Configuration
// Response bitmap: byte code/8, bit code%8.
func messageTypeBitSet(bitmap []byte, code byte) bool {
	byteIdx := int(code) / 8
	if byteIdx >= len(bitmap) {
		return false
	}
	return bitmap[byteIdx]&(1<<(code%8)) != 0
}

// syncSystemStatus requests System Status and returns the 1-based indices
// of active partitions from the leading bitmask byte (bit 0 = partition 1).
func (c *Controller) syncSystemStatus(ctx context.Context) ([]int, error) {
	body, err := c.exchange(ctx, catalog.CodeSystemStatusRequest, nil, false, catalog.CodeSystemStatusResponse)
	if err != nil {
		return nil, fmt.Errorf("%w: system status request: %w", ErrPanelMisconfigured, err)
	}
	if len(body) < 1 {
		return nil, fmt.Errorf("%w: system status response too short", ErrPanelMisconfigured)
	}
	mask := body[0]
	var indices []int
	for i := 0; i < 8; i++ {
		if mask&(1<<i) != 0 {
			indices = append(indices, i+1)
		}
	}
	return indices, nil
}

func (c *Controller) syncPartitionStatus(ctx context.Context, index int) error {
	body, err := c.exchange(ctx, catalog.CodePartitionStatusRequest, []byte{byte(index)}, false, catalog.CodePartitionStatusResponse)
	if err != nil {
		return fmt.Errorf("partition %d status sync: %w", index, err)
	}
	c.handlePartitionStatus(body)
	return nil
}

// syncZone requests the Zone Name and, if the zone is active (non-empty
// name), the Zone Status, registering it in the model. An inactive zone
// (empty/all-zero name) is not registered (spec §4.3 step 4).
func (c *Controller) syncZone(ctx context.Context, index int) error {
	idxBytes := zoneIndexBytes(index)

	nameBody, err := c.exchange(ctx, catalog.CodeZoneNameRequest, idxBytes, false, catalog.CodeZoneNameResponse)
	if err != nil {
		return fmt.Errorf("zone %d name sync: %w", index, err)
	}
	if len(nameBody) < 18 {
		return fmt.Errorf("zone %d name response too short", index)
	}
	name := string(nameBody[2:18])
	if panelmodel.IsNameEmpty(name) {
		return nil
	}

	if _, err := c.model.AddZone(index, name); err != nil {
		return fmt.Errorf("registering zone %d: %w", index, err)
	}

	statusBody, err := c.exchange(ctx, catalog.CodeZoneStatusRequest, idxBytes, false, catalog.CodeZoneStatusResponse)
	if err != nil {
		return fmt.Errorf("zone %d status sync: %w", index, err)
	}
	c.handleZoneStatus(statusBody)
	return nil
}

func zoneIndexBytes(index int) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(index))
	return b
}
