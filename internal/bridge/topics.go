package bridge

import (
	"fmt"
	"strings"
)

// zoneKind names the three binary_sensor entities published per zone
// (spec §4.5).
type zoneKind string

const (
	zoneKindFaulted  zoneKind = "faulted"
	zoneKindBypassed zoneKind = "bypassed"
	zoneKindTrouble  zoneKind = "trouble"
)

// haStatusTopic is the Home Assistant birth/LWT topic this bridge
// subscribes to for restart-triggered republish (spec §4.5).
const haStatusTopic = "homeassistant/status"

// Sanitize reduces s to the identifier charset MQTT topics and unique_ids
// require ([A-Za-z0-9_-]; spec §4.5). It is idempotent: sanitizing an
// already-sanitized string returns it unchanged.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// topics builds every MQTT topic this bridge publishes or subscribes to,
// scoped to one panel under topicRoot.
type topics struct {
	root    string
	panelID string
}

func newTopics(topicRoot, panelID string) topics {
	return topics{root: Sanitize(topicRoot), panelID: Sanitize(panelID)}
}

// AvailabilityTopic computes the panel-wide LWT topic from the raw (not yet
// sanitized) topic root and panel id. It exists as a package-level function,
// not just a Bridge method, because the MQTT client's Last Will must be
// configured at Connect time, before a Bridge exists to own it.
func AvailabilityTopic(topicRoot, panelID string) string {
	return newTopics(topicRoot, panelID).AvailabilityTopic()
}

// AvailabilityTopic is the panel-wide LWT/online-offline topic.
func (t topics) AvailabilityTopic() string {
	return fmt.Sprintf("%s/alarm_control_panel/%s/availability", t.root, t.panelID)
}

func (t topics) partitionUID(index int) string {
	return Sanitize(fmt.Sprintf("%s_partition_%d", t.panelID, index))
}

func (t topics) PartitionConfigTopic(index int) string {
	return fmt.Sprintf("%s/alarm_control_panel/%s/%s/config", t.root, t.panelID, t.partitionUID(index))
}

func (t topics) PartitionStateTopic(index int) string {
	return fmt.Sprintf("%s/alarm_control_panel/%s/%s/state", t.root, t.panelID, t.partitionUID(index))
}

func (t topics) PartitionSetTopic(index int) string {
	return fmt.Sprintf("%s/alarm_control_panel/%s/%s/set", t.root, t.panelID, t.partitionUID(index))
}

// PartitionSetSubscribeTopic is the wildcard pattern subscribed once to
// catch every partition's command topic.
func (t topics) PartitionSetSubscribeTopic() string {
	return fmt.Sprintf("%s/alarm_control_panel/%s/+/set", t.root, t.panelID)
}

func (t topics) zoneUID(index int) string {
	return Sanitize(fmt.Sprintf("%s_zone_%d", t.panelID, index))
}

func (t topics) ZoneConfigTopic(index int, kind zoneKind) string {
	return fmt.Sprintf("%s/binary_sensor/%s/%s_%s/config", t.root, t.panelID, t.zoneUID(index), kind)
}

func (t topics) ZoneStateTopic(index int, kind zoneKind) string {
	return fmt.Sprintf("%s/binary_sensor/%s/%s_%s/state", t.root, t.panelID, t.zoneUID(index), kind)
}

// partitionIndexFromSetTopic extracts the partition's unique_id segment
// from a topic matched by PartitionSetSubscribeTopic, so the handler can
// map it back to a registered partition.
func partitionIndexFromSetTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return "", false
	}
	if parts[len(parts)-1] != "set" {
		return "", false
	}
	return parts[len(parts)-2], true
}
