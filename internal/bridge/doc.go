// Package bridge wires the controller's panel model to MQTT using Home
// Assistant MQTT Discovery (spec §4.5): it builds discovery/state topics,
// publishes retained discovery configs and state, republishes on broker
// and Home Assistant restart, and translates incoming command payloads
// into controller.CommandRequest values.
package bridge
