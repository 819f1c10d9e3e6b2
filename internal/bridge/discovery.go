package bridge

import (
	"encoding/json"
	"strconv"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/panelmodel"
)

// deviceInfo is the Home Assistant "device" block shared by every entity
// belonging to one panel, so HA groups them under a single device card.
type deviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

const (
	deviceManufacturer = "Interlogix"
	deviceModel        = "NX-584/Caddx"
)

func (b *Bridge) device() deviceInfo {
	return deviceInfo{
		Identifiers:  []string{b.panelID},
		Name:         b.panelName,
		Manufacturer: deviceManufacturer,
		Model:        deviceModel,
	}
}

// alarmControlPanelConfig is the discovery payload for one partition
// (spec §4.5: minimum fields plus command_topic/supported_features for
// alarm_control_panel entities).
type alarmControlPanelConfig struct {
	Name               string     `json:"name"`
	UniqueID           string     `json:"unique_id"`
	StateTopic         string     `json:"state_topic"`
	CommandTopic       string     `json:"command_topic"`
	AvailabilityTopic  string     `json:"availability_topic"`
	Device             deviceInfo `json:"device"`
	CodeDisarmRequired bool       `json:"code_disarm_required"`
	SupportedFeatures  []string   `json:"supported_features"`
	PayloadArmHome     string     `json:"payload_arm_home"`
	PayloadArmAway     string     `json:"payload_arm_away"`
	PayloadDisarm      string     `json:"payload_disarm"`
	StateDisarmed      string     `json:"state_disarmed"`
	StateArmedHome     string     `json:"state_armed_home"`
	StateArmedAway     string     `json:"state_armed_away"`
	StatePending       string     `json:"state_pending"`
	StateTriggered     string     `json:"state_triggered"`
	StateArming        string     `json:"state_arming"`
	StateDisarming     string     `json:"state_disarming"`
}

// alarmStatePayloads maps this bridge's published partition state strings
// (panelmodel.State.String(), e.g. "ARMED_HOME") onto Home Assistant's
// alarm_control_panel state_* discovery fields (spec §4.5), since HA's
// built-in vocabulary is lowercase and won't recognize our payloads
// without an explicit mapping.
func alarmStatePayloads() (disarmed, armedHome, armedAway, pending, triggered, arming, disarming string) {
	return panelmodel.StateDisarmed.String(),
		panelmodel.StateArmedHome.String(),
		panelmodel.StateArmedAway.String(),
		panelmodel.StatePending.String(),
		panelmodel.StateTriggered.String(),
		panelmodel.StateArming.String(),
		panelmodel.StateDisarming.String()
}

func (b *Bridge) buildPartitionDiscovery(index int) ([]byte, error) {
	uid := b.topics.partitionUID(index)
	disarmed, armedHome, armedAway, pending, triggered, arming, disarming := alarmStatePayloads()
	cfg := alarmControlPanelConfig{
		Name:               partitionDisplayName(b.panelName, index),
		UniqueID:           uid,
		StateTopic:         b.topics.PartitionStateTopic(index),
		CommandTopic:       b.topics.PartitionSetTopic(index),
		AvailabilityTopic:  b.topics.AvailabilityTopic(),
		Device:             b.device(),
		CodeDisarmRequired: false,
		SupportedFeatures:  []string{"arm_home", "arm_away"},
		PayloadArmHome:     commandArmHome,
		PayloadArmAway:     commandArmAway,
		PayloadDisarm:      commandDisarm,
		StateDisarmed:      disarmed,
		StateArmedHome:     armedHome,
		StateArmedAway:     armedAway,
		StatePending:       pending,
		StateTriggered:     triggered,
		StateArming:        arming,
		StateDisarming:     disarming,
	}
	return json.Marshal(cfg)
}

func partitionDisplayName(panelName string, index int) string {
	if index == 1 {
		return panelName
	}
	return panelName + " " + strconv.Itoa(index)
}

// binarySensorConfig is the discovery payload for one zone/kind pair
// (faulted, bypassed, or trouble).
type binarySensorConfig struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	StateTopic        string     `json:"state_topic"`
	AvailabilityTopic string     `json:"availability_topic"`
	Device            deviceInfo `json:"device"`
	DeviceClass       string     `json:"device_class"`
	PayloadOn         string     `json:"payload_on"`
	PayloadOff        string     `json:"payload_off"`
}

func deviceClassForKind(kind zoneKind) string {
	switch kind {
	case zoneKindTrouble:
		return "tamper"
	case zoneKindBypassed:
		return "safety"
	default: // zoneKindFaulted
		return "motion"
	}
}

func (b *Bridge) buildZoneDiscovery(index int, name string, kind zoneKind) ([]byte, error) {
	uid := b.topics.zoneUID(index)
	cfg := binarySensorConfig{
		Name:              name + " " + string(kind),
		UniqueID:          uid + "_" + string(kind),
		StateTopic:        b.topics.ZoneStateTopic(index, kind),
		AvailabilityTopic: b.topics.AvailabilityTopic(),
		Device:            b.device(),
		DeviceClass:       deviceClassForKind(kind),
		PayloadOn:         stateOn,
		PayloadOff:        stateOff,
	}
	return json.Marshal(cfg)
}
