package bridge

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/catalog"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/controller"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/mqttclient"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/panelmodel"
)

// MQTTPublisher is the subset of mqttclient.Client the bridge depends on,
// narrowed to an interface so tests can supply a double without dialing a
// broker.
type MQTTPublisher interface {
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqttclient.MessageHandler) error
}

// Enqueuer is the controller operation the bridge drives from incoming
// MQTT commands; satisfied by *controller.Controller.
type Enqueuer interface {
	Enqueue(req controller.CommandRequest)
}

// Logger is the structured-logging interface the bridge depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

const (
	stateOn  = "ON"
	stateOff = "OFF"

	commandArmHome = "ARM_HOME"
	commandArmAway = "ARM_AWAY"
	commandDisarm  = "DISARM"
)

// Bridge publishes panel state to MQTT as Home Assistant MQTT Discovery
// entities and turns incoming command topics into controller.CommandRequest
// values (spec §4.5). It implements controller.Publisher, so the
// controller calls it directly on every state transition; per spec §5
// these calls must not block.
type Bridge struct {
	mqtt      MQTTPublisher
	enqueuer  Enqueuer
	model     *panelmodel.Model
	logger    Logger
	topics    topics
	panelID   string
	panelName string

	discoveryMu   sync.Mutex
	discoveryDone map[string]bool // partition/zone UIDs already published
}

// Options configures a new Bridge.
type Options struct {
	MQTT      MQTTPublisher
	Enqueuer  Enqueuer
	Model     *panelmodel.Model
	Logger    Logger
	TopicRoot string
	PanelID   string
	PanelName string
}

// New constructs a Bridge. PanelID is sanitized per spec §4.5; an empty
// result after sanitization is a startup error.
func New(opts Options) (*Bridge, error) {
	sanitizedID := Sanitize(opts.PanelID)
	if sanitizedID == "" {
		return nil, fmt.Errorf("bridge: panel id %q sanitizes to empty string", opts.PanelID)
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Bridge{
		mqtt:          opts.MQTT,
		enqueuer:      opts.Enqueuer,
		model:         opts.Model,
		logger:        logger,
		topics:        newTopics(opts.TopicRoot, sanitizedID),
		panelID:       sanitizedID,
		panelName:     opts.PanelName,
		discoveryDone: make(map[string]bool),
	}, nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Start subscribes to every partition's command topic and to
// homeassistant/status for restart-triggered republish (spec §4.5).
func (b *Bridge) Start() error {
	if err := b.mqtt.Subscribe(b.topics.PartitionSetSubscribeTopic(), 1, b.handleCommand); err != nil {
		return fmt.Errorf("bridge: subscribe to command topic: %w", err)
	}
	if err := b.mqtt.Subscribe(haStatusTopic, 1, b.handleHAStatus); err != nil {
		return fmt.Errorf("bridge: subscribe to %s: %w", haStatusTopic, err)
	}
	return nil
}

// PublishAll republishes discovery and current state for every registered
// partition and zone: used on first sync and whenever Home Assistant (or
// the broker) restarts (spec §4.5 "do NOT re-sync the panel").
func (b *Bridge) PublishAll() {
	for _, p := range b.model.Partitions() {
		b.discoveryMu.Lock()
		b.discoveryDone[p.UniqueID] = true
		b.discoveryMu.Unlock()
		b.publishPartitionDiscovery(p)
		b.PublishPartitionState(p)
	}
	for _, z := range b.model.Zones() {
		b.discoveryMu.Lock()
		b.discoveryDone[z.UniqueID] = true
		b.discoveryMu.Unlock()
		b.publishZoneDiscovery(z)
		b.PublishZoneState(z)
	}
}

// handleHAStatus republishes everything when Home Assistant comes back
// online, per spec §4.5. Any other payload is ignored.
func (b *Bridge) handleHAStatus(_ string, payload []byte) error {
	if string(payload) != "online" {
		return nil
	}
	b.logger.Info("home assistant restart detected, republishing discovery and state")
	b.PublishAll()
	return nil
}

// publishPartitionDiscovery publishes the partition's retained discovery
// config on every call. Once-only publication before the first state
// message is handled by ensureDiscovery; PublishAll calls this directly to
// republish after a restart (spec §4.5: discovery must precede state, not
// accompany every update).
func (b *Bridge) publishPartitionDiscovery(p *panelmodel.Partition) {
	payload, err := b.buildPartitionDiscovery(p.Index)
	if err != nil {
		b.logger.Error("failed to marshal partition discovery", "partition", p.Index, "error", err)
		return
	}
	if err := b.mqtt.PublishRetained(b.topics.PartitionConfigTopic(p.Index), payload); err != nil {
		b.logger.Error("failed to publish partition discovery", "partition", p.Index, "error", err)
	}
}

func (b *Bridge) publishZoneDiscovery(z *panelmodel.Zone) {
	for _, kind := range []zoneKind{zoneKindFaulted, zoneKindBypassed, zoneKindTrouble} {
		payload, err := b.buildZoneDiscovery(z.Index, z.Name, kind)
		if err != nil {
			b.logger.Error("failed to marshal zone discovery", "zone", z.Index, "kind", kind, "error", err)
			continue
		}
		if err := b.mqtt.PublishRetained(b.topics.ZoneConfigTopic(z.Index, kind), payload); err != nil {
			b.logger.Error("failed to publish zone discovery", "zone", z.Index, "kind", kind, "error", err)
		}
	}
}

// ensureDiscovery publishes a partition or zone's discovery config the
// first time state is published for it, satisfying spec §4.5's "discovery
// is always published before its first state message" without requiring
// the caller to enumerate every entity up front (e.g. a transition that
// arrives for a zone whose discovery hasn't been sent yet this run).
func (b *Bridge) ensureDiscovery(uid string, publish func()) {
	b.discoveryMu.Lock()
	done := b.discoveryDone[uid]
	if !done {
		b.discoveryDone[uid] = true
	}
	b.discoveryMu.Unlock()
	if !done {
		publish()
	}
}

// PublishPartitionState implements controller.Publisher.
func (b *Bridge) PublishPartitionState(p *panelmodel.Partition) {
	b.ensureDiscovery(p.UniqueID, func() { b.publishPartitionDiscovery(p) })
	state := p.State().String()
	if err := b.mqtt.PublishRetained(b.topics.PartitionStateTopic(p.Index), []byte(state)); err != nil {
		b.logger.Error("failed to publish partition state", "partition", p.Index, "error", err)
	}
}

// PublishZoneState implements controller.Publisher.
func (b *Bridge) PublishZoneState(z *panelmodel.Zone) {
	b.ensureDiscovery(z.UniqueID, func() { b.publishZoneDiscovery(z) })
	b.publishZoneConditionState(z.Index, zoneKindFaulted, z.Faulted())
	b.publishZoneConditionState(z.Index, zoneKindBypassed, z.Bypassed())
	b.publishZoneConditionState(z.Index, zoneKindTrouble, z.Trouble())
}

func (b *Bridge) publishZoneConditionState(index int, kind zoneKind, on bool) {
	payload := stateOff
	if on {
		payload = stateOn
	}
	if err := b.mqtt.PublishRetained(b.topics.ZoneStateTopic(index, kind), []byte(payload)); err != nil {
		b.logger.Error("failed to publish zone state", "zone", index, "kind", kind, "error", err)
	}
}

// handleCommand maps an incoming partition command topic/payload to a
// controller.CommandRequest and enqueues it, without blocking the MQTT
// callback goroutine (spec §4.5 "Command intake").
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	uid, ok := partitionIndexFromSetTopic(topic)
	if !ok {
		return fmt.Errorf("bridge: malformed command topic %q", topic)
	}
	index, ok := b.partitionIndexForUID(uid)
	if !ok {
		b.logger.Warn("command for unknown partition", "topic", topic)
		return nil
	}
	function, ok := functionForPayload(strings.TrimSpace(string(payload)))
	if !ok {
		b.logger.Warn("unrecognized command payload", "payload", string(payload))
		return nil
	}
	b.enqueuer.Enqueue(controller.CommandRequest{Partition: index, Function: function})
	return nil
}

func (b *Bridge) partitionIndexForUID(uid string) (int, bool) {
	for _, p := range b.model.Partitions() {
		if b.topics.partitionUID(p.Index) == uid {
			return p.Index, true
		}
	}
	return 0, false
}

func functionForPayload(payload string) (byte, bool) {
	switch payload {
	case commandArmHome:
		return catalog.FunctionArmHome, true
	case commandArmAway:
		return catalog.FunctionArmAway, true
	case commandDisarm:
		return catalog.FunctionDisarm, true
	default:
		return 0, false
	}
}

