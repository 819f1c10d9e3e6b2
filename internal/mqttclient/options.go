package mqttclient

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/config"
)

const (
	defaultConnectTimeout   = 10 * time.Second
	defaultPublishTimeout   = 5 * time.Second
	defaultDisconnectQuiesceMs = 1000
	defaultKeepAlive        = 60 * time.Second
	maxQoS            byte  = 2
)

// buildClientOptions creates paho options from the bridge's MQTT config.
func buildClientOptions(cfg config.MQTTConfig, clientID, willTopic string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	brokerURL := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	opts.SetWill(willTopic, availabilityOffline, 1, true)

	return opts
}

const (
	availabilityOnline  = "online"
	availabilityOffline = "offline"
)
