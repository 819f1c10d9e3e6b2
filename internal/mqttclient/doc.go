// Package mqttclient wraps paho.mqtt.golang with the connection
// management, availability/LWT, and subscription-restore behavior the
// bridge needs, independent of any Home Assistant discovery topic
// knowledge (that lives in package bridge).
package mqttclient
