// Command nxbridge bridges an NX-584/Caddx alarm panel's serial interface
// to MQTT using Home Assistant MQTT Discovery (spec §1, §5, §6).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/bridge"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/config"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/controller"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/logging"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/mqttclient"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/observability"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/panelmodel"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/serialport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "nxbridge:", err)
		os.Exit(1)
	}
}

// run wires every component together and blocks until ctx is cancelled or a
// startup/runtime error occurs. It returns an error rather than calling
// os.Exit directly so it stays testable.
func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"), os.Args[1:])
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Logging)
	logger.Info("starting nxbridge", "panel", cfg.Panel.UniqueID, "serial", cfg.Serial.Device)

	port, err := serialport.Open(serialport.Config{Device: cfg.Serial.Device, Baud: cfg.Serial.Baud})
	if err != nil {
		return fmt.Errorf("opening serial port: %w", err)
	}
	defer port.Close()
	transport := controller.NewTransport(port)

	availabilityTopic := bridge.AvailabilityTopic(cfg.MQTT.TopicRoot, cfg.Panel.UniqueID)
	clientID := "nxbridge-" + bridge.Sanitize(cfg.Panel.UniqueID)
	mqttClient, err := mqttclient.Connect(cfg.MQTT, clientID, availabilityTopic)
	if err != nil {
		return fmt.Errorf("connecting to mqtt broker: %w", err)
	}
	mqttClient.SetLogger(logger)
	defer mqttClient.Close()

	model := panelmodel.NewModel(cfg.Panel.UniqueID)

	// enqueuer defers to ctrl, which doesn't exist yet when the Bridge is
	// constructed (Bridge needs an Enqueuer, the Controller needs the
	// Bridge as its Publisher) — this indirection breaks that cycle.
	enqueuer := &controllerEnqueuer{}

	br, err := bridge.New(bridge.Options{
		MQTT:      mqttClient,
		Enqueuer:  enqueuer,
		Model:     model,
		Logger:    logger,
		TopicRoot: cfg.MQTT.TopicRoot,
		PanelID:   cfg.Panel.UniqueID,
		PanelName: cfg.Panel.Name,
	})
	if err != nil {
		return fmt.Errorf("constructing bridge: %w", err)
	}

	ctrlCfg := controller.DefaultConfig()
	ctrlCfg.PanelID = cfg.Panel.UniqueID
	ctrlCfg.MaxZones = cfg.Panel.MaxZones
	ctrlCfg.IgnoredZones = cfg.IgnoredZoneSet()
	ctrlCfg.PIN = cfg.Panel.Code
	ctrlCfg.User = cfg.Panel.User
	ctrlCfg.ZoneDiscoverySpacing = cfg.Panel.ZoneDiscoveryInterval
	ctrlCfg.RepublishInterval = cfg.Panel.RepublishInterval

	ctrl := controller.New(transport, model, ctrlCfg, br, logger)
	enqueuer.ctrl = ctrl
	ctrl.SetRepublishHandler(br.PublishAll)

	if err := ctrl.Sync(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}

	if err := br.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	br.PublishAll()
	mqttClient.SetOnConnect(br.PublishAll)

	status := &statusProvider{mqtt: mqttClient, model: model}
	healthServer := observability.New(cfg.Health.Addr, logger, status, observability.NewHub())
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("starting observability server: %w", err)
	}

	logger.Info("nxbridge ready")

	// The controller's run loop and the observability server's graceful
	// shutdown are coordinated through one errgroup: when ctx is cancelled
	// (or the controller loop exits on its own), the group's derived
	// context cancels too, and the second goroutine closes the HTTP
	// listener in step rather than via a bare defer racing process exit.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return healthServer.Close()
	})
	err = g.Wait()

	logger.Info("shutting down")
	return err
}

// controllerEnqueuer forwards to a *controller.Controller set after
// construction, so the Bridge and the Controller can reference each other
// without a direct import cycle.
type controllerEnqueuer struct {
	ctrl *controller.Controller
}

func (c *controllerEnqueuer) Enqueue(req controller.CommandRequest) {
	c.ctrl.Enqueue(req)
}

// statusProvider adapts the MQTT client and panel model to
// observability.StatusProvider; neither package alone knows both halves of
// bridge health.
type statusProvider struct {
	mqtt  *mqttclient.Client
	model *panelmodel.Model
}

func (s *statusProvider) Synced() bool        { return s.model.Synced() }
func (s *statusProvider) MQTTConnected() bool { return s.mqtt.IsConnected() }
func (s *statusProvider) PartitionCount() int { return s.model.PartitionCount() }
func (s *statusProvider) ZoneCount() int      { return s.model.ZoneCount() }
