package controller

import (
	"context"
	"testing"
	"time"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/catalog"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/frame"
	"github.com/nx584bridge/nx584-mqtt-bridge/internal/panelmodel"
)

type fakePublisher struct {
	partitions []*panelmodel.Partition
	zones      []*panelmodel.Zone
}

func (f *fakePublisher) PublishPartitionState(p *panelmodel.Partition) {
	f.partitions = append(f.partitions, p)
}
func (f *fakePublisher) PublishZoneState(z *panelmodel.Zone) {
	f.zones = append(f.zones, z)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PanelID = "panel1"
	cfg.MaxZones = 1
	cfg.AckTimeout = 50 * time.Millisecond
	cfg.ResponseTimeout = 50 * time.Millisecond
	cfg.MaxAttempts = 1
	cfg.RetryBackoff = 5 * time.Millisecond
	cfg.PIN = "1234"
	return cfg
}

func zoneNameBody(index int, name string) []byte {
	padded := make([]byte, 16)
	copy(padded, name)
	body := zoneIndexBytes(index)
	return append(body, padded...)
}

func TestSyncSinglePartitionSinglePanel(t *testing.T) {
	ifaceBitmap := []byte{0x78, 0x01} // bits 3,4,5,6 and bit 8 set
	sysStatus := []byte{0x01}         // partition 1 active
	partStatus := []byte{0x01, 0, 0, 0, 0, 0, 0}
	zoneName := zoneNameBody(1, "Front Door")
	zoneStatus := append(zoneIndexBytes(1), 0x00, 0x00, 0x01, 0x00, 0x00) // type=1, cond=0

	port := newScriptedPort(
		frame.Encode(catalog.CodeInterfaceConfigResponse, ifaceBitmap),
		frame.Encode(catalog.CodeSystemStatusResponse, sysStatus),
		frame.Encode(catalog.CodePartitionStatusResponse, partStatus),
		frame.Encode(catalog.CodeZoneNameResponse, zoneName),
		frame.Encode(catalog.CodeZoneStatusResponse, zoneStatus),
	)
	transport := NewTransport(port)
	model := panelmodel.NewModel("panel1")
	pub := &fakePublisher{}

	c := New(transport, model, testConfig(), pub, nil)

	if err := c.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !model.Synced() {
		t.Fatal("model should be marked synced")
	}
	if model.PartitionCount() != 1 {
		t.Fatalf("PartitionCount = %d, want 1", model.PartitionCount())
	}
	if model.ZoneCount() != 1 {
		t.Fatalf("ZoneCount = %d, want 1", model.ZoneCount())
	}

	p, ok := model.Partition(1)
	if !ok {
		t.Fatal("partition 1 not registered")
	}
	if p.State() != panelmodel.StateDisarmed {
		t.Fatalf("partition state = %s, want DISARMED", p.State())
	}

	z, ok := model.Zone(1)
	if !ok {
		t.Fatal("zone 1 not registered")
	}
	if z.Name != "Front Door" {
		t.Fatalf("zone name = %q, want %q", z.Name, "Front Door")
	}
	if z.Faulted() || z.Bypassed() || z.Trouble() {
		t.Fatalf("zone 1 should be clean, got conditions %#x", z.Conditions)
	}
}

func TestSyncFailsWhenPanelMisconfigured(t *testing.T) {
	// Bitmap omits every required bit.
	port := newScriptedPort(
		frame.Encode(catalog.CodeInterfaceConfigResponse, []byte{0x00}),
	)
	transport := NewTransport(port)
	model := panelmodel.NewModel("panel1")

	c := New(transport, model, testConfig(), &fakePublisher{}, nil)

	err := c.Sync(context.Background())
	if err == nil {
		t.Fatal("expected Sync to fail")
	}
}

func TestExecuteCommandSendsArmAwayFrame(t *testing.T) {
	ackFrame := frame.Encode(catalog.CodeAck, nil)
	port := newScriptedPort(ackFrame)
	transport := NewTransport(port)
	model := panelmodel.NewModel("panel1")

	cfg := testConfig()
	c := New(transport, model, cfg, &fakePublisher{}, nil)

	c.executeCommand(context.Background(), CommandRequest{
		ID:        "cmd-1",
		Partition: 1,
		Function:  catalog.FunctionArmAway,
	})

	writes := port.writes()
	if len(writes) != 1 {
		t.Fatalf("expected exactly one write, got %d", len(writes))
	}
	wantBody := []byte{0x21, 0x43, 0x00, 0x01, 0x02}
	want := frame.Encode(catalog.CodeKeypadFunctionPIN, wantBody)
	if string(writes[0]) != string(want) {
		t.Fatalf("written frame = %X, want %X", writes[0], want)
	}
}

func TestEnqueueDropsOnFullInbox(t *testing.T) {
	transport := NewTransport(newScriptedPort())
	model := panelmodel.NewModel("panel1")
	c := New(transport, model, testConfig(), &fakePublisher{}, nil)

	for i := 0; i < cap(c.inbox); i++ {
		c.Enqueue(CommandRequest{Partition: 1, Function: catalog.FunctionDisarm})
	}
	// One more should be dropped silently rather than blocking.
	done := make(chan struct{})
	go func() {
		c.Enqueue(CommandRequest{Partition: 1, Function: catalog.FunctionDisarm})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on full inbox")
	}
}
