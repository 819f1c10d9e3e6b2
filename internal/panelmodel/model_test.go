package panelmodel

import (
	"errors"
	"testing"
)

func TestModelNoGrowAfterSync(t *testing.T) {
	m := NewModel("caddx_panel")

	if _, err := m.AddPartition(1); err != nil {
		t.Fatalf("AddPartition before sync: %v", err)
	}
	if _, err := m.AddZone(1, "Front Door"); err != nil {
		t.Fatalf("AddZone before sync: %v", err)
	}

	m.MarkSynced()

	if _, err := m.AddPartition(2); !errors.Is(err, ErrSyncComplete) {
		t.Fatalf("AddPartition after sync: got err %v, want ErrSyncComplete", err)
	}
	if _, err := m.AddZone(2, "Back Door"); !errors.Is(err, ErrSyncComplete) {
		t.Fatalf("AddZone after sync: got err %v, want ErrSyncComplete", err)
	}

	if m.PartitionCount() != 1 || m.ZoneCount() != 1 {
		t.Fatalf("registry grew after sync: partitions=%d zones=%d", m.PartitionCount(), m.ZoneCount())
	}
}

func TestModelReAddExistingAfterSyncIsNotAnError(t *testing.T) {
	m := NewModel("caddx_panel")
	p1, _ := m.AddPartition(1)
	m.MarkSynced()

	p1Again, err := m.AddPartition(1)
	if err != nil {
		t.Fatalf("re-adding an existing index after sync should not error: %v", err)
	}
	if p1Again != p1 {
		t.Fatalf("expected the same partition instance back")
	}
}

func TestModelLookup(t *testing.T) {
	m := NewModel("caddx_panel")
	m.AddPartition(1)
	m.AddZone(3, "Kitchen")

	if _, ok := m.Partition(1); !ok {
		t.Fatal("expected partition 1 to be registered")
	}
	if _, ok := m.Partition(2); ok {
		t.Fatal("partition 2 should not be registered")
	}
	if _, ok := m.Zone(3); !ok {
		t.Fatal("expected zone 3 to be registered")
	}
}

func TestModelOrderedListing(t *testing.T) {
	m := NewModel("caddx_panel")
	m.AddZone(5, "Five")
	m.AddZone(1, "One")
	m.AddZone(3, "Three")

	zones := m.Zones()
	var indices []int
	for _, z := range zones {
		indices = append(indices, z.Index)
	}
	want := []int{1, 3, 5}
	if len(indices) != len(want) {
		t.Fatalf("got %d zones, want %d", len(indices), len(want))
	}
	for i, idx := range want {
		if indices[i] != idx {
			t.Fatalf("zones[%d].Index = %d, want %d", i, indices[i], idx)
		}
	}
}
