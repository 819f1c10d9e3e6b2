package panelmodel

import (
	"fmt"
	"sync"
)

// Model is the process-wide partition/zone registry, owned by the
// controller. Per spec §9 this replaces module-level registries with an
// instance so tests construct a fresh Model rather than clearing globals.
//
// Entities self-register via AddPartition/AddZone during startup
// synchronization only. After MarkSynced is called no further entity is
// created; Synced reports the current state so callers can refuse late
// registrations (spec §3: "never created after sync is declared complete").
type Model struct {
	mu sync.RWMutex

	panelID string

	partitionsByIndex map[int]*Partition
	partitionsByUID   map[string]*Partition

	zonesByIndex map[int]*Zone
	zonesByUID   map[string]*Zone

	synced bool
}

// NewModel constructs an empty registry for the given panel identifier.
func NewModel(panelID string) *Model {
	return &Model{
		panelID:           panelID,
		partitionsByIndex: make(map[int]*Partition),
		partitionsByUID:   make(map[string]*Partition),
		zonesByIndex:      make(map[int]*Zone),
		zonesByUID:        make(map[string]*Zone),
	}
}

// ErrSyncComplete is returned by AddPartition/AddZone once MarkSynced has
// been called.
var ErrSyncComplete = fmt.Errorf("panelmodel: registry mutation attempted after sync complete")

// AddPartition registers a new partition for index, returning
// ErrSyncComplete if the registry is already synced. Re-adding an existing
// index returns the existing partition unchanged.
func (m *Model) AddPartition(index int) (*Partition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.partitionsByIndex[index]; ok {
		return existing, nil
	}
	if m.synced {
		return nil, ErrSyncComplete
	}

	p := NewPartition(m.panelID, index)
	m.partitionsByIndex[index] = p
	m.partitionsByUID[p.UniqueID] = p
	return p, nil
}

// AddZone registers a new zone for index with the given name, returning
// ErrSyncComplete if the registry is already synced.
func (m *Model) AddZone(index int, name string) (*Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.zonesByIndex[index]; ok {
		return existing, nil
	}
	if m.synced {
		return nil, ErrSyncComplete
	}

	z := NewZone(m.panelID, index, name)
	m.zonesByIndex[index] = z
	m.zonesByUID[z.UniqueID] = z
	return z, nil
}

// Partition returns the partition at index, if registered.
func (m *Model) Partition(index int) (*Partition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.partitionsByIndex[index]
	return p, ok
}

// Zone returns the zone at index, if registered.
func (m *Model) Zone(index int) (*Zone, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zonesByIndex[index]
	return z, ok
}

// Partitions returns all registered partitions, ordered by index.
func (m *Model) Partitions() []*Partition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Partition, 0, len(m.partitionsByIndex))
	for i := 1; i <= 8; i++ {
		if p, ok := m.partitionsByIndex[i]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Zones returns all registered zones, ordered by index.
func (m *Model) Zones() []*Zone {
	m.mu.RLock()
	defer m.mu.RUnlock()
	maxIdx := 0
	for i := range m.zonesByIndex {
		if i > maxIdx {
			maxIdx = i
		}
	}
	out := make([]*Zone, 0, len(m.zonesByIndex))
	for i := 1; i <= maxIdx; i++ {
		if z, ok := m.zonesByIndex[i]; ok {
			out = append(out, z)
		}
	}
	return out
}

// MarkSynced declares startup synchronization complete. After this call,
// AddPartition and AddZone always return ErrSyncComplete for unknown
// indices.
func (m *Model) MarkSynced() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced = true
}

// Synced reports whether MarkSynced has been called.
func (m *Model) Synced() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.synced
}

// PartitionCount and ZoneCount report registry sizes, used by the
// observability surface.
func (m *Model) PartitionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.partitionsByIndex)
}

func (m *Model) ZoneCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.zonesByIndex)
}
