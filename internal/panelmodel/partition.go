// Package panelmodel holds the partition and zone entities, their flag
// decoding, and derived-state computation. It has no I/O dependency and no
// package-level state: callers own a Model instance (§9: "replace module-
// level registries with a struct owned by the controller").
package panelmodel

import "fmt"

// State is the derived alarm state of a partition.
type State int

const (
	StateUnknown State = iota
	StateDisarmed
	StateArmedHome
	StateArmedAway
	StatePending
	StateTriggered
	StateArming
	StateDisarming
)

func (s State) String() string {
	switch s {
	case StateDisarmed:
		return "DISARMED"
	case StateArmedHome:
		return "ARMED_HOME"
	case StateArmedAway:
		return "ARMED_AWAY"
	case StatePending:
		return "PENDING"
	case StateTriggered:
		return "TRIGGERED"
	case StateArming:
		return "ARMING"
	case StateDisarming:
		return "DISARMING"
	default:
		return "UNKNOWN"
	}
}

// ConditionFlags is the 48-bit partition condition bitfield, read MSB-first
// from six sequential bytes of a Partition Status Response (§4.4).
type ConditionFlags uint64

// Bit positions within the 48-bit condition field. Only the bits named in
// spec §3 are given names; the rest are preserved in the raw value but not
// surfaced individually yet.
const (
	bitBypassCode ConditionFlags = 1 << iota
	bitDisarmedBit1
	bitArmedDisarm // placeholder, unused bit kept for positional accuracy
	bitArmed
	bitExitDelay1
	bitExitDelay2
	bitEntryDelay
	bitReserved7

	bitSirenOn
	bitSteadySiren
	bitAlarmMemory
	bitBellTrouble
	bitACFailure
	bitLowBattery
	bitChimeMode
	bitReserved15

	bitInstantMode
	bitReserved17
	bitPreviousAlarm
	bitReserved19
	bitReserved20
	bitReserved21
	bitReserved22
	bitStayMode

	bitReadyToArm
)

// Decode reads six bytes (MSB-first, per spec §4.4) into a ConditionFlags
// value.
func Decode(b [6]byte) ConditionFlags {
	var v ConditionFlags
	for _, x := range b {
		v = (v << 8) | ConditionFlags(x)
	}
	return v
}

func (c ConditionFlags) has(bit ConditionFlags) bool { return c&bit != 0 }

func (c ConditionFlags) Armed() bool         { return c.has(bitArmed) }
func (c ConditionFlags) StayMode() bool      { return c.has(bitStayMode) }
func (c ConditionFlags) EntryDelay() bool    { return c.has(bitEntryDelay) }
func (c ConditionFlags) ExitDelay1() bool    { return c.has(bitExitDelay1) }
func (c ConditionFlags) ExitDelay2() bool    { return c.has(bitExitDelay2) }
func (c ConditionFlags) SirenOn() bool       { return c.has(bitSirenOn) }
func (c ConditionFlags) PreviousAlarm() bool { return c.has(bitPreviousAlarm) }
func (c ConditionFlags) ChimeMode() bool     { return c.has(bitChimeMode) }
func (c ConditionFlags) InstantMode() bool   { return c.has(bitInstantMode) }
func (c ConditionFlags) ReadyToArm() bool    { return c.has(bitReadyToArm) }
func (c ConditionFlags) ACFailure() bool     { return c.has(bitACFailure) }
func (c ConditionFlags) LowBattery() bool    { return c.has(bitLowBattery) }

// DeriveState computes the partition's alarm state from its condition flags
// by the priority cascade in spec §3. It is a pure function: same input,
// same output, no I/O, so it is called lazily at publish time rather than
// cached (§9).
func DeriveState(c ConditionFlags) State {
	switch {
	case c.SirenOn() || c.PreviousAlarm():
		return StateTriggered
	case c.EntryDelay():
		return StatePending
	case (c.ExitDelay1() || c.ExitDelay2()) && !c.Armed():
		return StateArming
	case c.Armed() && c.StayMode():
		return StateArmedHome
	case c.Armed() && !c.StayMode():
		return StateArmedAway
	default:
		return StateDisarmed
	}
}

// Partition is one arming group of zones.
type Partition struct {
	Index      int
	UniqueID   string
	Conditions ConditionFlags
	Valid      bool
}

// NewPartition constructs a Partition for index within panelID's namespace.
// index is 1-based per spec §3.
func NewPartition(panelID string, index int) *Partition {
	return &Partition{
		Index:    index,
		UniqueID: fmt.Sprintf("%s_partition_%d", panelID, index),
		Valid:    true,
	}
}

// State returns the partition's current derived state.
func (p *Partition) State() State {
	return DeriveState(p.Conditions)
}

// SetConditions replaces the partition's condition bitfield. It is the only
// mutation path; DeriveState is always recomputed from this field, never
// cached separately.
func (p *Partition) SetConditions(c ConditionFlags) {
	p.Conditions = c
}
