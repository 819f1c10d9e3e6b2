// Package catalog holds the static per-message-type metadata table for the
// NX-584 protocol: which codes are valid, whether the panel is expected to
// ACK them, and their expected body length.
package catalog

// Handler identifies which controller-side handling a message type binds
// to. It is a tag, not a function pointer, so the catalog table stays a
// plain data structure (§9: "static catalog table ... no inheritance").
type Handler int

const (
	HandlerNone Handler = iota
	HandlerInterfaceConfig
	HandlerZoneStatus
	HandlerZoneSnapshot
	HandlerZoneName
	HandlerPartitionStatus
	HandlerSystemStatus
	HandlerKeypadPIN
	HandlerKeypadUser
	HandlerAck
	HandlerNack
)

// Message codes, per spec §4.2.
const (
	CodeInterfaceConfigResponse byte = 0x01
	CodeInterfaceConfigRequest  byte = 0x21
	CodeZoneNameResponse        byte = 0x03
	CodeZoneNameRequest         byte = 0x23
	CodeZoneStatusResponse      byte = 0x04
	CodeZoneStatusRequest       byte = 0x24
	CodeZoneSnapshotResponse    byte = 0x05
	CodePartitionStatusResponse byte = 0x06
	CodePartitionStatusRequest  byte = 0x26
	CodeSystemStatusResponse    byte = 0x08
	CodeSystemStatusRequest     byte = 0x28
	CodeKeypadFunctionPIN       byte = 0x3C
	CodeKeypadFunctionUser      byte = 0x3D
	CodeAck                     byte = 0x1D
	CodeNack                    byte = 0x1E
)

// Keypad function codes carried in the body of 0x3C/0x3D (§4.3).
const (
	FunctionDisarm   byte = 0x00
	FunctionArmAway  byte = 0x02
	FunctionArmHome  byte = 0x03
)

// Entry is the static record for one message type.
type Entry struct {
	Code                byte
	Name                string
	ExpectsAckFromPanel bool
	// BodyLength is the expected body length (excluding msg_type and
	// checksum). A negative value means "variable/not validated".
	BodyLength int
	Handler    Handler
	// Transition reports whether this type is an unsolicited broadcast that
	// the controller dispatches regardless of any outstanding command wait.
	Transition bool
}

// table is keyed by the low 6 bits of msg_type (TypeMask in package frame).
var table = map[byte]Entry{
	CodeInterfaceConfigResponse: {
		Code: CodeInterfaceConfigResponse, Name: "Interface Configuration Response",
		BodyLength: -1, Handler: HandlerInterfaceConfig,
	},
	CodeInterfaceConfigRequest: {
		Code: CodeInterfaceConfigRequest, Name: "Interface Configuration Request",
		ExpectsAckFromPanel: false, BodyLength: 0, Handler: HandlerNone,
	},
	CodeZoneNameResponse: {
		Code: CodeZoneNameResponse, Name: "Zone Name Response",
		BodyLength: 18, Handler: HandlerZoneName,
	},
	CodeZoneNameRequest: {
		Code: CodeZoneNameRequest, Name: "Zone Name Request",
		BodyLength: 2, Handler: HandlerNone,
	},
	CodeZoneStatusResponse: {
		Code: CodeZoneStatusResponse, Name: "Zone Status Response",
		BodyLength: 7, Handler: HandlerZoneStatus, Transition: true,
	},
	CodeZoneStatusRequest: {
		Code: CodeZoneStatusRequest, Name: "Zone Status Request",
		BodyLength: 2, Handler: HandlerNone,
	},
	CodeZoneSnapshotResponse: {
		Code: CodeZoneSnapshotResponse, Name: "Zone Snapshot Response",
		BodyLength: -1, Handler: HandlerZoneSnapshot, Transition: true,
	},
	CodePartitionStatusResponse: {
		Code: CodePartitionStatusResponse, Name: "Partition Status Response",
		BodyLength: 7, Handler: HandlerPartitionStatus, Transition: true,
	},
	CodePartitionStatusRequest: {
		Code: CodePartitionStatusRequest, Name: "Partition Status Request",
		BodyLength: 1, Handler: HandlerNone,
	},
	CodeSystemStatusResponse: {
		Code: CodeSystemStatusResponse, Name: "System Status Response",
		BodyLength: -1, Handler: HandlerSystemStatus, Transition: true,
	},
	CodeSystemStatusRequest: {
		Code: CodeSystemStatusRequest, Name: "System Status Request",
		BodyLength: 0, Handler: HandlerNone,
	},
	CodeKeypadFunctionPIN: {
		Code: CodeKeypadFunctionPIN, Name: "Primary Keypad Function (PIN)",
		ExpectsAckFromPanel: true, BodyLength: 5, Handler: HandlerKeypadPIN,
	},
	CodeKeypadFunctionUser: {
		Code: CodeKeypadFunctionUser, Name: "Primary Keypad Function (User#)",
		ExpectsAckFromPanel: true, BodyLength: 3, Handler: HandlerKeypadUser,
	},
	CodeAck: {
		Code: CodeAck, Name: "ACK", BodyLength: 0, Handler: HandlerAck,
	},
	CodeNack: {
		Code: CodeNack, Name: "NACK", BodyLength: 0, Handler: HandlerNack,
	},
}

// Lookup returns the catalog entry for code and whether it is known.
func Lookup(code byte) (Entry, bool) {
	e, ok := table[code]
	return e, ok
}

// ValidLength reports whether body has the length the catalog requires for
// this entry. A negative BodyLength means any length is accepted.
func (e Entry) ValidLength(body []byte) bool {
	if e.BodyLength < 0 {
		return true
	}
	return len(body) == e.BodyLength
}

// RequiredBroadcastCodes are the response/transition types the Interface
// Configuration Response must declare as enabled, per spec §4.2: "at
// minimum the response types for Zone Status, Zone Name, Partition Status,
// System Status, and transition broadcasts for partition and zone
// snapshots".
var RequiredBroadcastCodes = []byte{
	CodeZoneStatusResponse,
	CodeZoneNameResponse,
	CodePartitionStatusResponse,
	CodeSystemStatusResponse,
	CodeZoneSnapshotResponse,
}
