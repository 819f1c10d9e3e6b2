// Package frame implements the NX-584 wire framing: byte stuffing, Fletcher-16
// checksumming, and frame boundary detection over a raw byte stream.
package frame

import (
	"errors"
	"fmt"
)

const (
	// StartByte marks the beginning of a frame. It never appears elsewhere
	// in a well-formed stuffed frame.
	StartByte byte = 0x7E

	// EscapeByte precedes a stuffed occurrence of StartByte or itself.
	EscapeByte byte = 0x7D

	// escaped7E is what StartByte becomes after the escape byte.
	escaped7E byte = 0x5E
	// escaped7D is what EscapeByte becomes after the escape byte.
	escaped7D byte = 0x5D

	// AckRequestBit is bit 7 of msg_type; set by the sender to request an
	// ACK from the panel.
	AckRequestBit byte = 0x80

	// TypeMask isolates the low 6 bits of msg_type that identify the message.
	TypeMask byte = 0x3F
)

// Kind distinguishes the category of frame decode failure.
type Kind int

const (
	// KindNone indicates success; zero value so an unset Kind is never a valid error.
	KindNone Kind = iota
	KindTimeout
	KindBadEscape
	KindBadLength
	KindBadChecksum
	KindUnknownType
	KindClosed
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindBadEscape:
		return "BadEscape"
	case KindBadLength:
		return "BadLength"
	case KindBadChecksum:
		return "BadChecksum"
	case KindUnknownType:
		return "UnknownType"
	case KindClosed:
		return "Closed"
	default:
		return "None"
	}
}

// Error reports a frame-level failure, tagged with a Kind so callers can
// branch with errors.Is/errors.As without string matching.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "frame: " + e.Kind.String()
	}
	return fmt.Sprintf("frame: %s: %s", e.Kind, e.Msg)
}

// Is reports whether target carries the same Kind, so callers can do
// errors.Is(err, frame.ErrBadChecksum) style checks via the sentinels below.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// Sentinel errors for each Kind, for errors.Is comparisons.
var (
	ErrTimeout     = &Error{Kind: KindTimeout}
	ErrBadEscape   = &Error{Kind: KindBadEscape}
	ErrBadLength   = &Error{Kind: KindBadLength}
	ErrBadChecksum = &Error{Kind: KindBadChecksum}
	ErrUnknownType = &Error{Kind: KindUnknownType}
	ErrClosed      = &Error{Kind: KindClosed}
)

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Checksum computes the Fletcher-16 checksum over b, returning (lo, hi) in
// the wire order the NX-584 protocol expects.
func Checksum(b []byte) (lo, hi byte) {
	var s1, s2 uint16
	for _, v := range b {
		s1 = (s1 + uint16(v)) % 255
		s2 = (s2 + s1) % 255
	}
	return byte(s1), byte(s2)
}

// VerifyChecksum reports whether the trailing two bytes of withChecksum are
// the correct Fletcher-16 checksum of the preceding bytes.
func VerifyChecksum(withChecksum []byte) bool {
	if len(withChecksum) < 2 {
		return false
	}
	body := withChecksum[:len(withChecksum)-2]
	lo, hi := Checksum(body)
	return withChecksum[len(withChecksum)-2] == lo && withChecksum[len(withChecksum)-1] == hi
}

// Stuff applies NX-584 byte stuffing to b: every 0x7E becomes 0x7D 0x5E and
// every 0x7D becomes 0x7D 0x5D. The returned slice contains no 0x7E bytes.
func Stuff(b []byte) []byte {
	out := make([]byte, 0, len(b)+2)
	for _, v := range b {
		switch v {
		case StartByte:
			out = append(out, EscapeByte, escaped7E)
		case EscapeByte:
			out = append(out, EscapeByte, escaped7D)
		default:
			out = append(out, v)
		}
	}
	return out
}

// Unstuff reverses Stuff. It returns ErrBadEscape if an escape byte is not
// followed by 0x5E or 0x5D, including a trailing escape byte with no
// successor.
func Unstuff(b []byte) ([]byte, error) {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		v := b[i]
		if v != EscapeByte {
			out = append(out, v)
			continue
		}
		if i+1 >= len(b) {
			return nil, newErr(KindBadEscape, "dangling escape byte at end of frame")
		}
		i++
		switch b[i] {
		case escaped7E:
			out = append(out, StartByte)
		case escaped7D:
			out = append(out, EscapeByte)
		default:
			return nil, newErr(KindBadEscape, fmt.Sprintf("escape byte followed by 0x%02X", b[i]))
		}
	}
	return out, nil
}

// Encode builds a complete stuffed wire frame for msgType and body:
//
//	[0x7E][length][msg_type][data...][cksum_lo][cksum_hi]
//
// length is 1+len(body) as required by §4.1; the checksum is computed over
// the unstuffed length/type/body bytes before stuffing is applied.
func Encode(msgType byte, body []byte) []byte {
	unstuffed := make([]byte, 0, 2+len(body)+2)
	unstuffed = append(unstuffed, byte(1+len(body)), msgType)
	unstuffed = append(unstuffed, body...)
	lo, hi := Checksum(unstuffed)
	unstuffed = append(unstuffed, lo, hi)

	out := make([]byte, 0, len(unstuffed)+3)
	out = append(out, StartByte)
	out = append(out, Stuff(unstuffed)...)
	return out
}

// Decode validates and parses the unstuffed body of a frame (everything
// after the start byte, already de-escaped), returning the message type and
// data bytes. It does not check the message catalog; that is the caller's
// responsibility (catalog.Lookup).
func Decode(unstuffed []byte) (msgType byte, data []byte, err error) {
	if len(unstuffed) < 1+1+2 {
		return 0, nil, newErr(KindBadLength, "frame shorter than minimum length+type+checksum")
	}
	length := unstuffed[0]
	rest := unstuffed[1:]
	if int(length) > len(rest)-2 {
		return 0, nil, newErr(KindBadLength, "declared length exceeds available bytes")
	}
	if int(length) < 1 {
		return 0, nil, newErr(KindBadLength, "declared length must include msg_type")
	}
	body := rest[:int(length)]
	trailer := rest[int(length):]
	if len(trailer) != 2 {
		return 0, nil, newErr(KindBadLength, "unexpected trailing bytes after checksum")
	}

	checked := unstuffed[:1+int(length)+2]
	if !VerifyChecksum(checked) {
		return 0, nil, newErr(KindBadChecksum, "")
	}

	msgType = body[0]
	data = body[1:]
	return msgType, data, nil
}
