package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestChecksumRoundTrip(t *testing.T) {
	tests := [][]byte{
		{0x01, 0x02},
		{0x04, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00},
		{},
		{0x00},
		bytes.Repeat([]byte{0xFF}, 32),
	}

	for _, body := range tests {
		lo, hi := Checksum(body)
		withCksum := append(append([]byte{}, body...), lo, hi)
		if !VerifyChecksum(withCksum) {
			t.Fatalf("VerifyChecksum failed for body %X", body)
		}
		for i := range withCksum {
			corrupted := append([]byte{}, withCksum...)
			corrupted[i] ^= 0x01
			if VerifyChecksum(corrupted) {
				t.Fatalf("VerifyChecksum should fail after flipping byte %d of %X", i, withCksum)
			}
		}
	}
}

func TestStuffUnstuffRoundTrip(t *testing.T) {
	tests := [][]byte{
		{},
		{0x01, 0x02, 0x03},
		{StartByte},
		{EscapeByte},
		{StartByte, EscapeByte, StartByte},
		bytes.Repeat([]byte{0x7E, 0x7D}, 10),
	}

	for _, b := range tests {
		stuffed := Stuff(b)
		for _, v := range stuffed {
			if v == StartByte {
				t.Fatalf("stuffed output contains start byte: %X", stuffed)
			}
		}
		for i := 0; i < len(stuffed); i++ {
			if stuffed[i] == EscapeByte {
				if i+1 >= len(stuffed) || (stuffed[i+1] != escaped7E && stuffed[i+1] != escaped7D) {
					t.Fatalf("escape byte not followed by 0x5D/0x5E in %X", stuffed)
				}
				i++
			}
		}

		unstuffed, err := Unstuff(stuffed)
		if err != nil {
			t.Fatalf("Unstuff(%X) returned error: %v", stuffed, err)
		}
		if !bytes.Equal(unstuffed, b) {
			t.Fatalf("round trip mismatch: got %X want %X", unstuffed, b)
		}
	}
}

func TestUnstuffBadEscape(t *testing.T) {
	_, err := Unstuff([]byte{0x01, EscapeByte, 0xFF})
	if !errors.Is(err, ErrBadEscape) {
		t.Fatalf("expected ErrBadEscape, got %v", err)
	}

	_, err = Unstuff([]byte{0x01, EscapeByte})
	if !errors.Is(err, ErrBadEscape) {
		t.Fatalf("expected ErrBadEscape for dangling escape, got %v", err)
	}
}

func TestEncodeLengthInvariant(t *testing.T) {
	body := []byte{0x01, 0x00, 0x00, 0x01, 0x00, 0x00}
	encoded := Encode(0x06, body)

	if encoded[0] != StartByte {
		t.Fatalf("encoded frame must start with 0x7E, got %X", encoded[0])
	}

	unstuffed, err := Unstuff(encoded[1:])
	if err != nil {
		t.Fatalf("Unstuff failed: %v", err)
	}

	length := unstuffed[0]
	if int(length) != 1+len(body) {
		t.Fatalf("length byte = %d, want %d", length, 1+len(body))
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		msgType byte
		body    []byte
	}{
		{"empty body", 0x01, nil},
		{"zone status", 0x04, []byte{0x01, 0x00, 0x00, 0x01, 0x00, 0x00}},
		{"body containing 0x7E and 0x7D", 0x3C, []byte{0x7E, 0x7D, 0x00, 0x01, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(tt.msgType, tt.body)
			unstuffed, err := Unstuff(encoded[1:])
			if err != nil {
				t.Fatalf("Unstuff failed: %v", err)
			}
			gotType, gotData, err := Decode(unstuffed)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if gotType != tt.msgType {
				t.Fatalf("msgType = %X, want %X", gotType, tt.msgType)
			}
			if !bytes.Equal(gotData, tt.body) {
				t.Fatalf("data = %X, want %X", gotData, tt.body)
			}
		})
	}
}

func TestDecodeBadChecksum(t *testing.T) {
	encoded := Encode(0x06, []byte{0x01, 0x00, 0x00, 0x01, 0x00, 0x00})
	unstuffed, err := Unstuff(encoded[1:])
	if err != nil {
		t.Fatalf("Unstuff failed: %v", err)
	}
	unstuffed[2] ^= 0xFF // flip a body bit

	_, _, err = Decode(unstuffed)
	if !errors.Is(err, ErrBadChecksum) {
		t.Fatalf("expected ErrBadChecksum, got %v", err)
	}
}

func TestDecodeBadLength(t *testing.T) {
	_, _, err := Decode([]byte{0x05, 0x06, 0x01})
	if !errors.Is(err, ErrBadLength) {
		t.Fatalf("expected ErrBadLength, got %v", err)
	}
}
