package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(TypeTurn, TurnCommand{Turns: 3})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}

	length := binary.LittleEndian.Uint32(buf.Bytes()[:4])
	if int(length) != buf.Len()-4 {
		t.Errorf("length prefix = %d, want %d", length, buf.Len()-4)
	}

	got, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if got.Type != TypeTurn {
		t.Errorf("type = %q, want %q", got.Type, TypeTurn)
	}
	var cmd TurnCommand
	if err := got.Decode(&cmd); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cmd.Turns != 3 {
		t.Errorf("turns = %d, want 3", cmd.Turns)
	}
}

func TestReadEnvelope_RejectsBadLength(t *testing.T) {
	tests := []struct {
		name   string
		length uint32
	}{
		{"zero", 0},
		{"oversized", MaxFrameSize + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			binary.Write(&buf, binary.LittleEndian, tt.length)
			_, err := ReadEnvelope(&buf)
			if !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("err = %v, want ErrInvalidFrame", err)
			}
		})
	}
}

func TestReadEnvelope_TruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(50))
	buf.WriteString(`{"type":"turn"`)
	if _, err := ReadEnvelope(&buf); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestReadEnvelope_BadJSON(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("not json")
	binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	if _, err := ReadEnvelope(&buf); err == nil {
		t.Error("expected error for malformed envelope")
	}
}

func TestDecode_WrongShape(t *testing.T) {
	env := Envelope{Type: TypeTurn, Data: []byte(`{"turns":"many"}`)}
	var cmd TurnCommand
	if err := env.Decode(&cmd); err == nil {
		t.Error("expected decode error")
	}
}
