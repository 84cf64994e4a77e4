// Package wire implements the binary envelope exchanged over the
// simulation's WebSocket endpoint: fixed-layout little-endian bodies, a
// tagged client message union, a tagged server message union, and gzip
// framing around each encoded message.
package wire

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/nbodysim/server/internal/nbody"
)

// Client message tags.
const (
	TagSubscribe byte = 0
	TagAddBodies byte = 1
	TagState     byte = 2
	TagReset     byte = 3
)

// Server message tags.
const (
	TagStateUpdate byte = 0
)

// bodyWireSize is the fixed encoded length of one Body: 2×8 position +
// 2×8 velocity + 8 mass + 8 radius + 4×1 color.
const bodyWireSize = 8*6 + 4

// ClientMessage is the decoded form of a client→server frame.
type ClientMessage struct {
	Tag    byte
	Bodies []nbody.Body // populated only for TagAddBodies
}

// ServerMessage is the decoded form of a server→client frame.
type ServerMessage struct {
	Bodies        []nbody.Body
	PhysicalTime  float64
	KineticEnergy float64
}

// EncodeBody writes one body's fixed-size little-endian wire representation
// into buf, which must be at least bodyWireSize (52) bytes.
func EncodeBody(buf []byte, b nbody.Body) {
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(b.Position[0]))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(b.Position[1]))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(b.Velocity[0]))
	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(b.Velocity[1]))
	binary.LittleEndian.PutUint64(buf[32:40], math.Float64bits(b.Mass))
	binary.LittleEndian.PutUint64(buf[40:48], math.Float64bits(b.Radius))
	copy(buf[48:52], b.Color[:])
}

// DecodeBody reads one body from its bodyWireSize-byte wire slice.
func DecodeBody(buf []byte) (nbody.Body, error) {
	if len(buf) < bodyWireSize {
		return nbody.Body{}, fmt.Errorf("wire: short body buffer: got %d bytes, want %d", len(buf), bodyWireSize)
	}
	var b nbody.Body
	b.Position[0] = math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8]))
	b.Position[1] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16]))
	b.Velocity[0] = math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24]))
	b.Velocity[1] = math.Float64frombits(binary.LittleEndian.Uint64(buf[24:32]))
	b.Mass = math.Float64frombits(binary.LittleEndian.Uint64(buf[32:40]))
	b.Radius = math.Float64frombits(binary.LittleEndian.Uint64(buf[40:48]))
	copy(b.Color[:], buf[48:52])
	return b, nil
}

// EncodeClientMessage serializes and gzip-compresses a client message.
func EncodeClientMessage(msg ClientMessage) ([]byte, error) {
	var raw bytes.Buffer
	raw.WriteByte(msg.Tag)
	if msg.Tag == TagAddBodies {
		var countBuf [4]byte
		binary.LittleEndian.PutUint32(countBuf[:], uint32(len(msg.Bodies)))
		raw.Write(countBuf[:])
		bodyBuf := make([]byte, bodyWireSize)
		for _, b := range msg.Bodies {
			EncodeBody(bodyBuf, b)
			raw.Write(bodyBuf)
		}
	}
	return compress(raw.Bytes())
}

// DecodeClientMessage decompresses and parses a client message frame.
func DecodeClientMessage(frame []byte) (ClientMessage, error) {
	raw, err := decompress(frame)
	if err != nil {
		return ClientMessage{}, fmt.Errorf("wire: decompress client message: %w", err)
	}
	if len(raw) < 1 {
		return ClientMessage{}, fmt.Errorf("wire: empty client message")
	}
	tag := raw[0]
	msg := ClientMessage{Tag: tag}
	switch tag {
	case TagSubscribe, TagState, TagReset:
		return msg, nil
	case TagAddBodies:
		if len(raw) < 5 {
			return ClientMessage{}, fmt.Errorf("wire: truncated add_bodies header")
		}
		count := binary.LittleEndian.Uint32(raw[1:5])
		bodies := make([]nbody.Body, 0, count)
		offset := 5
		for i := uint32(0); i < count; i++ {
			if offset+bodyWireSize > len(raw) {
				return ClientMessage{}, fmt.Errorf("wire: truncated body %d of %d", i, count)
			}
			b, err := DecodeBody(raw[offset : offset+bodyWireSize])
			if err != nil {
				return ClientMessage{}, err
			}
			bodies = append(bodies, b)
			offset += bodyWireSize
		}
		msg.Bodies = bodies
		return msg, nil
	default:
		return ClientMessage{}, fmt.Errorf("wire: unknown client tag %d", tag)
	}
}

// EncodeServerMessage serializes and gzip-compresses a StateUpdate frame.
func EncodeServerMessage(msg ServerMessage) ([]byte, error) {
	var raw bytes.Buffer
	raw.WriteByte(TagStateUpdate)

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(msg.Bodies)))
	raw.Write(countBuf[:])

	bodyBuf := make([]byte, bodyWireSize)
	for _, b := range msg.Bodies {
		EncodeBody(bodyBuf, b)
		raw.Write(bodyBuf)
	}

	var f8 [8]byte
	binary.LittleEndian.PutUint64(f8[:], math.Float64bits(msg.PhysicalTime))
	raw.Write(f8[:])
	binary.LittleEndian.PutUint64(f8[:], math.Float64bits(msg.KineticEnergy))
	raw.Write(f8[:])

	return compress(raw.Bytes())
}

// DecodeServerMessage decompresses and parses a StateUpdate frame.
func DecodeServerMessage(frame []byte) (ServerMessage, error) {
	raw, err := decompress(frame)
	if err != nil {
		return ServerMessage{}, fmt.Errorf("wire: decompress server message: %w", err)
	}
	if len(raw) < 1 || raw[0] != TagStateUpdate {
		return ServerMessage{}, fmt.Errorf("wire: unknown or missing server tag")
	}
	if len(raw) < 5 {
		return ServerMessage{}, fmt.Errorf("wire: truncated state_update header")
	}
	count := binary.LittleEndian.Uint32(raw[1:5])
	bodies := make([]nbody.Body, 0, count)
	offset := 5
	for i := uint32(0); i < count; i++ {
		if offset+bodyWireSize > len(raw) {
			return ServerMessage{}, fmt.Errorf("wire: truncated body %d of %d", i, count)
		}
		b, err := DecodeBody(raw[offset : offset+bodyWireSize])
		if err != nil {
			return ServerMessage{}, err
		}
		bodies = append(bodies, b)
		offset += bodyWireSize
	}
	if offset+16 > len(raw) {
		return ServerMessage{}, fmt.Errorf("wire: truncated state_update trailer")
	}
	physicalTime := math.Float64frombits(binary.LittleEndian.Uint64(raw[offset : offset+8]))
	kineticEnergy := math.Float64frombits(binary.LittleEndian.Uint64(raw[offset+8 : offset+16]))

	return ServerMessage{Bodies: bodies, PhysicalTime: physicalTime, KineticEnergy: kineticEnergy}, nil
}

func compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(frame []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
