// Package frame implements the SWP wire codec: a 5 byte header (type tag
// plus big-endian sequence number) followed by an opaque payload.
package frame

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Type is the one-byte SWP frame tag. The wire value is the literal ASCII
// character, not an ordinal, so frames are readable in a packet dump.
type Type byte

const (
	// DATA carries application payload.
	DATA Type = 'D'
	// ACK carries a cumulative acknowledgement; its payload is ignored.
	ACK Type = 'A'
)

func (t Type) String() string {
	switch t {
	case DATA:
		return "DATA"
	case ACK:
		return "ACK"
	default:
		return "UNKNOWN"
	}
}

const (
	// HeaderSize is the fixed-width type+seq header: 1 byte type, 4 bytes
	// big-endian sequence number.
	HeaderSize = 5
	// MaxDataSize is the largest payload a DATA frame may carry.
	MaxDataSize = 1400
)

// ErrMalformed is returned by Decode when the input is shorter than the
// header or carries an unrecognized type tag.
var ErrMalformed = errors.New("frame: malformed frame")

// Frame is a decoded SWP frame.
type Frame struct {
	Type    Type
	Seq     uint32
	Payload []byte
}

// Encode serializes f as type(1) || seq(4, big-endian) || payload. Encoding
// is total: every Frame value, however constructed, has a wire form.
func Encode(f Frame) []byte {
	buf := make([]byte, HeaderSize+len(f.Payload))
	buf[0] = byte(f.Type)
	binary.BigEndian.PutUint32(buf[1:5], f.Seq)
	copy(buf[HeaderSize:], f.Payload)
	return buf
}

// Decode parses a frame off the wire. It fails if raw is shorter than the
// header or the type byte is neither DATA nor ACK.
func Decode(raw []byte) (Frame, error) {
	if len(raw) < HeaderSize {
		return Frame{}, errors.WithStack(ErrMalformed)
	}
	t := Type(raw[0])
	if t != DATA && t != ACK {
		return Frame{}, errors.WithStack(ErrMalformed)
	}
	seq := binary.BigEndian.Uint32(raw[1:5])
	var payload []byte
	if len(raw) > HeaderSize {
		payload = make([]byte, len(raw)-HeaderSize)
		copy(payload, raw[HeaderSize:])
	}
	return Frame{Type: t, Seq: seq, Payload: payload}, nil
}
