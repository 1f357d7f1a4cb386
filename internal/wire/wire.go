// Package wire implements the control-plane frame codec used between the
// socket client and the socket server: a one-byte tag, a big-endian u32
// length, and a payload of that many bytes.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxFrameSize bounds the payload length accepted by Decode, guarding
// against a peer claiming an unreasonable frame size.
const MaxFrameSize = 64 << 20 // 64 MiB

// Tag identifies the kind of a control-plane frame.
type Tag byte

const (
	TagInput   Tag = '0'
	TagOutput  Tag = '1'
	TagControl Tag = 'X'
)

func (t Tag) String() string {
	switch t {
	case TagInput:
		return "input"
	case TagOutput:
		return "output"
	case TagControl:
		return "control"
	default:
		return fmt.Sprintf("tag(%q)", byte(t))
	}
}

// Signal is a lifecycle control signal sent with a TagControl frame.
type Signal int

const (
	SignalQuit Signal = iota
	SignalPause
	SignalResume
)

// asciiName is the wire representation of a Signal: the literal signal
// names SIGTERM, SIGCONT, SIGSTOP.
func (s Signal) asciiName() ([]byte, error) {
	switch s {
	case SignalQuit:
		return []byte("SIGTERM"), nil
	case SignalResume:
		return []byte("SIGCONT"), nil
	case SignalPause:
		return []byte("SIGSTOP"), nil
	default:
		return nil, fmt.Errorf("wire: unknown signal %d", s)
	}
}

func signalFromASCII(b []byte) (Signal, error) {
	switch string(b) {
	case "SIGTERM":
		return SignalQuit, nil
	case "SIGCONT":
		return SignalResume, nil
	case "SIGSTOP":
		return SignalPause, nil
	default:
		return 0, fmt.Errorf("%w: unknown control signal %q", ErrMalformed, b)
	}
}

// Errors returned by Decode. Truncated and Incomplete are both "need more
// bytes" conditions; Truncated is used by callers reading from a live
// connection that observed EOF mid-frame, Incomplete is returned by the
// buffer-oriented Decode itself and does not by itself mean the peer is
// gone.
var (
	ErrIncomplete = errors.New("wire: incomplete frame")
	ErrMalformed  = errors.New("wire: malformed frame")
	ErrTooLarge   = errors.New("wire: frame exceeds size limit")
	ErrTruncated  = errors.New("wire: connection closed mid-frame")
)

// Request is one control-plane message. Tag selects which of Payload
// (Input bytes to write, or Output pattern to wait for) or Signal applies.
type Request struct {
	Tag     Tag
	Payload []byte // meaningful for TagInput (bytes to write) and TagOutput (pattern)
	Signal  Signal // meaningful for TagControl
}

// Input builds a write-request frame.
func Input(data []byte) Request { return Request{Tag: TagInput, Payload: data} }

// Output builds a read-until-pattern request frame.
func Output(pattern []byte) Request { return Request{Tag: TagOutput, Payload: pattern} }

// Control builds a lifecycle-signal request frame.
func Control(sig Signal) Request { return Request{Tag: TagControl, Signal: sig} }

// Encode serializes r as tag:1B | len:u32_be | payload.
func Encode(r Request) ([]byte, error) {
	payload := r.Payload
	if r.Tag == TagControl {
		name, err := r.Signal.asciiName()
		if err != nil {
			return nil, err
		}
		payload = name
	}
	if len(payload) > MaxFrameSize {
		return nil, ErrTooLarge
	}

	buf := make([]byte, 1+4+len(payload))
	buf[0] = byte(r.Tag)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(payload)))
	copy(buf[5:], payload)
	return buf, nil
}

// Decode parses one frame from the head of buf. It is non-destructive under
// short reads: if buf does not yet hold a complete frame it returns
// ErrIncomplete and consumed == 0, leaving buf untouched for the caller to
// retry once more bytes have arrived. On success it returns the decoded
// request and the number of bytes consumed from buf.
func Decode(buf []byte) (Request, int, error) {
	if len(buf) < 5 {
		return Request{}, 0, ErrIncomplete
	}
	tag := Tag(buf[0])
	length := binary.BigEndian.Uint32(buf[1:5])
	if length > MaxFrameSize {
		return Request{}, 0, ErrTooLarge
	}
	total := 5 + int(length)
	if len(buf) < total {
		return Request{}, 0, ErrIncomplete
	}
	payload := buf[5:total]

	switch tag {
	case TagInput:
		return Request{Tag: TagInput, Payload: append([]byte(nil), payload...)}, total, nil
	case TagOutput:
		return Request{Tag: TagOutput, Payload: append([]byte(nil), payload...)}, total, nil
	case TagControl:
		sig, err := signalFromASCII(payload)
		if err != nil {
			return Request{}, 0, err
		}
		return Request{Tag: TagControl, Signal: sig}, total, nil
	default:
		return Request{}, 0, fmt.Errorf("%w: unknown tag %q", ErrMalformed, byte(tag))
	}
}

// EncodeResponse serializes a response payload as len:u32_be | payload.
// Responses carry no tag: Input and Control acks are simply empty.
func EncodeResponse(payload []byte) ([]byte, error) {
	if len(payload) > MaxFrameSize {
		return nil, ErrTooLarge
	}
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)
	return buf, nil
}

// DecodeResponse parses one response frame from the head of buf with the
// same non-destructive short-read contract as Decode.
func DecodeResponse(buf []byte) ([]byte, int, error) {
	if len(buf) < 4 {
		return nil, 0, ErrIncomplete
	}
	length := binary.BigEndian.Uint32(buf[:4])
	if length > MaxFrameSize {
		return nil, 0, ErrTooLarge
	}
	total := 4 + int(length)
	if len(buf) < total {
		return nil, 0, ErrIncomplete
	}
	return append([]byte(nil), buf[4:total]...), total, nil
}
