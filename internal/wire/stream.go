package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteRequest encodes r and writes it to w in one call.
func WriteRequest(w io.Writer, r Request) error {
	buf, err := Encode(r)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// ReadRequest reads exactly one frame from r, blocking until the header and
// payload have both arrived. EOF before any bytes are read is returned
// as-is so callers can distinguish a clean connection close from a frame
// truncated mid-flight (ErrTruncated).
func ReadRequest(r io.Reader) (Request, error) {
	var head [5]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Request{}, ErrTruncated
		}
		return Request{}, err
	}
	tag := Tag(head[0])
	length := binary.BigEndian.Uint32(head[1:5])
	if length > MaxFrameSize {
		return Request{}, ErrTooLarge
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return Request{}, ErrTruncated
		}
		return Request{}, err
	}

	switch tag {
	case TagInput:
		return Request{Tag: TagInput, Payload: payload}, nil
	case TagOutput:
		return Request{Tag: TagOutput, Payload: payload}, nil
	case TagControl:
		sig, err := signalFromASCII(payload)
		if err != nil {
			return Request{}, err
		}
		return Request{Tag: TagControl, Signal: sig}, nil
	default:
		return Request{}, fmt.Errorf("%w: unknown tag %q", ErrMalformed, byte(tag))
	}
}

// WriteResponse encodes payload as a response frame and writes it to w.
func WriteResponse(w io.Writer, payload []byte) error {
	buf, err := EncodeResponse(payload)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// ReadResponse reads exactly one response frame from r.
func ReadResponse(r io.Reader) ([]byte, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	length := binary.BigEndian.Uint32(head[:])
	if length > MaxFrameSize {
		return nil, ErrTooLarge
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return payload, nil
}
