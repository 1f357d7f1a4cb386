package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/ybyygu/vasp-tools/internal/ipi"
)

// ipiReadChunk bounds how many bytes IPIProtocol.ReadResponse pulls from
// the engine per underlying Read call while growing its message buffer.
const ipiReadChunk = 4096

// IPIProtocol implements Protocol for a binary-speaking engine: rather than
// scanning for a sentinel line, a "response" is exactly one complete i-PI
// message read directly off the engine's stdout, using internal/ipi's
// short-read-safe Decode contract to know when enough bytes have arrived.
// The pattern argument ReadResponse takes is ignored: i-PI messages are
// self-delimiting by their fixed 12-byte header plus any length-prefixed
// payload, unlike the text protocol's substring sentinel.
//
// ReadResponse returns the message's raw wire bytes (not a decoded
// ipi.Message): callers that know they are driving a binary engine pass
// them to ipi.Decode themselves, the same way a text-protocol caller parses
// the returned string with the chem adapter. WriteRequest likewise expects
// already-ipi.Encode'd bytes.
type IPIProtocol struct {
	w   io.Writer
	r   io.Reader
	buf []byte
}

// NewIPIProtocol wraps an engine's piped stdin/stdout in the i-PI binary
// capability. stdout must not be shared with a line-oriented reader:
// splitting binary data on newline bytes would corrupt frames.
func NewIPIProtocol(stdin io.Writer, stdout io.Reader) *IPIProtocol {
	return &IPIProtocol{w: stdin, r: stdout}
}

// WriteRequest writes data verbatim to the engine's stdin.
func (p *IPIProtocol) WriteRequest(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	_, err := p.w.Write(data)
	return err
}

// ReadResponse reads and returns exactly one complete i-PI message's wire
// bytes, growing its internal buffer and retrying ipi.Decode on
// ipi.ErrIncomplete until a full message has arrived.
func (p *IPIProtocol) ReadResponse(ctx context.Context, _ string) (string, error) {
	chunk := make([]byte, ipiReadChunk)
	for {
		if _, consumed, err := ipi.Decode(p.buf); err == nil {
			out := p.buf[:consumed]
			p.buf = append([]byte(nil), p.buf[consumed:]...)
			return string(out), nil
		} else if err != ipi.ErrIncomplete {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := p.r.Read(chunk)
		if n > 0 {
			p.buf = append(p.buf, chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF && len(p.buf) == 0 {
				return "", io.EOF
			}
			return "", fmt.Errorf("engine: ipi read: %w", err)
		}
	}
}
