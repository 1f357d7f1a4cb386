package ipi

import (
	"fmt"
	"strings"

	"github.com/ybyygu/vasp-tools/internal/logger"
)

// HeaderSize is the fixed width of every i-PI message header.
const HeaderSize = 12

// Kind identifies one of the nine i-PI message types.
type Kind int

const (
	KindStatus Kind = iota
	KindGetForce
	KindExit
	KindInit
	KindPosData
	KindNeedInit
	KindReady
	KindHaveData
	KindForceReady
)

var headerNames = map[Kind]string{
	KindStatus:     "STATUS",
	KindGetForce:   "GETFORCE",
	KindExit:       "EXIT",
	KindInit:       "INIT",
	KindPosData:    "POSDATA",
	KindNeedInit:   "NEEDINIT",
	KindReady:      "READY",
	KindHaveData:   "HAVEDATA",
	KindForceReady: "FORCEREADY",
}

func (k Kind) String() string {
	if name, ok := headerNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func encodeHeader(k Kind) ([HeaderSize]byte, error) {
	var out [HeaderSize]byte
	name, ok := headerNames[k]
	if !ok {
		return out, fmt.Errorf("ipi: unknown message kind %d", int(k))
	}
	if len(name) > HeaderSize {
		return out, fmt.Errorf("ipi: header %q exceeds %d bytes", name, HeaderSize)
	}
	copy(out[:], name)
	for i := len(name); i < HeaderSize; i++ {
		out[i] = ' '
	}
	return out, nil
}

// decodeHeader trims padding and resolves the tag to a Kind. Some engines
// spell NEEDINIT as "NEEDINT" on the wire; both are accepted, with a
// warning logged for the non-canonical form.
func decodeHeader(raw []byte) (Kind, error) {
	trimmed := strings.TrimRight(string(raw), " ")
	if trimmed == "NEEDINT" {
		logger.Warn("ipi: engine sent non-canonical header, treating as NEEDINIT", "header", trimmed)
		return KindNeedInit, nil
	}
	for k, name := range headerNames {
		if name == trimmed {
			return k, nil
		}
	}
	return 0, fmt.Errorf("ipi: unrecognized header %q", trimmed)
}
