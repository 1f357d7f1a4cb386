// Package ipi implements the i-PI-style binary protocol used to drive a
// binary-speaking engine: a 12-byte ASCII header per message, little-endian
// numeric fields, and unit conversion between the wire's atomic units
// (Bohr, Hartree) and this codebase's internal units (Ångström, eV).
package ipi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrIncomplete is returned by Decode when buf does not yet hold a full
// message; callers must not advance their read cursor and should retry
// once more bytes have arrived.
var ErrIncomplete = errors.New("ipi: incomplete message")

// Message is the union of every i-PI message shape. Which fields are
// meaningful depends on Kind.
type Message struct {
	Kind Kind

	IBead       uint32
	InitPayload []byte

	// Cell, InvCell are row-major 3x3 matrices in internal units (Å, Å^-1).
	Cell    [9]float64
	InvCell [9]float64
	NAtoms  uint32
	Coords  []float64 // length 3*NAtoms, Å

	Energy float64   // eV
	Forces []float64 // length 3*NAtoms, eV/Å
	Virial [9]float64
	Extra  []byte
}

// headerOnly reports whether k carries no payload beyond the 12-byte tag.
func headerOnly(k Kind) bool {
	switch k {
	case KindStatus, KindGetForce, KindExit, KindNeedInit, KindReady, KindHaveData:
		return true
	default:
		return false
	}
}

// Encode serializes m to the wire, converting internal units to the
// wire's atomic units.
func Encode(m Message) ([]byte, error) {
	header, err := encodeHeader(m.Kind)
	if err != nil {
		return nil, err
	}

	if headerOnly(m.Kind) {
		return header[:], nil
	}

	switch m.Kind {
	case KindInit:
		buf := make([]byte, HeaderSize+4+4+len(m.InitPayload))
		copy(buf, header[:])
		binary.LittleEndian.PutUint32(buf[HeaderSize:], m.IBead)
		binary.LittleEndian.PutUint32(buf[HeaderSize+4:], uint32(len(m.InitPayload)))
		copy(buf[HeaderSize+8:], m.InitPayload)
		return buf, nil

	case KindPosData:
		if len(m.Coords) != 3*int(m.NAtoms) {
			return nil, fmt.Errorf("ipi: POSDATA coords has %d floats, want %d", len(m.Coords), 3*m.NAtoms)
		}
		buf := make([]byte, HeaderSize+9*8+9*8+4+len(m.Coords)*8)
		off := HeaderSize
		copy(buf, header[:])
		for i, v := range m.Cell {
			putFloat(buf[off+i*8:], lengthToWire(v))
		}
		off += 9 * 8
		for i, v := range m.InvCell {
			putFloat(buf[off+i*8:], inverseLenToWire(v))
		}
		off += 9 * 8
		binary.LittleEndian.PutUint32(buf[off:], m.NAtoms)
		off += 4
		for i, v := range m.Coords {
			putFloat(buf[off+i*8:], lengthToWire(v))
		}
		return buf, nil

	case KindForceReady:
		if len(m.Forces) != 3*int(m.NAtoms) {
			return nil, fmt.Errorf("ipi: FORCEREADY forces has %d floats, want %d", len(m.Forces), 3*m.NAtoms)
		}
		size := HeaderSize + 8 + 4 + len(m.Forces)*8 + 9*8 + 4 + len(m.Extra)
		buf := make([]byte, size)
		off := HeaderSize
		copy(buf, header[:])
		putFloat(buf[off:], energyToWire(m.Energy))
		off += 8
		binary.LittleEndian.PutUint32(buf[off:], m.NAtoms)
		off += 4
		for i, v := range m.Forces {
			putFloat(buf[off+i*8:], forceToWire(v))
		}
		off += len(m.Forces) * 8
		for i, v := range m.Virial {
			putFloat(buf[off+i*8:], energyToWire(v))
		}
		off += 9 * 8
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(m.Extra)))
		off += 4
		copy(buf[off:], m.Extra)
		return buf, nil

	default:
		return nil, fmt.Errorf("ipi: unsupported message kind %v for encode", m.Kind)
	}
}

// Decode parses one message from the head of buf. It never consumes bytes
// on an incomplete read: callers should keep buf unmodified and retry
// Decode once more bytes have been appended, mirroring the control-plane
// wire package's contract.
func Decode(buf []byte) (Message, int, error) {
	if len(buf) < HeaderSize {
		return Message{}, 0, ErrIncomplete
	}
	kind, err := decodeHeader(buf[:HeaderSize])
	if err != nil {
		return Message{}, 0, err
	}

	if headerOnly(kind) {
		return Message{Kind: kind}, HeaderSize, nil
	}

	switch kind {
	case KindInit:
		if len(buf) < HeaderSize+8 {
			return Message{}, 0, ErrIncomplete
		}
		ibead := binary.LittleEndian.Uint32(buf[HeaderSize:])
		nbytes := binary.LittleEndian.Uint32(buf[HeaderSize+4:])
		total := HeaderSize + 8 + int(nbytes)
		if len(buf) < total {
			return Message{}, 0, ErrIncomplete
		}
		payload := append([]byte(nil), buf[HeaderSize+8:total]...)
		return Message{Kind: KindInit, IBead: ibead, InitPayload: payload}, total, nil

	case KindPosData:
		fixed := HeaderSize + 9*8 + 9*8 + 4
		if len(buf) < fixed {
			return Message{}, 0, ErrIncomplete
		}
		off := HeaderSize
		var cell, invCell [9]float64
		for i := range cell {
			cell[i] = lengthToInternal(getFloat(buf[off+i*8:]))
		}
		off += 9 * 8
		for i := range invCell {
			invCell[i] = inverseLenToInternal(getFloat(buf[off+i*8:]))
		}
		off += 9 * 8
		natoms := binary.LittleEndian.Uint32(buf[off:])
		off += 4
		total := off + 3*int(natoms)*8
		if len(buf) < total {
			return Message{}, 0, ErrIncomplete
		}
		coords := make([]float64, 3*natoms)
		for i := range coords {
			coords[i] = lengthToInternal(getFloat(buf[off+i*8:]))
		}
		return Message{Kind: KindPosData, Cell: cell, InvCell: invCell, NAtoms: natoms, Coords: coords}, total, nil

	case KindForceReady:
		if len(buf) < HeaderSize+8+4 {
			return Message{}, 0, ErrIncomplete
		}
		off := HeaderSize
		energy := energyToInternal(getFloat(buf[off:]))
		off += 8
		natoms := binary.LittleEndian.Uint32(buf[off:])
		off += 4
		forcesEnd := off + 3*int(natoms)*8
		if len(buf) < forcesEnd+9*8+4 {
			return Message{}, 0, ErrIncomplete
		}
		forces := make([]float64, 3*natoms)
		for i := range forces {
			forces[i] = forceToInternal(getFloat(buf[off+i*8:]))
		}
		off = forcesEnd
		var virial [9]float64
		for i := range virial {
			virial[i] = energyToInternal(getFloat(buf[off+i*8:]))
		}
		off += 9 * 8
		nextra := binary.LittleEndian.Uint32(buf[off:])
		off += 4
		total := off + int(nextra)
		if len(buf) < total {
			return Message{}, 0, ErrIncomplete
		}
		extra := append([]byte(nil), buf[off:total]...)
		return Message{Kind: KindForceReady, Energy: energy, NAtoms: natoms, Forces: forces, Virial: virial, Extra: extra}, total, nil

	default:
		return Message{}, 0, fmt.Errorf("ipi: unsupported message kind %v for decode", kind)
	}
}

func putFloat(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}

func getFloat(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// NonPeriodic reports whether a POSDATA cell encodes a non-periodic
// system, i.e. the sum of absolute values of the cell entries is below
// 1e-6.
func NonPeriodic(cell [9]float64) bool {
	sum := 0.0
	for _, v := range cell {
		sum += math.Abs(v)
	}
	return sum < 1e-6
}
