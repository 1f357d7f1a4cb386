package ipi

import (
	"math"
	"math/rand"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestHeaderOnlyRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindStatus, KindGetForce, KindExit, KindNeedInit, KindReady, KindHaveData} {
		buf, err := Encode(Message{Kind: k})
		if err != nil {
			t.Fatalf("encode %v: %v", k, err)
		}
		if len(buf) != HeaderSize {
			t.Fatalf("encode %v: len = %d, want %d", k, len(buf), HeaderSize)
		}
		got, n, err := Decode(buf)
		if err != nil {
			t.Fatalf("decode %v: %v", k, err)
		}
		if n != HeaderSize || got.Kind != k {
			t.Fatalf("decode %v: got kind=%v n=%d", k, got.Kind, n)
		}
	}
}

func TestNeedIntAcceptedAsNeedInit(t *testing.T) {
	header := make([]byte, HeaderSize)
	copy(header, "NEEDINT")
	for i := len("NEEDINT"); i < HeaderSize; i++ {
		header[i] = ' '
	}
	got, n, err := Decode(header)
	if err != nil {
		t.Fatalf("decode NEEDINT: %v", err)
	}
	if n != HeaderSize || got.Kind != KindNeedInit {
		t.Fatalf("got kind=%v n=%d, want KindNeedInit/%d", got.Kind, n, HeaderSize)
	}
}

func TestInitRoundTrip(t *testing.T) {
	want := Message{Kind: KindInit, IBead: 3, InitPayload: []byte("hello init")}
	buf, err := Encode(want)
	if err != nil {
		t.Fatal(err)
	}
	got, n, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(buf) || got.IBead != want.IBead || string(got.InitPayload) != string(want.InitPayload) {
		t.Fatalf("got %+v", got)
	}
}

func TestPosDataRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	natoms := 25
	var cell [9]float64
	cell[0], cell[4], cell[8] = 10, 10, 10
	var invCell [9]float64
	invCell[0], invCell[4], invCell[8] = 0.1, 0.1, 0.1
	coords := make([]float64, 3*natoms)
	for i := range coords {
		coords[i] = rng.Float64() * 10
	}
	want := Message{Kind: KindPosData, Cell: cell, InvCell: invCell, NAtoms: uint32(natoms), Coords: coords}

	buf, err := Encode(want)
	if err != nil {
		t.Fatal(err)
	}
	got, n, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d, want %d", n, len(buf))
	}
	for i := range cell {
		if !almostEqual(got.Cell[i], cell[i], 1e-4) {
			t.Fatalf("cell[%d] = %v, want %v", i, got.Cell[i], cell[i])
		}
		if !almostEqual(got.InvCell[i], invCell[i], 1e-4) {
			t.Fatalf("invCell[%d] = %v, want %v", i, got.InvCell[i], invCell[i])
		}
	}
	for i := range coords {
		if !almostEqual(got.Coords[i], coords[i], 1e-4) {
			t.Fatalf("coords[%d] = %v, want %v", i, got.Coords[i], coords[i])
		}
	}
}

func TestForceReadyRoundTrip(t *testing.T) {
	natoms := 4
	forces := make([]float64, 3*natoms)
	for i := range forces {
		forces[i] = float64(i) * 0.5
	}
	want := Message{
		Kind:   KindForceReady,
		Energy: -123.456,
		NAtoms: uint32(natoms),
		Forces: forces,
		Virial: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Extra:  []byte("extra info"),
	}
	buf, err := Encode(want)
	if err != nil {
		t.Fatal(err)
	}
	got, n, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d, want %d", n, len(buf))
	}
	if !almostEqual(got.Energy, want.Energy, 1e-4) {
		t.Fatalf("energy = %v, want %v", got.Energy, want.Energy)
	}
	for i := range forces {
		if !almostEqual(got.Forces[i], forces[i], 1e-4) {
			t.Fatalf("forces[%d] = %v, want %v", i, got.Forces[i], forces[i])
		}
	}
	if string(got.Extra) != string(want.Extra) {
		t.Fatalf("extra = %q, want %q", got.Extra, want.Extra)
	}
}

func TestShortReadSafety(t *testing.T) {
	msg := Message{Kind: KindForceReady, Energy: 1, NAtoms: 2, Forces: make([]float64, 6), Virial: [9]float64{}}
	buf, err := Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < len(buf); k++ {
		_, n, err := Decode(buf[:k])
		if err != ErrIncomplete {
			t.Fatalf("prefix %d: err = %v, want ErrIncomplete", k, err)
		}
		if n != 0 {
			t.Fatalf("prefix %d: consumed %d, want 0", k, n)
		}
	}
	_, n, err := Decode(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("full buffer: n=%d err=%v", n, err)
	}
}

func TestNonPeriodic(t *testing.T) {
	var cell [9]float64
	if !NonPeriodic(cell) {
		t.Fatal("zero cell should be non-periodic")
	}
	cell[0] = 10
	if NonPeriodic(cell) {
		t.Fatal("nonzero cell should be periodic")
	}
}
