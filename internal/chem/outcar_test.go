package chem

import (
	"strings"
	"testing"
)

const sampleOutcar = `
aborting loop because EDIFF is reached
------------------------ aborting loop because EDIFF is reached ----------------------
  free  energy   TOTEN  =      -123.45600000 eV
 number of electron     16.0000000 magnetization      0.0012
--------------------------------------------------------------------------------------------------


 FREE ENERGIE OF THE ION-ELECTRON SYSTEM (eV)
  ---------------------------------------------------
  free  energy   TOTEN  =      -123.45678900 eV
 number of electron     16.0000000 magnetization      0.0034
 FREE ENERGIE OF THE ION-ELECTRON SYSTEM (eV)
  ---------------------------------------------------
  free  energy   TOTEN  =      -123.98765400 eV
 number of electron     16.0000000 magnetization      0.0099
 FREE ENERGIE OF THE ION-ELECTRON SYSTEM (eV)
`

func TestSummarizeOutcar(t *testing.T) {
	iters, err := SummarizeOutcar(strings.NewReader(sampleOutcar))
	if err != nil {
		t.Fatal(err)
	}
	if len(iters) != 3 {
		t.Fatalf("got %d iterations, want 3: %+v", len(iters), iters)
	}
	if !iters[0].HasE || iters[0].Energy != -123.456 {
		t.Fatalf("iters[0] energy = %v", iters[0])
	}
	if !iters[1].HasE || iters[1].Energy != -123.456789 {
		t.Fatalf("iters[1] energy = %v", iters[1])
	}
	if !iters[2].HasE || iters[2].Energy != -123.987654 {
		t.Fatalf("iters[2] energy = %v", iters[2])
	}
	if !iters[1].HasMag || iters[1].Mag != 0.0034 {
		t.Fatalf("iters[1] mag = %v", iters[1])
	}
}

func TestSparklineEmpty(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("Sparkline(nil) = %q, want empty", got)
	}
}

func TestSparklineFlat(t *testing.T) {
	iters := []OptIter{{HasE: true, Energy: -1}, {HasE: true, Energy: -1}}
	got := Sparkline(iters)
	want := string(sparkBlocks[0]) + string(sparkBlocks[0])
	if got != want {
		t.Fatalf("Sparkline(flat) = %q, want %q", got, want)
	}
}

func TestSparklineMonotonic(t *testing.T) {
	iters := []OptIter{
		{HasE: true, Energy: -10},
		{HasE: true, Energy: -5},
		{HasE: true, Energy: 0},
	}
	got := []rune(Sparkline(iters))
	if len(got) != 3 {
		t.Fatalf("got %d runes, want 3", len(got))
	}
	if got[0] != sparkBlocks[0] {
		t.Fatalf("first block = %q, want lowest", string(got[0]))
	}
	if got[2] != sparkBlocks[len(sparkBlocks)-1] {
		t.Fatalf("last block = %q, want highest", string(got[2]))
	}
}

func TestFormatSummaryIncludesSparkline(t *testing.T) {
	iters, err := SummarizeOutcar(strings.NewReader(sampleOutcar))
	if err != nil {
		t.Fatal(err)
	}
	out := FormatSummary(iters)
	if !strings.Contains(out, "Energy:") {
		t.Fatalf("expected Energy column, got %q", out)
	}
	if !strings.HasSuffix(strings.TrimRight(out, "\n"), string(Sparkline(iters))) {
		t.Fatalf("expected trailing sparkline in %q", out)
	}
}
