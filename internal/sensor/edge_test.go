package sensor

import (
	"math/rand"
	"testing"
)

func TestEdgeDetector_Update(t *testing.T) {
	tests := []struct {
		name    string
		initial bool
		levels  []bool
		presses int
	}{
		{name: "idle", initial: true, levels: []bool{true, true, true}, presses: 0},
		{name: "single press and release", initial: true, levels: []bool{false, false, true}, presses: 1},
		{name: "held at startup", initial: false, levels: []bool{false, false}, presses: 0},
		{name: "held at startup then pressed again", initial: false, levels: []bool{true, false}, presses: 1},
		{name: "chatter counts every fall", initial: true, levels: []bool{false, true, false, true, false}, presses: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewEdgeDetector(tt.initial)
			got := 0
			for _, level := range tt.levels {
				if d.Update(level) {
					got++
				}
			}
			if got != tt.presses {
				t.Errorf("presses = %d, want %d", got, tt.presses)
			}
		})
	}
}

// TestEdgeDetector_OnePressPerFallingEdge checks random level sequences:
// presses always equal the number of high-to-low transitions.
func TestEdgeDetector_OnePressPerFallingEdge(t *testing.T) {
	rng := rand.New(rand.NewSource(21))

	for run := 0; run < 200; run++ {
		prev := rng.Intn(2) == 1
		d := NewEdgeDetector(prev)
		want, got := 0, 0

		for i := 0; i < 50; i++ {
			level := rng.Intn(2) == 1
			if prev && !level {
				want++
			}
			prev = level
			if d.Update(level) {
				got++
			}
		}

		if got != want {
			t.Fatalf("run %d: presses = %d, falling edges = %d", run, got, want)
		}
		if d.Level() != prev {
			t.Fatalf("run %d: Level() = %v, want %v", run, d.Level(), prev)
		}
	}
}
