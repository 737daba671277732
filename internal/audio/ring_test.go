package audio

import "testing"

func TestSampleRingDropsOldestOnOverflow(t *testing.T) {
	r := newSampleRing(2)

	r.Push([]float64{1})
	r.Push([]float64{2})
	dropped := r.Push([]float64{3})

	if !dropped {
		t.Fatal("Push into full ring should report dropped = true")
	}
	if got := r.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}

	bufs := r.Drain()
	if len(bufs) != 2 {
		t.Fatalf("Drain() len = %d, want 2", len(bufs))
	}
	if bufs[0][0] != 2 || bufs[1][0] != 3 {
		t.Errorf("Drain() = %v, want oldest-dropped order [2, 3]", bufs)
	}
}

func TestSampleRingDrainEmptiesQueue(t *testing.T) {
	r := newSampleRing(4)
	r.Push([]float64{1, 2})

	first := r.Drain()
	if len(first) != 1 {
		t.Fatalf("first Drain() len = %d, want 1", len(first))
	}

	second := r.Drain()
	if len(second) != 0 {
		t.Fatalf("second Drain() len = %d, want 0", len(second))
	}
}

func TestSampleRingPushCopiesInput(t *testing.T) {
	r := newSampleRing(1)
	src := []float64{1, 2, 3}
	r.Push(src)
	src[0] = 99

	bufs := r.Drain()
	if bufs[0][0] != 1 {
		t.Errorf("ring buffer aliased caller's slice, got %v", bufs[0][0])
	}
}
