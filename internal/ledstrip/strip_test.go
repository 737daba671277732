package ledstrip

import "testing"

func TestAddEffectAppendsAndRejectsOverflow(t *testing.T) {
	s := New(100)

	if !s.AddEffect(1, 60) {
		t.Fatal("AddEffect(1, 60) = false, want true")
	}
	if !s.AddEffect(2, 40) {
		t.Fatal("AddEffect(2, 40) = false, want true")
	}
	if s.AddEffect(3, 1) {
		t.Fatal("AddEffect(3, 1) = true, want false (strip full)")
	}
	if got := s.UsedLEDCount(); got != 100 {
		t.Errorf("UsedLEDCount = %d, want 100", got)
	}
}

func TestSegmentForReturnsDisjointSlices(t *testing.T) {
	s := New(10)
	s.AddEffect(1, 4)
	s.AddEffect(2, 6)

	seg1, ok := s.SegmentFor(1)
	if !ok || len(seg1) != 4 {
		t.Fatalf("SegmentFor(1) = %v, %v", seg1, ok)
	}
	seg2, ok := s.SegmentFor(2)
	if !ok || len(seg2) != 6 {
		t.Fatalf("SegmentFor(2) = %v, %v", seg2, ok)
	}

	if _, ok := s.SegmentFor(99); ok {
		t.Error("SegmentFor(99) = true, want false")
	}
}

func TestResizeDropsOverflowingSegments(t *testing.T) {
	s := New(100)
	s.AddEffect(1, 50)
	s.AddEffect(2, 50)

	s.Resize(60)

	if _, ok := s.SegmentFor(1); !ok {
		t.Error("segment 1 (0..50) should survive resize to 60")
	}
	if _, ok := s.SegmentFor(2); ok {
		t.Error("segment 2 (50..100) should be dropped on resize to 60")
	}
	if s.Size() != 60 {
		t.Errorf("Size() = %d, want 60", s.Size())
	}
}

func TestRemoveEffect(t *testing.T) {
	s := New(10)
	s.AddEffect(1, 5)
	s.AddEffect(2, 5)

	s.RemoveEffect(1)
	if _, ok := s.SegmentFor(1); ok {
		t.Error("segment 1 should be gone after RemoveEffect")
	}
	if _, ok := s.SegmentFor(2); !ok {
		t.Error("segment 2 should survive RemoveEffect(1)")
	}
}

func TestAddEffectAfterRemoveDoesNotOverlapSurvivor(t *testing.T) {
	s := New(10)
	s.AddEffect(1, 5) // [0,5)
	s.AddEffect(2, 5) // [5,10)

	s.RemoveEffect(1)

	// The strip is full from effect 2's perspective (nothing after
	// LED 10 is free), so a new effect must not be granted segment
	// [5,10) on top of the still-live effect 2.
	if s.AddEffect(3, 5) {
		t.Fatal("AddEffect(3, 5) = true, want false (no free run left past effect 2)")
	}

	seg2, ok := s.SegmentFor(2)
	if !ok || len(seg2) != 5 {
		t.Fatalf("SegmentFor(2) = %v, %v, want untouched 5-LED segment", seg2, ok)
	}
	if _, ok := s.SegmentFor(3); ok {
		t.Error("SegmentFor(3) = true, want false (AddEffect should not have installed it)")
	}
}

func TestBytesPacksInOrder(t *testing.T) {
	s := New(2)
	seg, _ := s.SegmentFor(1)
	_ = seg
	s.AddEffect(1, 2)
	seg, _ = s.SegmentFor(1)
	seg[0].R = 10
	seg[1].B = 20

	got := s.Bytes()
	want := []byte{10, 0, 0, 0, 0, 20}
	if len(got) != len(want) {
		t.Fatalf("Bytes() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Bytes()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
