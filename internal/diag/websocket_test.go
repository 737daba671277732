package diag

import "testing"

func TestPushDropsWhenBufferFull(t *testing.T) {
	b := NewBroadcaster(":0")
	// Fill the buffer without a reader draining it.
	for i := 0; i < cap(b.broadcast); i++ {
		b.Push(Snapshot{TickLagMillis: float64(i)})
	}

	// One more push over capacity must not block.
	done := make(chan struct{})
	go func() {
		b.Push(Snapshot{TickLagMillis: 999})
		close(done)
	}()
	<-done
}

func TestNewBroadcasterStartsEmpty(t *testing.T) {
	b := NewBroadcaster(":0")
	if len(b.clients) != 0 {
		t.Errorf("clients = %d, want 0", len(b.clients))
	}
}
