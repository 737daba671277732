package device

import (
	"net"
	"testing"
	"time"
)

func TestSenderDeliversFramesToListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 3)
		if _, err := conn.Read(buf); err == nil {
			received <- buf
		}
	}()

	s := NewTCPSender(ln.Addr().String())
	defer s.Close()

	s.Send([]byte{1, 2, 3})

	select {
	case got := <-received:
		if got[0] != 1 || got[1] != 2 || got[2] != 3 {
			t.Errorf("received = %v, want [1 2 3]", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestSendDropsOldestWhenQueueFull(t *testing.T) {
	s := &Sender{frames: make(chan []byte, 2), done: make(chan struct{})}

	s.Send([]byte{1})
	s.Send([]byte{2})
	s.Send([]byte{3}) // queue full: should drop {1}, keep {2, 3}

	first := <-s.frames
	second := <-s.frames
	if first[0] != 2 || second[0] != 3 {
		t.Errorf("queue contents = [%v %v], want [[2] [3]]", first, second)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewTCPSender("127.0.0.1:1") // nothing listening; worker will be retrying
	s.Close()
	s.Close()
}
