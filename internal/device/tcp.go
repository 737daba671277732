package device

import (
	"fmt"
	"net"
	"sync"
	"time"

	applog "ledctl/internal/log"
)

// ConnectionError reports that a TCP device connection could not be
// established after exhausting its retry budget.
type ConnectionError struct {
	Addr     string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("device: %s unreachable after %d attempts: %v", e.Addr, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

const (
	connectAttempts = 20
	dialTimeout     = 3 * time.Second
	writeTimeout    = 100 * time.Millisecond
	frameQueueDepth = 64
)

// Sender streams color frames to one TCP-connected LED device. A
// background worker owns the socket and runs a small state machine:
// Connecting (dial with a bounded retry budget) and Sending (write with
// a short deadline, falling back to Connecting on any write failure).
// The caller-facing Send never blocks: the frame queue is a bounded,
// newest-wins ring — a frame that arrives while the queue is full
// replaces the oldest one still waiting, since a stale frame is worse
// than no frame once a consumer falls behind.
type Sender struct {
	addr   string
	frames chan []byte
	done   chan struct{}
	dead   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewTCPSender starts a Sender targeting addr ("host:port"). Connection
// is attempted in the background; Send may be called immediately.
func NewTCPSender(addr string) *Sender {
	s := &Sender{
		addr:   addr,
		frames: make(chan []byte, frameQueueDepth),
		done:   make(chan struct{}),
		dead:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Dead returns a channel closed once this Sender has exhausted its
// connect retry budget and given up for good. A caller holding a strip
// bound to this Sender should treat a closed Dead channel as a signal to
// evict the connection: nothing further sent to Send will ever reach
// the device.
func (s *Sender) Dead() <-chan struct{} {
	return s.dead
}

// Send enqueues frame for transmission, dropping the oldest queued
// frame if the queue is already full.
func (s *Sender) Send(frame []byte) {
	select {
	case s.frames <- frame:
		return
	default:
	}

	select {
	case <-s.frames:
	default:
	}
	select {
	case s.frames <- frame:
	default:
	}
}

// Close signals the background worker to exit and waits for it to do
// so, closing the socket if one is open.
func (s *Sender) Close() {
	s.once.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Sender) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		conn, err := s.connect()
		if err != nil {
			applog.Errorf("device: giving up on %s: %v", s.addr, err)
			if _, exhausted := err.(*ConnectionError); exhausted {
				close(s.dead)
			}
			return
		}

		s.sendLoop(conn)
	}
}

// connect dials addr, retrying on failure up to connectAttempts times
// with dialTimeout per attempt.
func (s *Sender) connect() (net.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		select {
		case <-s.done:
			return nil, fmt.Errorf("sender closed during connect")
		default:
		}

		conn, err := net.DialTimeout("tcp", s.addr, dialTimeout)
		if err == nil {
			applog.Infof("device: connected to %s", s.addr)
			return conn, nil
		}
		lastErr = err
		applog.Warnf("device: connect attempt %d/%d to %s failed: %v", attempt, connectAttempts, s.addr, err)
	}
	return nil, &ConnectionError{Addr: s.addr, Attempts: connectAttempts, Err: lastErr}
}

// sendLoop writes queued frames to conn until either the Sender is
// closed or a write fails, in which case it closes conn and returns so
// run can re-enter Connecting.
func (s *Sender) sendLoop(conn net.Conn) {
	defer conn.Close()

	for {
		select {
		case <-s.done:
			return
		case frame := <-s.frames:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := conn.Write(frame); err != nil {
				applog.Warnf("device: write to %s failed, reconnecting: %v", s.addr, err)
				return
			}
		}
	}
}
