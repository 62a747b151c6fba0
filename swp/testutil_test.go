package swp

import (
	"sync"
	"time"

	"github.com/ARwMq9b6/swp/frame"
)

// waitUntil polls cond until it returns true or the timeout elapses.
func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func (s *Sender) snapshot() (lar, lfs uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lar, s.lfs
}

func (r *Receiver) snapshotNFE() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nfe
}

// recvWithTimeout calls r.Recv() and returns (payload, true) if it returns
// within d, or (nil, false) on timeout. It leaks the call's goroutine on
// timeout, which is acceptable in these short-lived tests.
func recvWithTimeout(r *Receiver, d time.Duration) ([]byte, bool) {
	ch := make(chan []byte, 1)
	go func() { ch <- r.Recv() }()
	select {
	case p := <-ch:
		return p, true
	case <-time.After(d):
		return nil, false
	}
}

// frameCounter records every frame observed on a memLink, keyed by type.
type frameCounter struct {
	mu   sync.Mutex
	data []frame.Frame
	acks []frame.Frame
}

func (c *frameCounter) observe(sendNum int, raw []byte) bool {
	f, err := frame.Decode(raw)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f.Type == frame.DATA {
		c.data = append(c.data, f)
	} else {
		c.acks = append(c.acks, f)
	}
	return false // never drop
}

func (c *frameCounter) dataCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func (c *frameCounter) ackCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.acks)
}
