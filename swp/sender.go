package swp

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/ARwMq9b6/swp/frame"
	"github.com/ARwMq9b6/swp/swplog"
)

// slot is one entry of the sender's outstanding-frame ring buffer: an
// unacknowledged DATA frame with its live retransmission timer.
type slot struct {
	f     frame.Frame
	timer *time.Timer
}

// Sender accepts application byte buffers, fragments them into frames of up
// to frame.MaxDataSize bytes, enforces the five-frame window, and retransmits
// on timeout until each frame is cumulatively acknowledged.
type Sender struct {
	ep LinkEndpoint

	mu     sync.Mutex
	lar    uint32 // last ACK received
	lfs    uint32 // last frame sent
	window [Window]*slot

	// gate is a bounded counting semaphore: one token per free window
	// slot, mirroring the Python original's threading.BoundedSemaphore.
	gate chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSender starts the sender's ACK-processing loop and returns a ready to
// use Sender.
func NewSender(ep LinkEndpoint) *Sender {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sender{
		ep:     ep,
		gate:   make(chan struct{}, Window),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for i := 0; i < Window; i++ {
		s.gate <- struct{}{}
	}
	go s.recvLoop(ctx)
	return s
}

// Close stops the sender's background ACK-processing loop.
func (s *Sender) Close() {
	s.cancel()
	<-s.done
}

// Send fragments data into chunks of up to frame.MaxDataSize bytes and
// admits each to the window in order. It returns once every chunk has been
// admitted, not once it has been acknowledged; there is no error path
// because link-send failures are covered by the retransmission timer.
func (s *Sender) Send(data []byte) {
	for i := 0; i < len(data); i += frame.MaxDataSize {
		end := i + frame.MaxDataSize
		if end > len(data) {
			end = len(data)
		}
		s.sendOne(data[i:end])
	}
}

// sendOne blocks until the window has a free slot, then assigns the chunk
// the next sequence number, buffers it, arms its retransmission timer, and
// transmits it.
func (s *Sender) sendOne(chunk []byte) {
	<-s.gate

	s.mu.Lock()
	s.lfs++
	seq := s.lfs
	f := frame.Frame{Type: frame.DATA, Seq: seq, Payload: chunk}
	idx := slotIndex(seq)
	sl := &slot{f: f}
	s.window[idx] = sl
	sl.timer = time.AfterFunc(Timeout, func() { s.retransmit(seq) })
	s.transmit(f)
	s.mu.Unlock()
}

// retransmit is the timer callback for seq. If seq is still unacknowledged
// it re-arms a fresh timer and resends; if the slot has since been cleared
// or reused by a newer frame, it is a no-op. Races with concurrent ACK
// processing are resolved entirely under s.mu.
func (s *Sender) retransmit(seq uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.lar {
		return
	}
	idx := slotIndex(seq)
	sl := s.window[idx]
	if sl == nil || sl.f.Seq != seq {
		return
	}
	sl.timer = time.AfterFunc(Timeout, func() { s.retransmit(seq) })
	s.transmit(sl.f)
}

// transmit encodes and sends f. Must be called with s.mu held; link-send
// failures are logged, never returned, per the error propagation policy.
func (s *Sender) transmit(f frame.Frame) {
	if err := s.ep.Send(frame.Encode(f)); err != nil {
		swplog.Dropped(glog.Warningf, "swp: sender link send", err)
	}
}

// recvLoop parses incoming ACKs and advances the window.
func (s *Sender) recvLoop(ctx context.Context) {
	defer close(s.done)
	for {
		raw, err := s.ep.Recv(ctx)
		if err != nil {
			return
		}
		if raw == nil {
			continue
		}
		f, err := frame.Decode(raw)
		if err != nil {
			swplog.Dropped(glog.Warningf, "swp: sender decode", err)
			continue
		}
		if f.Type != frame.ACK {
			continue
		}
		s.handleAck(f.Seq)
	}
}

// handleAck applies the cumulative-ACK policy: an ACK for seq a
// acknowledges every seq <= a. ACKs with a == 0 or a <= LAR are ignored;
// ACKs with a > LFS are nonsense and dropped.
func (s *Sender) handleAck(a uint32) {
	if a == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a <= s.lar {
		return
	}
	if a > s.lfs {
		glog.Warningf("swp: sender dropping out-of-window ack seq=%d lar=%d lfs=%d", a, s.lar, s.lfs)
		return
	}

	for sn := s.lar + 1; sn <= a; sn++ {
		idx := slotIndex(sn)
		if sl := s.window[idx]; sl != nil {
			sl.timer.Stop()
			s.window[idx] = nil
			s.gate <- struct{}{}
		}
	}
	s.lar = a
}
