package swp

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/ARwMq9b6/swp/frame"
	"github.com/ARwMq9b6/swp/swplog"
)

// readyQueue is an unbounded FIFO of payloads the application has not yet
// consumed, mirroring the blocking get() of Python's queue.Queue used by
// the original _ready_data.
type readyQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items [][]byte
}

func newReadyQueue() *readyQueue {
	q := &readyQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *readyQueue) push(b []byte) {
	q.mu.Lock()
	q.items = append(q.items, b)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *readyQueue) pop() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	b := q.items[0]
	q.items = q.items[1:]
	return b
}

// Receiver buffers incoming DATA frames within the receive window, drains
// the contiguous prefix to the application in order, and emits cumulative
// ACKs. Every received DATA frame — in-window, duplicate, or already
// delivered — triggers an ACK, so a lost ACK is repaired by the sender's
// next retransmission rather than by any receiver-side timer. Frames beyond
// the receive window are dropped without an ACK.
type Receiver struct {
	ep LinkEndpoint

	mu     sync.Mutex
	nfe    uint32 // next frame expected: nfe+1 is the next seq to deliver
	window [Window]*frame.Frame

	ready *readyQueue

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReceiver starts the receiver's DATA-processing loop and returns a
// ready to use Receiver.
func NewReceiver(ep LinkEndpoint) *Receiver {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Receiver{
		ep:     ep,
		ready:  newReadyQueue(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.recvLoop(ctx)
	return r
}

// Close stops the receiver's background DATA-processing loop.
func (r *Receiver) Close() {
	r.cancel()
	<-r.done
}

// Recv blocks until a payload is available and returns it. Payloads are
// delivered in strictly increasing sequence order, each exactly once.
func (r *Receiver) Recv() []byte {
	return r.ready.pop()
}

func (r *Receiver) recvLoop(ctx context.Context) {
	defer close(r.done)
	for {
		raw, err := r.ep.Recv(ctx)
		if err != nil {
			return
		}
		if raw == nil {
			continue
		}
		f, err := frame.Decode(raw)
		if err != nil {
			swplog.Dropped(glog.Warningf, "swp: receiver decode", err)
			continue
		}
		if f.Type != frame.DATA {
			continue
		}
		r.handleData(f)
	}
}

// handleData runs duplicate detection, the window-bound check, buffering,
// draining of the contiguous prefix, and emits a cumulative ACK for every
// DATA frame received except one beyond the receive window, which is
// dropped without an ACK.
func (r *Receiver) handleData(f frame.Frame) {
	r.mu.Lock()

	seq := f.Seq
	switch {
	case seq <= r.nfe:
		// Already delivered; re-ACK the current contiguous prefix.
		ack := r.nfe
		r.mu.Unlock()
		r.sendAck(ack)
		return

	case seq > r.nfe+Window:
		// Outside the window; the sender cannot legally have sent this.
		r.mu.Unlock()
		glog.V(2).Infof("swp: receiver dropping out-of-window seq=%d nfe=%d", seq, r.nfe)
		return
	}

	idx := slotIndex(seq)
	if existing := r.window[idx]; existing == nil || existing.Seq != seq {
		stored := f
		r.window[idx] = &stored
	}

	for {
		idx := slotIndex(r.nfe + 1)
		next := r.window[idx]
		if next == nil || next.Seq != r.nfe+1 {
			break
		}
		r.ready.push(next.Payload)
		r.window[idx] = nil
		r.nfe++
	}

	ack := r.nfe
	r.mu.Unlock()
	r.sendAck(ack)
}

func (r *Receiver) sendAck(seq uint32) {
	ack := frame.Frame{Type: frame.ACK, Seq: seq}
	if err := r.ep.Send(frame.Encode(ack)); err != nil {
		swplog.Dropped(glog.Warningf, "swp: receiver link send", err)
	}
}
