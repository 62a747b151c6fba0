package swp

import (
	"context"
	"sync"
)

// memLink is an in-memory LinkEndpoint fake used to drive the sender and
// receiver against each other without a real socket. Construct a connected
// pair with newMemLinkPair; each side's Send can be given a dropFn to
// simulate loss at a specific point in the conversation. Duplicate or
// out-of-order frames are staged with inject.
type memLink struct {
	outCh chan []byte
	inCh  chan []byte

	mu        sync.Mutex
	sendCount int
	dropFn    func(sendNum int, raw []byte) bool
}

func newMemLinkPair() (*memLink, *memLink) {
	ab := make(chan []byte, 256)
	ba := make(chan []byte, 256)
	a := &memLink{outCh: ab, inCh: ba}
	b := &memLink{outCh: ba, inCh: ab}
	return a, b
}

func (m *memLink) setDropFn(f func(sendNum int, raw []byte) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropFn = f
}

func (m *memLink) Send(raw []byte) error {
	m.mu.Lock()
	m.sendCount++
	n := m.sendCount
	drop := m.dropFn != nil && m.dropFn(n, raw)
	m.mu.Unlock()

	if drop {
		return nil
	}
	cp := append([]byte(nil), raw...)
	m.outCh <- cp
	return nil
}

func (m *memLink) Recv(ctx context.Context) ([]byte, error) {
	select {
	case b := <-m.inCh:
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// inject delivers raw to this endpoint's own Recv, as if the peer had sent
// it, bypassing Send entirely. Used to stage duplicate or out-of-order
// frames a well-behaved Sender would never itself produce.
func (m *memLink) inject(raw []byte) {
	cp := append([]byte(nil), raw...)
	m.inCh <- cp
}
