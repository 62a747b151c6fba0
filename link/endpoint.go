// Package link implements the concrete LinkEndpoint collaborator that the
// SWP core is built on: a point-to-point UDP datagram conduit with an
// optional simulated loss probability.
package link

import (
	"context"
	"math/rand"
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/ARwMq9b6/swp/frame"
)

// MTU is the largest datagram SWP will ever hand to the link: the 5 byte
// header plus the maximum DATA payload.
const MTU = frame.HeaderSize + frame.MaxDataSize

// ErrOversize is returned by Send when the caller hands it more than MTU
// bytes.
var ErrOversize = errors.New("link: datagram exceeds MTU")

// Endpoint is a LinkEndpoint backed by a UDP socket.
type Endpoint struct {
	conn net.PacketConn

	mu     sync.Mutex
	remote net.Addr

	lossProbability float64
	rngMu           sync.Mutex
	rng             *rand.Rand

	incoming chan []byte
	readErrs chan error
	closeCh  chan struct{}
	closed   sync.Once
}

// Dial opens a point-to-point endpoint whose sends target remoteAddr.
// lossProbability, in [0, 1), is the chance any given Send is silently
// dropped before reaching the socket.
func Dial(remoteAddr string, lossProbability float64) (*Endpoint, error) {
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	raddr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return newEndpoint(conn, raddr, lossProbability), nil
}

// Listen opens a point-to-point endpoint bound to localAddr. The remote peer
// is learned from the first datagram received, consistent with SWP's
// assumption of a pre-established point-to-point channel.
func Listen(localAddr string, lossProbability float64) (*Endpoint, error) {
	conn, err := net.ListenPacket("udp", localAddr)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return newEndpoint(conn, nil, lossProbability), nil
}

func newEndpoint(conn net.PacketConn, remote net.Addr, lossProbability float64) *Endpoint {
	e := &Endpoint{
		conn:            conn,
		remote:          remote,
		lossProbability: lossProbability,
		rng:             rand.New(rand.NewSource(rand.Int63())),
		incoming:        make(chan []byte, incomingBuffer),
		readErrs:        make(chan error, 1),
		closeCh:         make(chan struct{}),
	}
	go e.readLoop()
	return e
}

// incomingBuffer sizes the datagram channel generously above the SWP
// window so a burst of retransmissions never blocks readLoop.
const incomingBuffer = 32

func (e *Endpoint) readLoop() {
	buf := make([]byte, MTU)
	for {
		n, addr, err := e.conn.ReadFrom(buf)
		if err != nil {
			select {
			case e.readErrs <- err:
			default:
			}
			close(e.incoming)
			return
		}

		e.mu.Lock()
		if e.remote == nil {
			e.remote = addr
		}
		e.mu.Unlock()

		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		select {
		case e.incoming <- datagram:
		case <-e.closeCh:
			return
		}
	}
}

// Send is best-effort: with probability lossProbability the datagram is
// silently dropped before it ever reaches the socket.
func (e *Endpoint) Send(b []byte) error {
	if len(b) > MTU {
		return errors.WithStack(ErrOversize)
	}
	if e.shouldDrop() {
		return nil
	}

	e.mu.Lock()
	remote := e.remote
	e.mu.Unlock()
	if remote == nil {
		return nil
	}

	_, err := e.conn.WriteTo(b, remote)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (e *Endpoint) shouldDrop() bool {
	if e.lossProbability <= 0 {
		return false
	}
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64() < e.lossProbability
}

// Recv blocks for the next datagram, or returns a non-nil error once ctx is
// done or the underlying socket is closed.
func (e *Endpoint) Recv(ctx context.Context) ([]byte, error) {
	select {
	case b, ok := <-e.incoming:
		if !ok {
			select {
			case err := <-e.readErrs:
				return nil, err
			default:
				return nil, errors.New("link: closed")
			}
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.closeCh:
		return nil, errors.New("link: closed")
	}
}

// Close releases the underlying socket.
func (e *Endpoint) Close() error {
	e.closed.Do(func() { close(e.closeCh) })
	return e.conn.Close()
}
