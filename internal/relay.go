package internal

import (
	"errors"
	"fmt"
	"net"
	"sync"
)

// Relay is the host side of a session: it accepts TCP peers and
// rebroadcasts every line a peer sends to all other peers.
type Relay struct {
	addr string
	log  *ActivityLog
	bus  *Bus

	mu       sync.Mutex
	listener net.Listener
	stopped  bool

	ready chan struct{}
}

func NewRelay(addr string, log *ActivityLog) *Relay {
	return &Relay{
		addr:  addr,
		log:   log,
		bus:   NewBus(),
		ready: make(chan struct{}),
	}
}

// Ready is closed once the relay is bound and accepting.
func (r *Relay) Ready() <-chan struct{} {
	return r.ready
}

// Addr returns the bound listener address, or nil before Ready.
func (r *Relay) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Peers returns the number of currently connected peers.
func (r *Relay) Peers() int {
	return r.bus.Subscribers()
}

// Run binds the listen address and accepts peers until Stop is called.
// A bind failure is terminal and returned immediately. Accept errors
// are logged and the loop continues.
func (r *Relay) Run() error {
	listener, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", r.addr, err)
	}

	r.mu.Lock()
	if r.stopped {
		// Stop raced the bind.
		r.mu.Unlock()
		listener.Close()
		return nil
	}
	r.listener = listener
	r.mu.Unlock()

	r.log.Printf("relay listening on %s", listener.Addr())
	close(r.ready)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			r.log.Printf("accept failed: %v", err)
			continue
		}
		go r.handleConn(conn)
	}
}

// Stop closes the listener and drops every peer connection. Peers are
// not drained; their handlers exit when the bus closes.
func (r *Relay) Stop() {
	r.mu.Lock()
	r.stopped = true
	listener := r.listener
	r.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	r.bus.Close()
}
