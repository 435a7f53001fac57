package internal

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"
)

// handleConn owns one peer connection for its whole life: it reads
// lines from the peer and publishes them on the bus, and it writes
// every bus envelope that was not authored by this peer back to the
// socket. The first of read error, end-of-stream, write error, or bus
// closure ends the handler and the peer is gone.
func (r *Relay) handleConn(conn net.Conn) {
	defer conn.Close()

	origin := conn.RemoteAddr().String()
	id := uuid.NewString()[:8]

	sub := r.bus.Subscribe()
	if sub == nil {
		// Relay stopped between accept and subscribe.
		return
	}
	defer sub.Cancel()

	r.log.Printf("peer %s connected from %s", id, origin)

	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(conn)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case line := <-lines:
			if !r.bus.Publish(Envelope{Text: line, Origin: origin}) {
				r.log.Printf("peer %s: bus closed, dropping connection", id)
				return
			}
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				r.log.Printf("peer %s disconnected", id)
			} else {
				r.log.Printf("peer %s: read failed: %v", id, err)
			}
			return
		case env, ok := <-sub.C:
			if !ok {
				r.log.Printf("peer %s: relay stopping, dropping connection", id)
				return
			}
			if env.Origin == origin {
				// Never echo a line back to its author.
				continue
			}
			if _, err := conn.Write([]byte(env.Text)); err != nil {
				r.log.Printf("peer %s: write failed: %v", id, err)
				return
			}
		}
	}
}
