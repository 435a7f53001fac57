package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// Session is the client side: one outbound connection to a host,
// multiplexed against the operator console.
type Session struct {
	addr   string
	reader *CommandReader
	feed   *CommandFeed
	out    io.Writer
	log    *ActivityLog

	// name pre-seeds the display name; when empty the operator is
	// prompted.
	name string
}

func NewSession(addr string, reader *CommandReader, feed *CommandFeed, out io.Writer, log *ActivityLog, name string) *Session {
	return &Session{
		addr:   addr,
		reader: reader,
		feed:   feed,
		out:    out,
		log:    log,
		name:   name,
	}
}

// Run connects, asks for a display name, then relays between console
// and socket until the session ends. It returns quit=true when the
// operator asked to terminate the whole program, and a non-nil error
// when the session ended abnormally. A clean remote close is a normal
// end; a socket read error is not.
func (s *Session) Run() (quit bool, err error) {
	conn, err := net.Dial("tcp", s.addr)
	if err != nil {
		return false, fmt.Errorf("connect to %s: %w", s.addr, err)
	}
	defer conn.Close()
	s.log.Printf("joined session at %s", s.addr)

	name := strings.TrimSpace(s.name)
	for name == "" {
		fmt.Fprintln(s.out, ">>Enter your name:")
		line, err := s.reader.ReadLine()
		if err != nil {
			return false, errors.New("console closed while reading name")
		}
		name = strings.TrimSpace(line)
	}
	fmt.Fprintf(s.out, ">>Welcome %s, you are connected to %s\n", name, s.addr)

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
			fmt.Fprint(s.out, line)
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out, ">>Server closed the connection")
				return false, nil
			}
			return false, fmt.Errorf("read from %s: %w", s.addr, err)
		case cmd := <-s.feed.Commands():
			s.feed.Done()
			switch cmd.Kind {
			case CmdHost:
				fmt.Fprintln(s.out, ">>Already in a session, cannot host")
			case CmdJoin:
				fmt.Fprintln(s.out, ">>Already in a session, cannot join another session")
			case CmdLeave:
				fmt.Fprintln(s.out, ">>Leaving")
				return false, nil
			case CmdShutdown:
				if s.reader.Closed() {
					// Dead console, treat as quit.
					return true, nil
				}
				fmt.Fprintln(s.out, ">>Cannot shutdown when not hosting")
			case CmdMsg:
				if _, err := fmt.Fprintf(conn, "%s: %s\n", name, cmd.Text); err != nil {
					return false, fmt.Errorf("send message: %w", err)
				}
			case CmdQuit:
				fmt.Fprintln(s.out, ">>Quitting")
				return true, nil
			case CmdHelp:
				PrintHelp(s.out)
			case CmdStatus:
				fmt.Fprintf(s.out, ">>Currently in session with %s\n", s.addr)
			}
		}
	}
}
