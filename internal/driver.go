package internal

import (
	"fmt"
	"io"
)

// Driver owns the Mode and runs the top-level operator loop. Mode is
// only ever touched from Run's goroutine.
type Driver struct {
	mode   Mode
	reader *CommandReader
	feed   *CommandFeed
	out    io.Writer
	log    *ActivityLog
	cfg    Config
}

func NewDriver(in io.Reader, out io.Writer, cfg Config, log *ActivityLog) *Driver {
	reader := NewCommandReader(in, out, cfg.SessionAddr())
	return &Driver{
		mode:   Mode{Kind: ModeAdmin},
		reader: reader,
		feed:   NewCommandFeed(reader),
		out:    out,
		log:    log,
		cfg:    cfg,
	}
}

// Run executes the operator loop until quit, shutdown, or console
// end-of-input.
func (d *Driver) Run() {
	fmt.Fprintln(d.out, ">>Welcome to the chat relay")
	PrintHelp(d.out)
	for {
		var again bool
		switch d.mode.Kind {
		case ModeHost:
			again = d.runHost()
		case ModeClient:
			again = d.runClient()
		default:
			again = d.runAdmin()
		}
		if !again {
			return
		}
	}
}

// runAdmin handles exactly one command in Admin mode. It returns
// false when the program should terminate.
func (d *Driver) runAdmin() bool {
	cmd := <-d.feed.Commands()
	d.feed.Done()
	switch cmd.Kind {
	case CmdHost:
		fmt.Fprintf(d.out, ">>Hosting on %s\n", cmd.Addr)
		d.mode = Mode{Kind: ModeHost, Addr: cmd.Addr}
	case CmdJoin:
		fmt.Fprintf(d.out, ">>Joining %s\n", cmd.Addr)
		d.mode = Mode{Kind: ModeClient, Addr: cmd.Addr}
	case CmdLeave:
		fmt.Fprintln(d.out, ">>Cannot leave when not in a session")
	case CmdShutdown:
		if d.reader.Closed() {
			return false
		}
		fmt.Fprintln(d.out, ">>Cannot shutdown when not hosting")
	case CmdMsg:
		fmt.Fprintln(d.out, ">>Cannot send message when not in a session")
	case CmdQuit:
		fmt.Fprintln(d.out, ">>Quitting")
		return false
	case CmdHelp:
		PrintHelp(d.out)
	case CmdStatus:
		fmt.Fprintln(d.out, ">>Not in a session or hosting")
	}
	return true
}

// runHost races the relay against operator commands until the relay
// dies or the operator leaves or terminates.
func (d *Driver) runHost() bool {
	relay := NewRelay(d.mode.Addr, d.log)
	relayDone := make(chan error, 1)
	go func() {
		relayDone <- relay.Run()
	}()
	d.log.Printf("hosting on %s", d.mode.Addr)

	stop := func() {
		relay.Stop()
		<-relayDone
	}

	for {
		select {
		case err := <-relayDone:
			if err != nil {
				fmt.Fprintf(d.out, ">>Error hosting server: %v\n", err)
			} else {
				fmt.Fprintln(d.out, ">>Host stopped")
			}
			d.mode = Mode{Kind: ModeAdmin}
			return true
		case cmd := <-d.feed.Commands():
			d.feed.Done()
			switch cmd.Kind {
			case CmdHost:
				fmt.Fprintln(d.out, ">>Already hosting")
			case CmdJoin:
				fmt.Fprintln(d.out, ">>Already hosting, cannot join another session")
			case CmdLeave:
				fmt.Fprintf(d.out, ">>Stopped hosting %s\n", d.mode.Addr)
				stop()
				d.mode = Mode{Kind: ModeAdmin}
				return true
			case CmdShutdown:
				if !d.reader.Closed() {
					fmt.Fprintln(d.out, ">>Shutting down")
				}
				stop()
				return false
			case CmdMsg:
				fmt.Fprintln(d.out, ">>Cannot send message when hosting")
			case CmdQuit:
				fmt.Fprintln(d.out, ">>Quitting")
				stop()
				return false
			case CmdHelp:
				PrintHelp(d.out)
			case CmdStatus:
				fmt.Fprintf(d.out, ">>Currently hosting on %s (%d peers)\n", d.mode.Addr, relay.Peers())
			}
		}
	}
}

// runClient delegates to a Session and reverts to Admin when it ends.
func (d *Driver) runClient() bool {
	session := NewSession(d.mode.Addr, d.reader, d.feed, d.out, d.log, d.cfg.Name)
	quit, err := session.Run()
	if err != nil {
		fmt.Fprintf(d.out, ">>Error joining server: %v\n", err)
	}
	d.mode = Mode{Kind: ModeAdmin}
	return !quit
}
