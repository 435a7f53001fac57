package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultAddr is used by host/join when no address argument is given.
const DefaultAddr = "localhost:8080"

// Command kinds for operator console input
const (
	CmdHost = iota
	CmdJoin
	CmdLeave
	CmdShutdown
	CmdMsg
	CmdQuit
	CmdHelp
	CmdStatus
)

// Command is one parsed operator instruction. Addr is set for
// host/join, Text for msg.
type Command struct {
	Kind int
	Addr string
	Text string
}

// ParseCommand maps one console line to a Command. Malformed lines
// return an error and no Command.
func ParseCommand(line, defaultAddr string) (Command, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return Command{}, errors.New("invalid command")
	}

	switch words[0] {
	case "host":
		if len(words) == 1 {
			return Command{Kind: CmdHost, Addr: defaultAddr}, nil
		}
		if len(words) != 2 {
			return Command{}, errors.New("host only takes one argument - the address to host on")
		}
		return Command{Kind: CmdHost, Addr: words[1]}, nil
	case "join":
		if len(words) == 1 {
			return Command{Kind: CmdJoin, Addr: defaultAddr}, nil
		}
		if len(words) != 2 {
			return Command{}, errors.New("join only takes one argument - the address to join")
		}
		return Command{Kind: CmdJoin, Addr: words[1]}, nil
	case "leave":
		return Command{Kind: CmdLeave}, nil
	case "shutdown":
		return Command{Kind: CmdShutdown}, nil
	case "msg":
		if len(words) < 2 {
			return Command{}, errors.New("please provide a message to send")
		}
		return Command{Kind: CmdMsg, Text: strings.Join(words[1:], " ")}, nil
	case "quit":
		return Command{Kind: CmdQuit}, nil
	case "help":
		return Command{Kind: CmdHelp}, nil
	case "status":
		return Command{Kind: CmdStatus}, nil
	default:
		return Command{}, errors.New("invalid command")
	}
}

// CommandReader reads operator input line by line and turns it into
// Commands. It owns the console reader; nothing else may read from it.
type CommandReader struct {
	in          *bufio.Reader
	out         io.Writer
	defaultAddr string
	closed      bool
}

func NewCommandReader(in io.Reader, out io.Writer, defaultAddr string) *CommandReader {
	if defaultAddr == "" {
		defaultAddr = DefaultAddr
	}
	return &CommandReader{
		in:          bufio.NewReader(in),
		out:         out,
		defaultAddr: defaultAddr,
	}
}

// Closed reports whether the console hit end-of-input or a read error.
func (r *CommandReader) Closed() bool {
	return r.closed
}

// ReadLine reads one raw line from the console, without the trailing
// newline. Used for prompts that are not commands.
func (r *CommandReader) ReadLine() (string, error) {
	line, err := r.in.ReadString('\n')
	if err != nil {
		r.closed = true
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}

// Next blocks until a valid Command is read. Malformed lines are
// reported and skipped. End-of-input synthesizes a Shutdown command so
// the caller treats a dead console as an operational failure.
func (r *CommandReader) Next() Command {
	for {
		line, err := r.ReadLine()
		if err != nil {
			fmt.Fprintln(r.out, ">>Console closed, shutting down")
			return Command{Kind: CmdShutdown}
		}
		cmd, err := ParseCommand(line, r.defaultAddr)
		if err != nil {
			fmt.Fprintf(r.out, ">>%s\n", capitalize(err.Error()))
			continue
		}
		return cmd
	}
}

// CommandFeed lets a single consumer race command reads against other
// events without losing a pending read. Commands arms one background
// read at a time; the consumer must call Done after receiving from the
// returned channel. Not safe for concurrent consumers.
type CommandFeed struct {
	reader  *CommandReader
	pending chan Command
	armed   bool
}

func NewCommandFeed(r *CommandReader) *CommandFeed {
	return &CommandFeed{
		reader:  r,
		pending: make(chan Command),
	}
}

// Commands arms a background read if none is pending and returns the
// delivery channel. An abandoned read stays pending and is delivered
// on a later call.
func (f *CommandFeed) Commands() <-chan Command {
	if !f.armed {
		f.armed = true
		go func() {
			f.pending <- f.reader.Next()
		}()
	}
	return f.pending
}

// Done marks the pending read as consumed. Call it after every
// successful receive from Commands.
func (f *CommandFeed) Done() {
	f.armed = false
}

// PrintHelp writes the command reference to the console.
func PrintHelp(out io.Writer) {
	fmt.Fprintln(out, ">>Commands:")
	fmt.Fprintln(out, ">>host <address> - host a session on the given address")
	fmt.Fprintln(out, ">>join <address> - join a session on the given address")
	fmt.Fprintln(out, ">>leave - leave the current session")
	fmt.Fprintln(out, ">>shutdown - stop hosting and exit")
	fmt.Fprintln(out, ">>msg <message> - send a message to the current session")
	fmt.Fprintln(out, ">>quit - quit the program")
	fmt.Fprintln(out, ">>help - print this help message")
	fmt.Fprintln(out, ">>status - print the current status")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
