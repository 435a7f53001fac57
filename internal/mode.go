package internal

import "fmt"

// Mode kinds for the process's exclusive operational state
const (
	ModeAdmin = iota
	ModeHost
	ModeClient
)

// Mode represents the operational state of the process.
// Addr is the bind address while hosting, or the remote
// address while connected as a client.
type Mode struct {
	Kind int
	Addr string
}

func (m Mode) String() string {
	switch m.Kind {
	case ModeHost:
		return fmt.Sprintf("hosting on %s", m.Addr)
	case ModeClient:
		return fmt.Sprintf("in session with %s", m.Addr)
	default:
		return "admin"
	}
}
