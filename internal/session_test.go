package internal

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func newTestSession(t *testing.T, addr, name string, console io.Reader) (*Session, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	reader := NewCommandReader(console, out, "")
	return NewSession(addr, reader, NewCommandFeed(reader), out, nil, name), out
}

// acceptOne returns the first connection accepted by listener.
func acceptOne(t *testing.T, listener net.Listener) <-chan net.Conn {
	t.Helper()
	ch := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		ch <- conn
	}()
	return ch
}

func TestSessionSendsTaggedMessage(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	accepted := acceptOne(t, listener)

	console := strings.NewReader("alice\nmsg hello world\nleave\n")
	session, out := newTestSession(t, listener.Addr().String(), "", console)

	result := make(chan error, 1)
	quitFlag := make(chan bool, 1)
	go func() {
		quit, err := session.Run()
		quitFlag <- quit
		result <- err
	}()

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(dialTimeout):
		t.Fatal("session never connected")
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(dialTimeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("host read failed: %v", err)
	}
	if line != "alice: hello world\n" {
		t.Errorf("wire line = %q, want %q", line, "alice: hello world\n")
	}

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("session ended with error: %v", err)
		}
		if <-quitFlag {
			t.Error("leave should not request process quit")
		}
	case <-time.After(dialTimeout):
		t.Fatal("session did not end after leave")
	}

	if !strings.Contains(out.String(), "Enter your name") {
		t.Error("session never prompted for a name")
	}
}

func TestSessionPresetNameSkipsPrompt(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	accepted := acceptOne(t, listener)

	console := strings.NewReader("msg hi\nleave\n")
	session, out := newTestSession(t, listener.Addr().String(), "bob", console)

	result := make(chan error, 1)
	go func() {
		_, err := session.Run()
		result <- err
	}()

	conn := <-accepted
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(dialTimeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("host read failed: %v", err)
	}
	if line != "bob: hi\n" {
		t.Errorf("wire line = %q, want %q", line, "bob: hi\n")
	}
	if err := <-result; err != nil {
		t.Errorf("session ended with error: %v", err)
	}
	if strings.Contains(out.String(), "Enter your name") {
		t.Error("preset name should skip the prompt")
	}
}

func TestSessionIncomingLinesPrinted(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	accepted := acceptOne(t, listener)

	pr, pw := io.Pipe()
	defer pw.Close()
	session, out := newTestSession(t, listener.Addr().String(), "bob", pr)

	result := make(chan error, 1)
	go func() {
		_, err := session.Run()
		result <- err
	}()

	conn := <-accepted
	if _, err := conn.Write([]byte("alice: hi bob\n")); err != nil {
		t.Fatal(err)
	}
	conn.Close()

	if err := <-result; err != nil {
		t.Fatalf("clean close reported error: %v", err)
	}
	if !strings.Contains(out.String(), "alice: hi bob") {
		t.Errorf("incoming line missing from console output:\n%s", out.String())
	}
}

// A clean remote close ends the session without error; see also
// TestSessionReadErrorFails for the error path.
func TestSessionCleanRemoteClose(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	accepted := acceptOne(t, listener)

	pr, pw := io.Pipe()
	defer pw.Close()
	session, out := newTestSession(t, listener.Addr().String(), "bob", pr)

	result := make(chan error, 1)
	go func() {
		_, err := session.Run()
		result <- err
	}()

	conn := <-accepted
	conn.Close()

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("clean close should not be an error, got %v", err)
		}
	case <-time.After(dialTimeout):
		t.Fatal("session did not end on remote close")
	}
	if !strings.Contains(out.String(), "Server closed the connection") {
		t.Errorf("missing close diagnostic:\n%s", out.String())
	}
}

// An aborted connection (RST) is a genuine read error and must end the
// session abnormally, unlike a clean close.
func TestSessionReadErrorFails(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	accepted := acceptOne(t, listener)

	pr, pw := io.Pipe()
	defer pw.Close()
	session, _ := newTestSession(t, listener.Addr().String(), "bob", pr)

	result := make(chan error, 1)
	go func() {
		_, err := session.Run()
		result <- err
	}()

	conn := <-accepted
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		t.Fatalf("unexpected conn type %T", conn)
	}
	tcp.SetLinger(0) // abort instead of close
	tcp.Close()

	select {
	case err := <-result:
		if err == nil {
			t.Fatal("aborted connection should end the session with an error")
		}
	case <-time.After(dialTimeout):
		t.Fatal("session did not end on connection abort")
	}
}

func TestSessionConnectFailure(t *testing.T) {
	// Grab an address that is guaranteed to refuse connections.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := listener.Addr().String()
	listener.Close()

	session, _ := newTestSession(t, addr, "bob", strings.NewReader(""))
	if _, err := session.Run(); err == nil {
		t.Fatal("expected connect error")
	}
}

func TestSessionQuit(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	acceptOne(t, listener)

	console := strings.NewReader("quit\n")
	session, _ := newTestSession(t, listener.Addr().String(), "bob", console)

	quit, err := session.Run()
	if err != nil {
		t.Fatalf("quit reported error: %v", err)
	}
	if !quit {
		t.Error("quit should request process termination")
	}
}
