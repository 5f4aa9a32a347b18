package wireclient

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"
)

// startEchoListener accepts exactly one connection and forwards every chunk
// it reads onto the received channel, so tests can inspect frames.
func startEchoListener(t *testing.T) (addr string, received chan []byte, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	received = make(chan []byte, 64)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				received <- chunk
			}
			if err != nil {
				return
			}
		}
	}()

	return ln.Addr().String(), received, func() { ln.Close() }
}

func readExactly(t *testing.T, ch chan []byte, n int, timeout time.Duration) []byte {
	t.Helper()
	buf := make([]byte, 0, n)
	deadline := time.After(timeout)
	for len(buf) < n {
		select {
		case chunk := <-ch:
			buf = append(buf, chunk...)
		case <-deadline:
			t.Fatalf("timed out waiting for %d bytes, got %d", n, len(buf))
		}
	}
	return buf
}

func TestDialSendsVersionAndVerackHandshake(t *testing.T) {
	addr, received, stop := startEchoListener(t)
	defer stop()

	magic := [4]byte{0xda, 0xb5, 0xbf, 0xfa}
	payload := []byte("fake-version-payload")

	client, err := Dial(context.Background(), addr, magic, payload)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	// Both frames may arrive in a single read, so read them together.
	handshake := readExactly(t, received, headerSize*2+len(payload), time.Second)
	versionFrame := handshake[:headerSize+len(payload)]
	verifyHeader(t, versionFrame[:headerSize], magic, "version", len(payload))

	verackFrame := handshake[headerSize+len(payload):]
	verifyHeader(t, verackFrame, magic, "verack", 0)
}

func TestSendFramesCommandAndPayload(t *testing.T) {
	addr, received, stop := startEchoListener(t)
	defer stop()

	magic := [4]byte{0x00, 0x00, 0x00, 0x00}
	client, err := Dial(context.Background(), addr, magic, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	// Drain the handshake frames first.
	readExactly(t, received, headerSize*2, time.Second)

	txPayload := []byte{0x01, 0x02, 0x03, 0x04}
	if err := client.Send("tx", txPayload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	frame := readExactly(t, received, headerSize+len(txPayload), time.Second)
	verifyHeader(t, frame[:headerSize], magic, "tx", len(txPayload))
	if string(frame[headerSize:]) != string(txPayload) {
		t.Errorf("payload mismatch: got %x", frame[headerSize:])
	}
}

func TestDialRetriesUntilListenerExists(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close() // nothing listening yet

	done := make(chan error, 1)
	go func() {
		relisten := make(chan struct{})
		go func() {
			time.Sleep(50 * time.Millisecond)
			l2, err := net.Listen("tcp", addr)
			if err == nil {
				close(relisten)
				go func() {
					c, _ := l2.Accept()
					if c != nil {
						io.Copy(io.Discard, c)
					}
				}()
			}
		}()
		_, err := Dial(context.Background(), addr, [4]byte{}, nil)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Dial did not succeed once the listener came up")
	}
}

func TestDialRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Port almost certainly has nothing listening; the retry loop should
	// observe the already-cancelled context on its first wait.
	_, err := Dial(ctx, "127.0.0.1:1", [4]byte{}, nil)
	if err == nil {
		t.Fatal("expected error from a cancelled context")
	}
}

func verifyHeader(t *testing.T, header []byte, magic [4]byte, command string, payloadLen int) {
	t.Helper()
	if len(header) != headerSize {
		t.Fatalf("header length = %d, want %d", len(header), headerSize)
	}
	for i := 0; i < 4; i++ {
		if header[i] != magic[i] {
			t.Errorf("magic[%d] = %x, want %x", i, header[i], magic[i])
		}
	}
	gotCmd := string(header[4:16])
	wantCmd := command + string(make([]byte, commandSize-len(command)))
	if gotCmd != wantCmd {
		t.Errorf("command = %q, want %q", gotCmd, wantCmd)
	}
	gotLen := binary.LittleEndian.Uint32(header[16:20])
	if int(gotLen) != payloadLen {
		t.Errorf("length = %d, want %d", gotLen, payloadLen)
	}
	for i := 20; i < 24; i++ {
		if header[i] != 0 {
			t.Errorf("checksum[%d] = %x, want 0", i-20, header[i])
		}
	}
}
