// Package wireclient is a minimal bitcoind-family P2P client: it connects,
// performs a one-way version/verack handshake, and frames outgoing messages
// with the 24-byte header the Bitcoin wire protocol (and its forks) use. It
// never parses an inbound message — only drains the socket periodically to
// keep the peer's replies from backing up the connection. Grounded on
// original_source/main.cpp's SimpleClient.
package wireclient

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/txunami/loaddriver/internal/config"
)

const (
	headerSize   = 24
	commandSize  = 12
	drainBufSize = 2 * 1024 * 1024
	drainTimeout = 1 * time.Millisecond
)

// Client is a single outbound connection to a target node.
type Client struct {
	conn      net.Conn
	magic     [4]byte
	sendCount uint64
	drainBuf  []byte
}

// Dial connects to addr, retrying with a one-second delay on failure,
// forever, matching SimpleClient's constructor. ctx lets a caller bound the
// retry loop; the driver's top-level caller uses context.Background(), so
// behavior is unchanged from the original unless a future caller cancels it.
// Once connected, it sends the one-way version/verack handshake: the
// original never waits for or reads the peer's reply to either message.
func Dial(ctx context.Context, addr string, magic [4]byte, versionPayload []byte) (*Client, error) {
	var conn net.Conn
	for {
		var err error
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		slog.Warn("connect failed, retrying", "addr", addr, "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dial %s: %w", addr, ctx.Err())
		case <-time.After(config.ConnectRetryDelay):
		}
	}

	c := &Client{conn: conn, magic: magic, drainBuf: make([]byte, drainBufSize)}
	if err := c.send("version", versionPayload); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending version message: %w", err)
	}
	if err := c.send("verack", nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending verack message: %w", err)
	}
	return c, nil
}

// Send writes one framed message and periodically drains the inbound
// buffer to keep the peer's replies from backing up the socket.
func (c *Client) Send(command string, payload []byte) error {
	if err := c.send(command, payload); err != nil {
		return err
	}
	c.sendCount++
	if c.sendCount&(config.DrainInterval-1) == 0 {
		c.drain()
	}
	return nil
}

func (c *Client) send(command string, payload []byte) error {
	header := make([]byte, headerSize)
	copy(header[0:4], c.magic[:])
	copy(header[4:4+commandSize], command)
	binary.LittleEndian.PutUint32(header[16:20], uint32(len(payload)))
	// checksum left zero: the original never computes one and no target
	// this driver talks to validates it.

	n, err := (net.Buffers{header, payload}).WriteTo(c.conn)
	if err != nil {
		return fmt.Errorf("writing %s message: %w", command, err)
	}
	if n == 0 {
		slog.Error("wire write wrote zero bytes", "command", command)
	}
	return nil
}

// drain reads and discards whatever the peer has sent without blocking,
// the Go equivalent of SimpleClient's socket.available()-gated read: Go has
// no direct "bytes available" query, so a near-zero read deadline stands in
// for it.
func (c *Client) drain() {
	if err := c.conn.SetReadDeadline(time.Now().Add(drainTimeout)); err != nil {
		return
	}
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		n, err := c.conn.Read(c.drainBuf)
		if n == 0 || err != nil {
			return
		}
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
