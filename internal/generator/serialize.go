package generator

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/wire"

	"github.com/txunami/loaddriver/internal/wireclient"
)

// sendTx serializes and sends tx. A Send failure is logged and swallowed,
// not propagated: a broken socket degrades throughput but must not abort
// the worker driving it.
func sendTx(client *wireclient.Client, tx *wire.MsgTx) error {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return fmt.Errorf("serializing tx: %w", err)
	}
	if err := client.Send("tx", buf.Bytes()); err != nil {
		slog.Error("sending tx failed, continuing", "error", err)
	}
	return nil
}
