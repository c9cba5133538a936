// Package chain is the thin transport adapter between a Solana RPC
// websocket and the indexing pipeline. The pipeline itself only
// depends on the TxLogs channel; everything here is replaceable.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bellapacxx/roulette-backend/services"
	"github.com/bellapacxx/roulette-backend/utils/logger"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	reconnectDelay   = 3 * time.Second
)

// Subscriber maintains a logsSubscribe subscription for one program
// and republishes notifications as TxLogs batches. It reconnects and
// resubscribes forever; deduplication after a reconnect replay is the
// pipeline's job, not the transport's.
type Subscriber struct {
	endpoint   string
	programID  string
	commitment string
	out        chan services.TxLogs
}

func NewSubscriber(endpoint, programID, commitment string) *Subscriber {
	return &Subscriber{
		endpoint:   endpoint,
		programID:  programID,
		commitment: commitment,
		out:        make(chan services.TxLogs, 64),
	}
}

// Logs is the batch stream consumed by the listener.
func (s *Subscriber) Logs() <-chan services.TxLogs {
	return s.out
}

// Run blocks until ctx is done, reconnecting on every failure.
func (s *Subscriber) Run(ctx context.Context) {
	defer close(s.out)

	for {
		if err := s.subscribeOnce(ctx); err != nil {
			logger.Errorf("[Chain] subscription lost: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type logsNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Signature string          `json:"signature"`
				Err       json.RawMessage `json:"err"`
				Logs      []string        `json:"logs"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (s *Subscriber) subscribeOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.endpoint, err)
	}
	defer conn.Close()

	sub := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{"mentions": []string{s.programID}},
			map[string]interface{}{"commitment": s.commitment},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("logsSubscribe: %w", err)
	}

	logger.Infof("[Chain] subscribed to logs for program %s (%s)", s.programID, s.commitment)

	// unblock ReadMessage when ctx ends; done reaps the watcher when
	// this connection is torn down so reconnects don't pile them up
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var note logsNotification
		if err := json.Unmarshal(raw, &note); err != nil {
			logger.Warnf("[Chain] unparseable message: %v", err)
			continue
		}
		if note.Method != "logsNotification" {
			continue // subscription confirmations, pings
		}

		value := note.Params.Result.Value
		batch := services.TxLogs{
			Signature: value.Signature,
			Logs:      value.Logs,
			Slot:      note.Params.Result.Context.Slot,
		}
		if len(value.Err) > 0 && string(value.Err) != "null" {
			batch.Err = fmt.Errorf("transaction failed: %s", value.Err)
		}

		select {
		case s.out <- batch:
		case <-ctx.Done():
			return nil
		}
	}
}
