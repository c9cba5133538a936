package chain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/bellapacxx/roulette-backend/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEndpoint starts a fake RPC websocket server and returns its ws://
// address. handle runs once per connection after the upgrade.
func wsEndpoint(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSubscribeOnceDeliversNotifications(t *testing.T) {
	endpoint := wsEndpoint(t, func(conn *websocket.Conn) {
		// the logsSubscribe request
		_, _, err := conn.ReadMessage()
		require.NoError(t, err)

		ok := `{"method":"logsNotification","params":{"result":{"context":{"slot":42},` +
			`"value":{"signature":"sig-ok","err":null,"logs":["Program data: AAAA"]}}}}`
		failed := `{"method":"logsNotification","params":{"result":{"context":{"slot":43},` +
			`"value":{"signature":"sig-bad","err":{"InstructionError":[0,"Custom"]},"logs":[]}}}}`
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(ok)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(failed)))
	})

	s := NewSubscriber(endpoint, "prog", "confirmed")
	go s.subscribeOnce(context.Background())

	readBatch := func() services.TxLogs {
		select {
		case batch := <-s.Logs():
			return batch
		case <-time.After(2 * time.Second):
			t.Fatal("no batch delivered")
			return services.TxLogs{}
		}
	}

	batch := readBatch()
	assert.Equal(t, "sig-ok", batch.Signature)
	assert.Equal(t, uint64(42), batch.Slot)
	assert.Equal(t, []string{"Program data: AAAA"}, batch.Logs)
	assert.NoError(t, batch.Err)

	batch = readBatch()
	assert.Equal(t, "sig-bad", batch.Signature)
	assert.Error(t, batch.Err)
}

// Every reconnect cycle tears its connection watcher down with it;
// a flapping endpoint must not accumulate goroutines.
func TestSubscribeOnceReapsWatcher(t *testing.T) {
	endpoint := wsEndpoint(t, func(conn *websocket.Conn) {
		// hang up right after the subscribe request
		conn.ReadMessage()
	})

	s := NewSubscriber(endpoint, "prog", "confirmed")
	ctx := context.Background()

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		err := s.subscribeOnce(ctx)
		require.Error(t, err)
	}

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+3
	}, 2*time.Second, 10*time.Millisecond, "connection watchers leaked")
}
