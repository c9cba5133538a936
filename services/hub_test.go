package services

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialTestHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", HandleWebSocket(hub))
	srv := httptest.NewServer(r)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn, srv.Close
}

func TestBroadcastReachesClient(t *testing.T) {
	hub := NewHub()
	conn, shutdown := dialTestHub(t, hub)
	defer shutdown()
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	hub.Broadcast(TopicRoundStarted, map[string]interface{}{"round": 7})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), TopicRoundStarted)
	require.Contains(t, string(msg), `"round":7`)
}

// A client dropping mid-broadcast must never take the broadcaster
// down: the settler and listener call Broadcast from their own
// goroutines and a panic there is fatal to the whole process.
func TestBroadcastDuringDisconnect(t *testing.T) {
	hub := NewHub()
	conn, shutdown := dialTestHub(t, hub)
	defer shutdown()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			hub.Broadcast(TopicNewBets, map[string]interface{}{"seq": i})
		}
	}()

	// race the disconnect against the broadcast loop
	conn.Close()
	<-done

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 5*time.Millisecond)

	// broadcasting into an empty hub is a no-op
	hub.Broadcast(TopicWinningsCalculated, map[string]interface{}{"round": 1})
}

func TestTrySendAfterClose(t *testing.T) {
	c := &Client{id: "c", send: make(chan []byte, 1)}

	c.mu.Lock()
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	require.False(t, c.trySend([]byte("late")))
}
