package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishReachesTopicSubscribers(t *testing.T) {
	hub, srv := startHub(t)
	quotes := dial(t, srv, "?topic=quotes")
	tracking := dial(t, srv, "?topic=tracking")
	all := dial(t, srv, "")

	assert.Eventually(t, func() bool { return hub.ClientCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(TopicQuotes, map[string]any{"quote_id": "q-1", "total_fare": 7.0}))

	for _, conn := range []*websocket.Conn{quotes, all} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, TopicQuotes, msg.Topic)
		assert.JSONEq(t, `{"quote_id":"q-1","total_fare":7}`, string(msg.Data))
	}

	require.NoError(t, tracking.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := tracking.ReadMessage()
	assert.Error(t, err, "tracking subscriber must not receive quote messages")
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "?topic=tracking,quotes")
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishDoesNotBlockWithoutRunLoop(t *testing.T) {
	hub := NewHub(nil)
	var err error
	for i := 0; i < 300; i++ {
		if err = hub.Publish(TopicTracking, i); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, ErrBacklog)
}
