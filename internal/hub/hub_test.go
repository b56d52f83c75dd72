package hub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base-token-tracker/internal/domain"
)

// testFeed is a minimal stand-in for the relay store.
type testFeed struct {
	mu      sync.Mutex
	records []domain.TokenRecord
}

func (f *testFeed) add(rec domain.TokenRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append([]domain.TokenRecord{rec}, f.records...)
}

func (f *testFeed) snapshot() []domain.TokenRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.TokenRecord, len(f.records))
	copy(out, f.records)
	return out
}

func record(i int) domain.TokenRecord {
	return domain.TokenRecord{
		Contract:  fmt.Sprintf("0x%040x", i),
		Name:      fmt.Sprintf("Token%d", i),
		Timestamp: int64(i) * 1000,
	}
}

// wsEnvelope mirrors domain.Envelope with concrete data decoding.
type wsEnvelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func startHub(t *testing.T, feed *testFeed) (*Hub, string) {
	t.Helper()

	h := NewHub(feed.snapshot, nil)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		require.NoError(t, h.Subscribe(conn))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(h.Close)

	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env wsEnvelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestHub_InitialSnapshotOnSubscribe(t *testing.T) {
	feed := &testFeed{}
	h, url := startHub(t, feed)

	// Three records accepted and published before any subscriber exists.
	for i := 1; i <= 3; i++ {
		feed.add(record(i))
		h.Publish(record(i))
	}

	conn := dial(t, url)

	env := readEnvelope(t, conn)
	assert.Equal(t, domain.TypeInitialTokens, env.Type)

	var records []domain.TokenRecord
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 3)
	assert.Equal(t, "Token3", records[0].Name, "snapshot must be newest-first")
	assert.Equal(t, "Token1", records[2].Name)

	// No replay of events published before the subscribe call.
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "expected no message beyond the initial snapshot")
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	feed := &testFeed{}
	h, url := startHub(t, feed)

	connA := dial(t, url)
	connB := dial(t, url)
	readEnvelope(t, connA) // initial snapshots
	readEnvelope(t, connB)

	rec := record(7)
	h.Publish(rec)

	for _, conn := range []*websocket.Conn{connA, connB} {
		env := readEnvelope(t, conn)
		assert.Equal(t, domain.TypeNewToken, env.Type)

		var got domain.TokenRecord
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, rec.Contract, got.Contract)
	}
}

func TestHub_PerConnectionOrdering(t *testing.T) {
	feed := &testFeed{}
	h, url := startHub(t, feed)

	conn := dial(t, url)
	env := readEnvelope(t, conn)
	require.Equal(t, domain.TypeInitialTokens, env.Type, "snapshot must precede events")

	for i := 1; i <= 5; i++ {
		h.Publish(record(i))
	}

	for i := 1; i <= 5; i++ {
		env := readEnvelope(t, conn)
		require.Equal(t, domain.TypeNewToken, env.Type)

		var got domain.TokenRecord
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, fmt.Sprintf("Token%d", i), got.Name)
	}
}

func TestHub_ClosedConnectionDoesNotBlockOthers(t *testing.T) {
	feed := &testFeed{}
	h, url := startHub(t, feed)

	connA := dial(t, url)
	connB := dial(t, url)
	readEnvelope(t, connA)
	readEnvelope(t, connB)

	connA.Close()

	// Publishing must still reach the healthy subscriber promptly.
	rec := record(9)
	h.Publish(rec)

	env := readEnvelope(t, connB)
	assert.Equal(t, domain.TypeNewToken, env.Type)
}

func TestHub_CountTracksSubscribers(t *testing.T) {
	feed := &testFeed{}
	h, url := startHub(t, feed)

	assert.Equal(t, 0, h.Count())

	conn := dial(t, url)
	readEnvelope(t, conn)
	assert.Equal(t, 1, h.Count())

	h.Close()
	assert.Equal(t, 0, h.Count())
}

func TestHub_SubscribeAfterCloseRejected(t *testing.T) {
	h := NewHub(func() []domain.TokenRecord { return nil }, nil)
	h.Close()

	upgrader := websocket.Upgrader{}
	errCh := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		errCh <- h.Subscribe(conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case subErr := <-errCh:
		assert.ErrorIs(t, subErr, ErrHubClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe result never arrived")
	}
	assert.Equal(t, 0, h.Count())
}
