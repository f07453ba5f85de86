package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/study-rooms/internal/testutil"
	"github.com/npezzotti/study-rooms/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_queueMessage(t *testing.T) {
	t.Run("wakes the write pump", func(t *testing.T) {
		c := &Client{ready: make(chan struct{}, 1)}

		c.queueMessage(&ServerMessage{Event: "a"})
		c.queueMessage(&ServerMessage{Event: "b"})

		select {
		case <-c.ready:
		default:
			t.Error("expected ready to be signalled")
		}
		assert.Equal(t, []string{"a", "b"}, eventNames(c.takeQueued()))
		assert.Empty(t, c.takeQueued(), "expected outbox to be emptied")
	})
	t.Run("never drops", func(t *testing.T) {
		c := &Client{ready: make(chan struct{}, 1)}

		for i := 0; i < 5000; i++ {
			c.queueMessage(&ServerMessage{Event: fmt.Sprint(i)})
		}

		msgs := c.takeQueued()
		require.Len(t, msgs, 5000)
		assert.Equal(t, "0", msgs[0].Event)
		assert.Equal(t, "4999", msgs[4999].Event)
	})
}

func Test_stopClient(t *testing.T) {
	c := &Client{stop: make(chan struct{})}

	assert.NotPanics(t, func() {
		c.stopClient()
		c.stopClient()
	}, "expected repeated stops not to panic")

	select {
	case <-c.stop:
	default:
		t.Error("expected stop channel to be closed")
	}
}

func TestNewClient(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	logger := testutil.TestLogger(t)

	c := NewClient("abc", nil, rs, logger)

	assert.Equal(t, "abc", c.Id())
	assert.Same(t, rs, c.server)
	assert.Equal(t, logger, c.log)
	assert.Equal(t, 1, cap(c.ready))
	assert.NotNil(t, c.stop)
}

// serveTestClients upgrades every request and runs the client pumps against rs.
func serveTestClients(t *testing.T, rs *RoomServer) *httptest.Server {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}

		c := NewClient(r.URL.Query().Get("id"), conn, rs, rs.log)
		if !rs.RegisterClient(c) {
			conn.Close()
			return
		}
		go c.Write()
		go c.Read()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialTestClient(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?id=" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "failed to dial test server")
	t.Cleanup(func() { conn.Close() })
	return conn
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// field decodes the data object and returns one of its string fields.
func (m inbound) field(t *testing.T, key string) string {
	t.Helper()
	var obj map[string]any
	require.NoError(t, json.Unmarshal(m.Data, &obj), "expected %s data to be an object", m.Event)
	s, _ := obj[key].(string)
	return s
}

func readEvent(t *testing.T, conn *websocket.Conn) inbound {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg inbound
	require.NoError(t, conn.ReadJSON(&msg), "failed to read event")
	return msg
}

func TestClient_Pumps(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	go rs.Run()
	defer rs.Shutdown(context.Background())

	srv := serveTestClients(t, rs)
	ann := dialTestClient(t, srv, "ann")
	bob := dialTestClient(t, srv, "bob")

	require.NoError(t, ann.WriteJSON(map[string]any{
		"event": EventRoomJoin,
		"data":  RoomJoin{RoomId: "r1", Username: "ann"},
	}))
	assert.Equal(t, EventRoomPresence, readEvent(t, ann).Event)

	require.NoError(t, bob.WriteJSON(map[string]any{
		"event": EventRoomJoin,
		"data":  RoomJoin{RoomId: "r1", Username: "bob"},
	}))
	assert.Equal(t, EventRoomPresence, readEvent(t, bob).Event)
	assert.Equal(t, EventRoomPresence, readEvent(t, ann).Event)
	joined := readEvent(t, ann)
	assert.Equal(t, EventRoomUserJoined, joined.Event)
	assert.Equal(t, "bob", joined.field(t, "userId"))

	require.NoError(t, ann.WriteJSON(map[string]any{
		"event": EventChatMessage,
		"data":  ChatMessage{RoomId: "r1", Message: types.ChatMessage{Id: "m1", Message: "hello", Timestamp: 1}},
	}))
	chat := readEvent(t, bob)
	assert.Equal(t, EventChatMessage, chat.Event)
	assert.Equal(t, "hello", chat.field(t, "message"))
	assert.Equal(t, "ann", chat.field(t, "userId"))
	assert.Equal(t, EventChatMessage, readEvent(t, ann).Event)

	t.Run("malformed frame", func(t *testing.T) {
		require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte("not json")))
		msg := readEvent(t, bob)
		assert.Equal(t, EventError, msg.Event)
		assert.Equal(t, "invalid message format", msg.field(t, "message"))
	})

	t.Run("disconnect notifies remaining members", func(t *testing.T) {
		require.NoError(t, bob.Close())

		left := readEvent(t, ann)
		assert.Equal(t, EventParticipantLeft, left.Event)
		assert.Equal(t, EventRoomPresence, readEvent(t, ann).Event)
	})
}

func joinOverSocket(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func TestClient_LongHistoryReplay(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	go rs.Run()
	defer rs.Shutdown(context.Background())

	srv := serveTestClients(t, rs)
	ann := dialTestClient(t, srv, "ann")

	joinOverSocket(t, ann, EventRoomJoin, RoomJoin{RoomId: "r1", Username: "ann"})
	assert.Equal(t, EventRoomPresence, readEvent(t, ann).Event)

	const n = 400
	for i := 0; i < n; i++ {
		require.NoError(t, ann.WriteJSON(map[string]any{
			"event": EventChatMessage,
			"data":  ChatMessage{RoomId: "r1", Message: types.ChatMessage{Id: fmt.Sprintf("m%d", i), Message: "hi", Timestamp: 1}},
		}))
	}
	for i := 0; i < n; i++ {
		require.Equal(t, EventChatMessage, readEvent(t, ann).Event)
	}

	bob := dialTestClient(t, srv, "bob")
	joinOverSocket(t, bob, EventRoomJoin, RoomJoin{RoomId: "r1", Username: "bob"})

	for i := 0; i < n; i++ {
		msg := readEvent(t, bob)
		require.Equal(t, EventChatMessage, msg.Event, "message %d", i)
		require.Equal(t, fmt.Sprintf("m%d", i), msg.field(t, "id"))
	}

	presence := readEvent(t, bob)
	require.Equal(t, EventRoomPresence, presence.Event)
	var participants []types.Participant
	require.NoError(t, json.Unmarshal(presence.Data, &participants))
	assert.Len(t, participants, 2)
}

func TestClient_LargeStroke(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	go rs.Run()
	defer rs.Shutdown(context.Background())

	srv := serveTestClients(t, rs)
	ann := dialTestClient(t, srv, "ann")
	bob := dialTestClient(t, srv, "bob")

	joinOverSocket(t, ann, EventJoinWhiteboard, "w")
	assert.Equal(t, EventCurrentWhiteboard, readEvent(t, ann).Event)
	joinOverSocket(t, bob, EventJoinWhiteboard, "w")
	assert.Equal(t, EventCurrentWhiteboard, readEvent(t, bob).Event)
	assert.Equal(t, EventUserJoined, readEvent(t, ann).Event)

	points := make([]types.Point, 20000)
	for i := range points {
		points[i] = types.Point{X: float64(i) + 0.25, Y: float64(i) + 0.75}
	}
	line := types.Line{Points: points, Color: "#000000", BrushSize: 3, UserId: "ann"}
	raw, err := json.Marshal(map[string]any{"event": EventDraw, "data": Draw{RoomId: "w", Line: line}})
	require.NoError(t, err)
	require.Greater(t, len(raw), 256*1024, "expected stroke frame well past the old read limit")
	require.NoError(t, ann.WriteMessage(websocket.TextMessage, raw))

	msg := readEvent(t, bob)
	require.Equal(t, EventDraw, msg.Event)
	var got types.Line
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Len(t, got.Points, len(points))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var stored int
	require.NoError(t, rs.exec(ctx, func() {
		board, _ := rs.whiteboards.Get("w")
		stored = len(board.Lines)
	}))
	assert.Equal(t, 1, stored, "expected stroke to be stored")
}

func TestClient_ShutdownClosesConnection(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	go rs.Run()

	srv := serveTestClients(t, rs)
	conn := dialTestClient(t, srv, "ann")

	// make sure the hub has registered the client before stopping
	require.NoError(t, conn.WriteJSON(map[string]any{"event": EventRoomJoin, "data": RoomJoin{RoomId: "r1"}}))
	readEvent(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rs.Shutdown(ctx))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "expected going away close, got %v", err)
}
