package server

import (
	"testing"

	"github.com/npezzotti/study-rooms/internal/store"
	"github.com/npezzotti/study-rooms/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_handleJoinWhiteboard(t *testing.T) {
	tcases := []struct {
		name string
		data any
	}{
		{name: "bare room id", data: "board"},
		{name: "object payload", data: RoomLeave{RoomId: "board"}},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			rs, su := newTestRoomServer(t)
			c1 := newTestClient(rs, "c1")
			c2 := newTestClient(rs, "c2")

			sendEvent(t, rs, c1, EventJoinWhiteboard, tc.data)

			msgs := drain(c1)
			require.Len(t, msgs, 1)
			assert.Equal(t, EventCurrentWhiteboard, msgs[0].Event)
			snap := msgs[0].Data.(types.Whiteboard)
			assert.Empty(t, snap.Lines)
			require.Contains(t, snap.Users, "c1")
			assert.Equal(t, "User 1", snap.Users["c1"].Name)
			su.AssertCalled(t, "Incr", metricWhiteboards)

			sendEvent(t, rs, c2, EventJoinWhiteboard, tc.data)

			c1msgs := drain(c1)
			require.Len(t, c1msgs, 1, "expected existing user to be told about the joiner")
			assert.Equal(t, EventUserJoined, c1msgs[0].Event)
			joined := c1msgs[0].Data.(types.WhiteboardUser)
			assert.Equal(t, "c2", joined.Id)
			assert.Equal(t, "User 2", joined.Name)
			assert.Contains(t, store.Palette[:], joined.Color)

			c2msgs := drain(c2)
			assert.Equal(t, []string{EventCurrentWhiteboard}, eventNames(c2msgs), "expected joiner not to receive its own userJoined")
			assert.Len(t, c2msgs[0].Data.(types.Whiteboard).Users, 2)
		})
	}
}

func Test_handleJoinWhiteboard_Malformed(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	c := newTestClient(rs, "c1")

	sendEvent(t, rs, c, EventJoinWhiteboard, 42)

	assert.Equal(t, []*ServerMessage{ErrInvalidMessage()}, drain(c))
	assert.Equal(t, 0, rs.whiteboards.Len())
}

func Test_handleDraw(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	c1 := newTestClient(rs, "c1")
	c2 := newTestClient(rs, "c2")
	sendEvent(t, rs, c1, EventJoinWhiteboard, "board")
	sendEvent(t, rs, c2, EventJoinWhiteboard, "board")
	drain(c1)
	drain(c2)

	line := types.Line{
		Points:    []types.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
		Color:     "#000000",
		BrushSize: 5,
		UserId:    "c1",
	}
	sendEvent(t, rs, c1, EventDraw, Draw{RoomId: "board", Line: line})

	assert.Empty(t, drain(c1), "expected drawer not to receive its own line")
	assert.Equal(t, []*ServerMessage{{Event: EventDraw, Data: line}}, drain(c2))

	board, _ := rs.whiteboards.Get("board")
	assert.Equal(t, []types.Line{line}, board.Lines)
}

func Test_handleDraw_UnknownBoard(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	c1 := newTestClient(rs, "c1")
	c2 := newTestClient(rs, "c2")
	// share a scope through a chat room only
	sendEvent(t, rs, c1, EventRoomJoin, RoomJoin{RoomId: "r1"})
	sendEvent(t, rs, c2, EventRoomJoin, RoomJoin{RoomId: "r1"})
	drain(c1)
	drain(c2)

	sendEvent(t, rs, c1, EventDraw, Draw{RoomId: "r1", Line: types.Line{Color: "#fff"}})

	assert.Empty(t, drain(c2), "expected draw on a missing board not to be relayed")
	assert.Equal(t, 0, rs.whiteboards.Len(), "expected draw not to create a board")
}

func Test_handleClearWhiteboard(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	c1 := newTestClient(rs, "c1")
	c2 := newTestClient(rs, "c2")
	sendEvent(t, rs, c1, EventJoinWhiteboard, "board")
	sendEvent(t, rs, c2, EventJoinWhiteboard, "board")
	sendEvent(t, rs, c1, EventDraw, Draw{RoomId: "board", Line: types.Line{Color: "#111"}})
	sendEvent(t, rs, c2, EventDraw, Draw{RoomId: "board", Line: types.Line{Color: "#222"}})
	drain(c1)
	drain(c2)

	sendEvent(t, rs, c2, EventClearWhiteboard, "board")

	cleared := []*ServerMessage{{Event: EventWhiteboardCleared}}
	assert.Equal(t, cleared, drain(c1))
	assert.Equal(t, cleared, drain(c2), "expected clearer to receive the clear too")

	late := newTestClient(rs, "c3")
	sendEvent(t, rs, late, EventJoinWhiteboard, "board")
	msgs := drain(late)
	require.Len(t, msgs, 1)
	snap := msgs[0].Data.(types.Whiteboard)
	assert.NotNil(t, snap.Lines)
	assert.Empty(t, snap.Lines, "expected late joiner to see a cleared board")
	assert.Len(t, snap.Users, 3)
}

func Test_handleClearWhiteboard_UnknownBoard(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	c := newTestClient(rs, "c1")

	sendEvent(t, rs, c, EventClearWhiteboard, RoomLeave{RoomId: "missing"})

	assert.Empty(t, drain(c))
	assert.Equal(t, 0, rs.whiteboards.Len())
}

func Test_handleCursorPosition(t *testing.T) {
	rs, _ := newTestRoomServer(t)
	c1 := newTestClient(rs, "c1")
	c2 := newTestClient(rs, "c2")
	sendEvent(t, rs, c1, EventJoinWhiteboard, "board")
	sendEvent(t, rs, c2, EventJoinWhiteboard, "board")
	drain(c1)
	drain(c2)

	pos := types.Point{X: 10.5, Y: 20}
	sendEvent(t, rs, c1, EventCursorPosition, CursorPosition{RoomId: "board", Position: pos})

	assert.Empty(t, drain(c1))
	assert.Equal(t, []*ServerMessage{
		{Event: EventUserCursorPosition, Data: CursorMove{UserId: "c1", Position: pos}},
	}, drain(c2))

	board, _ := rs.whiteboards.Get("board")
	assert.Equal(t, pos, board.Users["c1"].Position)
}

func Test_handleCursorPosition_NotAUser(t *testing.T) {
	tcases := []struct {
		name   string
		roomId string
	}{
		{name: "board missing", roomId: "missing"},
		{name: "user missing", roomId: "board"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			rs, _ := newTestRoomServer(t)
			member := newTestClient(rs, "c1")
			stranger := newTestClient(rs, "c2")
			sendEvent(t, rs, member, EventJoinWhiteboard, "board")
			drain(member)

			sendEvent(t, rs, stranger, EventCursorPosition, CursorPosition{RoomId: tc.roomId, Position: types.Point{X: 1, Y: 1}})

			assert.Empty(t, drain(member))
			board, _ := rs.whiteboards.Get("board")
			assert.NotContains(t, board.Users, "c2")
		})
	}
}
