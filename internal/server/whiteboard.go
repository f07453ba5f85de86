package server

import (
	"encoding/json"
	"fmt"
)

func (rs *RoomServer) handleJoinWhiteboard(c *Client, data json.RawMessage) error {
	roomId, err := decodeRoomId(data)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if roomId == "" {
		return errEmptyRoomId
	}

	rs.registry.subscribe(roomId, c)
	if _, ok := rs.whiteboards.Get(roomId); !ok {
		rs.log.Printf("creating whiteboard %q", roomId)
		rs.stats.Incr(metricWhiteboards)
	}

	user := rs.whiteboards.AddUser(roomId, c.id)
	rs.log.Printf("%q joined whiteboard %q as %s", c.id, roomId, user.Name)

	board, _ := rs.whiteboards.Get(roomId)
	c.queueMessage(&ServerMessage{Event: EventCurrentWhiteboard, Data: board.Snapshot()})
	rs.broadcast(roomId, &ServerMessage{Event: EventUserJoined, Data: user}, c)
	return nil
}

func (rs *RoomServer) handleDraw(c *Client, data json.RawMessage) error {
	var draw Draw
	if err := decode(data, &draw); err != nil {
		return err
	}

	if !rs.whiteboards.AppendLine(draw.RoomId, draw.Line) {
		return fmt.Errorf("%w: %q", errWhiteboardNotFound, draw.RoomId)
	}

	rs.broadcast(draw.RoomId, &ServerMessage{Event: EventDraw, Data: draw.Line}, c)
	return nil
}

func (rs *RoomServer) handleClearWhiteboard(c *Client, data json.RawMessage) error {
	roomId, err := decodeRoomId(data)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	if !rs.whiteboards.ClearLines(roomId) {
		return fmt.Errorf("%w: %q", errWhiteboardNotFound, roomId)
	}
	rs.log.Printf("%q cleared whiteboard %q", c.id, roomId)

	rs.broadcast(roomId, &ServerMessage{Event: EventWhiteboardCleared}, nil)
	return nil
}

func (rs *RoomServer) handleCursorPosition(c *Client, data json.RawMessage) error {
	var cursor CursorPosition
	if err := decode(data, &cursor); err != nil {
		return err
	}

	if !rs.whiteboards.SetCursor(cursor.RoomId, c.id, cursor.Position) {
		return fmt.Errorf("%w: %q in %q", errWhiteboardUserNotFound, c.id, cursor.RoomId)
	}

	rs.broadcast(cursor.RoomId, &ServerMessage{
		Event: EventUserCursorPosition,
		Data:  CursorMove{UserId: c.id, Position: cursor.Position},
	}, c)
	return nil
}
