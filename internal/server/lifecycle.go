package server

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errMalformed              = errors.New("malformed payload")
	errEmptyRoomId            = errors.New("empty room id")
	errRoomNotFound           = errors.New("room not found")
	errParticipantNotFound    = errors.New("participant not found")
	errWhiteboardNotFound     = errors.New("whiteboard not found")
	errWhiteboardUserNotFound = errors.New("whiteboard user not found")
)

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

// disconnect removes every trace of c from both stores and the registry.
// Each affected room or whiteboard gets one left notification, and any that
// become empty are deleted.
func (rs *RoomServer) disconnect(c *Client) {
	rs.log.Printf("client %q disconnected", c.id)

	for _, id := range rs.whiteboards.BoardsWith(c.id) {
		_, deleted := rs.whiteboards.RemoveUser(id, c.id)
		rs.broadcast(id, &ServerMessage{Event: EventUserLeft, Data: c.id}, c)
		if deleted {
			rs.log.Printf("whiteboard %q is empty, removing", id)
			rs.stats.Decr(metricWhiteboards)
		}
	}

	for _, id := range rs.rooms.RoomsWith(c.id) {
		room, _ := rs.rooms.Get(id)
		room.RemoveParticipant(c.id)
		rs.broadcast(id, &ServerMessage{Event: EventParticipantLeft, Data: c.id}, c)
		rs.broadcast(id, presenceMessage(room), c)
		rs.removeRoomIfEmpty(room)
	}

	rs.registry.remove(c)
	rs.stats.Decr(metricActiveClients)
}
