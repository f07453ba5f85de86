package server

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/npezzotti/study-rooms/internal/store"
	"github.com/npezzotti/study-rooms/internal/types"
)

func newParticipant(connId, username string) types.Participant {
	return types.Participant{
		Id:       connId,
		Username: username,
		Audio:    true,
		Video:    true,
		Screen:   false,
	}
}

func (rs *RoomServer) handleJoinStudyRoom(c *Client, data json.RawMessage) error {
	var join JoinStudyRoom
	if err := decode(data, &join); err != nil {
		return err
	}
	if join.RoomId == "" {
		return errEmptyRoomId
	}

	rs.registry.subscribe(join.RoomId, c)
	room := rs.getOrCreateRoom(join.RoomId)

	username := join.UserName
	if username == "" {
		username = room.DefaultUsername()
	}
	p := newParticipant(c.id, username)
	room.AddParticipant(p)
	rs.log.Printf("%q (%s) joined study room %q", c.id, username, room.Id)

	rs.broadcast(room.Id, &ServerMessage{Event: EventParticipantJoined, Data: p}, nil)
	c.queueMessage(&ServerMessage{
		Event: EventRoomJoined,
		Data: RoomJoined{
			RoomId:       room.Id,
			Participants: room.ParticipantList(),
		},
	})
	return nil
}

func (rs *RoomServer) handleRoomJoin(c *Client, data json.RawMessage) error {
	var join RoomJoin
	if err := decode(data, &join); err != nil {
		return err
	}
	if join.RoomId == "" {
		return errEmptyRoomId
	}

	rs.registry.subscribe(join.RoomId, c)
	room := rs.getOrCreateRoom(join.RoomId)

	username := join.Username
	if username == "" {
		username = room.DefaultUsername()
	}
	room.AddParticipant(newParticipant(c.id, username))
	rs.log.Printf("%q (%s) joined room %q", c.id, username, room.Id)

	// replay history to the joiner before anything else is queued for it
	for _, msg := range room.History() {
		c.queueMessage(&ServerMessage{Event: EventChatMessage, Data: msg})
	}

	rs.broadcast(room.Id, presenceMessage(room), nil)
	rs.broadcast(room.Id, &ServerMessage{
		Event: EventRoomUserJoined,
		Data:  UserPresence{UserId: c.id, Username: username},
	}, c)
	return nil
}

func (rs *RoomServer) handleRoomLeave(c *Client, data json.RawMessage) error {
	var leave RoomLeave
	if err := decode(data, &leave); err != nil {
		return err
	}
	if leave.RoomId == "" {
		return errEmptyRoomId
	}
	defer rs.registry.unsubscribe(leave.RoomId, c)

	room, ok := rs.rooms.Get(leave.RoomId)
	if !ok {
		return fmt.Errorf("%w: %q", errRoomNotFound, leave.RoomId)
	}

	p, ok := room.RemoveParticipant(c.id)
	if !ok {
		return fmt.Errorf("%w: %q in %q", errParticipantNotFound, c.id, room.Id)
	}
	rs.log.Printf("%q (%s) left room %q", c.id, p.Username, room.Id)

	rs.broadcast(room.Id, &ServerMessage{
		Event: EventRoomUserLeft,
		Data:  UserPresence{UserId: c.id, Username: p.Username},
	}, c)
	rs.broadcast(room.Id, presenceMessage(room), nil)
	rs.removeRoomIfEmpty(room)
	return nil
}

func (rs *RoomServer) handleChatMessage(c *Client, data json.RawMessage) error {
	var chat ChatMessage
	if err := decode(data, &chat); err != nil {
		return err
	}
	if chat.RoomId == "" {
		return errEmptyRoomId
	}

	msg := chat.Message
	msg.UserId = c.id
	if msg.Id == "" {
		msg.Id = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = NowMillis()
	}

	if room, ok := rs.rooms.Get(chat.RoomId); ok {
		room.AppendMessage(msg)
		rs.stats.Incr(metricMessages)
	} else {
		rs.log.Printf("chat message for unknown room %q not stored", chat.RoomId)
	}

	rs.broadcast(chat.RoomId, &ServerMessage{Event: EventChatMessage, Data: msg}, nil)
	return nil
}

func (rs *RoomServer) handleChatTyping(c *Client, data json.RawMessage) error {
	var typing ChatTyping
	if err := decode(data, &typing); err != nil {
		return err
	}
	if typing.RoomId == "" {
		return errEmptyRoomId
	}

	rs.broadcast(typing.RoomId, &ServerMessage{
		Event: EventChatTyping,
		Data: Typing{
			UserId:   c.id,
			Username: typing.Username,
			IsTyping: typing.IsTyping,
		},
	}, c)
	return nil
}

func (rs *RoomServer) handleMediaState(c *Client, data json.RawMessage) error {
	var state MediaState
	if err := decode(data, &state); err != nil {
		return err
	}
	if state.RoomId == "" {
		return errEmptyRoomId
	}

	room, ok := rs.rooms.Get(state.RoomId)
	if !ok {
		return fmt.Errorf("%w: %q", errRoomNotFound, state.RoomId)
	}
	if !room.SetMedia(c.id, state.Audio, state.Video, state.Screen) {
		return fmt.Errorf("%w: %q in %q", errParticipantNotFound, c.id, room.Id)
	}

	rs.broadcast(room.Id, &ServerMessage{
		Event: EventMediaState,
		Data: MediaStateChange{
			UserId: c.id,
			Audio:  state.Audio,
			Video:  state.Video,
			Screen: state.Screen,
		},
	}, nil)
	rs.broadcast(room.Id, presenceMessage(room), nil)
	return nil
}

func presenceMessage(room *store.Room) *ServerMessage {
	return &ServerMessage{Event: EventRoomPresence, Data: room.ParticipantList()}
}

func (rs *RoomServer) getOrCreateRoom(id string) *store.Room {
	if room, ok := rs.rooms.Get(id); ok {
		return room
	}

	rs.log.Printf("creating room %q", id)
	rs.stats.Incr(metricRooms)
	return rs.rooms.GetOrCreate(id)
}

func (rs *RoomServer) removeRoomIfEmpty(room *store.Room) {
	if !room.Empty() {
		return
	}

	rs.log.Printf("room %q is empty, removing", room.Id)
	rs.rooms.Remove(room.Id)
	rs.stats.Decr(metricRooms)
}
