package server

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/npezzotti/study-rooms/internal/types"
)

// Inbound event names.
const (
	EventJoinStudyRoom   = "joinStudyRoom"
	EventRoomJoin        = "room:join"
	EventRoomLeave       = "room:leave"
	EventChatMessage     = "chat:message"
	EventChatTyping      = "chat:typing"
	EventMediaState      = "media:state"
	EventJoinWhiteboard  = "joinRoom"
	EventDraw            = "draw"
	EventClearWhiteboard = "clearWhiteboard"
	EventCursorPosition  = "cursorPosition"
)

// Outbound event names that differ from their inbound counterpart.
const (
	EventParticipantJoined  = "participantJoined"
	EventParticipantLeft    = "participantLeft"
	EventRoomJoined         = "roomJoined"
	EventRoomPresence       = "room:presence"
	EventRoomUserJoined     = "room:user-joined"
	EventRoomUserLeft       = "room:user-left"
	EventCurrentWhiteboard  = "currentWhiteboard"
	EventUserJoined         = "userJoined"
	EventUserLeft           = "userLeft"
	EventWhiteboardCleared  = "whiteboardCleared"
	EventUserCursorPosition = "userCursorPosition"
	EventError              = "error"
)

// ClientMessage is a frame received from a websocket client.
type ClientMessage struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	client *Client
	closed bool
}

// ServerMessage is a frame queued for a websocket client.
type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type JoinStudyRoom struct {
	RoomId   string `json:"roomId"`
	UserName string `json:"userName"`
}

type RoomJoin struct {
	RoomId   string `json:"roomId"`
	Username string `json:"username"`
}

type RoomLeave struct {
	RoomId string `json:"roomId"`
}

type ChatMessage struct {
	RoomId  string            `json:"roomId"`
	Message types.ChatMessage `json:"message"`
}

type ChatTyping struct {
	RoomId   string `json:"roomId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type MediaState struct {
	RoomId string `json:"roomId"`
	Audio  bool   `json:"audio"`
	Video  bool   `json:"video"`
	Screen bool   `json:"screen"`
}

type Draw struct {
	RoomId string     `json:"roomId"`
	Line   types.Line `json:"line"`
}

type CursorPosition struct {
	RoomId   string      `json:"roomId"`
	Position types.Point `json:"position"`
}

type RoomJoined struct {
	RoomId       string              `json:"roomId"`
	Participants []types.Participant `json:"participants"`
}

type UserPresence struct {
	UserId   string `json:"userId"`
	Username string `json:"username"`
}

type Typing struct {
	UserId   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type MediaStateChange struct {
	UserId string `json:"userId"`
	Audio  bool   `json:"audio"`
	Video  bool   `json:"video"`
	Screen bool   `json:"screen"`
}

type CursorMove struct {
	UserId   string      `json:"userId"`
	Position types.Point `json:"position"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// decodeRoomId accepts the bare room id string sent with joinRoom and
// clearWhiteboard, or an object carrying roomId.
func decodeRoomId(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var v RoomLeave
		if err := json.Unmarshal(raw, &v); err != nil {
			return "", err
		}
		return v.RoomId, nil
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", err
	}
	return id, nil
}

func ErrInvalidMessage() *ServerMessage {
	return &ServerMessage{
		Event: EventError,
		Data:  ErrorMessage{Message: "invalid message format"},
	}
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// NowMillis returns the current time in epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
