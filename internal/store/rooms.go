package store

import (
	"fmt"
	"slices"
	"time"

	"github.com/npezzotti/study-rooms/internal/types"
)

const (
	defaultRoomName     = "Study Room"
	defaultCreatedName  = "Untitled Room"
	defaultRoomSubject  = "General"
	createdRoomIdPrefix = "room_"
)

// Room is the authoritative state of a study/video room.
type Room struct {
	Id           string
	Name         string
	Subject      string
	Participants []types.Participant
	Messages     []types.ChatMessage
	CreatedAt    time.Time
}

// DefaultUsername returns the ordinal display name a participant joining now
// would get. Names are not unique once participants start leaving.
func (r *Room) DefaultUsername() string {
	return fmt.Sprintf("User %d", len(r.Participants)+1)
}

// AddParticipant appends p. Repeated joins from the same connection are kept
// as separate entries.
func (r *Room) AddParticipant(p types.Participant) {
	r.Participants = append(r.Participants, p)
}

// RemoveParticipant drops every entry for connId and returns the first one
// removed.
func (r *Room) RemoveParticipant(connId string) (types.Participant, bool) {
	idx := slices.IndexFunc(r.Participants, func(p types.Participant) bool { return p.Id == connId })
	if idx == -1 {
		return types.Participant{}, false
	}

	removed := r.Participants[idx]
	r.Participants = slices.DeleteFunc(r.Participants, func(p types.Participant) bool { return p.Id == connId })
	return removed, true
}

func (r *Room) HasParticipant(connId string) bool {
	return slices.ContainsFunc(r.Participants, func(p types.Participant) bool { return p.Id == connId })
}

// SetMedia updates the media flags of the first entry belonging to connId.
func (r *Room) SetMedia(connId string, audio, video, screen bool) bool {
	i := slices.IndexFunc(r.Participants, func(p types.Participant) bool { return p.Id == connId })
	if i < 0 {
		return false
	}
	r.Participants[i].Audio = audio
	r.Participants[i].Video = video
	r.Participants[i].Screen = screen
	return true
}

func (r *Room) AppendMessage(msg types.ChatMessage) {
	r.Messages = append(r.Messages, msg)
}

// ParticipantList returns a copy of the participant list safe to hand to
// other goroutines.
func (r *Room) ParticipantList() []types.Participant {
	list := make([]types.Participant, len(r.Participants))
	copy(list, r.Participants)
	return list
}

// History returns a copy of the stored messages in arrival order.
func (r *Room) History() []types.ChatMessage {
	return slices.Clone(r.Messages)
}

func (r *Room) Empty() bool {
	return len(r.Participants) == 0
}

// Snapshot converts the room to its wire representation.
func (r *Room) Snapshot() types.Room {
	return types.Room{
		Id:           r.Id,
		Name:         r.Name,
		Subject:      r.Subject,
		Participants: r.ParticipantList(),
		Messages:     r.History(),
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// RoomStore maps room ids to rooms. It is not safe for concurrent use; the
// hub goroutine owns it.
type RoomStore struct {
	rooms orderedMap[*Room]
	now   func() time.Time
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: newOrderedMap[*Room](),
		now:   time.Now,
	}
}

func (s *RoomStore) Get(id string) (*Room, bool) {
	return s.rooms.get(id)
}

// GetOrCreate returns the room with the given id, inserting a
// default-initialized room when none exists.
func (s *RoomStore) GetOrCreate(id string) *Room {
	if r, ok := s.rooms.get(id); ok {
		return r
	}

	r := &Room{
		Id:           id,
		Name:         defaultRoomName,
		Subject:      defaultRoomSubject,
		Participants: []types.Participant{},
		Messages:     []types.ChatMessage{},
		CreatedAt:    s.now(),
	}
	s.rooms.set(id, r)
	return r
}

// Create always inserts a fresh room with a room_<epoch-millis> id. Two calls
// within the same millisecond yield the same id and the second replaces the
// first.
func (s *RoomStore) Create(name, subject string) (string, *Room) {
	if name == "" {
		name = defaultCreatedName
	}
	if subject == "" {
		subject = defaultRoomSubject
	}

	now := s.now()
	id := fmt.Sprintf("%s%d", createdRoomIdPrefix, now.UnixMilli())
	r := &Room{
		Id:           id,
		Name:         name,
		Subject:      subject,
		Participants: []types.Participant{},
		Messages:     []types.ChatMessage{},
		CreatedAt:    now,
	}
	s.rooms.set(id, r)
	return id, r
}

// List returns a snapshot of every room in creation order.
func (s *RoomStore) List() []types.Room {
	list := make([]types.Room, 0, s.rooms.len())
	s.rooms.each(func(_ string, r *Room) {
		snap := r.Snapshot()
		count := len(r.Participants)
		snap.ParticipantCount = &count
		list = append(list, snap)
	})
	return list
}

func (s *RoomStore) Remove(id string) {
	s.rooms.delete(id)
}

// RoomsWith returns the ids of rooms where connId has a participant entry.
func (s *RoomStore) RoomsWith(connId string) []string {
	var ids []string
	s.rooms.each(func(id string, r *Room) {
		if r.HasParticipant(connId) {
			ids = append(ids, id)
		}
	})
	return ids
}

func (s *RoomStore) Len() int {
	return s.rooms.len()
}
