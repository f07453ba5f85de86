package store

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/npezzotti/study-rooms/internal/types"
)

// Palette is the fixed set of cursor colors handed out to whiteboard users.
var Palette = [30]string{
	"#FF6633", "#FFB399", "#FF33FF", "#FFFF99", "#00B3E6",
	"#E6B333", "#3366E6", "#999966", "#99FF99", "#B34D4D",
	"#80B300", "#809900", "#E6B3B3", "#6680B3", "#66991A",
	"#FF99E6", "#CCFF1A", "#FF1A66", "#E6331A", "#33FFCC",
	"#66994D", "#B366CC", "#4D8000", "#B33300", "#CC80CC",
	"#66664D", "#991AFF", "#E666FF", "#4DB3FF", "#1AB399",
}

type Whiteboard struct {
	Lines []types.Line
	Users map[string]*types.WhiteboardUser
}

// Snapshot returns a deep copy of the board in its wire representation.
func (w *Whiteboard) Snapshot() types.Whiteboard {
	lines := make([]types.Line, len(w.Lines))
	for i, l := range w.Lines {
		l.Points = slices.Clone(l.Points)
		lines[i] = l
	}

	users := make(map[string]types.WhiteboardUser, len(w.Users))
	for id, u := range w.Users {
		users[id] = *u
	}

	return types.Whiteboard{Lines: lines, Users: users}
}

// WhiteboardStore maps room ids to drawing state. Like RoomStore it is owned
// by a single goroutine.
type WhiteboardStore struct {
	boards orderedMap[*Whiteboard]
	intn   func(n int) int
}

func NewWhiteboardStore() *WhiteboardStore {
	return &WhiteboardStore{
		boards: newOrderedMap[*Whiteboard](),
		intn:   rand.IntN,
	}
}

func (s *WhiteboardStore) Get(id string) (*Whiteboard, bool) {
	return s.boards.get(id)
}

func (s *WhiteboardStore) GetOrCreate(id string) *Whiteboard {
	if b, ok := s.boards.get(id); ok {
		return b
	}

	b := &Whiteboard{
		Lines: []types.Line{},
		Users: make(map[string]*types.WhiteboardUser),
	}
	s.boards.set(id, b)
	return b
}

// AddUser creates or replaces the entry for connId on the board, creating the
// board if needed. The name is ordinal by the number of users already present.
func (s *WhiteboardStore) AddUser(id, connId string) types.WhiteboardUser {
	b := s.GetOrCreate(id)
	u := &types.WhiteboardUser{
		Id:    connId,
		Color: Palette[s.intn(len(Palette))],
		Name:  fmt.Sprintf("User %d", len(b.Users)+1),
	}
	b.Users[connId] = u
	return *u
}

// RemoveUser deletes connId from the board and deletes the board once it has
// no users left.
func (s *WhiteboardStore) RemoveUser(id, connId string) (removed, deleted bool) {
	b, ok := s.boards.get(id)
	if !ok {
		return false, false
	}
	if _, ok := b.Users[connId]; !ok {
		return false, false
	}

	delete(b.Users, connId)
	if len(b.Users) == 0 {
		s.boards.delete(id)
		return true, true
	}
	return true, false
}

// AppendLine reports false without effect when the board does not exist.
func (s *WhiteboardStore) AppendLine(id string, line types.Line) bool {
	b, ok := s.boards.get(id)
	if !ok {
		return false
	}
	b.Lines = append(b.Lines, line)
	return true
}

func (s *WhiteboardStore) ClearLines(id string) bool {
	b, ok := s.boards.get(id)
	if !ok {
		return false
	}
	b.Lines = []types.Line{}
	return true
}

// SetCursor requires both the board and the user entry to exist.
func (s *WhiteboardStore) SetCursor(id, connId string, pos types.Point) bool {
	b, ok := s.boards.get(id)
	if !ok {
		return false
	}
	u, ok := b.Users[connId]
	if !ok {
		return false
	}
	u.Position = pos
	return true
}

// BoardsWith returns the ids of boards where connId has a user entry.
func (s *WhiteboardStore) BoardsWith(connId string) []string {
	var ids []string
	s.boards.each(func(id string, b *Whiteboard) {
		if _, ok := b.Users[connId]; ok {
			ids = append(ids, id)
		}
	})
	return ids
}

func (s *WhiteboardStore) Len() int {
	return s.boards.len()
}
