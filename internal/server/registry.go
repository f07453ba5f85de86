package server

import (
	"fmt"
	"maps"
	"slices"

	"github.com/teris-io/shortid"
)

// Registry tracks live connections and the broadcast scopes they have
// joined. A scope is the set of connections addressed by events for one room
// id; it is independent of store membership. Owned by the hub goroutine.
type Registry struct {
	clients map[string]*Client
	scopes  map[string]map[*Client]struct{}
	joined  map[*Client]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		scopes:  make(map[string]map[*Client]struct{}),
		joined:  make(map[*Client]map[string]struct{}),
	}
}

// NewConnectionId returns a process-unique connection identifier.
func NewConnectionId() (string, error) {
	id, err := shortid.Generate()
	if err != nil {
		return "", fmt.Errorf("generate connection id: %w", err)
	}
	return id, nil
}

func (r *Registry) add(c *Client) {
	r.clients[c.id] = c
	r.joined[c] = make(map[string]struct{})
}

// remove drops the client and every scope it belonged to, returning the
// room ids it was subscribed to.
func (r *Registry) remove(c *Client) []string {
	rooms := r.roomsOf(c)
	for _, id := range rooms {
		r.unsubscribe(id, c)
	}
	delete(r.joined, c)
	delete(r.clients, c.id)
	return rooms
}

func (r *Registry) subscribe(roomId string, c *Client) {
	if r.scopes[roomId] == nil {
		r.scopes[roomId] = make(map[*Client]struct{})
	}
	r.scopes[roomId][c] = struct{}{}

	if r.joined[c] == nil {
		r.joined[c] = make(map[string]struct{})
	}
	r.joined[c][roomId] = struct{}{}
}

func (r *Registry) unsubscribe(roomId string, c *Client) {
	if members, ok := r.scopes[roomId]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.scopes, roomId)
		}
	}
	if rooms, ok := r.joined[c]; ok {
		delete(rooms, roomId)
	}
}

func (r *Registry) members(roomId string) map[*Client]struct{} {
	return r.scopes[roomId]
}

func (r *Registry) isMember(roomId string, c *Client) bool {
	_, ok := r.scopes[roomId][c]
	return ok
}

func (r *Registry) roomsOf(c *Client) []string {
	return slices.Sorted(maps.Keys(r.joined[c]))
}

func (r *Registry) len() int {
	return len(r.clients)
}
