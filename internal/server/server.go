package server

import (
	"context"
	"errors"
	"log"

	"github.com/npezzotti/study-rooms/internal/stats"
	"github.com/npezzotti/study-rooms/internal/store"
	"github.com/npezzotti/study-rooms/internal/types"
)

const (
	metricActiveClients = "NumActiveClients"
	metricRooms         = "NumRooms"
	metricWhiteboards   = "NumWhiteboards"
	metricMessages      = "NumMessages"
)

var ErrServerStopped = errors.New("room server stopped")

type stopReq struct {
	done chan struct{}
}

// task runs fn on the hub goroutine.
type task struct {
	fn   func()
	done chan struct{}
}

// RoomServer is the single serialization point for every store mutation.
// All inbound events, connection changes, and HTTP room queries are handled
// one at a time by Run.
type RoomServer struct {
	log          *log.Logger
	stats        stats.StatsProvider
	rooms        *store.RoomStore
	whiteboards  *store.WhiteboardStore
	registry     *Registry
	eventChan    chan *ClientMessage
	registerChan chan *Client
	taskChan     chan task
	stop         chan stopReq
	done         chan struct{}
}

func NewRoomServer(logger *log.Logger, rooms *store.RoomStore, whiteboards *store.WhiteboardStore, su stats.StatsProvider) *RoomServer {
	su.RegisterMetric(metricActiveClients)
	su.RegisterMetric(metricRooms)
	su.RegisterMetric(metricWhiteboards)
	su.RegisterMetric(metricMessages)

	return &RoomServer{
		log:          logger,
		stats:        su,
		rooms:        rooms,
		whiteboards:  whiteboards,
		registry:     NewRegistry(),
		eventChan:    make(chan *ClientMessage, 256),
		registerChan: make(chan *Client),
		taskChan:     make(chan task),
		stop:         make(chan stopReq),
		done:         make(chan struct{}),
	}
}

func (rs *RoomServer) Run() {
	for {
		select {
		case c := <-rs.registerChan:
			rs.addClient(c)
		case msg := <-rs.eventChan:
			rs.handleEvent(msg)
		case t := <-rs.taskChan:
			t.fn()
			close(t.done)
		case req := <-rs.stop:
			rs.log.Println("stopping room server")
			for _, c := range rs.registry.clients {
				c.stopClient()
			}
			close(rs.done)
			close(req.done)
			return
		}
	}
}

// Shutdown stops the hub and every client write pump.
func (rs *RoomServer) Shutdown(ctx context.Context) error {
	req := stopReq{done: make(chan struct{})}
	select {
	case rs.stop <- req:
	case <-rs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterClient hands a freshly upgraded connection to the hub.
func (rs *RoomServer) RegisterClient(c *Client) bool {
	select {
	case rs.registerChan <- c:
		return true
	case <-rs.done:
		return false
	}
}

// deregister travels on the event channel so it is handled after every
// event the client sent before closing.
func (rs *RoomServer) deregister(c *Client) {
	select {
	case rs.eventChan <- &ClientMessage{client: c, closed: true}:
	case <-rs.done:
	}
}

// dispatch queues an inbound event, blocking while the hub is busy. It
// reports false once the hub has stopped.
func (rs *RoomServer) dispatch(msg *ClientMessage) bool {
	select {
	case rs.eventChan <- msg:
		return true
	case <-rs.done:
		return false
	}
}

func (rs *RoomServer) exec(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case rs.taskChan <- t:
	case <-rs.done:
		return ErrServerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListRooms returns a snapshot of the room store.
func (rs *RoomServer) ListRooms(ctx context.Context) ([]types.Room, error) {
	var list []types.Room
	err := rs.exec(ctx, func() {
		list = rs.rooms.List()
	})
	return list, err
}

// CreateRoom always inserts a new room with a generated id.
func (rs *RoomServer) CreateRoom(ctx context.Context, name, subject string) (types.Room, error) {
	var room types.Room
	err := rs.exec(ctx, func() {
		room = rs.createRoom(name, subject)
	})
	return room, err
}

func (rs *RoomServer) createRoom(name, subject string) types.Room {
	before := rs.rooms.Len()
	id, r := rs.rooms.Create(name, subject)
	if rs.rooms.Len() > before {
		rs.stats.Incr(metricRooms)
	}
	rs.log.Printf("created room %q (%s / %s)", id, r.Name, r.Subject)
	return r.Snapshot()
}

func (rs *RoomServer) addClient(c *Client) {
	rs.registry.add(c)
	rs.stats.Incr(metricActiveClients)
	rs.log.Printf("client %q connected", c.id)
}

func (rs *RoomServer) handleEvent(msg *ClientMessage) {
	c := msg.client
	if msg.closed {
		rs.disconnect(c)
		return
	}

	var err error
	switch msg.Event {
	case EventJoinStudyRoom:
		err = rs.handleJoinStudyRoom(c, msg.Data)
	case EventRoomJoin:
		err = rs.handleRoomJoin(c, msg.Data)
	case EventRoomLeave:
		err = rs.handleRoomLeave(c, msg.Data)
	case EventChatMessage:
		err = rs.handleChatMessage(c, msg.Data)
	case EventChatTyping:
		err = rs.handleChatTyping(c, msg.Data)
	case EventMediaState:
		err = rs.handleMediaState(c, msg.Data)
	case EventJoinWhiteboard:
		err = rs.handleJoinWhiteboard(c, msg.Data)
	case EventDraw:
		err = rs.handleDraw(c, msg.Data)
	case EventClearWhiteboard:
		err = rs.handleClearWhiteboard(c, msg.Data)
	case EventCursorPosition:
		err = rs.handleCursorPosition(c, msg.Data)
	default:
		rs.log.Printf("unknown event %q from %q", msg.Event, c.id)
		return
	}

	if err != nil {
		rs.log.Printf("%s from %q: %v", msg.Event, c.id, err)
		if errors.Is(err, errMalformed) {
			c.queueMessage(ErrInvalidMessage())
		}
	}
}

// broadcast queues msg for every connection in the room's scope except skip.
func (rs *RoomServer) broadcast(roomId string, msg *ServerMessage, skip *Client) {
	for c := range rs.registry.members(roomId) {
		if c == skip {
			continue
		}
		c.queueMessage(msg)
	}
}
