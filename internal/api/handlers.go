package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/study-rooms/internal/callsession"
	"github.com/npezzotti/study-rooms/internal/server"
)

const runningMessage = "Interactive Whiteboard Server is running"

type CreateRoomRequest struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

func (s *StudyRoomsApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *StudyRoomsApp) writeRoomServerError(w http.ResponseWriter, err error) {
	var errResp *ApiError
	if errors.Is(err, server.ErrServerStopped) {
		errResp = NewServiceUnavailableError(err)
	} else {
		errResp = NewInternalServerError(err)
	}
	s.log.Println("room server:", err)
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *StudyRoomsApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *StudyRoomsApp) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rs.ListRooms(r.Context())
	if err != nil {
		s.writeRoomServerError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *StudyRoomsApp) createRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.log.Println("decode create room request:", err)
		errResp := NewBadRequestError("invalid request body")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.rs.CreateRoom(r.Context(), req.Name, req.Subject)
	if err != nil {
		s.writeRoomServerError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, room)
}

// videoToken runs outside the room server loop.
func (s *StudyRoomsApp) videoToken(w http.ResponseWriter, r *http.Request) {
	roomId := r.PathValue("roomId")

	session, err := s.calls.SessionFor(r.Context(), roomId, r.URL.Query().Get("identity"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, callsession.ErrUnavailable) {
			errResp = NewVideoUnavailableError(callsession.SetupURL)
		} else {
			s.log.Printf("error with video provider for room %q: %v", roomId, err)
			errResp = NewVideoRoomError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, session)
}

func (s *StudyRoomsApp) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	return slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin)
}

func (s *StudyRoomsApp) serveWs(w http.ResponseWriter, r *http.Request) {
	id, err := server.NewConnectionId()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(id, conn, s.rs, s.log)
	if !s.rs.RegisterClient(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down"))
		conn.Close()
		return
	}

	go client.Write()
	go client.Read()
}

// serveRoot serves the built frontend when a static dir is configured,
// falling back to index.html for client-side routes.
func (s *StudyRoomsApp) serveRoot(w http.ResponseWriter, r *http.Request) {
	if s.staticDir == "" {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(runningMessage))
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/") {
		http.NotFound(w, r)
		return
	}

	name := filepath.Join(s.staticDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, r, name)
		return
	}

	http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
}
