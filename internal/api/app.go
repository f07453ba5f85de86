package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/study-rooms/internal/callsession"
	"github.com/npezzotti/study-rooms/internal/config"
	"github.com/npezzotti/study-rooms/internal/server"
)

type StudyRoomsApp struct {
	log            *log.Logger
	srv            *http.Server
	rs             *server.RoomServer
	calls          callsession.Gateway
	allowedOrigins []string
	staticDir      string
}

func NewStudyRoomsApp(mux *http.ServeMux, logger *log.Logger, rs *server.RoomServer, calls callsession.Gateway, cfg *config.Config) *StudyRoomsApp {
	s := &StudyRoomsApp{
		log:            logger,
		rs:             rs,
		calls:          calls,
		allowedOrigins: cfg.AllowedOrigins,
		staticDir:      cfg.StaticDir,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("GET /api/rooms", noCache(s.listRooms))
	mux.HandleFunc("POST /api/rooms", s.createRoom)
	mux.HandleFunc("GET /api/rooms/{roomId}/video-token", noCache(s.videoToken))
	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /", s.serveRoot)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
	)(mux)

	h = s.errorHandler(h)
	h = handlers.CombinedLoggingHandler(logger.Writer(), h)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *StudyRoomsApp) Handler() http.Handler {
	return s.srv.Handler
}

func (s *StudyRoomsApp) Start() error {
	s.log.Printf("Interactive Whiteboard Server running on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *StudyRoomsApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
