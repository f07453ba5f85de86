package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/study-rooms/internal/api"
	"github.com/npezzotti/study-rooms/internal/callsession"
	"github.com/npezzotti/study-rooms/internal/config"
	"github.com/npezzotti/study-rooms/internal/server"
	"github.com/npezzotti/study-rooms/internal/stats"
	"github.com/npezzotti/study-rooms/internal/store"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, config.SplitOrigins(value)...)
	return nil
}

var (
	addr           string
	staticDir      string
	allowedOrigins stringSliceFlag
)

func main() {
	logger := log.New(os.Stderr, "[study-rooms] ", log.LstdFlags)

	// flag defaults below read the environment
	if err := config.LoadDotEnv(); err != nil {
		logger.Fatal("env:", err)
	}

	flag.StringVar(&addr, "addr", config.AddrFromEnv(), "server address")
	flag.StringVar(&staticDir, "static-dir", os.Getenv("STATIC_DIR"), "directory of the built frontend to serve")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	if len(allowedOrigins) == 0 {
		allowedOrigins = config.SplitOrigins(os.Getenv("ALLOWED_ORIGINS"))
	}

	cfg, err := config.NewConfig(addr, allowedOrigins, staticDir, config.DailyFromEnv(), config.LiveKitFromEnv())
	if err != nil {
		logger.Fatal("config:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	roomServer := server.NewRoomServer(logger, store.NewRoomStore(), store.NewWhiteboardStore(), statsUpdater)
	calls := callsession.FromConfig(cfg, nil, logger)

	srv := api.NewStudyRoomsApp(mux, logger, roomServer, calls, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go roomServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down room server...")
	if err := roomServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("room server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
