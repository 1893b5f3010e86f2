// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/mkleist/uno/internal/auth"
	"github.com/mkleist/uno/internal/cache"
	"github.com/mkleist/uno/internal/database"
	"github.com/mkleist/uno/internal/handlers"
	"github.com/mkleist/uno/internal/middleware"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// The server runs without Postgres or Redis; games then live purely in
	// memory and guest identities are not persisted.
	if err := database.ConnectDB(); err != nil {
		logger.Warnf("running without database: %v", err)
	}
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("running without redis: %v", err)
	}

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)

	srv := handlers.NewGameServer()

	// game endpoints
	mux.Handle("/game/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		srv.CreateGameHandler,
	)))
	mux.Handle("/game/state/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		srv.GameStateHandler,
	)))

	// game websocket
	mux.Handle("/game/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
