// cmd/server/main.go
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/auth"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/coordinator"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/database"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/handlers"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/middleware"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/results"
)

func main() {
	auth.Init()
	database.ConnectDB()
	defer database.DB.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// the result queue is optional; the coordinator runs without it
	var sink coordinator.ResultSink
	if pub, err := results.Connect(); err != nil {
		logger.Warnf("result queue disabled: %v", err)
	} else {
		sink = pub
	}

	co := coordinator.New(logger, database.Directory{}, sink)

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)
	mux.HandleFunc("/user/list", handlers.ListUsersHandler)

	// admin endpoints; each one re-checks privilege against the DB and
	// pushes compensating updates into the coordinator
	mux.Handle("/team/create", logged(http.HandlerFunc(handlers.CreateTeamHandler)))
	mux.Handle("/team/list", logged(http.HandlerFunc(handlers.ListTeamsHandler)))
	mux.Handle("/match/create", logged(http.HandlerFunc(handlers.CreateMatchHandler)))
	mux.Handle("/match/delete", logged(handlers.DeleteMatchHandler(co)))
	mux.Handle("/match/list", logged(http.HandlerFunc(handlers.ListMatchesHandler)))
	mux.Handle("/user/assign-team", logged(handlers.AssignTeamHandler(co)))
	mux.Handle("/user/ban", logged(handlers.BanUserHandler(co)))

	// the real-time coordinator endpoint
	mux.Handle("/ws", logged(handlers.CoordinatorWSHandler(logger, co)))

	// no WriteTimeout: persistent websocket connections outlive any
	// reasonable per-response deadline
	server := &http.Server{
		Handler:     mux,
		ReadTimeout: time.Second * 10,
	}

	port := os.Getenv("CYBERSKILLS_PORT")
	if port == "" {
		port = "8080"
	}
	l, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
}
