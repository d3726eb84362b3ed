package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tipurk/neechat/config"
	"github.com/tipurk/neechat/internal/presence"
	"github.com/tipurk/neechat/internal/queue"
	chat_repo "github.com/tipurk/neechat/internal/repo/chat"
	"github.com/tipurk/neechat/internal/routers"
	"github.com/tipurk/neechat/internal/websocket"
	"github.com/tipurk/neechat/internal/worker"
	"github.com/tipurk/neechat/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	tracker := presence.NewTracker(appState.Redis)

	wsHub := websocket.NewHub(tracker)
	log.Info().Msg("Websocket hub initialized")

	producer := queue.NewProducer(appState.Redis)
	chatRepo := chat_repo.NewChatRepo(appState)

	workerPool := worker.NewPool(appState.Redis, 5, wsHub, chatRepo)
	go workerPool.Start(ctx)

	r := routers.NewRouter(routers.Deps{
		State:    appState,
		Hub:      wsHub,
		Tracker:  tracker,
		Sink:     wsHub,
		Producer: producer,
	})

	server := &http.Server{
		Addr:         config.Conf.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", config.Conf.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Sprintf("ListenAndServe failed: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Graceful shutdown failed: %v\n", err)
	} else {
		fmt.Println("Server exited gracefully.")
	}
	workerPool.Stop()
	wsHub.Close()
}
