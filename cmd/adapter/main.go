package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/omnichat/telegram-adapter/authflow"
	"github.com/omnichat/telegram-adapter/credstore"
	"github.com/omnichat/telegram-adapter/internal/config"
	"github.com/omnichat/telegram-adapter/registry"
	"github.com/omnichat/telegram-adapter/relay"
	"github.com/omnichat/telegram-adapter/server"
	"github.com/omnichat/telegram-adapter/tgclient"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running adapter: %s\n", err)
	}
	log.Printf("Adapter stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	if err := config.Validate(c); err != nil {
		return err
	}
	displayAppname(c.GetAppName())

	logger := newLogger(c.GetEnv())

	creds, err := credstore.NewFileRepo(c.GetStorePath(), logger)
	if err != nil {
		return fmt.Errorf("credstore.NewFileRepo: %w", err)
	}

	dialer := tgclient.NewGotdDialer(c.GetAPIID(), c.GetAPIHash(), logger)
	messageRelay := relay.New(c.GetWebhookURL(), logger)
	reg := registry.New(dialer, messageRelay.Forward, logger)
	defer reg.CloseAll()

	flow, err := authflow.NewService(creds, reg, logger)
	if err != nil {
		return fmt.Errorf("authflow.NewService: %w", err)
	}

	// Reconnect persisted sessions before serving any requests.
	restored := flow.RestoreAll(context.Background())
	logger.Info().Int("restored", restored).Msg("Startup restore complete")

	httpServer := &http.Server{Addr: c.GetPort(), Handler: server.New(c, flow, logger)}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func newLogger(env string) zerolog.Logger {
	if env == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func listenAndServe(server *http.Server) error {
	log.Printf("Adapter listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
