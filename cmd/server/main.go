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
	"github.com/redis/go-redis/v9"
	"github.com/unihelp/admin-bridge/activity"
	"github.com/unihelp/admin-bridge/internal/config"
	"github.com/unihelp/admin-bridge/notifications"
	"github.com/unihelp/admin-bridge/notifications/apiclient"
	"github.com/unihelp/admin-bridge/realtime"
	"github.com/unihelp/admin-bridge/server"
	"github.com/unihelp/admin-bridge/session"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
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
	displayAppname(c.GetAppName())

	store, err := newSessionStore(c)
	if err != nil {
		return fmt.Errorf("session store %w", err)
	}
	apiClient := apiclient.NewClient(c.GetNotificationAPIURL(), store)
	center, err := notifications.NewCenter(apiClient, store)
	if err != nil {
		return fmt.Errorf("notifications.NewCenter %w", err)
	}

	channel := realtime.NewClient(c.GetBrokerURL())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	center.Attach(ctx, channel.Alerts())

	s, err := server.New(c, store, center, channel, newRecorder(c))
	if err != nil {
		return fmt.Errorf("server.New %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: s}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer, channel)
	return returnError
}

func newSessionStore(c config.Config) (session.Store, error) {
	addr := c.GetRedisAddr()
	if addr == "" {
		return session.NewInMemoryStore(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return session.NewRedisStore(client, c.GetSessionKeyPrefix())
}

func newRecorder(c config.Config) activity.Recorder {
	if c.GetActivityURL() == "" {
		return activity.NopRecorder{}
	}
	return activity.NewHTTPRecorder(c.GetActivityURL())
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
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

func shutdown(server *http.Server, channel *realtime.Client) error {
	if err := channel.Disconnect(); err != nil {
		log.Printf("realtime disconnect: %v\n", err)
	}

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
