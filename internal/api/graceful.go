package api

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// NewHTTPServer creates a configured HTTP server
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// SetupSignalHandler sets up OS signal handling for SIGINT and SIGTERM
func SetupSignalHandler() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}

// WaitForSignal waits for termination signals and returns the received signal
func WaitForSignal(ch chan os.Signal) os.Signal {
	return <-ch
}
