package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"tpcollect/pkg/app"
	"tpcollect/pkg/config"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose logging")
	configPath := flag.String("config", "", "Path to the toml config (default $"+config.EnvFilename+" or "+config.DefaultFilename+")")

	flag.Parse()
	if *verbose {
		// Set the log level to debug
		log.SetLevel(log.DebugLevel)
	}
	// Set the log format to include a leading timestamp in ISO8601 format
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.NewDatastore(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer a.Close()

	go startServer(cfg.Store.ListenAddress, a.Router())

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	// In all cases, just exit and let the container restart from scratch.
	<-signalChan
	log.Info("Signalled, exiting")
}

func startServer(addr string, router http.Handler) {
	server := http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
	}
	log.Infof("listening for HTTP on: %s", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("ListenAndServeError: ", err)
	}
}
