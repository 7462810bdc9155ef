// ABOUTME: Entry point for the pcmcast streaming server
// ABOUTME: Loads configuration and serves a raw PCM stream over TCP and WebSocket
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/pcmcast/internal/config"
	"github.com/Resonate-Protocol/pcmcast/internal/metrics"
	"github.com/Resonate-Protocol/pcmcast/internal/server"
	"github.com/Resonate-Protocol/pcmcast/internal/version"
)

func main() {
	fs := config.NewServerFlags("pcmcast-server")
	useTUI := fs.Bool("tui", false, "Show the server status TUI (logs go to the file only)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.LoadServer(fs)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if *useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	serverName := cfg.Name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-pcmcast-server", hostname)
	}

	log.Printf("Starting %s: %s", version.String("pcmcast-server"), serverName)
	log.Printf("Logging to: %s", cfg.LogFile)

	source, err := server.NewSource(cfg.Source, cfg.Format, cfg.ToneFreq)
	if err != nil {
		log.Fatalf("Failed to open audio source: %v", err)
	}
	defer source.Close()

	var collector *metrics.Collector
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector("pcmcast")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			log.Printf("Metrics listening on %s/metrics", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	srvConfig := server.Config{
		Name:       serverName,
		TCPAddr:    fmt.Sprintf(":%d", cfg.Port),
		WSPath:     cfg.WSPath,
		Source:     source,
		WriteSize:  cfg.WriteSize,
		EnableMDNS: !cfg.NoMDNS,
		UseTUI:     *useTUI,
		Debug:      *debug,
		Metrics:    collector,
	}
	if cfg.WSPort != 0 {
		srvConfig.WSAddr = fmt.Sprintf(":%d", cfg.WSPort)
	}

	srv, err := server.New(srvConfig)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !*useTUI {
		log.Printf("Press Ctrl-C to stop")
	}
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
