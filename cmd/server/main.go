package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devadigapratham/printeta/api"
	"github.com/devadigapratham/printeta/api/handlers"
	"github.com/devadigapratham/printeta/config"
	"github.com/devadigapratham/printeta/internal/clock"
	"github.com/devadigapratham/printeta/internal/logging"
	"github.com/devadigapratham/printeta/internal/progress"
	"github.com/devadigapratham/printeta/raft"
)

func main() {
	cfg := config.ParseFlags()

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}

	// Create Raft data directory if it doesn't exist
	if err := os.MkdirAll(cfg.Node.RaftDir, 0755); err != nil {
		log.Fatalf("Failed to create Raft directory: %v", err)
	}

	fsm := raft.NewFSM(log)
	node, err := raft.NewNode(&raft.Config{
		NodeID:    cfg.Node.ID,
		RaftAddr:  cfg.Node.RaftAddr,
		RaftDir:   cfg.Node.RaftDir,
		Bootstrap: cfg.Node.Bootstrap,
		Peers:     cfg.Node.Peers,
		Logger:    logging.Raft(log),
	}, fsm)
	if err != nil {
		log.Fatalf("Failed to create Raft node: %v", err)
	}

	// Live progress observers follow every replicated job change
	ticker := progress.NewTicker(fsm, clock.System{}, cfg.Engine.TickInterval, log)
	fsm.OnJobChange(ticker.Recompute)

	transport := raft.NewTransport(node, log)
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := handlers.NewHandler(node, fsm, ticker, clock.System{}, loc, log)
	router := api.SetupRouter(node, handler, transport.RaftHandler(), log)

	server := &http.Server{
		Addr:    cfg.Node.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.WithField("addr", cfg.Node.HTTPAddr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Join the cluster if needed
	if cfg.Node.JoinAddr != "" && !cfg.Node.Bootstrap {
		log.WithField("join", cfg.Node.JoinAddr).Info("Joining cluster")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := transport.JoinCluster(ctx, cfg.Node.JoinAddr, cfg.Node.ID, cfg.Node.RaftAddr); err != nil {
			log.WithError(err).Warn("Failed to join cluster")
		}
		cancel()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Error shutting down HTTP server")
	}

	if err := node.Shutdown(); err != nil {
		log.WithError(err).Warn("Error shutting down Raft node")
	}

	log.Info("Shutdown complete")
}
