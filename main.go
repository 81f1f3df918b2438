package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "stormfall.db", "Path to SQLite database")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	flag.Parse()

	cfg := LoadConfig()

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
	}

	db, err := OpenDB(*dbPath)
	if err != nil {
		// The simulation runs fine without durability; rewards are disabled.
		log.Printf("warning: could not open database: %v", err)
		db = nil
	}
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	var gateway *ClaimGateway
	var journal *EventJournal
	if db != nil {
		gateway = NewClaimGateway(db, cfg)
		journal = NewEventJournal(db)
		defer journal.Stop()
	}

	game := NewGame(cfg, db, gateway, journal)
	go game.Run()

	mux := SetupRoutes(game, gateway, db, cfg, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s (tick rate %d Hz)", *addr, cfg.TickRate)
		log.Printf("Serving client files from %s", *clientDir)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	game.Stop()
	server.Close()
}
