package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/focusboard/focusboard/board"
	"github.com/focusboard/focusboard/config"
	"github.com/focusboard/focusboard/storage"
)

// App wires the engine, storage, and NATS together for the CLI.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS
	embeddedServer *server.Server
	natsConn       *nats.Conn
	js             jetstream.JetStream

	// Storage
	store *storage.Store
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, logger: logger}
}

// Start initializes and starts all components.
func (a *App) Start(ctx context.Context) error {
	if err := a.startNATS(ctx); err != nil {
		return fmt.Errorf("start NATS: %w", err)
	}

	store, err := storage.NewStore(ctx, a.js)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	a.store = store

	return nil
}

func (a *App) startNATS(ctx context.Context) error {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		// Connect to external NATS
		a.logger.Info("Connecting to NATS", "url", a.cfg.NATS.URL)
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn
	} else {
		// Start embedded NATS server
		a.logger.Debug("Starting embedded NATS server")
		opts := &server.Options{
			Port:      -1, // Random available port
			JetStream: true,
			StoreDir:  a.storeDir(),
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()

		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}

		a.embeddedServer = ns

		conn, err := nats.Connect(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return fmt.Errorf("connect to embedded NATS: %w", err)
		}
		a.natsConn = conn
	}

	js, err := jetstream.New(a.natsConn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js

	return nil
}

// storeDir is where the embedded server keeps JetStream data, so boards
// survive between CLI invocations.
func (a *App) storeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".focusboard-data"
	}
	return home + "/.local/share/focusboard"
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	if a.natsConn != nil {
		a.natsConn.Drain()
		a.natsConn.Close()
	}

	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}
}

// OpenBoard loads a board snapshot by ID, creating it with the configured
// default columns when it doesn't exist yet.
func (a *App) OpenBoard(ctx context.Context, boardID string) (*board.Board, error) {
	b, err := a.store.GetBoard(ctx, boardID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	a.logger.Info("Creating board", "board", boardID)
	b = board.NewBoard(boardID, currentUser())
	b.ID = boardID

	coord := board.NewCoordinator(b, a.logger)
	for _, col := range a.cfg.Board.DefaultColumns {
		coord.AddColumn(col.Name, col.Completion)
	}

	if err := a.store.SaveBoard(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// IngestFile validates the records in a JSON file into the board and
// persists the result.
func (a *App) IngestFile(ctx context.Context, boardID, path string) (*board.IngestResult, error) {
	records, err := loadRecords(path)
	if err != nil {
		return nil, err
	}

	b, err := a.OpenBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	coord := board.NewCoordinator(b, a.logger)
	result, err := coord.Ingest(records)
	if err != nil {
		return nil, err
	}

	if err := a.store.SaveBoard(ctx, b); err != nil {
		return nil, err
	}
	return result, nil
}

// loadRecords reads a JSON array of raw task records.
func loadRecords(path string) ([]board.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var records []board.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records file: %w", err)
	}
	return records, nil
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
