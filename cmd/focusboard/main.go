// Package main provides the focusboard binary entry point.
// Focusboard is a kanban task engine that validates raw task records,
// resolves task dependencies, and maintains dense column ordering.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/focusboard/focusboard/board"
	"github.com/focusboard/focusboard/config"
	"github.com/focusboard/focusboard/ingest"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "focusboard"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		boardID  string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "focusboard",
		Short: "Kanban task ordering and dependency engine",
		Long: `Focusboard maintains kanban boards from raw task records.

It provides:
- Validation of loosely-typed task records into strict tasks
- Dependency resolution (independent, blocked, ready)
- Dense zero-based column ordering
- Subtask progress aggregation

Boards are persisted in NATS JetStream KV, embedded by default.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&boardID, "board", "default", "Board ID to operate on")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ingest <records.json>",
		Short: "Validate a records file into the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(logLevel, func(ctx context.Context, app *App) error {
				result, err := app.IngestFile(ctx, boardID, args[0])
				if err != nil {
					return err
				}
				reportIngest(result)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the board's columns and tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(logLevel, func(ctx context.Context, app *App) error {
				b, err := app.OpenBoard(ctx, boardID)
				if err != nil {
					return err
				}
				printBoard(b)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "move <task-id> <column-id> <index>",
		Short: "Move a task to a position within a column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("index must be an integer: %q", args[2])
			}
			return withApp(logLevel, func(ctx context.Context, app *App) error {
				b, err := app.OpenBoard(ctx, boardID)
				if err != nil {
					return err
				}
				coord := board.NewCoordinator(b, slog.Default())
				if _, err := coord.MoveTask(args[0], args[1], index); err != nil {
					return err
				}
				if err := app.store.SaveBoard(ctx, b); err != nil {
					return err
				}
				printBoard(b)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Set a task's workflow status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(logLevel, func(ctx context.Context, app *App) error {
				b, err := app.OpenBoard(ctx, boardID)
				if err != nil {
					return err
				}
				coord := board.NewCoordinator(b, slog.Default())
				task, err := coord.SetTaskStatus(args[0], board.TaskStatus(args[1]))
				if err != nil {
					return err
				}
				if err := app.store.SaveBoard(ctx, b); err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", task.ID, task.Status)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "watch <records.json>",
		Short: "Re-ingest the records file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(logLevel, func(ctx context.Context, app *App) error {
				return watchRecords(ctx, app, boardID, args[0])
			})
		},
	})

	return cmd
}

// withApp configures logging, starts the app, runs fn, and shuts down.
func withApp(logLevel string, fn func(context.Context, *App) error) error {
	logger := newLogger(logLevel)
	slog.SetDefault(logger)

	loader := config.NewLoader(logger)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	app := NewApp(cfg, logger)
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Shutdown()

	return fn(ctx, app)
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// watchRecords blocks re-ingesting the file until interrupted.
func watchRecords(ctx context.Context, app *App, boardID, path string) error {
	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher, err := ingest.NewWatcher(path, app.cfg.Watch.DebounceDelay, app.logger)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	if err := watcher.Start(signalCtx); err != nil {
		return err
	}

	// Initial ingest so the board reflects the file as it is now.
	if result, err := app.IngestFile(signalCtx, boardID, path); err != nil {
		app.logger.Warn("Initial ingest failed", "error", err)
	} else {
		reportIngest(result)
	}

	for {
		select {
		case <-signalCtx.Done():
			app.logger.Info("Watch stopped")
			return nil
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if event.Removed {
				app.logger.Warn("Records file removed", "path", event.Path)
				continue
			}
			result, err := app.IngestFile(signalCtx, boardID, event.Path)
			if err != nil {
				app.logger.Error("Re-ingest failed", "error", err)
				continue
			}
			reportIngest(result)
		}
	}
}

func reportIngest(result *board.IngestResult) {
	fmt.Printf("Ingested %d tasks", len(result.Board.Tasks))
	if len(result.Errors) > 0 {
		fmt.Printf(" (%d records dropped)", len(result.Errors))
	}
	fmt.Println()
	for _, err := range result.Errors {
		fmt.Fprintf(os.Stderr, "  dropped: %v\n", err)
	}
}

// printBoard renders columns in board order with tasks in position order.
func printBoard(b *board.Board) {
	columns := make([]board.Column, len(b.Columns))
	copy(columns, b.Columns)
	sort.Slice(columns, func(i, j int) bool {
		return columns[i].Position < columns[j].Position
	})

	for _, col := range columns {
		marker := ""
		if col.IsCompletionColumn {
			marker = " (completion)"
		}
		fmt.Printf("%s%s\n", col.Name, marker)

		tasks := []*board.Task{}
		for i := range b.Tasks {
			if b.Tasks[i].ColumnID == col.ID {
				tasks = append(tasks, &b.Tasks[i])
			}
		}
		sort.Slice(tasks, func(i, j int) bool {
			return tasks[i].Position < tasks[j].Position
		})

		for _, t := range tasks {
			fmt.Printf("  %d. [%s] %s (%s", t.Position, t.Status, t.Title, t.DependencyStatus)
			if t.ProgressPercentage > 0 {
				fmt.Printf(", %d%%", t.ProgressPercentage)
			}
			fmt.Println(")")
		}
	}
}
