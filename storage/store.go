// Package storage persists board snapshots using NATS JetStream KV.
// The engine itself is pure; the CLI hands each updated snapshot to the
// store, which is the source of truth for durability.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/focusboard/focusboard/board"
)

// BucketBoards is the KV bucket holding board snapshots, keyed by board ID.
const BucketBoards = "FOCUSBOARD_BOARDS"

// Store provides board snapshot storage backed by NATS KV.
type Store struct {
	boards jetstream.KeyValue
}

// NewStore creates a new Store with the given JetStream context.
// It creates the boards bucket if it doesn't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	boards, err := getOrCreateBucket(ctx, js, BucketBoards)
	if err != nil {
		return nil, fmt.Errorf("create boards bucket: %w", err)
	}

	return &Store{boards: boards}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Focusboard board snapshots",
		History:     5, // Keep last 5 revisions
	})
}

// CreateBoard creates and persists an empty board for a user.
func (s *Store) CreateBoard(ctx context.Context, name, userID string) (*board.Board, error) {
	b := board.NewBoard(name, userID)
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if err := s.SaveBoard(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// SaveBoard persists a board snapshot, replacing any previous revision.
func (s *Store) SaveBoard(ctx context.Context, b *board.Board) error {
	if b.ID == "" {
		return fmt.Errorf("board has no ID")
	}
	b.UpdatedAt = time.Now()

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}

	if _, err := s.boards.Put(ctx, b.ID, data); err != nil {
		return fmt.Errorf("store board: %w", err)
	}

	return nil
}

// GetBoard retrieves a board snapshot by ID.
func (s *Store) GetBoard(ctx context.Context, id string) (*board.Board, error) {
	entry, err := s.boards.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get board: %w", err)
	}

	var b board.Board
	if err := json.Unmarshal(entry.Value(), &b); err != nil {
		return nil, fmt.Errorf("unmarshal board: %w", err)
	}

	return &b, nil
}

// ListBoards returns all stored boards.
func (s *Store) ListBoards(ctx context.Context) ([]*board.Board, error) {
	keys, err := s.boards.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list board keys: %w", err)
	}

	boards := make([]*board.Board, 0, len(keys))
	for _, key := range keys {
		entry, err := s.boards.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var b board.Board
		if err := json.Unmarshal(entry.Value(), &b); err != nil {
			continue
		}
		boards = append(boards, &b)
	}

	return boards, nil
}

// DeleteBoard removes a board snapshot. The board exclusively owns its
// columns and tasks, so nothing else has to be cleaned up.
func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	if err := s.boards.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete board: %w", err)
	}
	return nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
