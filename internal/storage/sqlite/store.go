package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sgpatel/ai-chat-api-assistant/internal/flow"
	"github.com/sgpatel/ai-chat-api-assistant/internal/storage"
)

// Store is a SQLite implementation of StateStore
type Store struct {
	db *sql.DB
}

var _ storage.StateStore = (*Store)(nil)

// New creates a new SQLite store
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	// Initialize schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversation_states (
			user_id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_states_updated ON conversation_states(updated_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) Load(ctx context.Context, userID string) (*flow.State, error) {
	query := `SELECT state FROM conversation_states WHERE user_id = ?`

	var stateJSON string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var st flow.State
	if err := json.Unmarshal([]byte(stateJSON), &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if st.CollectedParameters == nil {
		st.CollectedParameters = map[string]any{}
	}

	return &st, nil
}

func (s *Store) Save(ctx context.Context, st *flow.State) error {
	if st.UserID == "" {
		return fmt.Errorf("state has no user id")
	}

	stateJSON, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `INSERT INTO conversation_states (user_id, state, updated_at)
	          VALUES (?, ?, ?)
	          ON CONFLICT(user_id) DO UPDATE SET state=excluded.state, updated_at=excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query, st.UserID, string(stateJSON), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM conversation_states WHERE user_id = ?`

	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
