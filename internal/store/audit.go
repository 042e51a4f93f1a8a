package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"steer/internal/logging"
	"steer/internal/types"
)

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 20

// AuditStore records every rendered prompt to SQLite so a session's
// feedback can be reviewed after the fact.
type AuditStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Record is one rendered prompt.
type Record struct {
	ID           int64
	SessionID    string
	Mode         string
	Iteration    int
	TaskID       string
	PromptHash   string
	PromptLength int
	AntiPatterns []string // kind identifiers, e.g. "edit_without_commit"
	ErrorCount   int
	CreatedAt    time.Time
}

// NewRecord describes a rendered prompt and the context it was built from.
func NewRecord(sessionID, mode, prompt string, pc types.PromptContext) Record {
	sum := sha256.Sum256([]byte(prompt))
	rec := Record{
		SessionID:    sessionID,
		Mode:         mode,
		Iteration:    pc.Stats.IterationCount,
		PromptHash:   hex.EncodeToString(sum[:]),
		PromptLength: len(prompt),
		ErrorCount:   len(pc.Errors),
	}
	if pc.CurrentTask != nil {
		rec.TaskID = pc.CurrentTask.ID
	}
	for _, k := range pc.AntiPatternKinds() {
		rec.AntiPatterns = append(rec.AntiPatterns, k.String())
	}
	return rec
}

// OpenAudit opens or creates the audit database at path. ":memory:" is accepted.
func OpenAudit(path string) (*AuditStore, error) {
	logging.Get(logging.CategoryStore).Debug("Opening audit store at %s", path)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			logging.Get(logging.CategoryStore).Error("Failed to create audit directory for %s: %v", path, err)
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serializes writers and ":memory:" is per-connection.
	db.SetMaxOpenConns(1)

	s := &AuditStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to initialize audit schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Get(logging.CategoryStore).Info("Audit store ready at %s", path)
	return s, nil
}

func (s *AuditStore) initialize() error {
	schema := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS prompt_renders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		iteration INTEGER NOT NULL DEFAULT 0,
		task_id TEXT,
		prompt_hash TEXT NOT NULL,
		prompt_length INTEGER NOT NULL,
		anti_patterns TEXT,
		error_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prompt_renders_session ON prompt_renders(session_id);
	CREATE INDEX IF NOT EXISTS idx_prompt_renders_created ON prompt_renders(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordRender stores rec and returns its row id. A missing session id is
// replaced by a fresh UUID, a zero CreatedAt by the current time.
func (s *AuditStore) RecordRender(ctx context.Context, rec Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.SessionID == "" {
		rec.SessionID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO prompt_renders
		(session_id, mode, iteration, task_id, prompt_hash, prompt_length,
		 anti_patterns, error_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Mode, rec.Iteration, rec.TaskID, rec.PromptHash,
		rec.PromptLength, strings.Join(rec.AntiPatterns, ","), rec.ErrorCount,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to record render for session %s: %v", rec.SessionID, err)
		return 0, fmt.Errorf("failed to record render: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	logging.Get(logging.CategoryStore).Debug("Recorded render %d (session=%s mode=%s len=%d)", id, rec.SessionID, rec.Mode, rec.PromptLength)
	return id, nil
}

// Recent returns the newest records first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, mode, iteration, task_id, prompt_hash, prompt_length,
		       anti_patterns, error_count, created_at
		FROM prompt_renders ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// BySession returns a session's records in render order.
func (s *AuditStore) BySession(ctx context.Context, sessionID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, mode, iteration, task_id, prompt_hash, prompt_length,
		       anti_patterns, error_count, created_at
		FROM prompt_renders WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// KindCounts returns how many renders carried each anti-pattern kind.
func (s *AuditStore) KindCounts(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT anti_patterns FROM prompt_renders WHERE anti_patterns != ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kinds string
		if err := rows.Scan(&kinds); err != nil {
			return nil, err
		}
		for _, k := range strings.Split(kinds, ",") {
			counts[k]++
		}
	}
	return counts, rows.Err()
}

// Close closes the database connection.
func (s *AuditStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	logging.Get(logging.CategoryStore).Debug("Closing audit store at %s", s.dbPath)
	err := s.db.Close()
	s.db = nil
	return err
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var (
			rec       Record
			taskID    sql.NullString
			kinds     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Mode, &rec.Iteration, &taskID,
			&rec.PromptHash, &rec.PromptLength, &kinds, &rec.ErrorCount, &createdAt); err != nil {
			return nil, err
		}
		rec.TaskID = taskID.String
		if kinds.String != "" {
			rec.AntiPatterns = strings.Split(kinds.String, ",")
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}
