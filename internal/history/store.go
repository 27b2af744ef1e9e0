// Package history persists a record of every aider invocation in a
// local SQLite database, so past runs can be queried from the
// aider_history tool and the aider://history/recent resource.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Status is the four-way outcome of an invocation, matching the
// mutually exclusive messages the tools report.
type Status string

const (
	StatusSummary   Status = "summary"
	StatusError     Status = "error"
	StatusNoOutcome Status = "no-outcome"
	StatusFailed    Status = "failed"
)

// Record is one stored invocation.
type Record struct {
	ID         int64  `json:"id"`
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Dir        string `json:"dir"`
	Root       string `json:"root"`
	Prompt     string `json:"prompt"`
	Status     Status `json:"status"`
	Summary    string `json:"summary,omitempty"`
	ErrorText  string `json:"error_text,omitempty"`
	ExitCode   int    `json:"exit_code"`
}

// AddParams holds the input for recording one invocation.
type AddParams struct {
	DurationMS int64
	Dir        string
	Root       string
	Prompt     string
	Status     Status
	Summary    string
	ErrorText  string
	ExitCode   int
}

// Config holds store configuration.
type Config struct {
	DataDir   string
	MaxPrompt int
}

// DefaultConfig returns the default configuration: data under
// ~/.aider-mcp, prompts truncated to keep rows small.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:   filepath.Join(home, ".aider-mcp"),
		MaxPrompt: 2000,
	}
}

// Store is the invocation log backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store with the given configuration. It creates the
// data directory if needed, opens SQLite with WAL mode, and runs the
// idempotent migration.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "history.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("history: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS invocations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  TEXT    NOT NULL DEFAULT (datetime('now')),
			duration_ms INTEGER NOT NULL DEFAULT 0,
			dir         TEXT    NOT NULL,
			root        TEXT    NOT NULL,
			prompt      TEXT    NOT NULL,
			status      TEXT    NOT NULL,
			summary     TEXT    NOT NULL DEFAULT '',
			error_text  TEXT    NOT NULL DEFAULT '',
			exit_code   INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_inv_started ON invocations(started_at DESC);
		CREATE INDEX IF NOT EXISTS idx_inv_status  ON invocations(status);
		CREATE INDEX IF NOT EXISTS idx_inv_root    ON invocations(root);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add records one invocation and returns its id. The prompt is
// truncated to MaxPrompt so a pasted novel doesn't bloat the log.
func (s *Store) Add(p AddParams) (int64, error) {
	if p.Status == "" {
		return 0, fmt.Errorf("history: status is required")
	}

	prompt := p.Prompt
	if s.cfg.MaxPrompt > 0 && len(prompt) > s.cfg.MaxPrompt {
		prompt = prompt[:s.cfg.MaxPrompt]
	}

	res, err := s.db.Exec(`
		INSERT INTO invocations (duration_ms, dir, root, prompt, status, summary, error_text, exit_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.DurationMS, p.Dir, p.Root, prompt, string(p.Status), p.Summary, p.ErrorText, p.ExitCode,
	)
	if err != nil {
		return 0, fmt.Errorf("history: insert: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the newest invocations, most recent first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(`
		SELECT id, started_at, duration_ms, dir, root, prompt, status, summary, error_text, exit_code
		FROM invocations
		ORDER BY id DESC
		LIMIT ?`, limit)
}

// SearchOptions holds filters for history queries.
type SearchOptions struct {
	Query  string
	Status Status
	Limit  int
}

// Search returns invocations whose prompt, summary, or error text
// contains the query text, newest first.
func (s *Store) Search(opts SearchOptions) ([]Record, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"1=1"}
	args := []any{}
	if opts.Query != "" {
		like := "%" + escapeLike(opts.Query) + "%"
		where = append(where, `(prompt LIKE ? ESCAPE '\' OR summary LIKE ? ESCAPE '\' OR error_text LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	args = append(args, limit)

	q := fmt.Sprintf(`
		SELECT id, started_at, duration_ms, dir, root, prompt, status, summary, error_text, exit_code
		FROM invocations
		WHERE %s
		ORDER BY id DESC
		LIMIT ?`, strings.Join(where, " AND "))

	return s.query(q, args...)
}

func (s *Store) query(q string, args ...any) ([]Record, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var status string
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.DurationMS, &r.Dir, &r.Root,
			&r.Prompt, &status, &r.Summary, &r.ErrorText, &r.ExitCode); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		r.Status = Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
