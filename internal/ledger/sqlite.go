package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/memoryd/internal/model"
)

// SQLiteLedger implements Ledger using SQLite.
type SQLiteLedger struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteLedger opens or creates a SQLite database at the given path.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	l := &SQLiteLedger{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return l, nil
}

func (l *SQLiteLedger) newRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), l.entropy).String()
}

func (l *SQLiteLedger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		thread_id  TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		processed  INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_messages_processed ON messages(processed, id);
	CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, id);

	CREATE TABLE IF NOT EXISTS reflection_runs (
		id                 TEXT PRIMARY KEY,
		last_processed_id  INTEGER,
		messages_processed INTEGER NOT NULL DEFAULT 0,
		categories_updated TEXT,
		ran_at             TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_ran_at ON reflection_runs(ran_at DESC);
	`
	_, err := l.db.Exec(schema)
	return err
}

func (l *SQLiteLedger) Append(ctx context.Context, threadID, role, content string) (*model.Message, error) {
	now := time.Now().UTC()
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO messages (thread_id, role, content, created_at, processed)
		 VALUES (?, ?, ?, ?, 0)`,
		threadID, role, content, now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}

	return &model.Message{
		ID:        id,
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}, nil
}

func (l *SQLiteLedger) CountUnprocessed(ctx context.Context) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE processed = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unprocessed: %w", err)
	}
	return n, nil
}

func (l *SQLiteLedger) OldestUnprocessed(ctx context.Context, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, thread_id, role, content, created_at, processed
		 FROM messages WHERE processed = 0
		 ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (l *SQLiteLedger) Recent(ctx context.Context, threadID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, thread_id, role, content, created_at, processed
		 FROM messages WHERE thread_id = ?
		 ORDER BY id DESC LIMIT ?`, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	// Reverse to chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (l *SQLiteLedger) CompleteRun(ctx context.Context, ids []int64, categories []string) (*model.ReflectionRun, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("complete run: empty batch")
	}

	lastID := ids[0]
	for _, id := range ids[1:] {
		if id > lastID {
			lastID = id
		}
	}

	var catsJSON *string
	if len(categories) > 0 {
		b, _ := json.Marshal(categories)
		s := string(b)
		catsJSON = &s
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE messages SET processed = 1 WHERE id IN (%s)`, placeholders),
		args...)
	if err != nil {
		return nil, fmt.Errorf("mark processed: %w", err)
	}

	now := time.Now().UTC()
	runID := l.newRunID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reflection_runs (id, last_processed_id, messages_processed, categories_updated, ran_at)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, lastID, len(ids), catsJSON, now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.ReflectionRun{
		ID:                runID,
		LastProcessedID:   lastID,
		MessagesProcessed: len(ids),
		CategoriesUpdated: categories,
		RanAt:             now,
	}, nil
}

func (l *SQLiteLedger) LastRun(ctx context.Context) (*model.ReflectionRun, error) {
	var run model.ReflectionRun
	var lastID sql.NullInt64
	var catsJSON sql.NullString
	var ranAt string

	err := l.db.QueryRowContext(ctx,
		`SELECT id, last_processed_id, messages_processed, categories_updated, ran_at
		 FROM reflection_runs ORDER BY ran_at DESC, id DESC LIMIT 1`).
		Scan(&run.ID, &lastID, &run.MessagesProcessed, &catsJSON, &ranAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}

	if lastID.Valid {
		run.LastProcessedID = lastID.Int64
	}
	if catsJSON.Valid {
		json.Unmarshal([]byte(catsJSON.String), &run.CategoriesUpdated)
	}
	run.RanAt, _ = time.Parse(time.RFC3339, ranAt)

	return &run, nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var createdAt string
		var processed int
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Content, &createdAt, &processed); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		m.Processed = processed != 0
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
