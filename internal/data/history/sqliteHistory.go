// Package history persists chat sessions and their messages in SQLite.
// It is the default MessageStore backend; the Redis-backed one in
// internal/data/store trades durability for TTL-based expiry.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docchat-ai/docchat/internal/adapter/utils"
	"github.com/docchat-ai/docchat/internal/domain/jobModel"
	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

type sqliteStore struct {
	db     *sql.DB
	logger *logger_i.Logger
}

// NewSQLiteMessageStore opens (or creates) the chat history database at
// path, creating parent directories as needed.
func NewSQLiteMessageStore(path string) (jobModel.MessageStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("%w: creating history directory: %v", ragModel.ErrStorageIO, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ragModel.ErrStorageIO, path, err)
	}

	s := &sqliteStore{db: db, logger: logger_i.NewLogger("sqlite_history")}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Info("Chat history store opened", "path", path)
	return s, nil
}

func (s *sqliteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	session_id  INTEGER PRIMARY KEY AUTOINCREMENT,
	session_key TEXT NOT NULL UNIQUE,
	created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS messages (
	message_id      INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_history_id INTEGER NOT NULL REFERENCES chat_sessions(session_id) ON DELETE CASCADE,
	sender_type     TEXT NOT NULL,
	message_type    TEXT NOT NULL DEFAULT 'text',
	text_content    TEXT NOT NULL,
	created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_history ON messages(chat_history_id, message_id);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: creating history schema: %v", ragModel.ErrStorageIO, err)
	}
	return nil
}

func (s *sqliteStore) ValidateChatId(ctx context.Context, id string) bool {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_sessions WHERE session_key = ?`, strings.TrimSpace(id)).Scan(&n)
	if err != nil {
		s.logger.Error("Error validating chat id", "chatId", id, "error", err)
		return false
	}
	return n > 0
}

func (s *sqliteStore) InitNewChat(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO chat_sessions (session_key) VALUES (?)`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%w: creating chat session: %v", ragModel.ErrStorageIO, err)
	}
	return nil
}

func (s *sqliteStore) SaveTurn(ctx context.Context, id string, role string, text string) error {
	key := strings.TrimSpace(id)

	// Sessions come into being on first write, matching ValidateChatId's
	// view that an id someone wrote to is valid.
	if err := s.InitNewChat(ctx, key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO messages (chat_history_id, sender_type, message_type, text_content)
		SELECT session_id, ?, 'text', ? FROM chat_sessions WHERE session_key = ?`, role, text, key)
	if err != nil {
		return fmt.Errorf("%w: saving message: %v", ragModel.ErrStorageIO, err)
	}
	return nil
}

func (s *sqliteStore) GetMessageHistory(ctx context.Context, chatId string, lastK int) ([]string, error) {
	if lastK < 1 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT sender_type, text_content FROM messages
		WHERE chat_history_id = (SELECT session_id FROM chat_sessions WHERE session_key = ?)
		ORDER BY message_id DESC LIMIT ?`, strings.TrimSpace(chatId), lastK)
	if err != nil {
		return nil, fmt.Errorf("%w: loading history: %v", ragModel.ErrStorageIO, err)
	}
	defer rows.Close()

	var history []string
	for rows.Next() {
		var role, text string
		if err := rows.Scan(&role, &text); err != nil {
			return nil, fmt.Errorf("%w: scanning message: %v", ragModel.ErrStorageIO, err)
		}
		history = append(history, fmt.Sprintf("%s: %s", role, text))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ragModel.ErrStorageIO, err)
	}

	// The query walks newest-first to apply the limit; the prompt wants
	// oldest-first.
	return utils.ReverseStringArray(history), nil
}

func (s *sqliteStore) ListChats(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_key FROM chat_sessions ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing chats: %v", ragModel.ErrStorageIO, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning chat id: %v", ragModel.ErrStorageIO, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *sqliteStore) DeleteChat(ctx context.Context, id string) error {
	key := strings.TrimSpace(id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ragModel.ErrStorageIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages
		WHERE chat_history_id = (SELECT session_id FROM chat_sessions WHERE session_key = ?)`, key); err != nil {
		return fmt.Errorf("%w: deleting messages: %v", ragModel.ErrStorageIO, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("%w: deleting session: %v", ragModel.ErrStorageIO, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ragModel.ErrStorageIO, err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
