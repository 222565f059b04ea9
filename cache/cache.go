// Package cache implements a SQLite snapshot of the backend's chats and
// messages. The TUI writes through on every fetch and feed update so the chat
// list renders instantly on the next launch, before the network answers.
package cache

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/malv/aichat/backend"
)

// Cache implements a SQLite cache of backend records.
type Cache struct {
	db *sql.DB
}

// New cache backed by the given database file.
func New(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chats (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			preview TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL,
			content TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			user_id TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS messages_chat_id ON messages (chat_id, created_at)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "creating tables")
	}

	return &Cache{db: db}, nil
}

// ReplaceChats swaps the cached chat list for the given snapshot.
func (c *Cache) ReplaceChats(chats []backend.Chat) error {
	tx, err := c.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chats`); err != nil {
		return errors.Wrap(err, "clearing chats")
	}
	for _, chat := range chats {
		preview, err := json.Marshal(chat.Messages)
		if err != nil {
			return errors.Wrap(err, "marshaling preview")
		}
		_, err = tx.Exec(`
			REPLACE INTO chats (id, title, created_at, preview)
			VALUES (?, ?, ?, ?)
		`, chat.ID, chat.Title, chat.CreatedAt.UnixMicro(), string(preview))
		if err != nil {
			return errors.Wrap(err, "writing chat")
		}
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// ReplaceMessages swaps one chat's cached messages for the given snapshot.
func (c *Cache) ReplaceMessages(chatID string, messages []backend.Message) error {
	tx, err := c.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return errors.Wrap(err, "clearing messages")
	}
	for _, message := range messages {
		_, err = tx.Exec(`
			REPLACE INTO messages (id, chat_id, content, role, created_at, user_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, message.ID, chatID, message.Content, string(message.Role), message.CreatedAt.UnixMicro(), message.UserID)
		if err != nil {
			return errors.Wrap(err, "writing message")
		}
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// ListChats returns the cached chats, newest first.
func (c *Cache) ListChats() ([]backend.Chat, error) {
	rows, err := c.db.Query(`
		SELECT id, title, created_at, preview
		FROM chats
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying chats")
	}
	defer rows.Close()

	var chats []backend.Chat
	for rows.Next() {
		var chat backend.Chat
		var createdAt int64
		var preview string
		if err := rows.Scan(&chat.ID, &chat.Title, &createdAt, &preview); err != nil {
			return nil, errors.Wrap(err, "scanning chat")
		}
		chat.CreatedAt = time.UnixMicro(createdAt).UTC()
		if err := json.Unmarshal([]byte(preview), &chat.Messages); err != nil {
			return nil, errors.Wrap(err, "unmarshaling preview")
		}
		chats = append(chats, chat)
	}
	return chats, errors.Wrap(rows.Err(), "iterating chats")
}

// ListMessages returns one chat's cached messages in chronological order.
func (c *Cache) ListMessages(chatID string) ([]backend.Message, error) {
	rows, err := c.db.Query(`
		SELECT id, content, role, created_at, user_id
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC
	`, chatID)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	defer rows.Close()

	var messages []backend.Message
	for rows.Next() {
		var message backend.Message
		var role string
		var createdAt int64
		if err := rows.Scan(&message.ID, &message.Content, &role, &createdAt, &message.UserID); err != nil {
			return nil, errors.Wrap(err, "scanning message")
		}
		message.Role = backend.Role(role)
		message.CreatedAt = time.UnixMicro(createdAt).UTC()
		messages = append(messages, message)
	}
	return messages, errors.Wrap(rows.Err(), "iterating messages")
}

// Close the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
