package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string, log zerolog.Logger) (*sqlx.DB, error) {
	database, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Info().Msg("database migrations applied")
	return database, nil
}

func runMigrations(database *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            phone_number TEXT NOT NULL UNIQUE,
            country_code TEXT NOT NULL DEFAULT '',
            about TEXT NOT NULL DEFAULT '',
            profile_image TEXT NOT NULL DEFAULT '',
            user_status TEXT NOT NULL DEFAULT 'new',
            is_online BOOLEAN NOT NULL DEFAULT FALSE,
            last_seen_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS user_devices (
            user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            device_id TEXT NOT NULL,
            device_name TEXT NOT NULL DEFAULT '',
            device_type TEXT NOT NULL DEFAULT '',
            push_token TEXT NOT NULL DEFAULT '',
            last_login_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(user_id, device_id)
        );`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
            message_id TEXT PRIMARY KEY,
            chat_id TEXT NOT NULL,
            sender_id TEXT NOT NULL,
            receiver_id TEXT NOT NULL,
            body TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'sent',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_chat ON chat_messages(chat_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_unread ON chat_messages(chat_id, receiver_id, status);`,
		`CREATE TABLE IF NOT EXISTS chat_list (
            user_id TEXT NOT NULL,
            chat_id TEXT NOT NULL,
            participant_a TEXT NOT NULL,
            participant_b TEXT NOT NULL,
            last_message TEXT NOT NULL DEFAULT '',
            last_sender_id TEXT NOT NULL DEFAULT '',
            last_receiver_id TEXT NOT NULL DEFAULT '',
            last_message_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            last_message_status TEXT NOT NULL DEFAULT 'sent',
            unread_count INT NOT NULL DEFAULT 0,
            PRIMARY KEY(user_id, chat_id)
        );`,
		`CREATE TABLE IF NOT EXISTS call_history (
            call_session_id TEXT PRIMARY KEY,
            caller_id TEXT NOT NULL,
            receiver_id TEXT NOT NULL,
            call_type TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'missed',
            start_time TIMESTAMPTZ NOT NULL,
            end_time TIMESTAMPTZ,
            duration_seconds INT NOT NULL DEFAULT 0,
            disconnect_reason TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_call_history_parties ON call_history(caller_id, receiver_id, start_time);`,
	}

	for _, m := range migrations {
		if _, err := database.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
