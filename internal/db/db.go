package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return conn, nil
}

func runMigrations(conn *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            phone TEXT NOT NULL DEFAULT '',
            avatar TEXT NOT NULL DEFAULT '',
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            is_asesor BOOLEAN NOT NULL DEFAULT FALSE,
            group_asigned INT,
            blocked_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS groups (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            owner_id INT NOT NULL REFERENCES users(id),
            asesor_id INT REFERENCES users(id),
            code_status INT NOT NULL DEFAULT 0,
            last_message_id INT,
            last_message_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS group_users (
            group_id INT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            PRIMARY KEY(group_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS conversations (
            id SERIAL PRIMARY KEY,
            user_id1 INT NOT NULL REFERENCES users(id),
            user_id2 INT NOT NULL REFERENCES users(id),
            last_message_id INT,
            last_message_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(user_id1, user_id2),
            CHECK (user_id1 < user_id2)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL REFERENCES users(id),
            receiver_id INT REFERENCES users(id),
            group_id INT REFERENCES groups(id) ON DELETE CASCADE,
            body TEXT NOT NULL DEFAULT '',
            reply_to_id INT REFERENCES messages(id) ON DELETE SET NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK ((receiver_id IS NULL) <> (group_id IS NULL))
        );`,
		`CREATE TABLE IF NOT EXISTS message_attachments (
            id SERIAL PRIMARY KEY,
            message_id INT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            mime TEXT NOT NULL,
            size BIGINT NOT NULL,
            path TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS message_reactions (
            id SERIAL PRIMARY KEY,
            message_id INT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            emoji TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(message_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS chat_users (
            id SERIAL PRIMARY KEY,
            full_name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            phone TEXT NOT NULL UNIQUE,
            country_code TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS group_deletions (
            group_id INT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            requested_by INT NOT NULL REFERENCES users(id),
            due_at TIMESTAMPTZ NOT NULL,
            PRIMARY KEY(group_id)
        );`,
		// The pointer columns reference messages but must survive a hard
		// delete of the pointed-at message: SET NULL keeps the row valid
		// while the summary maintainer repoints it.
		`ALTER TABLE groups DROP CONSTRAINT IF EXISTS groups_last_message_fk;`,
		`ALTER TABLE groups ADD CONSTRAINT groups_last_message_fk
            FOREIGN KEY (last_message_id) REFERENCES messages(id) ON DELETE SET NULL;`,
		`ALTER TABLE conversations DROP CONSTRAINT IF EXISTS conversations_last_message_fk;`,
		`ALTER TABLE conversations ADD CONSTRAINT conversations_last_message_fk
            FOREIGN KEY (last_message_id) REFERENCES messages(id) ON DELETE SET NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_messages_group ON messages(group_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id, created_at DESC);`,
	}

	for _, m := range migrations {
		if _, err := conn.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
