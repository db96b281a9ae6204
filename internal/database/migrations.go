package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255),
		profile_image VARCHAR(500) NOT NULL DEFAULT '/images/profilePic.png',
		provider VARCHAR(50) NOT NULL DEFAULT 'local',
		provider_id VARCHAR(255),
		streak TIMESTAMP WITH TIME ZONE[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_provider ON users(provider, provider_id) WHERE provider_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS logs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content VARCHAR(500) NOT NULL,
		tags TEXT[] NOT NULL DEFAULT '{}',
		image_url VARCHAR(500),
		likes UUID[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_logs_author_id ON logs(author_id)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS collab_projects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		required_skills TEXT[] NOT NULL DEFAULT '{}',
		status VARCHAR(20) NOT NULL DEFAULT 'open',
		collaborators UUID[] NOT NULL DEFAULT '{}',
		pending_requests UUID[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT collab_projects_status_check CHECK (status IN ('open', 'closed', 'in-progress'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_collab_projects_author_id ON collab_projects(author_id)`,
	`CREATE INDEX IF NOT EXISTS idx_collab_projects_status ON collab_projects(status)`,
	`CREATE INDEX IF NOT EXISTS idx_collab_projects_collaborators ON collab_projects USING gin (collaborators)`,

	// room_id is not a foreign key: history may live in mongo instead.
	`CREATE TABLE IF NOT EXISTS messages (
		seq BIGSERIAL PRIMARY KEY,
		id UUID UNIQUE NOT NULL DEFAULT uuid_generate_v4(),
		room_id UUID NOT NULL,
		author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		username VARCHAR(50) NOT NULL,
		body VARCHAR(500) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages(room_id, created_at, seq)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
