package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the three tables when they do not exist yet.  It is a
// bootstrap for empty databases, not a migration mechanism: existing tables
// are left untouched.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id               BIGINT       NOT NULL AUTO_INCREMENT,
		title            VARCHAR(255) NOT NULL,
		description      TEXT         NULL,
		duration_minutes INT          NOT NULL,
		release_date     DATE         NULL,
		PRIMARY KEY (id),
		INDEX idx_movies_title (title)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS actors (
		id         BIGINT       NOT NULL AUTO_INCREMENT,
		first_name VARCHAR(255) NOT NULL,
		last_name  VARCHAR(255) NOT NULL,
		birth_date DATE         NULL,
		PRIMARY KEY (id),
		INDEX idx_actors_name (first_name, last_name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS screening_schedules (
		id        BIGINT       NOT NULL AUTO_INCREMENT,
		movie_id  BIGINT       NOT NULL,
		actor_id  BIGINT       NOT NULL,
		starts_at DATETIME     NOT NULL,
		location  VARCHAR(255) NULL,
		PRIMARY KEY (id),
		INDEX idx_schedules_movie_starts (movie_id, starts_at),
		INDEX idx_schedules_actor (actor_id),
		CONSTRAINT fk_schedules_movie FOREIGN KEY (movie_id) REFERENCES movies (id) ON DELETE CASCADE,
		CONSTRAINT fk_schedules_actor FOREIGN KEY (actor_id) REFERENCES actors (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema executes the bootstrap statements in order.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
