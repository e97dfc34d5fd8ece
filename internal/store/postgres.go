package store

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB { return s.db }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListOpinions returns every opinion recorded for the event, newest first.
// An unknown event id is not an error; the result is simply empty.
func (s *PostgresStore) ListOpinions(ctx context.Context, eventID string) ([]Opinion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, comment, created_at
		FROM opinions
		WHERE event_id = $1
		ORDER BY created_at DESC, id DESC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list opinions: %w", err)
	}
	defer rows.Close()

	opinions := []Opinion{}
	for rows.Next() {
		var o Opinion
		if err := rows.Scan(&o.ID, &o.EventID, &o.Comment, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan opinion: %w", err)
		}
		opinions = append(opinions, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opinions: %w", err)
	}
	return opinions, nil
}

// InsertOpinion records a new opinion and returns the stored row. The
// database assigns both the id and the created_at timestamp.
func (s *PostgresStore) InsertOpinion(ctx context.Context, eventID, comment string) (Opinion, error) {
	var o Opinion
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO opinions (event_id, comment)
		VALUES ($1, $2)
		RETURNING id, event_id, comment, created_at
	`, eventID, comment).Scan(&o.ID, &o.EventID, &o.Comment, &o.CreatedAt)
	if err != nil {
		return Opinion{}, fmt.Errorf("insert opinion: %w", err)
	}
	return o, nil
}

// CountOpinions reports how many opinions exist for the event.
func (s *PostgresStore) CountOpinions(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM opinions WHERE event_id = $1`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count opinions: %w", err)
	}
	return n, nil
}
