package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/filmorate/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したフィードイベントリポジトリ。
// イベントは追記専用で、挿入順はseq列（BIGSERIAL）で保持される。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// Create はフィードイベントを追記する。
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feed_events (id, occurred_at, user_id, event_type, operation, entity_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.Timestamp, event.UserID, event.EventType, event.Operation, event.EntityID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feed event: %w", err)
	}
	return nil
}

// ListByUserID は指定ユーザーのイベントを挿入順で全件返す。
func (r *PostgresEventRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, occurred_at, user_id, event_type, operation, entity_id
		 FROM feed_events WHERE user_id = $1 ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed events: %w", err)
	}
	defer rows.Close()

	events := []*model.Event{}
	for rows.Next() {
		event := &model.Event{}
		if err := rows.Scan(&event.ID, &event.Timestamp, &event.UserID, &event.EventType, &event.Operation, &event.EntityID); err != nil {
			return nil, fmt.Errorf("failed to scan feed event row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed event rows: %w", err)
	}
	return events, nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
