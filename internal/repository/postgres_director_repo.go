package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/filmorate/internal/model"
)

// PostgresDirectorRepo はPostgreSQLを使用した監督リポジトリ。
type PostgresDirectorRepo struct {
	db *sql.DB
}

// NewPostgresDirectorRepo はPostgresDirectorRepoを生成する。
func NewPostgresDirectorRepo(db *sql.DB) *PostgresDirectorRepo {
	return &PostgresDirectorRepo{db: db}
}

// Create は監督を作成する。
func (r *PostgresDirectorRepo) Create(ctx context.Context, director *model.Director) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO directors (id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		director.ID, director.Name, director.CreatedAt, director.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert director: %w", err)
	}
	return nil
}

// Update は監督名を更新する。
func (r *PostgresDirectorRepo) Update(ctx context.Context, director *model.Director) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE directors SET name = $2, updated_at = $3 WHERE id = $1`,
		director.ID, director.Name, director.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update director: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("director not found: %s", director.ID)
	}
	return nil
}

// FindByID は指定IDの監督を取得する。見つからない場合はnilを返す。
func (r *PostgresDirectorRepo) FindByID(ctx context.Context, id string) (*model.Director, error) {
	director := &model.Director{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM directors WHERE id = $1`,
		id,
	).Scan(&director.ID, &director.Name, &director.CreatedAt, &director.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find director by ID: %w", err)
	}

	return director, nil
}

// ListAll は全監督を作成順で返す。
func (r *PostgresDirectorRepo) ListAll(ctx context.Context) ([]*model.Director, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM directors ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list directors: %w", err)
	}
	defer rows.Close()

	directors := []*model.Director{}
	for rows.Next() {
		director := &model.Director{}
		if err := rows.Scan(&director.ID, &director.Name, &director.CreatedAt, &director.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan director row: %w", err)
		}
		directors = append(directors, director)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate director rows: %w", err)
	}
	return directors, nil
}

// DeleteByID は指定IDの監督を削除する。film_directorsのエッジはCASCADE削除され、
// 映画本体は残る。
func (r *PostgresDirectorRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM directors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete director: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("director not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ DirectorRepository = (*PostgresDirectorRepo)(nil)
