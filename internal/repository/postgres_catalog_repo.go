package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/filmorate/internal/model"
)

// PostgresGenreRepo はPostgreSQLを使用したジャンル参照リポジトリ。
// ジャンルはマイグレーションでシードされるため読み取り専用。
type PostgresGenreRepo struct {
	db *sql.DB
}

// NewPostgresGenreRepo はPostgresGenreRepoを生成する。
func NewPostgresGenreRepo(db *sql.DB) *PostgresGenreRepo {
	return &PostgresGenreRepo{db: db}
}

// FindByID は指定IDのジャンルを取得する。見つからない場合はnilを返す。
func (r *PostgresGenreRepo) FindByID(ctx context.Context, id int) (*model.Genre, error) {
	genre := &model.Genre{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM genres WHERE id = $1`,
		id,
	).Scan(&genre.ID, &genre.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find genre by ID: %w", err)
	}

	return genre, nil
}

// ListAll は全ジャンルをID昇順で返す。
func (r *PostgresGenreRepo) ListAll(ctx context.Context) ([]*model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	genres := []*model.Genre{}
	for rows.Next() {
		genre := &model.Genre{}
		if err := rows.Scan(&genre.ID, &genre.Name); err != nil {
			return nil, fmt.Errorf("failed to scan genre row: %w", err)
		}
		genres = append(genres, genre)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate genre rows: %w", err)
	}
	return genres, nil
}

// PostgresMPARepo はPostgreSQLを使用したMPAレーティング参照リポジトリ。
// レーティングはマイグレーションでシードされるため読み取り専用。
type PostgresMPARepo struct {
	db *sql.DB
}

// NewPostgresMPARepo はPostgresMPARepoを生成する。
func NewPostgresMPARepo(db *sql.DB) *PostgresMPARepo {
	return &PostgresMPARepo{db: db}
}

// FindByID は指定IDのMPAレーティングを取得する。見つからない場合はnilを返す。
func (r *PostgresMPARepo) FindByID(ctx context.Context, id int) (*model.MPA, error) {
	mpa := &model.MPA{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM mpa_ratings WHERE id = $1`,
		id,
	).Scan(&mpa.ID, &mpa.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find MPA rating by ID: %w", err)
	}

	return mpa, nil
}

// ListAll は全MPAレーティングをID昇順で返す。
func (r *PostgresMPARepo) ListAll(ctx context.Context) ([]*model.MPA, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM mpa_ratings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list MPA ratings: %w", err)
	}
	defer rows.Close()

	ratings := []*model.MPA{}
	for rows.Next() {
		mpa := &model.MPA{}
		if err := rows.Scan(&mpa.ID, &mpa.Name); err != nil {
			return nil, fmt.Errorf("failed to scan MPA rating row: %w", err)
		}
		ratings = append(ratings, mpa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate MPA rating rows: %w", err)
	}
	return ratings, nil
}

// compile-time interface checks
var (
	_ GenreRepository = (*PostgresGenreRepo)(nil)
	_ MPARepository   = (*PostgresMPARepo)(nil)
)
