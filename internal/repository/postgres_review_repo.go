package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/filmorate/internal/model"
)

// reviewSelectSQL はレビュー取得クエリの共通部分。
// Usefulスコアはreview_reactionsからの導出値として読み取り時に集計する。
const reviewSelectSQL = `
	SELECT r.id, r.content, r.is_positive, r.user_id, r.film_id,
	       COALESCE((SELECT SUM(CASE WHEN rr.is_like THEN 1 ELSE -1 END)
	                 FROM review_reactions rr WHERE rr.review_id = r.id), 0) AS useful,
	       r.created_at, r.updated_at
	FROM reviews r`

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, content, is_positive, user_id, film_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID, review.Content, review.IsPositive, review.UserID, review.FilmID, review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// Update はレビューの本文と評価フラグのみを更新する。
// 投稿者・対象映画は変更されない。
func (r *PostgresReviewRepo) Update(ctx context.Context, review *model.Review) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET content = $2, is_positive = $3, updated_at = $4 WHERE id = $1`,
		review.ID, review.Content, review.IsPositive, review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("review not found: %s", review.ID)
	}
	return nil
}

// FindByID は指定IDのレビューをUsefulスコア付きで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	review := &model.Review{}
	err := r.db.QueryRowContext(ctx, reviewSelectSQL+` WHERE r.id = $1`, id).Scan(
		&review.ID, &review.Content, &review.IsPositive, &review.UserID, &review.FilmID,
		&review.Useful, &review.CreatedAt, &review.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}

	return review, nil
}

// DeleteByID は指定IDのレビューを削除する。リアクションはCASCADE削除される。
func (r *PostgresReviewRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("review not found: %s", id)
	}
	return nil
}

// ListByFilm は指定映画のレビューをUseful降順で最大count件返す。
// filmIDが空文字列の場合は全映画のレビューを対象とする。
func (r *PostgresReviewRepo) ListByFilm(ctx context.Context, filmID string, count int) ([]*model.Review, error) {
	var rows *sql.Rows
	var err error

	if filmID == "" {
		rows, err = r.db.QueryContext(ctx,
			reviewSelectSQL+` ORDER BY useful DESC, r.created_at, r.id LIMIT $1`,
			count,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			reviewSelectSQL+` WHERE r.film_id = $1 ORDER BY useful DESC, r.created_at, r.id LIMIT $2`,
			filmID, count,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*model.Review{}
	for rows.Next() {
		review := &model.Review{}
		if err := rows.Scan(
			&review.ID, &review.Content, &review.IsPositive, &review.UserID, &review.FilmID,
			&review.Useful, &review.CreatedAt, &review.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}
	return reviews, nil
}

// UpsertReaction は(reviewID, userID)のリアクションを冪等にUPSERTする。
// 同一ユーザーの既存リアクションは種別ごと上書きされる。
func (r *PostgresReviewRepo) UpsertReaction(ctx context.Context, reviewID, userID string, isLike bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO review_reactions (review_id, user_id, is_like)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (review_id, user_id) DO UPDATE SET is_like = EXCLUDED.is_like`,
		reviewID, userID, isLike,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review reaction: %w", err)
	}
	return nil
}

// DeleteReaction は指定種別のリアクションを削除する。
// 一致するリアクションが存在しない場合はfalseを返し、エラーにはしない。
func (r *PostgresReviewRepo) DeleteReaction(ctx context.Context, reviewID, userID string, isLike bool) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM review_reactions
		 WHERE review_id = $1 AND user_id = $2 AND is_like = $3`,
		reviewID, userID, isLike,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete review reaction: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
