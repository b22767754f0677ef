package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/filmorate/internal/model"
)

// filmSelectSQL は映画取得クエリの共通部分。
// MPAレーティングをJOINし、いいね数をサブクエリで集計する。
const filmSelectSQL = `
	SELECT f.id, f.name, f.description, f.release_date, f.duration_minutes,
	       m.id, m.name,
	       (SELECT COUNT(*) FROM likes l WHERE l.film_id = f.id) AS like_count,
	       f.created_at, f.updated_at
	FROM films f
	JOIN mpa_ratings m ON m.id = f.mpa_id`

// PostgresFilmRepo はPostgreSQLを使用した映画リポジトリ。
// ジャンル・監督の関連付けといいねも同一リポジトリで扱う。
type PostgresFilmRepo struct {
	db *sql.DB
}

// NewPostgresFilmRepo はPostgresFilmRepoを生成する。
func NewPostgresFilmRepo(db *sql.DB) *PostgresFilmRepo {
	return &PostgresFilmRepo{db: db}
}

// Create は映画とジャンル・監督の関連付けを同一トランザクションで作成する。
func (r *PostgresFilmRepo) Create(ctx context.Context, film *model.Film) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO films (id, name, description, release_date, duration_minutes, mpa_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		film.ID, film.Name, film.Description, film.ReleaseDate, film.Duration, film.MPA.ID, film.CreatedAt, film.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert film: %w", err)
	}

	if err := insertFilmRelations(ctx, tx, film); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Update は映画の可変フィールドと関連付けを同一トランザクションで全置換する。
func (r *PostgresFilmRepo) Update(ctx context.Context, film *model.Film) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE films SET name = $2, description = $3, release_date = $4,
		        duration_minutes = $5, mpa_id = $6, updated_at = $7
		 WHERE id = $1`,
		film.ID, film.Name, film.Description, film.ReleaseDate, film.Duration, film.MPA.ID, film.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update film: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("film not found: %s", film.ID)
	}

	// 関連付けは全置換
	if _, err := tx.ExecContext(ctx, `DELETE FROM film_genres WHERE film_id = $1`, film.ID); err != nil {
		return fmt.Errorf("failed to clear film genres: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM film_directors WHERE film_id = $1`, film.ID); err != nil {
		return fmt.Errorf("failed to clear film directors: %w", err)
	}
	if err := insertFilmRelations(ctx, tx, film); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// insertFilmRelations はジャンル・監督の関連付けをトランザクション内で挿入する。
func insertFilmRelations(ctx context.Context, tx *sql.Tx, film *model.Film) error {
	for _, genre := range film.Genres {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO film_genres (film_id, genre_id) VALUES ($1, $2)
			 ON CONFLICT (film_id, genre_id) DO NOTHING`,
			film.ID, genre.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert film genre: %w", err)
		}
	}
	for _, director := range film.Directors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO film_directors (film_id, director_id) VALUES ($1, $2)
			 ON CONFLICT (film_id, director_id) DO NOTHING`,
			film.ID, director.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert film director: %w", err)
		}
	}
	return nil
}

// FindByID は指定IDの映画をMPA・ジャンル・監督・いいね数付きで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresFilmRepo) FindByID(ctx context.Context, id string) (*model.Film, error) {
	film := &model.Film{}
	err := r.db.QueryRowContext(ctx, filmSelectSQL+` WHERE f.id = $1`, id).Scan(
		&film.ID, &film.Name, &film.Description, &film.ReleaseDate, &film.Duration,
		&film.MPA.ID, &film.MPA.Name, &film.LikeCount, &film.CreatedAt, &film.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find film by ID: %w", err)
	}

	if err := r.attachRelations(ctx, []*model.Film{film}); err != nil {
		return nil, err
	}

	return film, nil
}

// ListAll は全映画を作成順で返す。
func (r *PostgresFilmRepo) ListAll(ctx context.Context) ([]*model.Film, error) {
	return r.queryFilms(ctx, filmSelectSQL+` ORDER BY f.created_at, f.id`)
}

// DeleteByID は指定IDの映画を削除する。関連付けといいねはCASCADE削除される。
func (r *PostgresFilmRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM films WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete film: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("film not found: %s", id)
	}
	return nil
}

// AddLike は(filmID, userID)のいいねを追加する。
// 既に存在する場合はfalseを返し、エラーにはしない（冪等）。
func (r *PostgresFilmRepo) AddLike(ctx context.Context, filmID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (film_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (film_id, user_id) DO NOTHING`,
		filmID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert like: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteLike は(filmID, userID)のいいねを削除する。
// 存在しない場合はfalseを返し、エラーにはしない。
func (r *PostgresFilmRepo) DeleteLike(ctx context.Context, filmID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM likes WHERE film_id = $1 AND user_id = $2`,
		filmID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListTop はいいね数降順の映画一覧を返す。
// genreID、yearが0以外の場合はそれぞれジャンル・公開年でフィルタする。
func (r *PostgresFilmRepo) ListTop(ctx context.Context, count, genreID, year int) ([]*model.Film, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if genreID != 0 {
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM film_genres fg WHERE fg.film_id = f.id AND fg.genre_id = $%d)`, argID))
		args = append(args, genreID)
		argID++
	}
	if year != 0 {
		conditions = append(conditions, fmt.Sprintf(
			`EXTRACT(YEAR FROM f.release_date) = $%d`, argID))
		args = append(args, year)
		argID++
	}

	query := filmSelectSQL
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY like_count DESC, f.id LIMIT $%d", argID)
	args = append(args, count)

	return r.queryFilms(ctx, query, args...)
}

// ListCommon は両ユーザーがいいねした映画を合計いいね数の降順で返す。
func (r *PostgresFilmRepo) ListCommon(ctx context.Context, userID, friendID string) ([]*model.Film, error) {
	query := filmSelectSQL + `
	 WHERE EXISTS (SELECT 1 FROM likes l1 WHERE l1.film_id = f.id AND l1.user_id = $1)
	   AND EXISTS (SELECT 1 FROM likes l2 WHERE l2.film_id = f.id AND l2.user_id = $2)
	 ORDER BY like_count DESC, f.id`

	return r.queryFilms(ctx, query, userID, friendID)
}

// Search はタイトル・監督名の部分一致（大文字小文字を区別しない）で映画を検索する。
// 結果はいいね数の降順で返す。
func (r *PostgresFilmRepo) Search(ctx context.Context, query string, byTitle, byDirector bool) ([]*model.Film, error) {
	pattern := "%" + query + "%"

	var conditions []string
	if byTitle {
		conditions = append(conditions, `f.name ILIKE $1`)
	}
	if byDirector {
		conditions = append(conditions,
			`EXISTS (SELECT 1 FROM film_directors fd
			         JOIN directors d ON d.id = fd.director_id
			         WHERE fd.film_id = f.id AND d.name ILIKE $1)`)
	}
	if len(conditions) == 0 {
		return []*model.Film{}, nil
	}

	sqlQuery := filmSelectSQL +
		" WHERE (" + strings.Join(conditions, " OR ") + ")" +
		" ORDER BY like_count DESC, f.id"

	return r.queryFilms(ctx, sqlQuery, pattern)
}

// ListByDirector は指定監督の映画を公開年昇順またはいいね数降順で返す。
func (r *PostgresFilmRepo) ListByDirector(ctx context.Context, directorID string, sort model.DirectorSort) ([]*model.Film, error) {
	orderBy := "f.release_date, f.id"
	if sort == model.DirectorSortLikes {
		orderBy = "like_count DESC, f.id"
	}

	query := filmSelectSQL + `
	 WHERE EXISTS (SELECT 1 FROM film_directors fd WHERE fd.film_id = f.id AND fd.director_id = $1)
	 ORDER BY ` + orderBy

	return r.queryFilms(ctx, query, directorID)
}

// ListRecommendations は協調フィルタリングによる推薦映画を返す。
// 対象ユーザーといいねが1件以上重なるユーザーがいいねした映画のうち、
// 対象ユーザーが未いいねのものの和集合。重み付けは行わない。
func (r *PostgresFilmRepo) ListRecommendations(ctx context.Context, userID string) ([]*model.Film, error) {
	query := filmSelectSQL + `
	 WHERE f.id IN (
	     SELECT nl.film_id
	     FROM likes nl
	     WHERE nl.user_id IN (
	         SELECT DISTINCT other.user_id
	         FROM likes other
	         JOIN likes mine ON mine.film_id = other.film_id AND mine.user_id = $1
	         WHERE other.user_id <> $1
	     )
	       AND nl.film_id NOT IN (SELECT film_id FROM likes WHERE user_id = $1)
	 )
	 ORDER BY like_count DESC, f.id`

	return r.queryFilms(ctx, query, userID)
}

// queryFilms は映画一覧クエリを実行し、関連付けを付与して返す。
func (r *PostgresFilmRepo) queryFilms(ctx context.Context, query string, args ...interface{}) ([]*model.Film, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query films: %w", err)
	}
	defer rows.Close()

	films := []*model.Film{}
	for rows.Next() {
		film := &model.Film{}
		if err := rows.Scan(
			&film.ID, &film.Name, &film.Description, &film.ReleaseDate, &film.Duration,
			&film.MPA.ID, &film.MPA.Name, &film.LikeCount, &film.CreatedAt, &film.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan film row: %w", err)
		}
		films = append(films, film)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate film rows: %w", err)
	}

	if err := r.attachRelations(ctx, films); err != nil {
		return nil, err
	}

	return films, nil
}

// attachRelations は取得済みの映画集合にジャンル・監督を一括で付与する。
// N+1クエリを避けるためANY($1)でまとめて取得する。
func (r *PostgresFilmRepo) attachRelations(ctx context.Context, films []*model.Film) error {
	if len(films) == 0 {
		return nil
	}

	ids := make([]string, len(films))
	byID := make(map[string]*model.Film, len(films))
	for i, film := range films {
		ids[i] = film.ID
		byID[film.ID] = film
		film.Genres = []model.Genre{}
		film.Directors = []model.Director{}
	}

	genreRows, err := r.db.QueryContext(ctx,
		`SELECT fg.film_id, g.id, g.name
		 FROM film_genres fg
		 JOIN genres g ON g.id = fg.genre_id
		 WHERE fg.film_id = ANY($1)
		 ORDER BY g.id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to query film genres: %w", err)
	}
	defer genreRows.Close()

	for genreRows.Next() {
		var filmID string
		var genre model.Genre
		if err := genreRows.Scan(&filmID, &genre.ID, &genre.Name); err != nil {
			return fmt.Errorf("failed to scan film genre row: %w", err)
		}
		if film, ok := byID[filmID]; ok {
			film.Genres = append(film.Genres, genre)
		}
	}
	if err := genreRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate film genre rows: %w", err)
	}

	directorRows, err := r.db.QueryContext(ctx,
		`SELECT fd.film_id, d.id, d.name, d.created_at, d.updated_at
		 FROM film_directors fd
		 JOIN directors d ON d.id = fd.director_id
		 WHERE fd.film_id = ANY($1)
		 ORDER BY d.id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to query film directors: %w", err)
	}
	defer directorRows.Close()

	for directorRows.Next() {
		var filmID string
		var director model.Director
		if err := directorRows.Scan(&filmID, &director.ID, &director.Name, &director.CreatedAt, &director.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan film director row: %w", err)
		}
		if film, ok := byID[filmID]; ok {
			film.Directors = append(film.Directors, director)
		}
	}
	if err := directorRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate film director rows: %w", err)
	}

	return nil
}

// compile-time interface check
var _ FilmRepository = (*PostgresFilmRepo)(nil)
