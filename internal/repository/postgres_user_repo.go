package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/filmorate/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, login, name, birthday, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Login, user.Name, user.Birthday, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はユーザーの可変フィールドを全置換で更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $2, login = $3, name = $4, birthday = $5, updated_at = $6
		 WHERE id = $1`,
		user.ID, user.Email, user.Login, user.Name, user.Birthday, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, login, name, birthday, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.Login, &user.Name, &user.Birthday, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// ListAll は全ユーザーを作成順で返す。
func (r *PostgresUserRepo) ListAll(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, login, name, birthday, created_at, updated_at
		 FROM users ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するlikes、friendships、reviews、feed_eventsはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// AddFriend はuserID → friendIDの有向フレンドエッジを追加する。
// 逆向きのエッジが既に存在する場合は両エッジをconfirmedにする。
func (r *PostgresUserRepo) AddFriend(ctx context.Context, userID, friendID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// エッジを追加（既存の場合は何もしない）
	_, err = tx.ExecContext(ctx,
		`INSERT INTO friendships (user_id, friend_id, status)
		 VALUES ($1, $2, 'pending')
		 ON CONFLICT (user_id, friend_id) DO NOTHING`,
		userID, friendID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert friendship: %w", err)
	}

	// 逆向きのエッジが存在する場合は両エッジをconfirmedにする
	var reverseExists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`,
		friendID, userID,
	).Scan(&reverseExists)
	if err != nil {
		return fmt.Errorf("failed to check reverse friendship: %w", err)
	}

	if reverseExists {
		_, err = tx.ExecContext(ctx,
			`UPDATE friendships SET status = 'confirmed'
			 WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`,
			userID, friendID,
		)
		if err != nil {
			return fmt.Errorf("failed to confirm friendship: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteFriend はuserID → friendIDのエッジを削除する。
// 逆向きのエッジが残る場合はpendingに戻す。
// エッジが存在しない場合はfalseを返し、エラーにはしない。
func (r *PostgresUserRepo) DeleteFriend(ctx context.Context, userID, friendID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM friendships WHERE user_id = $1 AND friend_id = $2`,
		userID, friendID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete friendship: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	// 片側だけになった逆向きエッジはpendingに戻す
	_, err = tx.ExecContext(ctx,
		`UPDATE friendships SET status = 'pending' WHERE user_id = $1 AND friend_id = $2`,
		friendID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to downgrade reverse friendship: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// ListFriends はuserIDから出ているエッジの先のユーザー一覧をID昇順で返す。
func (r *PostgresUserRepo) ListFriends(ctx context.Context, userID string) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.login, u.name, u.birthday, u.created_at, u.updated_at
		 FROM users u
		 JOIN friendships f ON f.friend_id = u.id
		 WHERE f.user_id = $1
		 ORDER BY u.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListCommonFriends は両ユーザーのフレンド集合の積をID昇順で返す。
// どちらかのユーザーが存在しない場合は空集合を返す。
func (r *PostgresUserRepo) ListCommonFriends(ctx context.Context, userID, otherID string) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT u.id, u.email, u.login, u.name, u.birthday, u.created_at, u.updated_at
		 FROM users u
		 JOIN friendships f1 ON f1.friend_id = u.id AND f1.user_id = $1
		 JOIN friendships f2 ON f2.friend_id = u.id AND f2.user_id = $2
		 ORDER BY u.id`,
		userID, otherID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list common friends: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// scanUsers は行セットからユーザーのスライスを組み立てる。
func scanUsers(rows *sql.Rows) ([]*model.User, error) {
	users := []*model.User{}
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.Login, &user.Name, &user.Birthday, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
