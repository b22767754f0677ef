// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/filmorate/internal/model"
)

// UserRepository はユーザーとフレンドエッジの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーの可変フィールドを全置換で更新する。
	Update(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// ListAll は全ユーザーを作成順で返す。
	ListAll(ctx context.Context) ([]*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するlikes、friendships、reviews、feed_eventsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// AddFriend はuserID → friendIDの有向フレンドエッジを追加する。
	// 逆向きのエッジが既に存在する場合は両エッジをconfirmedにする。
	// エッジが既に存在する場合は何もしない（冪等）。
	AddFriend(ctx context.Context, userID, friendID string) error

	// DeleteFriend はuserID → friendIDのエッジを削除する。
	// 逆向きのエッジが残る場合はpendingに戻す。
	// エッジが存在しない場合はfalseを返し、エラーにはしない。
	DeleteFriend(ctx context.Context, userID, friendID string) (bool, error)

	// ListFriends はuserIDから出ているエッジの先のユーザー一覧をID昇順で返す。
	ListFriends(ctx context.Context, userID string) ([]*model.User, error)

	// ListCommonFriends は両ユーザーのフレンド集合の積をID昇順で返す。
	// どちらかのユーザーが存在しない場合は空集合を返す。
	ListCommonFriends(ctx context.Context, userID, otherID string) ([]*model.User, error)
}

// FilmRepository は映画・ジャンル／監督関連付け・いいねの永続化インターフェース。
// ジャンル・監督の関連付けは映画本体と同一トランザクションで書き込まれる。
type FilmRepository interface {
	// Create は映画とジャンル・監督の関連付けを同一トランザクションで作成する。
	Create(ctx context.Context, film *model.Film) error

	// Update は映画の可変フィールドと関連付けを同一トランザクションで全置換する。
	Update(ctx context.Context, film *model.Film) error

	// FindByID は指定IDの映画をMPA・ジャンル・監督・いいね数付きで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Film, error)

	// ListAll は全映画を作成順で返す。
	ListAll(ctx context.Context) ([]*model.Film, error)

	// DeleteByID は指定IDの映画を削除する。関連付けといいねはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// AddLike は(filmID, userID)のいいねを追加する。
	// 既に存在する場合はfalseを返し、エラーにはしない（冪等）。
	AddLike(ctx context.Context, filmID, userID string) (bool, error)

	// DeleteLike は(filmID, userID)のいいねを削除する。
	// 存在しない場合はfalseを返し、エラーにはしない。
	DeleteLike(ctx context.Context, filmID, userID string) (bool, error)

	// ListTop はいいね数降順の映画一覧を返す。
	// genreID、yearが0以外の場合はそれぞれジャンル・公開年でフィルタする。
	ListTop(ctx context.Context, count, genreID, year int) ([]*model.Film, error)

	// ListCommon は両ユーザーがいいねした映画を合計いいね数の降順で返す。
	ListCommon(ctx context.Context, userID, friendID string) ([]*model.Film, error)

	// Search はタイトル・監督名の部分一致（大文字小文字を区別しない）で映画を検索する。
	// byTitle、byDirectorの少なくとも一方がtrueであること。
	Search(ctx context.Context, query string, byTitle, byDirector bool) ([]*model.Film, error)

	// ListByDirector は指定監督の映画を公開年昇順またはいいね数降順で返す。
	ListByDirector(ctx context.Context, directorID string, sort model.DirectorSort) ([]*model.Film, error)

	// ListRecommendations は協調フィルタリングによる推薦映画を返す。
	// 対象ユーザーといいねが1件以上重なるユーザー（taste neighbor）がいいねした
	// 映画のうち、対象ユーザーが未いいねのものの重複排除済み和集合。
	ListRecommendations(ctx context.Context, userID string) ([]*model.Film, error)
}

// DirectorRepository は監督データの永続化インターフェース。
type DirectorRepository interface {
	// Create は監督を作成する。
	Create(ctx context.Context, director *model.Director) error
	// Update は監督名を更新する。
	Update(ctx context.Context, director *model.Director) error
	// FindByID は指定IDの監督を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Director, error)
	// ListAll は全監督を作成順で返す。
	ListAll(ctx context.Context) ([]*model.Director, error)
	// DeleteByID は指定IDの監督を削除する。film_directorsのエッジはCASCADE削除され、
	// 映画本体は残る。
	DeleteByID(ctx context.Context, id string) error
}

// GenreRepository はジャンル参照データの読み取りインターフェース。
// ジャンルはマイグレーションでシードされ、実行時に変更されない。
type GenreRepository interface {
	// FindByID は指定IDのジャンルを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int) (*model.Genre, error)
	// ListAll は全ジャンルをID昇順で返す。
	ListAll(ctx context.Context) ([]*model.Genre, error)
}

// MPARepository はMPAレーティング参照データの読み取りインターフェース。
// レーティングはマイグレーションでシードされ、実行時に変更されない。
type MPARepository interface {
	// FindByID は指定IDのMPAレーティングを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int) (*model.MPA, error)
	// ListAll は全MPAレーティングをID昇順で返す。
	ListAll(ctx context.Context) ([]*model.MPA, error)
}

// ReviewRepository はレビューとリアクションの永続化インターフェース。
// Usefulスコアはreview_reactionsからの導出値として読み取り時に集計される。
type ReviewRepository interface {
	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error

	// Update はレビューの本文と評価フラグのみを更新する。
	// 投稿者・対象映画は変更されない。
	Update(ctx context.Context, review *model.Review) error

	// FindByID は指定IDのレビューをUsefulスコア付きで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Review, error)

	// DeleteByID は指定IDのレビューを削除する。リアクションはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// ListByFilm は指定映画のレビューをUseful降順で最大count件返す。
	// filmIDが空文字列の場合は全映画のレビューを対象とする。
	ListByFilm(ctx context.Context, filmID string, count int) ([]*model.Review, error)

	// UpsertReaction は(reviewID, userID)のリアクションを冪等にUPSERTする。
	// 同一ユーザーの既存リアクションは種別ごと上書きされる。
	UpsertReaction(ctx context.Context, reviewID, userID string, isLike bool) error

	// DeleteReaction は指定種別のリアクションを削除する。
	// 一致するリアクションが存在しない場合はfalseを返し、エラーにはしない。
	DeleteReaction(ctx context.Context, reviewID, userID string, isLike bool) (bool, error)
}

// EventRepository はフィードイベントの永続化インターフェース。
// イベントは追記専用で、更新・削除は提供しない。
type EventRepository interface {
	// Create はフィードイベントを追記する。
	Create(ctx context.Context, event *model.Event) error

	// ListByUserID は指定ユーザーのイベントを挿入順で全件返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Event, error)
}
