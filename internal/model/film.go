// Package model はドメインモデルを定義する。
package model

import "time"

// EarliestReleaseDate は登録可能な最古の公開日（リュミエール兄弟の初上映日）。
var EarliestReleaseDate = time.Date(1895, time.December, 28, 0, 0, 0, 0, time.UTC)

// MaxDescriptionLength は映画説明文の最大文字数。
const MaxDescriptionLength = 200

// Film は映画を表す。
// ジャンル・監督とは多対多、MPAレーティングとは多対一の関係を持つ。
type Film struct {
	ID          string
	Name        string
	Description string
	ReleaseDate time.Time
	Duration    int // 分
	MPA         MPA
	Genres      []Genre
	Directors   []Director
	LikeCount   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Genre は映画ジャンルを表す。
// スキーマ作成時にシードされるイミュータブルな参照データ。
type Genre struct {
	ID   int
	Name string
}

// MPA は映画のMPAレーティング区分（G、PG-13等）を表す。
// スキーマ作成時にシードされるイミュータブルな参照データ。
type MPA struct {
	ID   int
	Name string
}

// SearchMode は映画検索の対象フィールドを表す。
type SearchMode string

const (
	// SearchByTitle はタイトル部分一致で検索するモード。
	SearchByTitle SearchMode = "title"
	// SearchByDirector は監督名部分一致で検索するモード。
	SearchByDirector SearchMode = "director"
)

// DirectorSort は監督別映画一覧のソート種別を表す。
type DirectorSort string

const (
	// DirectorSortYear は公開年の昇順でソートする。
	DirectorSortYear DirectorSort = "year"
	// DirectorSortLikes はいいね数の降順でソートする。
	DirectorSortLikes DirectorSort = "likes"
)
