// Package model はドメインモデルを定義する。
package model

import "time"

// Review は映画レビューを表す。
// Usefulはreview_reactionsからの導出値（いいね +1 / よくないね -1 の合計）で、
// レビュー本体には保存されない。
type Review struct {
	ID         string
	Content    string // サニタイズ済み
	IsPositive bool
	UserID     string
	FilmID     string
	Useful     int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
