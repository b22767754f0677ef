// Package model はドメインモデルを定義する。
package model

import "time"

// EventType はフィードイベントの対象種別を表す。
type EventType string

const (
	// EventTypeFriend はフレンド操作のイベント。
	EventTypeFriend EventType = "FRIEND"
	// EventTypeLike はいいね操作のイベント。
	EventTypeLike EventType = "LIKE"
	// EventTypeReview はレビュー操作のイベント。
	EventTypeReview EventType = "REVIEW"
)

// EventOperation はフィードイベントの操作種別を表す。
type EventOperation string

const (
	// EventOperationAdd は追加操作。
	EventOperationAdd EventOperation = "ADD"
	// EventOperationUpdate は更新操作。
	EventOperationUpdate EventOperation = "UPDATE"
	// EventOperationRemove は削除操作。
	EventOperationRemove EventOperation = "REMOVE"
)

// Event はユーザーの行動を記録する追記専用のフィードイベントを表す。
// レビュー・いいね・フレンド操作の副作用として作成され、
// 作成後に変更・削除されることはない。
// EntityIDはEventTypeに応じてフレンドのユーザーID、映画ID、レビューIDを指す。
type Event struct {
	ID        string
	Timestamp time.Time
	UserID    string
	EventType EventType
	Operation EventOperation
	EntityID  string
}
