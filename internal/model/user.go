// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// Nameが空の場合はLoginが表示名として使用される（サービス層で補完）。
type User struct {
	ID        string
	Email     string
	Login     string
	Name      string
	Birthday  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FriendshipStatus はフレンド関係の確認状態を表す。
type FriendshipStatus string

const (
	// FriendshipPending は一方向のみのフレンド申請状態。
	FriendshipPending FriendshipStatus = "pending"
	// FriendshipConfirmed は双方向に申請が揃った相互確認状態。
	FriendshipConfirmed FriendshipStatus = "confirmed"
)

// Friendship はユーザー間の有向フレンドエッジを表す。
// UserID → FriendID の向きを持ち、逆向きのエッジが存在する場合に
// 両エッジがconfirmedとなる。
type Friendship struct {
	UserID    string
	FriendID  string
	Status    FriendshipStatus
	CreatedAt time.Time
}
