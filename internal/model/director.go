// Package model はドメインモデルを定義する。
package model

import "time"

// Director は映画監督を表す。
// ジャンル・MPAと異なり可変の参照データで、作成・更新・削除が可能。
type Director struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
