// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// エラー種別（validation / not_found / invalid_argument / system）と
// ユーザー向け対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, not_found, invalid_argument, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation      = "validation"
	CategoryNotFound        = "not_found"
	CategoryInvalidArgument = "invalid_argument"
	CategorySystem          = "system"
)

// 定義済みエラーコード
const (
	ErrCodeValidation        = "VALIDATION_FAILED"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeFilmNotFound      = "FILM_NOT_FOUND"
	ErrCodeDirectorNotFound  = "DIRECTOR_NOT_FOUND"
	ErrCodeGenreNotFound     = "GENRE_NOT_FOUND"
	ErrCodeMPANotFound       = "MPA_NOT_FOUND"
	ErrCodeReviewNotFound    = "REVIEW_NOT_FOUND"
	ErrCodeInvalidCount      = "INVALID_COUNT"
	ErrCodeInvalidSearchMode = "INVALID_SEARCH_MODE"
	ErrCodeInvalidSortMode   = "INVALID_SORT_MODE"
	ErrCodeSelfFriendship    = "SELF_FRIENDSHIP"
)

// NewValidationError はドメイン制約違反のエラーを生成する。
// reasonには違反内容の説明を指定する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が制約に違反しています: %s", reason),
		Category: CategoryValidation,
		Action:   "リクエスト内容を確認して修正してください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: CategoryNotFound,
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewFilmNotFoundError は映画未検出エラーを生成する。
func NewFilmNotFoundError(filmID string) *APIError {
	return &APIError{
		Code:     ErrCodeFilmNotFound,
		Message:  fmt.Sprintf("指定された映画が見つかりません: %s", filmID),
		Category: CategoryNotFound,
		Action:   "映画IDを確認してください。",
	}
}

// NewDirectorNotFoundError は監督未検出エラーを生成する。
func NewDirectorNotFoundError(directorID string) *APIError {
	return &APIError{
		Code:     ErrCodeDirectorNotFound,
		Message:  fmt.Sprintf("指定された監督が見つかりません: %s", directorID),
		Category: CategoryNotFound,
		Action:   "監督IDを確認してください。",
	}
}

// NewGenreNotFoundError はジャンル未検出エラーを生成する。
func NewGenreNotFoundError(genreID int) *APIError {
	return &APIError{
		Code:     ErrCodeGenreNotFound,
		Message:  fmt.Sprintf("指定されたジャンルが見つかりません: %d", genreID),
		Category: CategoryNotFound,
		Action:   "ジャンルIDを確認してください。",
	}
}

// NewMPANotFoundError はMPAレーティング未検出エラーを生成する。
func NewMPANotFoundError(mpaID int) *APIError {
	return &APIError{
		Code:     ErrCodeMPANotFound,
		Message:  fmt.Sprintf("指定されたMPAレーティングが見つかりません: %d", mpaID),
		Category: CategoryNotFound,
		Action:   "MPAレーティングIDを確認してください。",
	}
}

// NewReviewNotFoundError はレビュー未検出エラーを生成する。
func NewReviewNotFoundError(reviewID string) *APIError {
	return &APIError{
		Code:     ErrCodeReviewNotFound,
		Message:  fmt.Sprintf("指定されたレビューが見つかりません: %s", reviewID),
		Category: CategoryNotFound,
		Action:   "レビューIDを確認してください。",
	}
}

// NewInvalidCountError は件数パラメータが不正な場合のエラーを生成する。
func NewInvalidCountError(count int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCount,
		Message:  fmt.Sprintf("件数パラメータが不正です: %d", count),
		Category: CategoryInvalidArgument,
		Action:   "countには0以上の整数を指定してください。",
	}
}

// NewInvalidSearchModeError は検索モードが不正な場合のエラーを生成する。
func NewInvalidSearchModeError(by string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSearchMode,
		Message:  fmt.Sprintf("検索モードが不正です: %s", by),
		Category: CategoryInvalidArgument,
		Action:   "byには title、director またはその組み合わせを指定してください。",
	}
}

// NewInvalidSortModeError は監督別映画一覧のソート指定が不正な場合のエラーを生成する。
func NewInvalidSortModeError(sortBy string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSortMode,
		Message:  fmt.Sprintf("ソート指定が不正です: %s", sortBy),
		Category: CategoryInvalidArgument,
		Action:   "sortByには year または likes を指定してください。",
	}
}

// NewSelfFriendshipError は自分自身へのフレンド申請エラーを生成する。
func NewSelfFriendshipError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeSelfFriendship,
		Message:  fmt.Sprintf("自分自身をフレンドに追加することはできません: %s", userID),
		Category: CategoryValidation,
		Action:   "異なるユーザーIDを指定してください。",
	}
}
