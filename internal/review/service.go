// Package review はレビューとリアクションのドメインロジックを提供する。
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/filmorate/internal/model"
	"github.com/hitoshi/filmorate/internal/repository"
	"github.com/hitoshi/filmorate/internal/security"
)

// DefaultListCount はレビュー一覧のデフォルト件数。
const DefaultListCount = 10

// Input はレビュー作成の入力値。
type Input struct {
	Content    string
	IsPositive bool
	UserID     string
	FilmID     string
}

// Service はレビュー管理のサービス層。
// レビューCRUD、リアクション、フィードイベント記録のビジネスロジックを提供する。
type Service struct {
	reviewRepo repository.ReviewRepository
	userRepo   repository.UserRepository
	filmRepo   repository.FilmRepository
	eventRepo  repository.EventRepository
	sanitizer  security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	filmRepo repository.FilmRepository,
	eventRepo repository.EventRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		reviewRepo: reviewRepo,
		userRepo:   userRepo,
		filmRepo:   filmRepo,
		eventRepo:  eventRepo,
		sanitizer:  sanitizer,
	}
}

// CreateReview はレビューを作成し、フィードイベントを記録する。
// 本文はサニタイズされてから保存される。
func (s *Service) CreateReview(ctx context.Context, input Input) (*model.Review, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, model.NewValidationError("contentは空白のみでない文字列であること")
	}
	if err := s.requireUser(ctx, input.UserID); err != nil {
		return nil, err
	}
	if err := s.requireFilm(ctx, input.FilmID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &model.Review{
		ID:         uuid.NewString(),
		Content:    s.sanitizer.Sanitize(input.Content),
		IsPositive: input.IsPositive,
		UserID:     input.UserID,
		FilmID:     input.FilmID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}

	if err := s.recordEvent(ctx, review.UserID, model.EventOperationAdd, review.ID); err != nil {
		return nil, err
	}

	slog.Info("レビューを作成しました",
		slog.String("review_id", review.ID),
		slog.String("film_id", review.FilmID),
	)

	return review, nil
}

// UpdateReview はレビューの本文と評価フラグのみを更新し、フィードイベントを記録する。
// 投稿者・対象映画は変更されない。イベントは元の投稿者のフィードに記録される。
func (s *Service) UpdateReview(ctx context.Context, id, content string, isPositive bool) (*model.Review, error) {
	if strings.TrimSpace(content) == "" {
		return nil, model.NewValidationError("contentは空白のみでない文字列であること")
	}

	existing, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewReviewNotFoundError(id)
	}

	existing.Content = s.sanitizer.Sanitize(content)
	existing.IsPositive = isPositive
	existing.UpdatedAt = time.Now().UTC()

	if err := s.reviewRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("レビューの更新に失敗しました: %w", err)
	}

	if err := s.recordEvent(ctx, existing.UserID, model.EventOperationUpdate, existing.ID); err != nil {
		return nil, err
	}

	return existing, nil
}

// GetReview は指定IDのレビューをUsefulスコア付きで取得する。
func (s *Service) GetReview(ctx context.Context, id string) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if review == nil {
		return nil, model.NewReviewNotFoundError(id)
	}
	return review, nil
}

// DeleteReview は指定IDのレビューを削除し、フィードイベントを記録する。
// イベントは元の投稿者のフィードに記録される。
func (s *Service) DeleteReview(ctx context.Context, id string) error {
	review, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if review == nil {
		return model.NewReviewNotFoundError(id)
	}

	if err := s.reviewRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}

	return s.recordEvent(ctx, review.UserID, model.EventOperationRemove, review.ID)
}

// ListReviews は指定映画のレビューをUseful降順で最大count件返す。
// filmIDが空文字列の場合は全映画のレビューを対象とする。
func (s *Service) ListReviews(ctx context.Context, filmID string, count int) ([]*model.Review, error) {
	if count < 0 {
		return nil, model.NewInvalidCountError(count)
	}
	if filmID != "" {
		if err := s.requireFilm(ctx, filmID); err != nil {
			return nil, err
		}
	}

	reviews, err := s.reviewRepo.ListByFilm(ctx, filmID, count)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// AddReaction はレビューへのlike/dislikeリアクションを冪等に登録する。
// 同一ユーザーの既存リアクションは上書きされる。
// リアクションはフィードイベントの対象外。
func (s *Service) AddReaction(ctx context.Context, reviewID, userID string, isLike bool) error {
	if err := s.requireReview(ctx, reviewID); err != nil {
		return err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	if err := s.reviewRepo.UpsertReaction(ctx, reviewID, userID, isLike); err != nil {
		return fmt.Errorf("リアクションの登録に失敗しました: %w", err)
	}
	return nil
}

// DeleteReaction は指定種別のリアクションを削除する。
// 一致するリアクションが存在しない場合は何もしない。
func (s *Service) DeleteReaction(ctx context.Context, reviewID, userID string, isLike bool) error {
	if err := s.requireReview(ctx, reviewID); err != nil {
		return err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	if _, err := s.reviewRepo.DeleteReaction(ctx, reviewID, userID, isLike); err != nil {
		return fmt.Errorf("リアクションの削除に失敗しました: %w", err)
	}
	return nil
}

// requireReview は指定IDのレビューの存在を確認する。
func (s *Service) requireReview(ctx context.Context, reviewID string) error {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if review == nil {
		return model.NewReviewNotFoundError(reviewID)
	}
	return nil
}

// requireUser は指定IDのユーザーの存在を確認する。
func (s *Service) requireUser(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(userID)
	}
	return nil
}

// requireFilm は指定IDの映画の存在を確認する。
func (s *Service) requireFilm(ctx context.Context, filmID string) error {
	film, err := s.filmRepo.FindByID(ctx, filmID)
	if err != nil {
		return fmt.Errorf("映画の取得に失敗しました: %w", err)
	}
	if film == nil {
		return model.NewFilmNotFoundError(filmID)
	}
	return nil
}

// recordEvent はレビュー操作のフィードイベントを追記する。
func (s *Service) recordEvent(ctx context.Context, userID string, operation model.EventOperation, reviewID string) error {
	event := &model.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		EventType: model.EventTypeReview,
		Operation: operation,
		EntityID:  reviewID,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("フィードイベントの記録に失敗しました: %w", err)
	}
	return nil
}
