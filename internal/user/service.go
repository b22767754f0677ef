// Package user はユーザー管理とフレンド関係のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/filmorate/internal/model"
	"github.com/hitoshi/filmorate/internal/repository"
)

// Input はユーザー作成・更新の入力値。
type Input struct {
	Email    string
	Login    string
	Name     string
	Birthday time.Time
}

// Service はユーザー管理のサービス層。
// ユーザーCRUD、フレンド関係、フィード、推薦のビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	filmRepo  repository.FilmRepository
	eventRepo repository.EventRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	filmRepo repository.FilmRepository,
	eventRepo repository.EventRepository,
) *Service {
	return &Service{
		userRepo:  userRepo,
		filmRepo:  filmRepo,
		eventRepo: eventRepo,
	}
}

// validateInput はユーザー入力のドメイン制約を検証する。
func validateInput(input Input) error {
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return model.NewValidationError("emailは@を含む非空文字列であること")
	}
	if input.Login == "" || strings.ContainsAny(input.Login, " \t") {
		return model.NewValidationError("loginは空白を含まない非空文字列であること")
	}
	if input.Birthday.After(time.Now()) {
		return model.NewValidationError("birthdayは未来日付でないこと")
	}
	return nil
}

// CreateUser はユーザーを作成する。
// nameが空の場合はloginを表示名として使用する。
func (s *Service) CreateUser(ctx context.Context, input Input) (*model.User, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = input.Login
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:        uuid.NewString(),
		Email:     input.Email,
		Login:     input.Login,
		Name:      name,
		Birthday:  input.Birthday,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを作成しました",
		slog.String("user_id", user.ID),
		slog.String("login", user.Login),
	)

	return user, nil
}

// UpdateUser はユーザーの可変フィールドを全置換で更新する。
func (s *Service) UpdateUser(ctx context.Context, id string, input Input) (*model.User, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	name := input.Name
	if name == "" {
		name = input.Login
	}

	user := &model.User{
		ID:        id,
		Email:     input.Email,
		Login:     input.Login,
		Name:      name,
		Birthday:  input.Birthday,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}

	return user, nil
}

// GetUser は指定IDのユーザーを取得する。
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// ListUsers は全ユーザーを作成順で返す。
func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// DeleteUser は指定IDのユーザーと関連データを削除する。
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(id)
	}

	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("ユーザーを削除しました",
		slog.String("user_id", id),
	)

	return nil
}

// AddFriend はuserID → friendIDのフレンドエッジを追加し、フィードイベントを記録する。
// 自分自身へのフレンド申請はエラーとなる。
func (s *Service) AddFriend(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return model.NewSelfFriendshipError(userID)
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if err := s.requireUser(ctx, friendID); err != nil {
		return err
	}

	if err := s.userRepo.AddFriend(ctx, userID, friendID); err != nil {
		return fmt.Errorf("フレンドの追加に失敗しました: %w", err)
	}

	return s.recordEvent(ctx, userID, model.EventTypeFriend, model.EventOperationAdd, friendID)
}

// DeleteFriend はuserID → friendIDのフレンドエッジを削除する。
// エッジが存在しない場合は何もせず、フィードイベントも記録しない。
func (s *Service) DeleteFriend(ctx context.Context, userID, friendID string) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if err := s.requireUser(ctx, friendID); err != nil {
		return err
	}

	removed, err := s.userRepo.DeleteFriend(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("フレンドの削除に失敗しました: %w", err)
	}
	if !removed {
		return nil
	}

	return s.recordEvent(ctx, userID, model.EventTypeFriend, model.EventOperationRemove, friendID)
}

// ListFriends は指定ユーザーのフレンド一覧を返す。
func (s *Service) ListFriends(ctx context.Context, userID string) ([]*model.User, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	friends, err := s.userRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フレンド一覧の取得に失敗しました: %w", err)
	}
	return friends, nil
}

// ListCommonFriends は両ユーザーの共通フレンド一覧を返す。
// どちらかのユーザーが存在しない場合は空集合を返す。
func (s *Service) ListCommonFriends(ctx context.Context, userID, otherID string) ([]*model.User, error) {
	common, err := s.userRepo.ListCommonFriends(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("共通フレンドの取得に失敗しました: %w", err)
	}
	return common, nil
}

// GetFeed は指定ユーザーのフィードイベントを挿入順で返す。
func (s *Service) GetFeed(ctx context.Context, userID string) ([]*model.Event, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フィードの取得に失敗しました: %w", err)
	}
	return events, nil
}

// GetRecommendations は協調フィルタリングによる推薦映画を返す。
func (s *Service) GetRecommendations(ctx context.Context, userID string) ([]*model.Film, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	films, err := s.filmRepo.ListRecommendations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("推薦映画の取得に失敗しました: %w", err)
	}
	return films, nil
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

// recordEvent はフィードイベントを追記する。
func (s *Service) recordEvent(ctx context.Context, userID string, eventType model.EventType, operation model.EventOperation, entityID string) error {
	event := &model.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		EventType: eventType,
		Operation: operation,
		EntityID:  entityID,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("フィードイベントの記録に失敗しました: %w", err)
	}
	return nil
}
