// Package director は監督管理のドメインロジックを提供する。
package director

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/filmorate/internal/model"
	"github.com/hitoshi/filmorate/internal/repository"
)

// Service は監督管理のサービス層。
type Service struct {
	directorRepo repository.DirectorRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(directorRepo repository.DirectorRepository) *Service {
	return &Service{directorRepo: directorRepo}
}

// CreateDirector は監督を作成する。
func (s *Service) CreateDirector(ctx context.Context, name string) (*model.Director, error) {
	if name == "" {
		return nil, model.NewValidationError("nameは非空文字列であること")
	}

	now := time.Now().UTC()
	director := &model.Director{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.directorRepo.Create(ctx, director); err != nil {
		return nil, fmt.Errorf("監督の作成に失敗しました: %w", err)
	}

	return director, nil
}

// UpdateDirector は監督名を更新する。
func (s *Service) UpdateDirector(ctx context.Context, id, name string) (*model.Director, error) {
	if name == "" {
		return nil, model.NewValidationError("nameは非空文字列であること")
	}

	existing, err := s.directorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("監督の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewDirectorNotFoundError(id)
	}

	existing.Name = name
	existing.UpdatedAt = time.Now().UTC()

	if err := s.directorRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("監督の更新に失敗しました: %w", err)
	}

	return existing, nil
}

// GetDirector は指定IDの監督を取得する。
func (s *Service) GetDirector(ctx context.Context, id string) (*model.Director, error) {
	director, err := s.directorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("監督の取得に失敗しました: %w", err)
	}
	if director == nil {
		return nil, model.NewDirectorNotFoundError(id)
	}
	return director, nil
}

// ListDirectors は全監督を作成順で返す。
func (s *Service) ListDirectors(ctx context.Context) ([]*model.Director, error) {
	directors, err := s.directorRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("監督一覧の取得に失敗しました: %w", err)
	}
	return directors, nil
}

// DeleteDirector は指定IDの監督を削除する。
// 監督と映画の関連付けのみ外れ、映画本体は残る。
func (s *Service) DeleteDirector(ctx context.Context, id string) error {
	director, err := s.directorRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("監督の取得に失敗しました: %w", err)
	}
	if director == nil {
		return model.NewDirectorNotFoundError(id)
	}

	if err := s.directorRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("監督の削除に失敗しました: %w", err)
	}

	return nil
}
