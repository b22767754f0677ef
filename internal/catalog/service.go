// Package catalog はジャンル・MPAレーティングの参照データ取得を提供する。
package catalog

import (
	"context"
	"fmt"

	"github.com/hitoshi/filmorate/internal/model"
	"github.com/hitoshi/filmorate/internal/repository"
)

// Service は参照データのサービス層。
// ジャンルとMPAレーティングはマイグレーションでシードされる読み取り専用データ。
type Service struct {
	genreRepo repository.GenreRepository
	mpaRepo   repository.MPARepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(genreRepo repository.GenreRepository, mpaRepo repository.MPARepository) *Service {
	return &Service{
		genreRepo: genreRepo,
		mpaRepo:   mpaRepo,
	}
}

// GetGenre は指定IDのジャンルを取得する。
func (s *Service) GetGenre(ctx context.Context, id int) (*model.Genre, error) {
	genre, err := s.genreRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ジャンルの取得に失敗しました: %w", err)
	}
	if genre == nil {
		return nil, model.NewGenreNotFoundError(id)
	}
	return genre, nil
}

// ListGenres は全ジャンルをID昇順で返す。
func (s *Service) ListGenres(ctx context.Context) ([]*model.Genre, error) {
	genres, err := s.genreRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ジャンル一覧の取得に失敗しました: %w", err)
	}
	return genres, nil
}

// GetMPA は指定IDのMPAレーティングを取得する。
func (s *Service) GetMPA(ctx context.Context, id int) (*model.MPA, error) {
	mpa, err := s.mpaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("MPAレーティングの取得に失敗しました: %w", err)
	}
	if mpa == nil {
		return nil, model.NewMPANotFoundError(id)
	}
	return mpa, nil
}

// ListMPA は全MPAレーティングをID昇順で返す。
func (s *Service) ListMPA(ctx context.Context) ([]*model.MPA, error) {
	ratings, err := s.mpaRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("MPAレーティング一覧の取得に失敗しました: %w", err)
	}
	return ratings, nil
}
