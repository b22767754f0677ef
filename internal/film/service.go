// Package film は映画管理といいねのドメインロジックを提供する。
package film

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

// DefaultTopCount はトップ映画一覧のデフォルト件数。
const DefaultTopCount = 10

// Input は映画作成・更新の入力値。
type Input struct {
	Name        string
	Description string
	ReleaseDate time.Time
	Duration    int
	MPAID       int
	GenreIDs    []int
	DirectorIDs []string
}

// Service は映画管理のサービス層。
// 映画CRUD、いいね、検索、ランキングのビジネスロジックを提供する。
type Service struct {
	filmRepo     repository.FilmRepository
	userRepo     repository.UserRepository
	genreRepo    repository.GenreRepository
	mpaRepo      repository.MPARepository
	directorRepo repository.DirectorRepository
	eventRepo    repository.EventRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	filmRepo repository.FilmRepository,
	userRepo repository.UserRepository,
	genreRepo repository.GenreRepository,
	mpaRepo repository.MPARepository,
	directorRepo repository.DirectorRepository,
	eventRepo repository.EventRepository,
) *Service {
	return &Service{
		filmRepo:     filmRepo,
		userRepo:     userRepo,
		genreRepo:    genreRepo,
		mpaRepo:      mpaRepo,
		directorRepo: directorRepo,
		eventRepo:    eventRepo,
	}
}

// validateInput は映画入力のドメイン制約を検証する。
func validateInput(input Input) error {
	if input.Name == "" {
		return model.NewValidationError("nameは非空文字列であること")
	}
	if len([]rune(input.Description)) > model.MaxDescriptionLength {
		return model.NewValidationError(fmt.Sprintf("descriptionは%d文字以内であること", model.MaxDescriptionLength))
	}
	if input.ReleaseDate.Before(model.EarliestReleaseDate) {
		return model.NewValidationError("releaseDateは1895-12-28以降であること")
	}
	if input.Duration < 0 {
		return model.NewValidationError("durationは0以上の整数であること")
	}
	return nil
}

// resolveReferences は入力のMPA・ジャンル・監督の参照を解決する。
// 未知のIDが含まれる場合はnot foundエラーを返す。
func (s *Service) resolveReferences(ctx context.Context, input Input) (model.MPA, []model.Genre, []model.Director, error) {
	mpa, err := s.mpaRepo.FindByID(ctx, input.MPAID)
	if err != nil {
		return model.MPA{}, nil, nil, fmt.Errorf("MPAレーティングの取得に失敗しました: %w", err)
	}
	if mpa == nil {
		return model.MPA{}, nil, nil, model.NewMPANotFoundError(input.MPAID)
	}

	seen := map[int]bool{}
	genres := []model.Genre{}
	for _, genreID := range input.GenreIDs {
		if seen[genreID] {
			continue
		}
		seen[genreID] = true
		genre, err := s.genreRepo.FindByID(ctx, genreID)
		if err != nil {
			return model.MPA{}, nil, nil, fmt.Errorf("ジャンルの取得に失敗しました: %w", err)
		}
		if genre == nil {
			return model.MPA{}, nil, nil, model.NewGenreNotFoundError(genreID)
		}
		genres = append(genres, *genre)
	}

	seenDirectors := map[string]bool{}
	directors := []model.Director{}
	for _, directorID := range input.DirectorIDs {
		if seenDirectors[directorID] {
			continue
		}
		seenDirectors[directorID] = true
		director, err := s.directorRepo.FindByID(ctx, directorID)
		if err != nil {
			return model.MPA{}, nil, nil, fmt.Errorf("監督の取得に失敗しました: %w", err)
		}
		if director == nil {
			return model.MPA{}, nil, nil, model.NewDirectorNotFoundError(directorID)
		}
		directors = append(directors, *director)
	}

	return *mpa, genres, directors, nil
}

// CreateFilm は映画を作成する。
func (s *Service) CreateFilm(ctx context.Context, input Input) (*model.Film, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	mpa, genres, directors, err := s.resolveReferences(ctx, input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	film := &model.Film{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		ReleaseDate: input.ReleaseDate,
		Duration:    input.Duration,
		MPA:         mpa,
		Genres:      genres,
		Directors:   directors,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.filmRepo.Create(ctx, film); err != nil {
		return nil, fmt.Errorf("映画の作成に失敗しました: %w", err)
	}

	slog.Info("映画を作成しました",
		slog.String("film_id", film.ID),
		slog.String("name", film.Name),
	)

	return film, nil
}

// UpdateFilm は映画の可変フィールドと関連付けを全置換で更新する。
func (s *Service) UpdateFilm(ctx context.Context, id string, input Input) (*model.Film, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.filmRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("映画の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewFilmNotFoundError(id)
	}

	mpa, genres, directors, err := s.resolveReferences(ctx, input)
	if err != nil {
		return nil, err
	}

	film := &model.Film{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		ReleaseDate: input.ReleaseDate,
		Duration:    input.Duration,
		MPA:         mpa,
		Genres:      genres,
		Directors:   directors,
		LikeCount:   existing.LikeCount,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}

	if err := s.filmRepo.Update(ctx, film); err != nil {
		return nil, fmt.Errorf("映画の更新に失敗しました: %w", err)
	}

	return film, nil
}

// GetFilm は指定IDの映画を取得する。
func (s *Service) GetFilm(ctx context.Context, id string) (*model.Film, error) {
	film, err := s.filmRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("映画の取得に失敗しました: %w", err)
	}
	if film == nil {
		return nil, model.NewFilmNotFoundError(id)
	}
	return film, nil
}

// ListFilms は全映画を作成順で返す。
func (s *Service) ListFilms(ctx context.Context) ([]*model.Film, error) {
	films, err := s.filmRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("映画一覧の取得に失敗しました: %w", err)
	}
	return films, nil
}

// DeleteFilm は指定IDの映画と関連データを削除する。
func (s *Service) DeleteFilm(ctx context.Context, id string) error {
	film, err := s.filmRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("映画の取得に失敗しました: %w", err)
	}
	if film == nil {
		return model.NewFilmNotFoundError(id)
	}

	if err := s.filmRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("映画の削除に失敗しました: %w", err)
	}

	slog.Info("映画を削除しました",
		slog.String("film_id", id),
	)

	return nil
}

// AddLike は(filmID, userID)のいいねを追加し、フィードイベントを記録する。
// 既にいいね済みの場合は何もせず、イベントも記録しない（冪等）。
func (s *Service) AddLike(ctx context.Context, filmID, userID string) error {
	if err := s.requireFilm(ctx, filmID); err != nil {
		return err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	added, err := s.filmRepo.AddLike(ctx, filmID, userID)
	if err != nil {
		return fmt.Errorf("いいねの追加に失敗しました: %w", err)
	}
	if !added {
		return nil
	}

	return s.recordEvent(ctx, userID, model.EventOperationAdd, filmID)
}

// DeleteLike は(filmID, userID)のいいねを削除する。
// いいねが存在しない場合は何もせず、イベントも記録しない。
func (s *Service) DeleteLike(ctx context.Context, filmID, userID string) error {
	if err := s.requireFilm(ctx, filmID); err != nil {
		return err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	removed, err := s.filmRepo.DeleteLike(ctx, filmID, userID)
	if err != nil {
		return fmt.Errorf("いいねの削除に失敗しました: %w", err)
	}
	if !removed {
		return nil
	}

	return s.recordEvent(ctx, userID, model.EventOperationRemove, filmID)
}

// ListTop はいいね数降順のトップ映画一覧を返す。
// genreID、yearが0以外の場合はフィルタとして適用する。
func (s *Service) ListTop(ctx context.Context, count, genreID, year int) ([]*model.Film, error) {
	if count < 0 {
		return nil, model.NewInvalidCountError(count)
	}
	if genreID != 0 {
		genre, err := s.genreRepo.FindByID(ctx, genreID)
		if err != nil {
			return nil, fmt.Errorf("ジャンルの取得に失敗しました: %w", err)
		}
		if genre == nil {
			return nil, model.NewGenreNotFoundError(genreID)
		}
	}

	films, err := s.filmRepo.ListTop(ctx, count, genreID, year)
	if err != nil {
		return nil, fmt.Errorf("トップ映画一覧の取得に失敗しました: %w", err)
	}
	return films, nil
}

// ListCommon は両ユーザーがいいねした映画を合計いいね数の降順で返す。
func (s *Service) ListCommon(ctx context.Context, userID, friendID string) ([]*model.Film, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, friendID); err != nil {
		return nil, err
	}

	films, err := s.filmRepo.ListCommon(ctx, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("共通映画の取得に失敗しました: %w", err)
	}
	return films, nil
}

// ParseSearchModes はbyパラメータをカンマ区切りで解析する。
// 空文字列の場合はタイトル・監督の両方を対象とする。
func ParseSearchModes(by string) (byTitle, byDirector bool, err error) {
	if by == "" {
		return true, true, nil
	}
	for _, part := range strings.Split(by, ",") {
		switch model.SearchMode(strings.TrimSpace(part)) {
		case model.SearchByTitle:
			byTitle = true
		case model.SearchByDirector:
			byDirector = true
		default:
			return false, false, model.NewInvalidSearchModeError(by)
		}
	}
	return byTitle, byDirector, nil
}

// Search はタイトル・監督名の部分一致で映画を検索し、いいね数降順で返す。
// byには title、director またはそのカンマ区切り組み合わせを指定する。
func (s *Service) Search(ctx context.Context, query, by string) ([]*model.Film, error) {
	byTitle, byDirector, err := ParseSearchModes(by)
	if err != nil {
		return nil, err
	}

	films, err := s.filmRepo.Search(ctx, query, byTitle, byDirector)
	if err != nil {
		return nil, fmt.Errorf("映画の検索に失敗しました: %w", err)
	}
	return films, nil
}

// ListByDirector は指定監督の映画を公開年昇順またはいいね数降順で返す。
func (s *Service) ListByDirector(ctx context.Context, directorID, sortBy string) ([]*model.Film, error) {
	sort := model.DirectorSort(sortBy)
	if sortBy == "" {
		sort = model.DirectorSortYear
	}
	if sort != model.DirectorSortYear && sort != model.DirectorSortLikes {
		return nil, model.NewInvalidSortModeError(sortBy)
	}

	director, err := s.directorRepo.FindByID(ctx, directorID)
	if err != nil {
		return nil, fmt.Errorf("監督の取得に失敗しました: %w", err)
	}
	if director == nil {
		return nil, model.NewDirectorNotFoundError(directorID)
	}

	films, err := s.filmRepo.ListByDirector(ctx, directorID, sort)
	if err != nil {
		return nil, fmt.Errorf("監督別映画一覧の取得に失敗しました: %w", err)
	}
	return films, nil
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

// recordEvent はいいね操作のフィードイベントを追記する。
func (s *Service) recordEvent(ctx context.Context, userID string, operation model.EventOperation, filmID string) error {
	event := &model.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		EventType: model.EventTypeLike,
		Operation: operation,
		EntityID:  filmID,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("フィードイベントの記録に失敗しました: %w", err)
	}
	return nil
}
