package film

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/filmorate/internal/model"
)

// --- テスト用モック ---

// mockFilmRepo はテスト用のFilmRepositoryモック。
type mockFilmRepo struct {
	films       map[string]*model.Film
	likes       map[string]map[string]bool
	createCalls int
	updateCalls int

	topFilms    []*model.Film
	lastTopArgs struct {
		count, genreID, year int
	}
	searchResult   []*model.Film
	lastSearchArgs struct {
		query      string
		byTitle    bool
		byDirector bool
	}
	byDirectorResult []*model.Film
	lastDirectorSort model.DirectorSort
}

func newMockFilmRepo() *mockFilmRepo {
	return &mockFilmRepo{
		films: make(map[string]*model.Film),
		likes: make(map[string]map[string]bool),
	}
}

func (m *mockFilmRepo) Create(_ context.Context, film *model.Film) error {
	m.createCalls++
	m.films[film.ID] = film
	return nil
}

func (m *mockFilmRepo) Update(_ context.Context, film *model.Film) error {
	m.updateCalls++
	m.films[film.ID] = film
	return nil
}

func (m *mockFilmRepo) FindByID(_ context.Context, id string) (*model.Film, error) {
	f, ok := m.films[id]
	if !ok {
		return nil, nil
	}
	return f, nil
}

func (m *mockFilmRepo) ListAll(_ context.Context) ([]*model.Film, error) {
	var result []*model.Film
	for _, f := range m.films {
		result = append(result, f)
	}
	return result, nil
}

func (m *mockFilmRepo) DeleteByID(_ context.Context, id string) error {
	delete(m.films, id)
	return nil
}

func (m *mockFilmRepo) AddLike(_ context.Context, filmID, userID string) (bool, error) {
	if m.likes[filmID][userID] {
		return false, nil
	}
	if m.likes[filmID] == nil {
		m.likes[filmID] = make(map[string]bool)
	}
	m.likes[filmID][userID] = true
	return true, nil
}

func (m *mockFilmRepo) DeleteLike(_ context.Context, filmID, userID string) (bool, error) {
	if !m.likes[filmID][userID] {
		return false, nil
	}
	delete(m.likes[filmID], userID)
	return true, nil
}

func (m *mockFilmRepo) ListTop(_ context.Context, count, genreID, year int) ([]*model.Film, error) {
	m.lastTopArgs.count = count
	m.lastTopArgs.genreID = genreID
	m.lastTopArgs.year = year
	return m.topFilms, nil
}

func (m *mockFilmRepo) ListCommon(_ context.Context, _, _ string) ([]*model.Film, error) {
	return nil, nil
}

func (m *mockFilmRepo) Search(_ context.Context, query string, byTitle, byDirector bool) ([]*model.Film, error) {
	m.lastSearchArgs.query = query
	m.lastSearchArgs.byTitle = byTitle
	m.lastSearchArgs.byDirector = byDirector
	return m.searchResult, nil
}

func (m *mockFilmRepo) ListByDirector(_ context.Context, _ string, sort model.DirectorSort) ([]*model.Film, error) {
	m.lastDirectorSort = sort
	return m.byDirectorResult, nil
}

func (m *mockFilmRepo) ListRecommendations(_ context.Context, _ string) ([]*model.Film, error) {
	return nil, nil
}

// mockUserRepo はテスト用のUserRepositoryモック。存在確認のみに使用する。
type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error { return nil }
func (m *mockUserRepo) Update(_ context.Context, user *model.User) error { return nil }
func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}
func (m *mockUserRepo) ListAll(_ context.Context) ([]*model.User, error) { return nil, nil }
func (m *mockUserRepo) DeleteByID(_ context.Context, _ string) error     { return nil }
func (m *mockUserRepo) AddFriend(_ context.Context, _, _ string) error   { return nil }
func (m *mockUserRepo) DeleteFriend(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}
func (m *mockUserRepo) ListFriends(_ context.Context, _ string) ([]*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) ListCommonFriends(_ context.Context, _, _ string) ([]*model.User, error) {
	return nil, nil
}

// mockGenreRepo はテスト用のGenreRepositoryモック。
type mockGenreRepo struct {
	genres map[int]*model.Genre
}

func (m *mockGenreRepo) FindByID(_ context.Context, id int) (*model.Genre, error) {
	g, ok := m.genres[id]
	if !ok {
		return nil, nil
	}
	return g, nil
}

func (m *mockGenreRepo) ListAll(_ context.Context) ([]*model.Genre, error) { return nil, nil }

// mockMPARepo はテスト用のMPARepositoryモック。
type mockMPARepo struct {
	ratings map[int]*model.MPA
}

func (m *mockMPARepo) FindByID(_ context.Context, id int) (*model.MPA, error) {
	r, ok := m.ratings[id]
	if !ok {
		return nil, nil
	}
	return r, nil
}

func (m *mockMPARepo) ListAll(_ context.Context) ([]*model.MPA, error) { return nil, nil }

// mockDirectorRepo はテスト用のDirectorRepositoryモック。
type mockDirectorRepo struct {
	directors map[string]*model.Director
}

func (m *mockDirectorRepo) Create(_ context.Context, _ *model.Director) error { return nil }
func (m *mockDirectorRepo) Update(_ context.Context, _ *model.Director) error { return nil }
func (m *mockDirectorRepo) FindByID(_ context.Context, id string) (*model.Director, error) {
	d, ok := m.directors[id]
	if !ok {
		return nil, nil
	}
	return d, nil
}
func (m *mockDirectorRepo) ListAll(_ context.Context) ([]*model.Director, error) {
	return nil, nil
}
func (m *mockDirectorRepo) DeleteByID(_ context.Context, _ string) error { return nil }

// mockEventRepo はテスト用のEventRepositoryモック。
type mockEventRepo struct {
	events []*model.Event
}

func (m *mockEventRepo) Create(_ context.Context, event *model.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventRepo) ListByUserID(_ context.Context, _ string) ([]*model.Event, error) {
	return nil, nil
}

// --- テストヘルパー ---

type testDeps struct {
	filmRepo     *mockFilmRepo
	userRepo     *mockUserRepo
	genreRepo    *mockGenreRepo
	mpaRepo      *mockMPARepo
	directorRepo *mockDirectorRepo
	eventRepo    *mockEventRepo
}

func newTestService() (*Service, *testDeps) {
	deps := &testDeps{
		filmRepo:     newMockFilmRepo(),
		userRepo:     newMockUserRepo(),
		genreRepo:    &mockGenreRepo{genres: map[int]*model.Genre{1: {ID: 1, Name: "Comedy"}, 2: {ID: 2, Name: "Drama"}}},
		mpaRepo:      &mockMPARepo{ratings: map[int]*model.MPA{1: {ID: 1, Name: "G"}, 4: {ID: 4, Name: "R"}}},
		directorRepo: &mockDirectorRepo{directors: map[string]*model.Director{"d1": {ID: "d1", Name: "Michael Mann"}}},
		eventRepo:    &mockEventRepo{},
	}
	svc := NewService(deps.filmRepo, deps.userRepo, deps.genreRepo, deps.mpaRepo, deps.directorRepo, deps.eventRepo)
	return svc, deps
}

func assertAPIError(t *testing.T, err error, wantCode string) *model.APIError {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error should be *model.APIError, got %v", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("code = %q, want %q", apiErr.Code, wantCode)
	}
	return apiErr
}

func validInput() Input {
	return Input{
		Name:        "Heat",
		Description: "Crime drama",
		ReleaseDate: time.Date(1995, 12, 15, 0, 0, 0, 0, time.UTC),
		Duration:    170,
		MPAID:       4,
		GenreIDs:    []int{2},
		DirectorIDs: []string{"d1"},
	}
}

// --- CreateFilm テスト ---

func TestCreateFilm_Success(t *testing.T) {
	svc, deps := newTestService()

	film, err := svc.CreateFilm(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateFilm failed: %v", err)
	}

	if film.ID == "" {
		t.Error("ID should be generated")
	}
	if film.MPA.Name != "R" {
		t.Errorf("MPA.Name = %q, want %q", film.MPA.Name, "R")
	}
	if len(film.Genres) != 1 || film.Genres[0].Name != "Drama" {
		t.Errorf("Genres = %v, want [Drama]", film.Genres)
	}
	if len(film.Directors) != 1 || film.Directors[0].Name != "Michael Mann" {
		t.Errorf("Directors = %v, want [Michael Mann]", film.Directors)
	}
	if deps.filmRepo.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", deps.filmRepo.createCalls)
	}
}

func TestCreateFilm_DeduplicatesGenres(t *testing.T) {
	svc, _ := newTestService()

	input := validInput()
	input.GenreIDs = []int{2, 1, 2, 1}

	film, err := svc.CreateFilm(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateFilm failed: %v", err)
	}
	if len(film.Genres) != 2 {
		t.Errorf("Genres = %d, want 2", len(film.Genres))
	}
}

func TestCreateFilm_EmptyName(t *testing.T) {
	svc, _ := newTestService()

	input := validInput()
	input.Name = ""

	_, err := svc.CreateFilm(context.Background(), input)
	assertAPIError(t, err, model.ErrCodeValidation)
}

func TestCreateFilm_DescriptionLengthBoundary(t *testing.T) {
	svc, _ := newTestService()

	// 200文字（マルチバイト含む）は許容される
	input := validInput()
	input.Description = strings.Repeat("あ", model.MaxDescriptionLength)
	if _, err := svc.CreateFilm(context.Background(), input); err != nil {
		t.Fatalf("CreateFilm with %d runes failed: %v", model.MaxDescriptionLength, err)
	}

	// 201文字は拒否される
	input = validInput()
	input.Description = strings.Repeat("あ", model.MaxDescriptionLength+1)
	_, err := svc.CreateFilm(context.Background(), input)
	assertAPIError(t, err, model.ErrCodeValidation)
}

func TestCreateFilm_ReleaseDateBoundary(t *testing.T) {
	svc, _ := newTestService()

	// 1895-12-28ちょうどは許容される
	input := validInput()
	input.ReleaseDate = model.EarliestReleaseDate
	if _, err := svc.CreateFilm(context.Background(), input); err != nil {
		t.Fatalf("CreateFilm on earliest date failed: %v", err)
	}

	// それより前は拒否される
	input = validInput()
	input.ReleaseDate = model.EarliestReleaseDate.AddDate(0, 0, -1)
	_, err := svc.CreateFilm(context.Background(), input)
	assertAPIError(t, err, model.ErrCodeValidation)
}

func TestCreateFilm_DurationBoundary(t *testing.T) {
	svc, _ := newTestService()

	// 0分は許容される
	input := validInput()
	input.Duration = 0
	if _, err := svc.CreateFilm(context.Background(), input); err != nil {
		t.Fatalf("CreateFilm with zero duration failed: %v", err)
	}

	// 負数は拒否される
	for _, duration := range []int{-1, -90} {
		input := validInput()
		input.Duration = duration

		_, err := svc.CreateFilm(context.Background(), input)
		assertAPIError(t, err, model.ErrCodeValidation)
	}
}

func TestCreateFilm_UnknownMPA(t *testing.T) {
	svc, _ := newTestService()

	input := validInput()
	input.MPAID = 99

	_, err := svc.CreateFilm(context.Background(), input)
	assertAPIError(t, err, model.ErrCodeMPANotFound)
}

func TestCreateFilm_UnknownGenre(t *testing.T) {
	svc, _ := newTestService()

	input := validInput()
	input.GenreIDs = []int{99}

	_, err := svc.CreateFilm(context.Background(), input)
	assertAPIError(t, err, model.ErrCodeGenreNotFound)
}

func TestCreateFilm_UnknownDirector(t *testing.T) {
	svc, _ := newTestService()

	input := validInput()
	input.DirectorIDs = []string{"missing"}

	_, err := svc.CreateFilm(context.Background(), input)
	assertAPIError(t, err, model.ErrCodeDirectorNotFound)
}

// --- UpdateFilm テスト ---

func TestUpdateFilm_PreservesCreatedAtAndLikeCount(t *testing.T) {
	svc, deps := newTestService()

	created, err := svc.CreateFilm(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateFilm failed: %v", err)
	}
	deps.filmRepo.films[created.ID].LikeCount = 5

	input := validInput()
	input.Name = "Heat (Director's Cut)"

	updated, err := svc.UpdateFilm(context.Background(), created.ID, input)
	if err != nil {
		t.Fatalf("UpdateFilm failed: %v", err)
	}
	if updated.Name != "Heat (Director's Cut)" {
		t.Errorf("Name = %q, want %q", updated.Name, "Heat (Director's Cut)")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", updated.CreatedAt, created.CreatedAt)
	}
	if updated.LikeCount != 5 {
		t.Errorf("LikeCount = %d, want 5", updated.LikeCount)
	}
}

func TestUpdateFilm_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.UpdateFilm(context.Background(), "missing", validInput())
	assertAPIError(t, err, model.ErrCodeFilmNotFound)
}

// --- いいねテスト ---

func TestAddLike_RecordsFeedEvent(t *testing.T) {
	svc, deps := newTestService()
	deps.filmRepo.films["f1"] = &model.Film{ID: "f1", Name: "Heat"}
	deps.userRepo.users["u1"] = &model.User{ID: "u1"}

	if err := svc.AddLike(context.Background(), "f1", "u1"); err != nil {
		t.Fatalf("AddLike failed: %v", err)
	}

	if len(deps.eventRepo.events) != 1 {
		t.Fatalf("events = %d, want 1", len(deps.eventRepo.events))
	}
	event := deps.eventRepo.events[0]
	if event.EventType != model.EventTypeLike {
		t.Errorf("event EventType = %q, want %q", event.EventType, model.EventTypeLike)
	}
	if event.Operation != model.EventOperationAdd {
		t.Errorf("event Operation = %q, want %q", event.Operation, model.EventOperationAdd)
	}
	if event.UserID != "u1" || event.EntityID != "f1" {
		t.Errorf("event = %+v, want UserID=u1 EntityID=f1", event)
	}
}

func TestAddLike_Duplicate_NoSecondEvent(t *testing.T) {
	svc, deps := newTestService()
	deps.filmRepo.films["f1"] = &model.Film{ID: "f1", Name: "Heat"}
	deps.userRepo.users["u1"] = &model.User{ID: "u1"}

	if err := svc.AddLike(context.Background(), "f1", "u1"); err != nil {
		t.Fatalf("first AddLike failed: %v", err)
	}
	// 重複いいねは冪等: エラーにもイベントにもならない
	if err := svc.AddLike(context.Background(), "f1", "u1"); err != nil {
		t.Fatalf("second AddLike failed: %v", err)
	}
	if len(deps.eventRepo.events) != 1 {
		t.Errorf("events = %d, want 1", len(deps.eventRepo.events))
	}
}

func TestAddLike_UnknownFilm(t *testing.T) {
	svc, deps := newTestService()
	deps.userRepo.users["u1"] = &model.User{ID: "u1"}

	err := svc.AddLike(context.Background(), "missing", "u1")
	assertAPIError(t, err, model.ErrCodeFilmNotFound)
}

func TestDeleteLike_Absent_NoEvent(t *testing.T) {
	svc, deps := newTestService()
	deps.filmRepo.films["f1"] = &model.Film{ID: "f1", Name: "Heat"}
	deps.userRepo.users["u1"] = &model.User{ID: "u1"}

	if err := svc.DeleteLike(context.Background(), "f1", "u1"); err != nil {
		t.Fatalf("DeleteLike failed: %v", err)
	}
	if len(deps.eventRepo.events) != 0 {
		t.Errorf("events = %d, want 0", len(deps.eventRepo.events))
	}
}

func TestDeleteLike_RecordsRemoveEvent(t *testing.T) {
	svc, deps := newTestService()
	deps.filmRepo.films["f1"] = &model.Film{ID: "f1", Name: "Heat"}
	deps.userRepo.users["u1"] = &model.User{ID: "u1"}
	deps.filmRepo.likes["f1"] = map[string]bool{"u1": true}

	if err := svc.DeleteLike(context.Background(), "f1", "u1"); err != nil {
		t.Fatalf("DeleteLike failed: %v", err)
	}
	if len(deps.eventRepo.events) != 1 {
		t.Fatalf("events = %d, want 1", len(deps.eventRepo.events))
	}
	if deps.eventRepo.events[0].Operation != model.EventOperationRemove {
		t.Errorf("event Operation = %q, want %q", deps.eventRepo.events[0].Operation, model.EventOperationRemove)
	}
}

// --- ランキング / 検索テスト ---

func TestListTop_NegativeCount(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ListTop(context.Background(), -1, 0, 0)
	assertAPIError(t, err, model.ErrCodeInvalidCount)
}

func TestListTop_UnknownGenreFilter(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ListTop(context.Background(), 10, 99, 0)
	assertAPIError(t, err, model.ErrCodeGenreNotFound)
}

func TestListTop_PassesFilters(t *testing.T) {
	svc, deps := newTestService()
	deps.filmRepo.topFilms = []*model.Film{{ID: "f1"}}

	films, err := svc.ListTop(context.Background(), 5, 2, 1995)
	if err != nil {
		t.Fatalf("ListTop failed: %v", err)
	}
	if len(films) != 1 {
		t.Errorf("films = %d, want 1", len(films))
	}
	got := deps.filmRepo.lastTopArgs
	if got.count != 5 || got.genreID != 2 || got.year != 1995 {
		t.Errorf("ListTop args = %+v, want {5 2 1995}", got)
	}
}

func TestListCommon_UnknownUser(t *testing.T) {
	svc, deps := newTestService()
	deps.userRepo.users["u1"] = &model.User{ID: "u1"}

	_, err := svc.ListCommon(context.Background(), "u1", "missing")
	assertAPIError(t, err, model.ErrCodeUserNotFound)
}

func TestParseSearchModes(t *testing.T) {
	tests := []struct {
		by             string
		wantTitle      bool
		wantDirector   bool
		wantErr        bool
	}{
		{by: "", wantTitle: true, wantDirector: true},
		{by: "title", wantTitle: true},
		{by: "director", wantDirector: true},
		{by: "title,director", wantTitle: true, wantDirector: true},
		{by: "director,title", wantTitle: true, wantDirector: true},
		{by: " title , director ", wantTitle: true, wantDirector: true},
		{by: "unknown", wantErr: true},
		{by: "title,unknown", wantErr: true},
	}

	for _, tt := range tests {
		byTitle, byDirector, err := ParseSearchModes(tt.by)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSearchModes(%q) should fail", tt.by)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSearchModes(%q) failed: %v", tt.by, err)
			continue
		}
		if byTitle != tt.wantTitle || byDirector != tt.wantDirector {
			t.Errorf("ParseSearchModes(%q) = (%v, %v), want (%v, %v)",
				tt.by, byTitle, byDirector, tt.wantTitle, tt.wantDirector)
		}
	}
}

func TestSearch_InvalidMode(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Search(context.Background(), "heat", "rating")
	assertAPIError(t, err, model.ErrCodeInvalidSearchMode)
}

func TestSearch_PassesModes(t *testing.T) {
	svc, deps := newTestService()
	deps.filmRepo.searchResult = []*model.Film{{ID: "f1"}}

	if _, err := svc.Search(context.Background(), "heat", "director"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	got := deps.filmRepo.lastSearchArgs
	if got.query != "heat" || got.byTitle || !got.byDirector {
		t.Errorf("Search args = %+v, want query=heat byTitle=false byDirector=true", got)
	}
}

// --- 監督別一覧テスト ---

func TestListByDirector_DefaultSortIsYear(t *testing.T) {
	svc, deps := newTestService()

	if _, err := svc.ListByDirector(context.Background(), "d1", ""); err != nil {
		t.Fatalf("ListByDirector failed: %v", err)
	}
	if deps.filmRepo.lastDirectorSort != model.DirectorSortYear {
		t.Errorf("sort = %q, want %q", deps.filmRepo.lastDirectorSort, model.DirectorSortYear)
	}
}

func TestListByDirector_InvalidSort(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ListByDirector(context.Background(), "d1", "rating")
	assertAPIError(t, err, model.ErrCodeInvalidSortMode)
}

func TestListByDirector_UnknownDirector(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ListByDirector(context.Background(), "missing", "likes")
	assertAPIError(t, err, model.ErrCodeDirectorNotFound)
}
