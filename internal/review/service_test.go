package review

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/filmorate/internal/model"
	"github.com/hitoshi/filmorate/internal/security"
)

// --- テスト用モック ---

// mockReviewRepo はテスト用のReviewRepositoryモック。
type mockReviewRepo struct {
	reviews     map[string]*model.Review
	reactions   map[string]map[string]bool // reviewID -> userID -> isLike
	createCalls int
	updateCalls int

	listResult   []*model.Review
	lastListArgs struct {
		filmID string
		count  int
	}
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{
		reviews:   make(map[string]*model.Review),
		reactions: make(map[string]map[string]bool),
	}
}

func (m *mockReviewRepo) Create(_ context.Context, review *model.Review) error {
	m.createCalls++
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) Update(_ context.Context, review *model.Review) error {
	m.updateCalls++
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) FindByID(_ context.Context, id string) (*model.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	return r, nil
}

func (m *mockReviewRepo) DeleteByID(_ context.Context, id string) error {
	delete(m.reviews, id)
	return nil
}

func (m *mockReviewRepo) ListByFilm(_ context.Context, filmID string, count int) ([]*model.Review, error) {
	m.lastListArgs.filmID = filmID
	m.lastListArgs.count = count
	return m.listResult, nil
}

func (m *mockReviewRepo) UpsertReaction(_ context.Context, reviewID, userID string, isLike bool) error {
	if m.reactions[reviewID] == nil {
		m.reactions[reviewID] = make(map[string]bool)
	}
	m.reactions[reviewID][userID] = isLike
	return nil
}

func (m *mockReviewRepo) DeleteReaction(_ context.Context, reviewID, userID string, isLike bool) (bool, error) {
	current, ok := m.reactions[reviewID][userID]
	if !ok || current != isLike {
		return false, nil
	}
	delete(m.reactions[reviewID], userID)
	return true, nil
}

// mockUserRepo はテスト用のUserRepositoryモック。存在確認のみに使用する。
type mockUserRepo struct {
	users map[string]*model.User
}

func (m *mockUserRepo) Create(_ context.Context, _ *model.User) error { return nil }
func (m *mockUserRepo) Update(_ context.Context, _ *model.User) error { return nil }
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

// mockFilmRepo はテスト用のFilmRepositoryモック。存在確認のみに使用する。
type mockFilmRepo struct {
	films map[string]*model.Film
}

func (m *mockFilmRepo) Create(_ context.Context, _ *model.Film) error { return nil }
func (m *mockFilmRepo) Update(_ context.Context, _ *model.Film) error { return nil }
func (m *mockFilmRepo) FindByID(_ context.Context, id string) (*model.Film, error) {
	f, ok := m.films[id]
	if !ok {
		return nil, nil
	}
	return f, nil
}
func (m *mockFilmRepo) ListAll(_ context.Context) ([]*model.Film, error) { return nil, nil }
func (m *mockFilmRepo) DeleteByID(_ context.Context, _ string) error     { return nil }
func (m *mockFilmRepo) AddLike(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}
func (m *mockFilmRepo) DeleteLike(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}
func (m *mockFilmRepo) ListTop(_ context.Context, _, _, _ int) ([]*model.Film, error) {
	return nil, nil
}
func (m *mockFilmRepo) ListCommon(_ context.Context, _, _ string) ([]*model.Film, error) {
	return nil, nil
}
func (m *mockFilmRepo) Search(_ context.Context, _ string, _, _ bool) ([]*model.Film, error) {
	return nil, nil
}
func (m *mockFilmRepo) ListByDirector(_ context.Context, _ string, _ model.DirectorSort) ([]*model.Film, error) {
	return nil, nil
}
func (m *mockFilmRepo) ListRecommendations(_ context.Context, _ string) ([]*model.Film, error) {
	return nil, nil
}

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
	reviewRepo *mockReviewRepo
	userRepo   *mockUserRepo
	filmRepo   *mockFilmRepo
	eventRepo  *mockEventRepo
}

func newTestService() (*Service, *testDeps) {
	deps := &testDeps{
		reviewRepo: newMockReviewRepo(),
		userRepo:   &mockUserRepo{users: map[string]*model.User{"u1": {ID: "u1"}, "u2": {ID: "u2"}}},
		filmRepo:   &mockFilmRepo{films: map[string]*model.Film{"f1": {ID: "f1", Name: "Heat"}}},
		eventRepo:  &mockEventRepo{},
	}
	svc := NewService(deps.reviewRepo, deps.userRepo, deps.filmRepo, deps.eventRepo, security.NewContentSanitizer())
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
		Content:    "Great crime drama.",
		IsPositive: true,
		UserID:     "u1",
		FilmID:     "f1",
	}
}

// --- CreateReview テスト ---

func TestCreateReview_Success(t *testing.T) {
	svc, deps := newTestService()

	review, err := svc.CreateReview(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}

	if review.ID == "" {
		t.Error("ID should be generated")
	}
	if review.Content != "Great crime drama." {
		t.Errorf("Content = %q, want %q", review.Content, "Great crime drama.")
	}
	if !review.IsPositive {
		t.Error("IsPositive should be true")
	}
	if deps.reviewRepo.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", deps.reviewRepo.createCalls)
	}
}

func TestCreateReview_SanitizesContent(t *testing.T) {
	svc, _ := newTestService()

	input := validInput()
	input.Content = `Nice film <script>alert("xss")</script>`

	review, err := svc.CreateReview(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}
	// scriptタグとその中身が除去されること
	if review.Content != "Nice film " {
		t.Errorf("Content = %q, want %q", review.Content, "Nice film ")
	}
}

func TestCreateReview_RecordsFeedEvent(t *testing.T) {
	svc, deps := newTestService()

	review, err := svc.CreateReview(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}

	if len(deps.eventRepo.events) != 1 {
		t.Fatalf("events = %d, want 1", len(deps.eventRepo.events))
	}
	event := deps.eventRepo.events[0]
	if event.EventType != model.EventTypeReview {
		t.Errorf("event EventType = %q, want %q", event.EventType, model.EventTypeReview)
	}
	if event.Operation != model.EventOperationAdd {
		t.Errorf("event Operation = %q, want %q", event.Operation, model.EventOperationAdd)
	}
	if event.UserID != "u1" || event.EntityID != review.ID {
		t.Errorf("event = %+v, want UserID=u1 EntityID=%s", event, review.ID)
	}
}

func TestCreateReview_BlankContent(t *testing.T) {
	svc, _ := newTestService()

	// 空文字列も空白のみの本文も拒否される
	for _, content := range []string{"", "   ", " \t\n "} {
		input := validInput()
		input.Content = content

		_, err := svc.CreateReview(context.Background(), input)
		assertAPIError(t, err, model.ErrCodeValidation)
	}
}

func TestUpdateReview_BlankContent(t *testing.T) {
	svc, deps := newTestService()
	deps.reviewRepo.reviews["r1"] = &model.Review{
		ID: "r1", Content: "original", IsPositive: true, UserID: "u1", FilmID: "f1",
	}

	_, err := svc.UpdateReview(context.Background(), "r1", "   ", false)
	assertAPIError(t, err, model.ErrCodeValidation)

	if deps.reviewRepo.reviews["r1"].Content != "original" {
		t.Errorf("review content changed despite validation failure: %q", deps.reviewRepo.reviews["r1"].Content)
	}
}

func TestCreateReview_UnknownUser(t *testing.T) {
	svc, _ := newTestService()

	input := validInput()
	input.UserID = "missing"

	_, err := svc.CreateReview(context.Background(), input)
	assertAPIError(t, err, model.ErrCodeUserNotFound)
}

func TestCreateReview_UnknownFilm(t *testing.T) {
	svc, _ := newTestService()

	input := validInput()
	input.FilmID = "missing"

	_, err := svc.CreateReview(context.Background(), input)
	assertAPIError(t, err, model.ErrCodeFilmNotFound)
}

// --- UpdateReview テスト ---

func TestUpdateReview_OnlyContentAndFlagChange(t *testing.T) {
	svc, deps := newTestService()

	created, err := svc.CreateReview(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}

	updated, err := svc.UpdateReview(context.Background(), created.ID, "Changed my mind.", false)
	if err != nil {
		t.Fatalf("UpdateReview failed: %v", err)
	}

	if updated.Content != "Changed my mind." {
		t.Errorf("Content = %q, want %q", updated.Content, "Changed my mind.")
	}
	if updated.IsPositive {
		t.Error("IsPositive should be false")
	}
	// 投稿者と対象映画は変更されない
	if updated.UserID != "u1" || updated.FilmID != "f1" {
		t.Errorf("UserID/FilmID = %q/%q, want u1/f1", updated.UserID, updated.FilmID)
	}
	if deps.reviewRepo.updateCalls != 1 {
		t.Errorf("updateCalls = %d, want 1", deps.reviewRepo.updateCalls)
	}
}

func TestUpdateReview_EventRecordedForOriginalAuthor(t *testing.T) {
	svc, deps := newTestService()
	deps.reviewRepo.reviews["r1"] = &model.Review{ID: "r1", Content: "old", UserID: "u2", FilmID: "f1"}

	if _, err := svc.UpdateReview(context.Background(), "r1", "new content", true); err != nil {
		t.Fatalf("UpdateReview failed: %v", err)
	}

	if len(deps.eventRepo.events) != 1 {
		t.Fatalf("events = %d, want 1", len(deps.eventRepo.events))
	}
	event := deps.eventRepo.events[0]
	// イベントは元の投稿者のフィードに記録されること
	if event.UserID != "u2" {
		t.Errorf("event UserID = %q, want %q", event.UserID, "u2")
	}
	if event.Operation != model.EventOperationUpdate {
		t.Errorf("event Operation = %q, want %q", event.Operation, model.EventOperationUpdate)
	}
}

func TestUpdateReview_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.UpdateReview(context.Background(), "missing", "content", true)
	assertAPIError(t, err, model.ErrCodeReviewNotFound)
}

// --- DeleteReview テスト ---

func TestDeleteReview_EventRecordedForOriginalAuthor(t *testing.T) {
	svc, deps := newTestService()
	deps.reviewRepo.reviews["r1"] = &model.Review{ID: "r1", Content: "old", UserID: "u2", FilmID: "f1"}

	if err := svc.DeleteReview(context.Background(), "r1"); err != nil {
		t.Fatalf("DeleteReview failed: %v", err)
	}

	if _, ok := deps.reviewRepo.reviews["r1"]; ok {
		t.Error("review should be removed")
	}
	if len(deps.eventRepo.events) != 1 {
		t.Fatalf("events = %d, want 1", len(deps.eventRepo.events))
	}
	event := deps.eventRepo.events[0]
	if event.UserID != "u2" {
		t.Errorf("event UserID = %q, want %q", event.UserID, "u2")
	}
	if event.Operation != model.EventOperationRemove {
		t.Errorf("event Operation = %q, want %q", event.Operation, model.EventOperationRemove)
	}
}

func TestDeleteReview_NotFound(t *testing.T) {
	svc, _ := newTestService()

	err := svc.DeleteReview(context.Background(), "missing")
	assertAPIError(t, err, model.ErrCodeReviewNotFound)
}

// --- ListReviews テスト ---

func TestListReviews_NegativeCount(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ListReviews(context.Background(), "f1", -1)
	assertAPIError(t, err, model.ErrCodeInvalidCount)
}

func TestListReviews_UnknownFilm(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ListReviews(context.Background(), "missing", 10)
	assertAPIError(t, err, model.ErrCodeFilmNotFound)
}

func TestListReviews_AllFilms_SkipsFilmCheck(t *testing.T) {
	svc, deps := newTestService()
	deps.reviewRepo.listResult = []*model.Review{{ID: "r1"}}

	// filmID空文字列は全映画対象（映画の存在確認は行わない）
	reviews, err := svc.ListReviews(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("ListReviews failed: %v", err)
	}
	if len(reviews) != 1 {
		t.Errorf("reviews = %d, want 1", len(reviews))
	}
	if deps.reviewRepo.lastListArgs.filmID != "" || deps.reviewRepo.lastListArgs.count != 10 {
		t.Errorf("ListByFilm args = %+v, want {\"\" 10}", deps.reviewRepo.lastListArgs)
	}
}

// --- リアクションテスト ---

func TestAddReaction_OverwritesExisting(t *testing.T) {
	svc, deps := newTestService()
	deps.reviewRepo.reviews["r1"] = &model.Review{ID: "r1", UserID: "u2", FilmID: "f1"}

	if err := svc.AddReaction(context.Background(), "r1", "u1", true); err != nil {
		t.Fatalf("AddReaction failed: %v", err)
	}
	// 同一ユーザーの再リアクションは種別が上書きされる
	if err := svc.AddReaction(context.Background(), "r1", "u1", false); err != nil {
		t.Fatalf("second AddReaction failed: %v", err)
	}

	if isLike := deps.reviewRepo.reactions["r1"]["u1"]; isLike {
		t.Error("reaction should be overwritten to dislike")
	}
	// リアクションはフィードイベントの対象外
	if len(deps.eventRepo.events) != 0 {
		t.Errorf("events = %d, want 0", len(deps.eventRepo.events))
	}
}

func TestAddReaction_UnknownReview(t *testing.T) {
	svc, _ := newTestService()

	err := svc.AddReaction(context.Background(), "missing", "u1", true)
	assertAPIError(t, err, model.ErrCodeReviewNotFound)
}

func TestDeleteReaction_KindMismatchIsNoop(t *testing.T) {
	svc, deps := newTestService()
	deps.reviewRepo.reviews["r1"] = &model.Review{ID: "r1", UserID: "u2", FilmID: "f1"}
	deps.reviewRepo.reactions["r1"] = map[string]bool{"u1": true}

	// like登録済みに対するdislike削除は何もしない
	if err := svc.DeleteReaction(context.Background(), "r1", "u1", false); err != nil {
		t.Fatalf("DeleteReaction failed: %v", err)
	}
	if _, ok := deps.reviewRepo.reactions["r1"]["u1"]; !ok {
		t.Error("like reaction should remain")
	}

	// 種別が一致する削除は反映される
	if err := svc.DeleteReaction(context.Background(), "r1", "u1", true); err != nil {
		t.Fatalf("DeleteReaction failed: %v", err)
	}
	if _, ok := deps.reviewRepo.reactions["r1"]["u1"]; ok {
		t.Error("like reaction should be removed")
	}
}

func TestDeleteReaction_UnknownUser(t *testing.T) {
	svc, deps := newTestService()
	deps.reviewRepo.reviews["r1"] = &model.Review{ID: "r1", UserID: "u2", FilmID: "f1"}

	err := svc.DeleteReaction(context.Background(), "r1", "missing", true)
	assertAPIError(t, err, model.ErrCodeUserNotFound)
}
