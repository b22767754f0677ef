package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/filmorate/internal/film"
	"github.com/hitoshi/filmorate/internal/model"
)

// FilmServiceInterface は映画ハンドラーが必要とするサービスインターフェース。
type FilmServiceInterface interface {
	// CreateFilm は映画を作成する。
	CreateFilm(ctx context.Context, input film.Input) (*model.Film, error)
	// UpdateFilm は映画の可変フィールドと関連付けを全置換で更新する。
	UpdateFilm(ctx context.Context, id string, input film.Input) (*model.Film, error)
	// GetFilm は指定IDの映画を取得する。
	GetFilm(ctx context.Context, id string) (*model.Film, error)
	// ListFilms は全映画を作成順で返す。
	ListFilms(ctx context.Context) ([]*model.Film, error)
	// DeleteFilm は指定IDの映画と関連データを削除する。
	DeleteFilm(ctx context.Context, id string) error
	// AddLike はいいねを追加し、フィードイベントを記録する（冪等）。
	AddLike(ctx context.Context, filmID, userID string) error
	// DeleteLike はいいねを削除する。
	DeleteLike(ctx context.Context, filmID, userID string) error
	// ListTop はいいね数降順のトップ映画一覧を返す。
	ListTop(ctx context.Context, count, genreID, year int) ([]*model.Film, error)
	// ListCommon は両ユーザーがいいねした映画を返す。
	ListCommon(ctx context.Context, userID, friendID string) ([]*model.Film, error)
	// Search はタイトル・監督名の部分一致で映画を検索する。
	Search(ctx context.Context, query, by string) ([]*model.Film, error)
	// ListByDirector は指定監督の映画をソート指定付きで返す。
	ListByDirector(ctx context.Context, directorID, sortBy string) ([]*model.Film, error)
}

// FilmHandler は映画管理のHTTPハンドラー。
type FilmHandler struct {
	service FilmServiceInterface
}

// NewFilmHandler はFilmHandlerを生成する。
func NewFilmHandler(service FilmServiceInterface) *FilmHandler {
	return &FilmHandler{
		service: service,
	}
}

// idRef はIDのみを持つ参照オブジェクト。
type idRef struct {
	ID int `json:"id"`
}

// directorRef は監督参照オブジェクト。
type directorRef struct {
	ID string `json:"id"`
}

// filmRequest は映画作成・更新リクエストのボディ。
// 更新時はidで対象映画を指定する。
type filmRequest struct {
	ID          string        `json:"id"`
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description"`
	ReleaseDate string        `json:"releaseDate" validate:"required"`
	Duration    int           `json:"duration"`
	MPA         idRef         `json:"mpa"`
	Genres      []idRef       `json:"genres"`
	Directors   []directorRef `json:"directors"`
}

// genreResponse はジャンルのAPIレスポンス。
type genreResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// mpaResponse はMPAレーティングのAPIレスポンス。
type mpaResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// directorResponse は監督のAPIレスポンス。
type directorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// filmResponse は映画情報のAPIレスポンス。
type filmResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	ReleaseDate string             `json:"releaseDate"`
	Duration    int                `json:"duration"`
	MPA         mpaResponse        `json:"mpa"`
	Genres      []genreResponse    `json:"genres"`
	Directors   []directorResponse `json:"directors"`
	LikeCount   int                `json:"likeCount"`
}

func toFilmResponse(f *model.Film) filmResponse {
	genres := make([]genreResponse, len(f.Genres))
	for i, g := range f.Genres {
		genres[i] = genreResponse{ID: g.ID, Name: g.Name}
	}
	directors := make([]directorResponse, len(f.Directors))
	for i, d := range f.Directors {
		directors[i] = directorResponse{ID: d.ID, Name: d.Name}
	}
	return filmResponse{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		ReleaseDate: f.ReleaseDate.Format(dateLayout),
		Duration:    f.Duration,
		MPA:         mpaResponse{ID: f.MPA.ID, Name: f.MPA.Name},
		Genres:      genres,
		Directors:   directors,
		LikeCount:   f.LikeCount,
	}
}

func toFilmResponses(films []*model.Film) []filmResponse {
	responses := make([]filmResponse, len(films))
	for i, f := range films {
		responses[i] = toFilmResponse(f)
	}
	return responses
}

// decodeFilmRequest はリクエストボディを解析・検証し、サービス入力に変換する。
func decodeFilmRequest(w http.ResponseWriter, r *http.Request) (*filmRequest, *film.Input, bool) {
	var req filmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w)
		return nil, nil, false
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return nil, nil, false
	}
	releaseDate, apiErr := parseDate("releaseDate", req.ReleaseDate)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return nil, nil, false
	}

	genreIDs := make([]int, len(req.Genres))
	for i, g := range req.Genres {
		genreIDs[i] = g.ID
	}
	directorIDs := make([]string, len(req.Directors))
	for i, d := range req.Directors {
		directorIDs[i] = d.ID
	}

	return &req, &film.Input{
		Name:        req.Name,
		Description: req.Description,
		ReleaseDate: releaseDate,
		Duration:    req.Duration,
		MPAID:       req.MPA.ID,
		GenreIDs:    genreIDs,
		DirectorIDs: directorIDs,
	}, true
}

// parseOptionalInt はクエリパラメータを整数として解析する。
// 未指定の場合はdefaultValueを返す。
func parseOptionalInt(w http.ResponseWriter, r *http.Request, name string, defaultValue int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(name+"は整数であること"))
		return 0, false
	}
	return value, true
}

// CreateFilm は映画を作成する。
// POST /films
func (h *FilmHandler) CreateFilm(w http.ResponseWriter, r *http.Request) {
	_, input, ok := decodeFilmRequest(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateFilm(r.Context(), *input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toFilmResponse(created))
}

// UpdateFilm は映画を更新する。対象IDはボディのidで指定する。
// PUT /films
func (h *FilmHandler) UpdateFilm(w http.ResponseWriter, r *http.Request) {
	req, input, ok := decodeFilmRequest(w, r)
	if !ok {
		return
	}
	if req.ID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("更新にはidが必要です"))
		return
	}

	updated, err := h.service.UpdateFilm(r.Context(), req.ID, *input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toFilmResponse(updated))
}

// ListFilms は全映画一覧を返す。
// GET /films
func (h *FilmHandler) ListFilms(w http.ResponseWriter, r *http.Request) {
	films, err := h.service.ListFilms(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toFilmResponses(films))
}

// GetFilm は映画詳細を返す。
// GET /films/{id}
func (h *FilmHandler) GetFilm(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.GetFilm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toFilmResponse(f))
}

// DeleteFilm は映画と関連データを削除する。
// DELETE /films/{id}
func (h *FilmHandler) DeleteFilm(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFilm(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddLike は映画にいいねを追加する。
// PUT /films/{id}/like/{userId}
func (h *FilmHandler) AddLike(w http.ResponseWriter, r *http.Request) {
	filmID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userId")

	if err := h.service.AddLike(r.Context(), filmID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteLike は映画のいいねを削除する。
// DELETE /films/{id}/like/{userId}
func (h *FilmHandler) DeleteLike(w http.ResponseWriter, r *http.Request) {
	filmID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userId")

	if err := h.service.DeleteLike(r.Context(), filmID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTop はいいね数降順のトップ映画一覧を返す。
// GET /films/popular?count=&genreId=&year=
func (h *FilmHandler) ListTop(w http.ResponseWriter, r *http.Request) {
	count, ok := parseOptionalInt(w, r, "count", film.DefaultTopCount)
	if !ok {
		return
	}
	genreID, ok := parseOptionalInt(w, r, "genreId", 0)
	if !ok {
		return
	}
	year, ok := parseOptionalInt(w, r, "year", 0)
	if !ok {
		return
	}

	films, err := h.service.ListTop(r.Context(), count, genreID, year)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toFilmResponses(films))
}

// ListCommon は両ユーザーがいいねした映画を返す。
// GET /films/common?userId=&friendId=
func (h *FilmHandler) ListCommon(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	friendID := r.URL.Query().Get("friendId")
	if userID == "" || friendID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("userIdとfriendIdは必須です"))
		return
	}

	films, err := h.service.ListCommon(r.Context(), userID, friendID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toFilmResponses(films))
}

// Search はタイトル・監督名の部分一致で映画を検索する。
// GET /films/search?query=&by=
func (h *FilmHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	by := r.URL.Query().Get("by")

	films, err := h.service.Search(r.Context(), query, by)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toFilmResponses(films))
}

// ListByDirector は指定監督の映画をソート指定付きで返す。
// GET /films/director/{directorId}?sortBy=year|likes
func (h *FilmHandler) ListByDirector(w http.ResponseWriter, r *http.Request) {
	directorID := chi.URLParam(r, "directorId")
	sortBy := r.URL.Query().Get("sortBy")

	films, err := h.service.ListByDirector(r.Context(), directorID, sortBy)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toFilmResponses(films))
}
