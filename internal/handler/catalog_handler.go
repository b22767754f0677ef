package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/filmorate/internal/model"
)

// CatalogServiceInterface は参照データハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	// GetGenre は指定IDのジャンルを取得する。
	GetGenre(ctx context.Context, id int) (*model.Genre, error)
	// ListGenres は全ジャンルをID昇順で返す。
	ListGenres(ctx context.Context) ([]*model.Genre, error)
	// GetMPA は指定IDのMPAレーティングを取得する。
	GetMPA(ctx context.Context, id int) (*model.MPA, error)
	// ListMPA は全MPAレーティングをID昇順で返す。
	ListMPA(ctx context.Context) ([]*model.MPA, error)
}

// CatalogHandler はジャンル・MPAレーティング参照のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		service: service,
	}
}

// parseCatalogID はパスパラメータを整数IDとして解析する。
func parseCatalogID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("idは整数であること"))
		return 0, false
	}
	return id, true
}

// ListGenres は全ジャンル一覧を返す。
// GET /genres
func (h *CatalogHandler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.ListGenres(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]genreResponse, len(genres))
	for i, g := range genres {
		responses[i] = genreResponse{ID: g.ID, Name: g.Name}
	}
	writeJSONResponse(w, http.StatusOK, responses)
}

// GetGenre はジャンル詳細を返す。
// GET /genres/{id}
func (h *CatalogHandler) GetGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCatalogID(w, r)
	if !ok {
		return
	}

	genre, err := h.service.GetGenre(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, genreResponse{ID: genre.ID, Name: genre.Name})
}

// ListMPA は全MPAレーティング一覧を返す。
// GET /mpa
func (h *CatalogHandler) ListMPA(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.service.ListMPA(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]mpaResponse, len(ratings))
	for i, m := range ratings {
		responses[i] = mpaResponse{ID: m.ID, Name: m.Name}
	}
	writeJSONResponse(w, http.StatusOK, responses)
}

// GetMPA はMPAレーティング詳細を返す。
// GET /mpa/{id}
func (h *CatalogHandler) GetMPA(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCatalogID(w, r)
	if !ok {
		return
	}

	mpa, err := h.service.GetMPA(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, mpaResponse{ID: mpa.ID, Name: mpa.Name})
}
