package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/filmorate/internal/model"
)

// DirectorServiceInterface は監督ハンドラーが必要とするサービスインターフェース。
type DirectorServiceInterface interface {
	// CreateDirector は監督を作成する。
	CreateDirector(ctx context.Context, name string) (*model.Director, error)
	// UpdateDirector は監督名を更新する。
	UpdateDirector(ctx context.Context, id, name string) (*model.Director, error)
	// GetDirector は指定IDの監督を取得する。
	GetDirector(ctx context.Context, id string) (*model.Director, error)
	// ListDirectors は全監督を作成順で返す。
	ListDirectors(ctx context.Context) ([]*model.Director, error)
	// DeleteDirector は監督を削除する。映画との関連付けのみ外れる。
	DeleteDirector(ctx context.Context, id string) error
}

// DirectorHandler は監督管理のHTTPハンドラー。
type DirectorHandler struct {
	service DirectorServiceInterface
}

// NewDirectorHandler はDirectorHandlerを生成する。
func NewDirectorHandler(service DirectorServiceInterface) *DirectorHandler {
	return &DirectorHandler{
		service: service,
	}
}

// directorRequest は監督作成・更新リクエストのボディ。
// 更新時はidで対象監督を指定する。
type directorRequest struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required"`
}

func toDirectorResponse(d *model.Director) directorResponse {
	return directorResponse{ID: d.ID, Name: d.Name}
}

// CreateDirector は監督を作成する。
// POST /directors
func (h *DirectorHandler) CreateDirector(w http.ResponseWriter, r *http.Request) {
	var req directorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	created, err := h.service.CreateDirector(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toDirectorResponse(created))
}

// UpdateDirector は監督名を更新する。対象IDはボディのidで指定する。
// PUT /directors
func (h *DirectorHandler) UpdateDirector(w http.ResponseWriter, r *http.Request) {
	var req directorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if req.ID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("更新にはidが必要です"))
		return
	}

	updated, err := h.service.UpdateDirector(r.Context(), req.ID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toDirectorResponse(updated))
}

// ListDirectors は全監督一覧を返す。
// GET /directors
func (h *DirectorHandler) ListDirectors(w http.ResponseWriter, r *http.Request) {
	directors, err := h.service.ListDirectors(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]directorResponse, len(directors))
	for i, d := range directors {
		responses[i] = toDirectorResponse(d)
	}
	writeJSONResponse(w, http.StatusOK, responses)
}

// GetDirector は監督詳細を返す。
// GET /directors/{id}
func (h *DirectorHandler) GetDirector(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetDirector(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toDirectorResponse(d))
}

// DeleteDirector は監督を削除する。
// DELETE /directors/{id}
func (h *DirectorHandler) DeleteDirector(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDirector(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
