package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/filmorate/internal/model"
	"github.com/hitoshi/filmorate/internal/review"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	// CreateReview はレビューを作成し、フィードイベントを記録する。
	CreateReview(ctx context.Context, input review.Input) (*model.Review, error)
	// UpdateReview はレビューの本文と評価フラグのみを更新する。
	UpdateReview(ctx context.Context, id, content string, isPositive bool) (*model.Review, error)
	// GetReview は指定IDのレビューをUsefulスコア付きで取得する。
	GetReview(ctx context.Context, id string) (*model.Review, error)
	// DeleteReview はレビューを削除し、フィードイベントを記録する。
	DeleteReview(ctx context.Context, id string) error
	// ListReviews は指定映画のレビューをUseful降順で返す。
	ListReviews(ctx context.Context, filmID string, count int) ([]*model.Review, error)
	// AddReaction はlike/dislikeリアクションを冪等に登録する。
	AddReaction(ctx context.Context, reviewID, userID string, isLike bool) error
	// DeleteReaction は指定種別のリアクションを削除する。
	DeleteReaction(ctx context.Context, reviewID, userID string, isLike bool) error
}

// ReviewHandler はレビュー管理のHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		service: service,
	}
}

// reviewRequest はレビュー作成・更新リクエストのボディ。
// 更新時はreviewIdで対象レビューを指定し、content・isPositiveのみ反映される。
// isPositiveはポインタで受け、省略とfalseを区別する。
type reviewRequest struct {
	ReviewID   string `json:"reviewId"`
	Content    string `json:"content" validate:"required"`
	IsPositive *bool  `json:"isPositive" validate:"required"`
	UserID     string `json:"userId"`
	FilmID     string `json:"filmId"`
}

// reviewResponse はレビュー情報のAPIレスポンス。
type reviewResponse struct {
	ReviewID   string `json:"reviewId"`
	Content    string `json:"content"`
	IsPositive bool   `json:"isPositive"`
	UserID     string `json:"userId"`
	FilmID     string `json:"filmId"`
	Useful     int    `json:"useful"`
}

func toReviewResponse(rv *model.Review) reviewResponse {
	return reviewResponse{
		ReviewID:   rv.ID,
		Content:    rv.Content,
		IsPositive: rv.IsPositive,
		UserID:     rv.UserID,
		FilmID:     rv.FilmID,
		Useful:     rv.Useful,
	}
}

// decodeReviewRequest はリクエストボディを解析・検証する。
func decodeReviewRequest(w http.ResponseWriter, r *http.Request) (*reviewRequest, bool) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w)
		return nil, false
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return nil, false
	}
	return &req, true
}

// CreateReview はレビューを作成する。
// POST /reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReviewRequest(w, r)
	if !ok {
		return
	}
	if req.UserID == "" || req.FilmID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("userIdとfilmIdは必須です"))
		return
	}

	created, err := h.service.CreateReview(r.Context(), review.Input{
		Content:    req.Content,
		IsPositive: *req.IsPositive,
		UserID:     req.UserID,
		FilmID:     req.FilmID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toReviewResponse(created))
}

// UpdateReview はレビューを更新する。対象IDはボディのreviewIdで指定する。
// PUT /reviews
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReviewRequest(w, r)
	if !ok {
		return
	}
	if req.ReviewID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("更新にはreviewIdが必要です"))
		return
	}

	updated, err := h.service.UpdateReview(r.Context(), req.ReviewID, req.Content, *req.IsPositive)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toReviewResponse(updated))
}

// GetReview はレビュー詳細を返す。
// GET /reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	rv, err := h.service.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toReviewResponse(rv))
}

// DeleteReview はレビューを削除する。
// DELETE /reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteReview(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListReviews はレビュー一覧をUseful降順で返す。
// GET /reviews?filmId=&count=
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	filmID := r.URL.Query().Get("filmId")
	count, ok := parseOptionalInt(w, r, "count", review.DefaultListCount)
	if !ok {
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), filmID, count)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]reviewResponse, len(reviews))
	for i, rv := range reviews {
		responses[i] = toReviewResponse(rv)
	}
	writeJSONResponse(w, http.StatusOK, responses)
}

// reaction はリアクション操作の共通処理。
func (h *ReviewHandler) reaction(w http.ResponseWriter, r *http.Request, isLike, add bool) {
	reviewID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userId")

	var err error
	if add {
		err = h.service.AddReaction(r.Context(), reviewID, userID, isLike)
	} else {
		err = h.service.DeleteReaction(r.Context(), reviewID, userID, isLike)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddLike はレビューにlikeリアクションを登録する。
// PUT /reviews/{id}/like/{userId}
func (h *ReviewHandler) AddLike(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, true, true)
}

// DeleteLike はレビューのlikeリアクションを削除する。
// DELETE /reviews/{id}/like/{userId}
func (h *ReviewHandler) DeleteLike(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, true, false)
}

// AddDislike はレビューにdislikeリアクションを登録する。
// PUT /reviews/{id}/dislike/{userId}
func (h *ReviewHandler) AddDislike(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, false, true)
}

// DeleteDislike はレビューのdislikeリアクションを削除する。
// DELETE /reviews/{id}/dislike/{userId}
func (h *ReviewHandler) DeleteDislike(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, false, false)
}
