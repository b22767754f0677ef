package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/filmorate/internal/model"
	"github.com/hitoshi/filmorate/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// CreateUser はユーザーを作成する。nameが空の場合はloginを表示名とする。
	CreateUser(ctx context.Context, input user.Input) (*model.User, error)
	// UpdateUser はユーザーの可変フィールドを全置換で更新する。
	UpdateUser(ctx context.Context, id string, input user.Input) (*model.User, error)
	// GetUser は指定IDのユーザーを取得する。
	GetUser(ctx context.Context, id string) (*model.User, error)
	// ListUsers は全ユーザーを作成順で返す。
	ListUsers(ctx context.Context) ([]*model.User, error)
	// DeleteUser は指定IDのユーザーと関連データを削除する。
	DeleteUser(ctx context.Context, id string) error
	// AddFriend はフレンドエッジを追加し、フィードイベントを記録する。
	AddFriend(ctx context.Context, userID, friendID string) error
	// DeleteFriend はフレンドエッジを削除する。
	DeleteFriend(ctx context.Context, userID, friendID string) error
	// ListFriends はフレンド一覧を返す。
	ListFriends(ctx context.Context, userID string) ([]*model.User, error)
	// ListCommonFriends は共通フレンド一覧を返す。
	ListCommonFriends(ctx context.Context, userID, otherID string) ([]*model.User, error)
	// GetFeed はフィードイベントを挿入順で返す。
	GetFeed(ctx context.Context, userID string) ([]*model.Event, error)
	// GetRecommendations は推薦映画を返す。
	GetRecommendations(ctx context.Context, userID string) ([]*model.Film, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// userRequest はユーザー作成・更新リクエストのボディ。
// 更新時はidで対象ユーザーを指定する。
type userRequest struct {
	ID       string `json:"id"`
	Email    string `json:"email" validate:"required,email"`
	Login    string `json:"login" validate:"required"`
	Name     string `json:"name"`
	Birthday string `json:"birthday" validate:"required"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Login    string `json:"login"`
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
}

// eventResponse はフィードイベントのAPIレスポンス。
// timestampはエポックミリ秒。
type eventResponse struct {
	EventID   string `json:"eventId"`
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"userId"`
	EventType string `json:"eventType"`
	Operation string `json:"operation"`
	EntityID  string `json:"entityId"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Email:    u.Email,
		Login:    u.Login,
		Name:     u.Name,
		Birthday: u.Birthday.Format(dateLayout),
	}
}

func toUserResponses(users []*model.User) []userResponse {
	responses := make([]userResponse, len(users))
	for i, u := range users {
		responses[i] = toUserResponse(u)
	}
	return responses
}

func toEventResponse(e *model.Event) eventResponse {
	return eventResponse{
		EventID:   e.ID,
		Timestamp: e.Timestamp.UnixMilli(),
		UserID:    e.UserID,
		EventType: string(e.EventType),
		Operation: string(e.Operation),
		EntityID:  e.EntityID,
	}
}

// decodeUserRequest はリクエストボディを解析・検証し、サービス入力に変換する。
func decodeUserRequest(w http.ResponseWriter, r *http.Request) (*userRequest, *user.Input, bool) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w)
		return nil, nil, false
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return nil, nil, false
	}
	birthday, apiErr := parseDate("birthday", req.Birthday)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return nil, nil, false
	}
	return &req, &user.Input{
		Email:    req.Email,
		Login:    req.Login,
		Name:     req.Name,
		Birthday: birthday,
	}, true
}

// CreateUser はユーザーを作成する。
// POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	_, input, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateUser(r.Context(), *input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toUserResponse(created))
}

// UpdateUser はユーザーを更新する。対象IDはボディのidで指定する。
// PUT /users
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	req, input, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}
	if req.ID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("更新にはidが必要です"))
		return
	}

	updated, err := h.service.UpdateUser(r.Context(), req.ID, *input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(updated))
}

// ListUsers は全ユーザー一覧を返す。
// GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponses(users))
}

// GetUser はユーザー詳細を返す。
// GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(u))
}

// DeleteUser はユーザーと関連データを削除する。
// DELETE /users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddFriend はフレンドを追加する。
// PUT /users/{id}/friends/{friendId}
func (h *UserHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	friendID := chi.URLParam(r, "friendId")

	if err := h.service.AddFriend(r.Context(), userID, friendID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteFriend はフレンドを削除する。
// DELETE /users/{id}/friends/{friendId}
func (h *UserHandler) DeleteFriend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	friendID := chi.URLParam(r, "friendId")

	if err := h.service.DeleteFriend(r.Context(), userID, friendID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFriends はフレンド一覧を返す。
// GET /users/{id}/friends
func (h *UserHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.service.ListFriends(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponses(friends))
}

// ListCommonFriends は共通フレンド一覧を返す。
// GET /users/{id}/friends/common/{otherId}
func (h *UserHandler) ListCommonFriends(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	otherID := chi.URLParam(r, "otherId")

	common, err := h.service.ListCommonFriends(r.Context(), userID, otherID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponses(common))
}

// GetFeed はユーザーのフィードイベントを挿入順で返す。
// GET /users/{id}/feed
func (h *UserHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.GetFeed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]eventResponse, len(events))
	for i, e := range events {
		responses[i] = toEventResponse(e)
	}
	writeJSONResponse(w, http.StatusOK, responses)
}

// GetRecommendations は推薦映画一覧を返す。
// GET /users/{id}/recommendations
func (h *UserHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	films, err := h.service.GetRecommendations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toFilmResponses(films))
}
