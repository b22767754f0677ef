package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/filmorate/internal/model"
)

// mockDirectorService はDirectorServiceInterfaceのモック実装。
type mockDirectorService struct {
	createDirectorFn func(ctx context.Context, name string) (*model.Director, error)
	updateDirectorFn func(ctx context.Context, id, name string) (*model.Director, error)
	getDirectorFn    func(ctx context.Context, id string) (*model.Director, error)
	listDirectorsFn  func(ctx context.Context) ([]*model.Director, error)
	deleteDirectorFn func(ctx context.Context, id string) error
}

func (m *mockDirectorService) CreateDirector(ctx context.Context, name string) (*model.Director, error) {
	if m.createDirectorFn != nil {
		return m.createDirectorFn(ctx, name)
	}
	return nil, nil
}

func (m *mockDirectorService) UpdateDirector(ctx context.Context, id, name string) (*model.Director, error) {
	if m.updateDirectorFn != nil {
		return m.updateDirectorFn(ctx, id, name)
	}
	return nil, nil
}

func (m *mockDirectorService) GetDirector(ctx context.Context, id string) (*model.Director, error) {
	if m.getDirectorFn != nil {
		return m.getDirectorFn(ctx, id)
	}
	return nil, nil
}

func (m *mockDirectorService) ListDirectors(ctx context.Context) ([]*model.Director, error) {
	if m.listDirectorsFn != nil {
		return m.listDirectorsFn(ctx)
	}
	return nil, nil
}

func (m *mockDirectorService) DeleteDirector(ctx context.Context, id string) error {
	if m.deleteDirectorFn != nil {
		return m.deleteDirectorFn(ctx, id)
	}
	return nil
}

func TestDirectorHandler_CreateDirector_Success(t *testing.T) {
	svc := &mockDirectorService{
		createDirectorFn: func(ctx context.Context, name string) (*model.Director, error) {
			if name != "Michael Mann" {
				t.Errorf("name = %q, want %q", name, "Michael Mann")
			}
			return &model.Director{ID: "d1", Name: "Michael Mann"}, nil
		},
	}
	h := NewDirectorHandler(svc)

	body := `{"name": "Michael Mann"}`
	req := httptest.NewRequest(http.MethodPost, "/directors", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateDirector(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var result directorResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.ID != "d1" || result.Name != "Michael Mann" {
		t.Errorf("result = %+v, want d1/Michael Mann", result)
	}
}

func TestDirectorHandler_CreateDirector_MissingName(t *testing.T) {
	h := NewDirectorHandler(&mockDirectorService{})

	req := httptest.NewRequest(http.MethodPost, "/directors", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	h.CreateDirector(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDirectorHandler_UpdateDirector_MissingID(t *testing.T) {
	h := NewDirectorHandler(&mockDirectorService{})

	body := `{"name": "Michael Mann"}`
	req := httptest.NewRequest(http.MethodPut, "/directors", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.UpdateDirector(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDirectorHandler_UpdateDirector_Success(t *testing.T) {
	svc := &mockDirectorService{
		updateDirectorFn: func(ctx context.Context, id, name string) (*model.Director, error) {
			if id != "d1" || name != "New Name" {
				t.Errorf("args = (%q, %q), want (d1, New Name)", id, name)
			}
			return &model.Director{ID: "d1", Name: "New Name"}, nil
		},
	}
	h := NewDirectorHandler(svc)

	body := `{"id": "d1", "name": "New Name"}`
	req := httptest.NewRequest(http.MethodPut, "/directors", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.UpdateDirector(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestDirectorHandler_GetDirector_NotFound(t *testing.T) {
	svc := &mockDirectorService{
		getDirectorFn: func(ctx context.Context, id string) (*model.Director, error) {
			return nil, model.NewDirectorNotFoundError(id)
		},
	}
	h := NewDirectorHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/directors/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.GetDirector(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDirectorHandler_DeleteDirector_ReturnsNoContent(t *testing.T) {
	svc := &mockDirectorService{
		deleteDirectorFn: func(ctx context.Context, id string) error {
			return nil
		},
	}
	h := NewDirectorHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/directors/d1", nil)
	req = withChiURLParam(req, "id", "d1")
	w := httptest.NewRecorder()

	h.DeleteDirector(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}
