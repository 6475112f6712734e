package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/authkit/internal/domain"
	"github.com/ErlanBelekov/authkit/internal/transport/http/handler"
)

type fakeUserUsecase struct {
	me     func(ctx context.Context, userID string) (*domain.User, error)
	update func(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error)
}

func (f *fakeUserUsecase) Me(ctx context.Context, userID string) (*domain.User, error) {
	return f.me(ctx, userID)
}

func (f *fakeUserUsecase) UpdateProfile(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	return f.update(ctx, userID, patch)
}

func newUserEngine(uc *fakeUserUsecase) *gin.Engine {
	h := handler.NewUserHandler(uc, discardLogger())
	r := gin.New()
	r.GET("/users/me", withUser("user-1"), h.Me)
	r.PATCH("/users/me", withUser("user-1"), h.Update)
	return r
}

func TestMe_ReturnsUser(t *testing.T) {
	uc := &fakeUserUsecase{
		me: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "a@b.com"}, nil
		},
	}
	w := httptest.NewRecorder()
	newUserEngine(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"id":"user-1"`) {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestMe_NotFound_Returns404WithMessage(t *testing.T) {
	uc := &fakeUserUsecase{
		me: func(context.Context, string) (*domain.User, error) { return nil, domain.ErrUserNotFound },
	}
	w := httptest.NewRecorder()
	newUserEngine(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))

	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"message":"User not found"`) {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestUpdate_ForwardsPatch(t *testing.T) {
	var got domain.UserPatch
	uc := &fakeUserUsecase{
		update: func(_ context.Context, _ string, patch domain.UserPatch) (*domain.User, error) {
			got = patch
			return &domain.User{ID: "user-1", FirstName: *patch.FirstName}, nil
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/users/me", strings.NewReader(`{"firstName":"Jane"}`))
	req.Header.Set("Content-Type", "application/json")
	newUserEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got.FirstName == nil || *got.FirstName != "Jane" || got.LastName != nil {
		t.Errorf("patch = %+v", got)
	}
}

func TestUpdate_InvalidAvatar_Returns400(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/users/me", strings.NewReader(`{"avatar":"not a url"}`))
	req.Header.Set("Content-Type", "application/json")
	newUserEngine(&fakeUserUsecase{}).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdate_UsecaseError_Returns500(t *testing.T) {
	uc := &fakeUserUsecase{
		update: func(context.Context, string, domain.UserPatch) (*domain.User, error) {
			return nil, errors.New("db down")
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/users/me", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	newUserEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
