package httptransport_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ErlanBelekov/authkit/internal/apiclient"
	"github.com/ErlanBelekov/authkit/internal/auth"
	"github.com/ErlanBelekov/authkit/internal/domain"
	"github.com/ErlanBelekov/authkit/internal/email"
	"github.com/ErlanBelekov/authkit/internal/health"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/kvstore"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/memory"
	"github.com/ErlanBelekov/authkit/internal/storage"
	httptransport "github.com/ErlanBelekov/authkit/internal/transport/http"
	"github.com/ErlanBelekov/authkit/internal/transport/http/handler"
	"github.com/ErlanBelekov/authkit/internal/usecase"
)

const testJWTKey = "router-test-secret-at-least-32-chars"

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newServer wires the dev API the way cmd/server does, on in-memory stores.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := discardLogger()

	users := memory.NewUserRepository()
	serverStore := storage.New(storage.NewMemory(), logger)
	checker := health.NewChecker(logger, prometheus.NewRegistry())
	checker.Add("storage", serverStore.Backend().(health.Pinger))

	handlers := httptransport.Handlers{
		Auth:   handler.NewAuthHandler(usecase.NewAuthUsecase(users, email.NewSender("local", "", "", logger), logger, []byte(testJWTKey), time.Hour, "RNTemplate"), logger),
		User:   handler.NewUserHandler(usecase.NewUserUsecase(users), logger),
		File:   handler.NewFileHandler(usecase.NewFileUsecase(kvstore.NewFileRepository(serverStore)), logger),
		Health: handler.NewHealthHandler(checker),
	}
	srv := httptest.NewServer(httptransport.NewRouter(logger, handlers, users, []byte(testJWTKey)))
	t.Cleanup(srv.Close)
	return srv
}

// newClientSide builds the client stack: storage, API client and auth store.
func newClientSide(baseURL string) (*storage.Storage, *apiclient.Client, *auth.Store) {
	logger := discardLogger()
	store := storage.New(storage.NewMemory(), logger)
	client := apiclient.New(apiclient.Options{BaseURL: baseURL, Tokens: store, Logger: logger, AppName: "RNTemplate"})
	authStore := auth.NewStore(auth.Options{
		Authenticator: auth.NewHTTPAuthenticator(client),
		Persistence:   store,
		Logger:        logger,
	})
	return store, client, authStore
}

func TestEndToEnd_LoginProfileFilesRefreshLogout(t *testing.T) {
	srv := newServer(t)
	store, client, authStore := newClientSide(srv.URL)
	ctx := context.Background()

	if !authStore.Login(ctx, "a@b.com", "whatever") {
		t.Fatalf("Login failed: %q", authStore.Error())
	}
	if u := authStore.User(); u == nil || u.Email != "a@b.com" {
		t.Fatalf("user = %+v", u)
	}

	var me domain.User
	if err := client.Get(ctx, "/users/me", &me); err != nil {
		t.Fatalf("GET /users/me: %v", err)
	}
	if me.ID != authStore.User().ID {
		t.Errorf("me = %+v", me)
	}

	var updated domain.User
	if err := client.Patch(ctx, "/users/me", map[string]string{"firstName": "Jane"}, &updated); err != nil {
		t.Fatalf("PATCH /users/me: %v", err)
	}
	if err := authStore.UpdateUser(ctx, domain.UserPatch{FirstName: &updated.FirstName}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if authStore.User().FirstName != "Jane" {
		t.Errorf("first name = %q", authStore.User().FirstName)
	}

	var uploaded struct {
		ID   string `json:"id"`
		Size int64  `json:"size"`
	}
	err := client.Upload(ctx, apiclient.UploadRequest{
		Path:  "/files",
		Files: []apiclient.UploadFile{{Name: "notes.txt", ContentType: "text/plain", Content: strings.NewReader("hello")}},
	}, &uploaded)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	got, err := client.Download(ctx, "/files/"+uploaded.ID)
	if err != nil || !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("download = %q, %v", got, err)
	}

	// Tokens issued within the same second are identical, so only check the
	// refreshed token is usable and persisted.
	if err := authStore.RefreshToken(ctx); err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	persisted, _, _ := store.UserToken(ctx)
	if persisted == "" || persisted != authStore.Token() {
		t.Errorf("persisted token %q, state token %q", persisted, authStore.Token())
	}
	if err := client.Get(ctx, "/users/me", nil); err != nil {
		t.Errorf("GET with refreshed token: %v", err)
	}

	authStore.Logout(ctx)
	err = client.Get(ctx, "/users/me", nil)
	apiErr, ok := apiclient.AsAPIError(err)
	if !ok || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("after logout err = %v, want 401", err)
	}
}

func TestEndToEnd_UnknownFile_404Message(t *testing.T) {
	srv := newServer(t)
	_, client, authStore := newClientSide(srv.URL)
	ctx := context.Background()
	if !authStore.Login(ctx, "a@b.com", "pw") {
		t.Fatalf("Login failed: %q", authStore.Error())
	}

	err := client.Get(ctx, "/files/does-not-exist", nil)
	apiErr, ok := apiclient.AsAPIError(err)
	if !ok || apiErr.StatusCode != 404 || apiErr.Message != "File not found" || apiErr.Code != "NOT_FOUND" {
		t.Errorf("err = %+v", apiErr)
	}
}

func TestEndToEnd_ValidationErrorsSurfaceAsFieldErrors(t *testing.T) {
	srv := newServer(t)
	_, client, _ := newClientSide(srv.URL)

	err := client.Post(context.Background(), "/auth/login", map[string]string{"email": "nope"}, nil)
	apiErr, ok := apiclient.AsAPIError(err)
	if !ok || apiErr.StatusCode != 400 {
		t.Fatalf("err = %v, want 400", err)
	}
	if len(apiErr.Errors["email"]) == 0 || len(apiErr.Errors["password"]) == 0 {
		t.Errorf("field errors = %v", apiErr.Errors)
	}
	if msg := apiclient.FormatForDisplay(apiErr); !strings.HasPrefix(msg, "Validation failed. ") {
		t.Errorf("display = %q", msg)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}
