package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chirp/internal/models"
	"chirp/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "Secr3t!pw"

// testAPI wires a real Server against in-memory sqlite and miniredis.
type testAPI struct {
	t   *testing.T
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testutil.TestConfig()
	cfg.UploadDir = t.TempDir()

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	return &testAPI{t: t, srv: srv, app: srv.App(), db: db, mr: mr}
}

type apiResponse struct {
	Status int
	Body   map[string]any
}

// result returns body["result"] as an object.
func (r apiResponse) result() map[string]any {
	m, _ := r.Body["result"].(map[string]any)
	return m
}

func (a *testAPI) do(method, path string, body any, token string) apiResponse {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.send(req)
}

func (a *testAPI) send(req *http.Request) apiResponse {
	a.t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer func() { _ = resp.Body.Close() }()

	out := apiResponse{Status: resp.StatusCode, Body: map[string]any{}}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out.Body)
	}
	return out
}

// session is a registered user and their tokens.
type session struct {
	ID      uint
	Access  string
	Refresh string
}

func (a *testAPI) register(email string) session {
	a.t.Helper()
	res := a.do(http.MethodPost, "/api/users/register", map[string]any{
		"name":             "Test " + email,
		"email":            email,
		"password":         testPassword,
		"confirm_password": testPassword,
		"date_of_birth":    "1990-01-01T00:00:00Z",
	}, "")
	require.Equal(a.t, http.StatusCreated, res.Status, res.Body)

	result := res.result()
	user := result["user"].(map[string]any)
	return session{
		ID:      uint(user["id"].(float64)),
		Access:  result["access_token"].(string),
		Refresh: result["refresh_token"].(string),
	}
}

// verified registers a user and marks the account verified.
func (a *testAPI) verified(email string) session {
	a.t.Helper()
	s := a.register(email)
	a.setVerify(s.ID, models.UserVerified)
	return s
}

func (a *testAPI) setVerify(userID uint, v models.UserVerifyStatus) {
	a.t.Helper()
	require.NoError(a.t, a.db.Model(&models.User{}).Where("id = ?", userID).Update("verify", v).Error)
}

func (a *testAPI) tweet(token, content string) uint {
	a.t.Helper()
	res := a.do(http.MethodPost, "/api/tweets", map[string]any{"type": 0, "audience": 0, "content": content}, token)
	require.Equal(a.t, http.StatusCreated, res.Status, res.Body)
	return uint(res.result()["id"].(float64))
}

func tweetPath(id uint, suffix string) string {
	return fmt.Sprintf("/api/tweets/%d%s", id, suffix)
}
