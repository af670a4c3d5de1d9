package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/sbilibin2017/localbite/internal/hasher"
	"github.com/sbilibin2017/localbite/internal/jwt"
	"github.com/sbilibin2017/localbite/internal/models"
	"github.com/sbilibin2017/localbite/internal/repositories"
	"github.com/sbilibin2017/localbite/internal/services"
)

type testServer struct {
	srv   *httptest.Server
	store *repositories.UserMemoryRepository
	skew  atomic.Int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{store: repositories.NewUserMemoryRepository()}
	tokens := jwt.New(
		jwt.WithSecretKey("router-test-secret"),
		jwt.WithClock(func() time.Time { return time.Now().Add(time.Duration(ts.skew.Load())) }),
	)
	auth := services.NewAuthService(ts.store, ts.store, hasher.NewBcrypt(bcrypt.MinCost), tokens, nil)

	ts.srv = httptest.NewServer(New(Config{
		Auth:           auth,
		Store:          ts.store,
		Tokener:        tokens,
		AllowedOrigins: []string{"*"},
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) post(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(ts.srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (ts *testServer) me(t *testing.T, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/me", nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.post(t, "/api/register", models.RegisterRequest{
		Username: "Jane", Email: "Jane@Example.com", Password: "secret1",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"message":"User created successfully"}`, string(body))

	resp, body = ts.post(t, "/api/login", models.LoginRequest{
		Email: "jane@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "secret1")
	assert.NotContains(t, string(body), "$2a$")
	assert.NotContains(t, string(body), "password")

	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.Equal(t, "login successful", login.Message)
	assert.Equal(t, "Jane", login.User.Name)
	assert.Equal(t, "jane@example.com", login.User.Email)
	assert.NotEmpty(t, login.User.ID)
	assert.NotEmpty(t, login.Token)

	assert.Equal(t, http.StatusOK, ts.me(t, login.Token).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, ts.me(t, "").StatusCode)

	ts.skew.Store(int64(16 * time.Minute))
	assert.Equal(t, http.StatusUnauthorized, ts.me(t, login.Token).StatusCode)
}

func TestRouter_RegisterFailures(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.post(t, "/api/register", models.RegisterRequest{
		Username: "Jane", Email: "jane@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ts.post(t, "/api/register", models.RegisterRequest{
		Username: "Other", Email: "JANE@example.com", Password: "another1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"message":"User already exists"}`, string(body))

	resp, body = ts.post(t, "/api/register", map[string]string{
		"username": "  ", "email": "not-an-email", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid registration data")

	resp, body = ts.post(t, "/api/register", models.RegisterRequest{
		Username: "Zoe", Email: "zoe@example.com", Password: strings.Repeat("é", 40),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid registration data")
	assert.Equal(t, 1, ts.store.Count())

	// The original password still works.
	resp, _ = ts.post(t, "/api/login", models.LoginRequest{Email: "jane@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.post(t, "/api/register", models.RegisterRequest{
		Username: "Jane", Email: "jane@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	wrongPassResp, wrongPass := ts.post(t, "/api/login", models.LoginRequest{Email: "jane@example.com", Password: "nope123"})
	unknownResp, unknown := ts.post(t, "/api/login", models.LoginRequest{Email: "ghost@example.com", Password: "secret1"})

	assert.Equal(t, http.StatusBadRequest, wrongPassResp.StatusCode)
	assert.Equal(t, wrongPassResp.StatusCode, unknownResp.StatusCode)
	assert.Equal(t, string(wrongPass), string(unknown))
}

func TestRouter_ConcurrentRegistration(t *testing.T) {
	ts := newTestServer(t)

	const n = 8
	statuses := make([]int, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			data := fmt.Sprintf(`{"username":"user%d","email":"race@example.com","password":"secret1"}`, i)
			resp, err := http.Post(ts.srv.URL+"/api/register", "application/json", strings.NewReader(data))
			if err != nil {
				return err
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
			return nil
		})
	}
	require.NoError(t, g.Wait())

	created := 0
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
		default:
			t.Fatalf("unexpected status %d", s)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, ts.store.Count())
}

func TestRouter_TestDBAndCORS(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/test-db")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health models.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, health.Connected)

	req, err := http.NewRequest(http.MethodOptions, ts.srv.URL+"/api/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Equal(t, "*", pre.Header.Get("Access-Control-Allow-Origin"))
}
