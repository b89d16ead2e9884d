package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mkarlin94/authledger"
)

type stubVerifier struct {
	claims authledger.IdentityClaims
	err    error
}

func (s stubVerifier) Verify(ctx context.Context, credential string) (authledger.IdentityClaims, error) {
	return s.claims, s.err
}

func newTestRouter(t *testing.T, verifier authledger.IdentityVerifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := authledger.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("httpapi-test-secret-0123456789ab")
	cfg.Password.Memory = 8192
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16

	builder := authledger.New().WithConfig(cfg).WithRedis(rdb)
	if verifier != nil {
		builder = builder.WithIdentityVerifier(verifier)
	}
	engine, err := builder.Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRouter(engine, Config{}, log)
}

func doJSON(router *gin.Engine, method, path string, payload any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeTokens(t *testing.T, rec *httptest.ResponseRecorder) tokenResponse {
	t.Helper()
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func register(t *testing.T, router *gin.Engine, email, password string) registerResponse {
	t.Helper()
	rec := doJSON(router, http.MethodPost, "/auth/register", gin.H{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp registerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func login(t *testing.T, router *gin.Engine, email, password string) (tokenResponse, *http.Cookie) {
	t.Helper()
	rec := doJSON(router, http.MethodPost, "/auth/login", gin.H{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "al_refresh" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the refresh cookie")
	return decodeTokens(t, rec), cookie
}

func TestRegisterLoginRefreshFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	created := register(t, router, "flow@x.com", "long-enough-pw")
	require.NotEmpty(t, created.UserID)
	require.Equal(t, "flow@x.com", created.Email)

	tokens, cookie := login(t, router, "flow@x.com", "long-enough-pw")
	require.Equal(t, created.UserID, tokens.UserID)
	require.NotEmpty(t, tokens.AccessToken)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, "/auth", cookie.Path)
	require.Equal(t, tokens.RefreshToken, cookie.Value)

	// Rotate via the cookie only, no body.
	rec := doJSON(router, http.MethodPost, "/auth/refresh", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rotated := decodeTokens(t, rec)
	require.Equal(t, created.UserID, rotated.UserID)
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t, nil)

	cases := []gin.H{
		{"email": "not-an-email", "password": "long-enough-pw"},
		{"email": "ok@x.com", "password": "short"},
		{"email": "ok@x.com", "password": "        "},
		{"password": "long-enough-pw"},
		{"email": "ok@x.com"},
	}
	for _, payload := range cases {
		rec := doJSON(router, http.MethodPost, "/auth/register", payload)
		require.Equal(t, http.StatusBadRequest, rec.Code, "payload %v", payload)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := newTestRouter(t, nil)
	register(t, router, "dup@x.com", "long-enough-pw")

	rec := doJSON(router, http.MethodPost, "/auth/register", gin.H{
		"email":    "dup@x.com",
		"password": "other-password",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	router := newTestRouter(t, nil)
	register(t, router, "known@x.com", "long-enough-pw")

	unknown := doJSON(router, http.MethodPost, "/auth/login", gin.H{
		"email":    "ghost@x.com",
		"password": "whatever-pw",
	})
	wrong := doJSON(router, http.MethodPost, "/auth/login", gin.H{
		"email":    "known@x.com",
		"password": "wrong-password",
	})

	require.Equal(t, http.StatusBadRequest, unknown.Code)
	require.Equal(t, wrong.Code, unknown.Code)
	require.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestRefreshReplayKillsAllSessions(t *testing.T) {
	router := newTestRouter(t, nil)
	register(t, router, "theft@x.com", "long-enough-pw")
	first, _ := login(t, router, "theft@x.com", "long-enough-pw")
	second, _ := login(t, router, "theft@x.com", "long-enough-pw")

	rec := doJSON(router, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: first.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	// Replay of the consumed token fails and revokes everything.
	rec = doJSON(router, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: first.RefreshToken})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: second.RefreshToken})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	router := newTestRouter(t, nil)
	register(t, router, "out@x.com", "long-enough-pw")
	tokens, cookie := login(t, router, "out@x.com", "long-enough-pw")

	rec := doJSON(router, http.MethodPost, "/auth/logout", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// The response clears the cookie.
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "al_refresh" && c.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared, "logout must expire the refresh cookie")

	// Logging out the same token again still succeeds.
	rec = doJSON(router, http.MethodPost, "/auth/logout", refreshRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	// Logout with no token at all is a client error.
	rec = doJSON(router, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFederatedLogin(t *testing.T) {
	router := newTestRouter(t, stubVerifier{claims: authledger.IdentityClaims{
		Email: "fed@x.com",
		Name:  "Fed User",
	}})

	rec := doJSON(router, http.MethodPost, "/auth/federated-login", federatedLoginRequest{Credential: "provider-token"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tokens := decodeTokens(t, rec)
	require.NotEmpty(t, tokens.UserID)
	require.NotEmpty(t, tokens.AccessToken)

	// Same identity resolves to the same account.
	again := doJSON(router, http.MethodPost, "/auth/federated-login", federatedLoginRequest{Credential: "provider-token"})
	require.Equal(t, http.StatusOK, again.Code)
	require.Equal(t, tokens.UserID, decodeTokens(t, again).UserID)
}

func TestMe(t *testing.T) {
	router := newTestRouter(t, nil)
	created := register(t, router, "me@x.com", "long-enough-pw")
	tokens, _ := login(t, router, "me@x.com", "long-enough-pw")

	rec := doJSON(router, http.MethodGet, "/auth/me", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, created.UserID, profile.UserID)
	require.Equal(t, "me@x.com", profile.Email)

	rec = doJSON(router, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
