package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlecture/vlecture-api/internal/config"
	"github.com/vlecture/vlecture-api/internal/model"
	"github.com/vlecture/vlecture-api/internal/repository"
	"github.com/vlecture/vlecture-api/internal/service"
)

// In-memory stores so handler tests exercise the full service stack without
// MySQL or Redis.

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserStore() *memUserStore { return &memUserStore{users: map[string]*model.User{}} }

func (s *memUserStore) Create(_ context.Context, email, firstName, middleName, lastName, hash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return "", repository.ErrEmailExists
		}
	}
	id := uuid.NewString()
	s.users[id] = &model.User{ID: id, Email: email, FirstName: firstName, MiddleName: middleName, LastName: lastName, PasswordHash: hash}
	return id, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) GetByAccessToken(_ context.Context, token string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.AccessToken != nil && *u.AccessToken == token {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) GetByRefreshToken(_ context.Context, tokenHash string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.IsActive && u.RefreshToken != nil && *u.RefreshToken == tokenHash &&
			u.RefreshExpiresAt != nil && time.Now().Before(*u.RefreshExpiresAt) {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) SetTokens(_ context.Context, id, access, refreshHash string, refreshExp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.AccessToken, u.RefreshToken, u.RefreshExpiresAt, u.IsActive = &access, &refreshHash, &refreshExp, true
	return nil
}

func (s *memUserStore) SetAccessToken(_ context.Context, id, access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].AccessToken = &access
	return nil
}

func (s *memUserStore) ClearTokensByAccess(_ context.Context, access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.AccessToken != nil && *u.AccessToken == access {
			u.AccessToken, u.RefreshToken, u.RefreshExpiresAt, u.IsActive = nil, nil, nil, false
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memUserStore) ClearTokens(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.AccessToken, u.RefreshToken, u.RefreshExpiresAt, u.IsActive = nil, nil, nil, false
	return nil
}

func (s *memUserStore) SetPassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].PasswordHash = hash
	return nil
}

type memResetStore struct{}

func (memResetStore) Store(context.Context, string, string, time.Time) error { return nil }
func (memResetStore) Consume(context.Context, string) (string, error) {
	return "", repository.ErrNotFound
}

type memOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
	sends map[string]int64
}

func newMemOTPStore() *memOTPStore {
	return &memOTPStore{codes: map[string]string{}, sends: map[string]int64{}}
}

func (s *memOTPStore) Put(_ context.Context, email, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = code
	return nil
}

func (s *memOTPStore) Get(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[email]
	if !ok {
		return "", repository.ErrNotFound
	}
	return code, nil
}

func (s *memOTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}

func (s *memOTPStore) IncrSends(_ context.Context, email string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends[email]++
	return s.sends[email], nil
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string, string) error { return nil }

type testEnv struct {
	e     *echo.Echo
	auth  *AuthHandler
	ver   *VerificationHandler
	users *memUserStore
	otps  *memOTPStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	users := newMemUserStore()
	otps := newMemOTPStore()
	authSvc := service.NewAuthService(cfg, users, memResetStore{}, noopMailer{}, nil)
	verSvc := service.NewVerificationService(cfg, users, otps, noopMailer{})
	return &testEnv{
		e:     echo.New(),
		auth:  NewAuthHandler(authSvc),
		ver:   NewVerificationHandler(verSvc),
		users: users,
		otps:  otps,
	}
}

func (env *testEnv) do(t *testing.T, h echo.HandlerFunc, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(env.e.NewContext(req, rec)))
	return rec
}

const registerBody = `{"email":"bob@x.com","first_name":"Bob","middle_name":"T","last_name":"Builder","password":"hunter22"}`

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.auth.Register, registerBody, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bob@x.com", resp["email"])
	assert.NotContains(t, rec.Body.String(), "hunter22", "password must never be echoed")
	assert.NotContains(t, resp, "password_hash")
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, env.auth.Register, registerBody, nil)

	rec := env.do(t, env.auth.Register, registerBody, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterEndpointBadEmail(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.auth.Register,
		`{"email":"notanemail","first_name":"A","last_name":"B","password":"pw"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, env.auth.Register, registerBody, nil)

	rec := env.do(t, env.auth.Login, `{"email":"bob@x.com","password":"hunter22"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Access.Token)
	assert.NotEmpty(t, resp.Refresh.Token)
	assert.True(t, resp.User.IsActive)
}

func TestLoginEndpointUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.auth.Login, `{"email":"ghost@x.com","password":"pw"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginEndpointWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, env.auth.Register, registerBody, nil)

	rec := env.do(t, env.auth.Login, `{"email":"bob@x.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, env.auth.Register, registerBody, nil)

	rec := env.do(t, env.auth.Login, `{"email":"bob@x.com","password":"hunter22"}`, nil)
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = env.do(t, env.auth.Logout, "", map[string]string{"Authorization": "Bearer " + resp.Access.Token})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Renewing with the refresh token of a logged-out session fails.
	rec = env.do(t, env.auth.Renew, `{"refresh_token":"`+resp.Refresh.Token+`"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpointMissingToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.auth.Logout, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRenewEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, env.auth.Register, registerBody, nil)

	rec := env.do(t, env.auth.Login, `{"email":"bob@x.com","password":"hunter22"}`, nil)
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = env.do(t, env.auth.Renew, `{"refresh_token":"`+resp.Refresh.Token+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "token")
}

func TestForgotPasswordEndpointDoesNotLeakAccounts(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, env.auth.Register, registerBody, nil)

	known := env.do(t, env.auth.ForgotPassword, `{"email":"bob@x.com"}`, nil)
	unknown := env.do(t, env.auth.ForgotPassword, `{"email":"ghost@x.com"}`, nil)

	assert.Equal(t, http.StatusAccepted, known.Code)
	assert.Equal(t, unknown.Code, known.Code, "response must not reveal account existence")
	assert.Equal(t, unknown.Body.String(), known.Body.String())
}

func TestResetPasswordEndpointBadToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.auth.ResetPassword, `{"token":"bogus","new_password":"pw"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerificationEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.ver.Send, `{"email":"new@x.com"}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	code := env.otps.codes["new@x.com"]
	require.NotEmpty(t, code)

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	rec = env.do(t, env.ver.Check, `{"email":"new@x.com","code":"`+wrong+`"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, env.ver.Check, `{"email":"new@x.com","code":"`+code+`"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Code is consumed: a replay is rejected.
	rec = env.do(t, env.ver.Check, `{"email":"new@x.com","code":"`+code+`"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerificationSendForRegisteredEmail(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, env.auth.Register, registerBody, nil)

	rec := env.do(t, env.ver.Send, `{"email":"bob@x.com"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
