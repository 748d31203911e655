package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"academy-api/internal/service"
)

type captureSender struct {
	fail     bool
	lastCode string
}

func (s *captureSender) SendVerificationCode(_ context.Context, _, code, _ string) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.lastCode = code
	return nil
}

type authTestEnv struct {
	router *gin.Engine
	repo   *stubUserRepo
	sender *captureSender
}

func newAuthTestEnv(t *testing.T, limiter service.ResendRateLimiter) *authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newStubUserRepo()
	sender := &captureSender{}
	jwtSvc := service.NewJWTServiceWithStore("test-secret", 2*time.Hour, 24*time.Hour, service.NewMemoryRevokedTokenStore())
	authSvc := service.NewAuthService(zap.NewNop(), repo, sender, jwtSvc, limiter, bcrypt.MinCost, "http://localhost:8080")
	handler := NewAuthHandler(zap.NewNop(), authSvc, jwtSvc)

	r := gin.New()
	authMW := AuthMiddleware(jwtSvc, repo)
	auth := r.Group("/api/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.GET("/verify-email", handler.VerifyEmail)
	auth.POST("/verify-code", handler.VerifyCode)
	auth.POST("/resend-code", handler.ResendCode)
	auth.GET("/me", authMW, handler.Me)
	auth.POST("/profile", authMW, handler.UpdateProfile)
	auth.POST("/logout", authMW, handler.Logout)

	return &authTestEnv{router: r, repo: repo, sender: sender}
}

func (e *authTestEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

const registerAliceBody = `{
	"fullName": "Alice Example",
	"email": "alice@example.com",
	"password": "CorrectHorse9!",
	"confirmPassword": "CorrectHorse9!",
	"role": "student"
}`

func TestAuthHandler_RegisterVerifyLoginFlow(t *testing.T) {
	env := newAuthTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/auth/register", registerAliceBody, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var regResp struct {
		EmailSent bool `json:"emailSent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &regResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if !regResp.EmailSent {
		t.Fatalf("expected emailSent=true")
	}

	loginBody := `{"email": "alice@example.com", "password": "CorrectHorse9!"}`
	rec = env.do(http.MethodPost, "/api/auth/login", loginBody, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login before verify: expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Please verify your email first.") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	verifyBody := `{"email": "alice@example.com", "code": "` + env.sender.lastCode + `"}`
	rec = env.do(http.MethodPost, "/api/auth/verify-code", verifyBody, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify code: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/api/auth/login", loginBody, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login after verify: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var loginResp struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.Token == "" {
		t.Fatalf("expected a token")
	}
	if loginResp.User.Role != "student" || loginResp.User.Email != "alice@example.com" {
		t.Fatalf("unexpected user payload: %+v", loginResp.User)
	}

	rec = env.do(http.MethodGet, "/api/auth/me", "", loginResp.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password_hash") || strings.Contains(rec.Body.String(), "CorrectHorse9!") {
		t.Fatalf("credentials leaked in response: %s", rec.Body.String())
	}
}

func TestAuthHandler_RegisterRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing fields", `{"email": "a@b.com"}`, http.StatusBadRequest},
		{"weak password", `{
			"fullName": "Alice", "email": "alice@example.com",
			"password": "short1!", "confirmPassword": "short1!", "role": "student"
		}`, http.StatusBadRequest},
		{"password mismatch", `{
			"fullName": "Alice", "email": "alice@example.com",
			"password": "CorrectHorse9!", "confirmPassword": "Different9!Pass", "role": "student"
		}`, http.StatusBadRequest},
		{"admin role", `{
			"fullName": "Alice", "email": "alice@example.com",
			"password": "CorrectHorse9!", "confirmPassword": "CorrectHorse9!", "role": "admin"
		}`, http.StatusBadRequest},
		{"invalid dob", `{
			"fullName": "Alice", "email": "alice@example.com",
			"password": "CorrectHorse9!", "confirmPassword": "CorrectHorse9!", "role": "student",
			"dob": "not-a-date"
		}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newAuthTestEnv(t, nil)
			rec := env.do(http.MethodPost, "/api/auth/register", tc.body, "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthHandler_RegisterDuplicate(t *testing.T) {
	env := newAuthTestEnv(t, nil)

	if rec := env.do(http.MethodPost, "/api/auth/register", registerAliceBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}
	rec := env.do(http.MethodPost, "/api/auth/register", registerAliceBody, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "email already registered") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_RegisterEmailFailure(t *testing.T) {
	env := newAuthTestEnv(t, nil)
	env.sender.fail = true

	rec := env.do(http.MethodPost, "/api/auth/register", registerAliceBody, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 even when email fails, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"emailSent":false`) {
		t.Fatalf("expected emailSent=false, got %s", rec.Body.String())
	}
}

func TestAuthHandler_VerifyCodeErrors(t *testing.T) {
	env := newAuthTestEnv(t, nil)

	if rec := env.do(http.MethodPost, "/api/auth/register", registerAliceBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	rec := env.do(http.MethodPost, "/api/auth/verify-code", `{"email": "alice@example.com", "code": "00000000"}`, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("wrong code: expected 404, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/auth/verify-code", `{"email": "ghost@example.com", "code": "12345678"}`, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown email: expected 404, got %d", rec.Code)
	}

	// Codigo vencido: se retrasa la emision mas alla del TTL.
	for id := range env.repo.users {
		stale := time.Now().UTC().Add(-11 * time.Minute)
		if err := env.repo.SetVerificationCode(context.Background(), id, env.sender.lastCode, stale); err != nil {
			t.Fatalf("backdate: %v", err)
		}
	}
	rec = env.do(http.MethodPost, "/api/auth/verify-code", `{"email": "alice@example.com", "code": "`+env.sender.lastCode+`"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expired code: expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Verification code expired. Please request a new one.") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_VerifyCodeIdempotent(t *testing.T) {
	env := newAuthTestEnv(t, nil)

	if rec := env.do(http.MethodPost, "/api/auth/register", registerAliceBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}
	body := `{"email": "alice@example.com", "code": "` + env.sender.lastCode + `"}`
	if rec := env.do(http.MethodPost, "/api/auth/verify-code", body, ""); rec.Code != http.StatusOK {
		t.Fatalf("first verify: expected 200, got %d", rec.Code)
	}

	rec := env.do(http.MethodPost, "/api/auth/verify-code", `{"email": "alice@example.com", "code": "99999999"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("second verify: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Account already verified.") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_ResendCode(t *testing.T) {
	env := newAuthTestEnv(t, service.NewResendRateLimiter(time.Minute, 1))

	if rec := env.do(http.MethodPost, "/api/auth/register", registerAliceBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}
	firstCode := env.sender.lastCode

	rec := env.do(http.MethodPost, "/api/auth/resend-code", `{"email": "alice@example.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("resend: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.sender.lastCode == firstCode {
		t.Fatalf("resend must issue a new code")
	}

	rec = env.do(http.MethodPost, "/api/auth/resend-code", `{"email": "alice@example.com"}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("rate limited resend: expected 429, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/auth/resend-code", `{"email": "ghost@example.com"}`, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown email: expected 404, got %d", rec.Code)
	}
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	env := newAuthTestEnv(t, nil)
	token := registerAndLogin(t, env)

	body := `{"bio": "Math enthusiast", "subjects": ["Mathematics", "Physics"]}`
	rec := env.do(http.MethodPost, "/api/auth/profile", body, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Math enthusiast") {
		t.Fatalf("bio not applied: %s", rec.Body.String())
	}
	// Campos no provistos conservan su valor.
	if !strings.Contains(rec.Body.String(), "Alice Example") {
		t.Fatalf("full name lost in merge: %s", rec.Body.String())
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	env := newAuthTestEnv(t, nil)
	token := registerAndLogin(t, env)

	if rec := env.do(http.MethodGet, "/api/auth/me", "", token); rec.Code != http.StatusOK {
		t.Fatalf("me before logout: expected 200, got %d", rec.Code)
	}

	rec := env.do(http.MethodPost, "/api/auth/logout", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(http.MethodGet, "/api/auth/me", "", token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", rec.Code)
	}
}

func registerAndLogin(t *testing.T, env *authTestEnv) string {
	t.Helper()
	if rec := env.do(http.MethodPost, "/api/auth/register", registerAliceBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	verifyBody := `{"email": "alice@example.com", "code": "` + env.sender.lastCode + `"}`
	if rec := env.do(http.MethodPost, "/api/auth/verify-code", verifyBody, ""); rec.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec := env.do(http.MethodPost, "/api/auth/login", `{"email": "alice@example.com", "password": "CorrectHorse9!"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.Token
}
