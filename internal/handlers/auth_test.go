package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ai-textbook/backend/internal/auth"
	"github.com/ai-textbook/backend/internal/repo"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

var userCols = []string{"id", "username", "email", "password_hash", "software_background", "hardware_background", "created_at"}

func newTestAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := &AuthHandler{
		Users:    repo.NewUserRepo(db),
		Hasher:   auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens:   auth.NewTokenService("HS256", []byte("test-secret")),
		TokenTTL: 30 * time.Minute,
	}
	return h, mock, func() { db.Close() }
}

func TestAuthHandler_Signup(t *testing.T) {
	h, mock, cleanup := newTestAuthHandler(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM users WHERE email`).
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectQuery(`SELECT .* FROM users WHERE username`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "alice@x.com", sqlmock.AnyArg(), "python", nil).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "alice", "alice@x.com", "$2a$04$hash", "python", nil, now))

	body, _ := json.Marshal(map[string]string{
		"username":            "alice",
		"email":               "alice@x.com",
		"password":            "Secret123",
		"software_background": "python",
	})
	req := httptest.NewRequest("POST", "/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Signup(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Signup status: got %d, want 201 (body %s)", rr.Code, rr.Body.String())
	}
	var out map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["id"] != float64(1) || out["username"] != "alice" || out["email"] != "alice@x.com" {
		t.Errorf("unexpected response: %v", out)
	}
	if _, leaked := out["password_hash"]; leaked {
		t.Error("password hash must not be echoed in the response")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Signup_DuplicateEmailPrecheck(t *testing.T) {
	h, mock, cleanup := newTestAuthHandler(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM users WHERE email`).
		WithArgs("bob@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "bob", "bob@x.com", "h", nil, nil, now))

	body, _ := json.Marshal(map[string]string{
		"username": "bob2", "email": "bob@x.com", "password": "pw2",
	})
	req := httptest.NewRequest("POST", "/auth/signup", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Signup(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	var out map[string]string
	json.NewDecoder(rr.Body).Decode(&out)
	if out["error"] != "Email already registered" {
		t.Errorf("unexpected error: %q", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Signup_DuplicateUsernameRace(t *testing.T) {
	h, mock, cleanup := newTestAuthHandler(t)
	defer cleanup()

	// Both pre-checks pass but the insert loses the race; the unique
	// constraint is the authoritative guard.
	mock.ExpectQuery(`SELECT .* FROM users WHERE email`).
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectQuery(`SELECT .* FROM users WHERE username`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "alice@x.com", sqlmock.AnyArg(), nil, nil).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

	body, _ := json.Marshal(map[string]string{
		"username": "alice", "email": "alice@x.com", "password": "pw",
	})
	req := httptest.NewRequest("POST", "/auth/signup", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Signup(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	var out map[string]string
	json.NewDecoder(rr.Body).Decode(&out)
	if out["error"] != "Username already registered" {
		t.Errorf("unexpected error: %q", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Signup_Validation(t *testing.T) {
	h, _, cleanup := newTestAuthHandler(t)
	defer cleanup()

	body, _ := json.Marshal(map[string]string{
		"username": "ab", "email": "not-an-email", "password": "",
	})
	req := httptest.NewRequest("POST", "/auth/signup", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Signup(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var out struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, f := range []string{"username", "email", "password"} {
		if out.Fields[f] == "" {
			t.Errorf("expected field error for %q, got %v", f, out.Fields)
		}
	}
}

func loginRequest(username, password string) *http.Request {
	form := "username=" + username + "&password=" + password
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAuthHandler_Login(t *testing.T) {
	h, mock, cleanup := newTestAuthHandler(t)
	defer cleanup()

	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM users WHERE username`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "alice", "alice@x.com", string(hash), "python", nil, now))

	rr := httptest.NewRecorder()
	h.Login(rr, loginRequest("alice", "Secret123"))

	if rr.Code != http.StatusOK {
		t.Fatalf("Login status: got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["token_type"] != "bearer" || out["access_token"] == "" {
		t.Fatalf("unexpected response: %v", out)
	}

	subject, err := h.Tokens.Verify(out["access_token"])
	if err != nil {
		t.Fatalf("issued token should verify: %v", err)
	}
	if subject != "alice" {
		t.Errorf("token subject: got %q, want alice", subject)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Unknown user and wrong password must be indistinguishable to the client.
func TestAuthHandler_Login_NoExistenceLeak(t *testing.T) {
	h, mock, cleanup := newTestAuthHandler(t)
	defer cleanup()

	hash, _ := bcrypt.GenerateFromPassword([]byte("rightpassword"), bcrypt.MinCost)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users WHERE username`).
		WithArgs("nouser").
		WillReturnRows(sqlmock.NewRows(userCols))
	rrUnknown := httptest.NewRecorder()
	h.Login(rrUnknown, loginRequest("nouser", "anything"))

	mock.ExpectQuery(`SELECT .* FROM users WHERE username`).
		WithArgs("realuser").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "realuser", "real@x.com", string(hash), nil, nil, now))
	rrWrongPw := httptest.NewRecorder()
	h.Login(rrWrongPw, loginRequest("realuser", "wrongpassword"))

	if rrUnknown.Code != http.StatusUnauthorized || rrWrongPw.Code != http.StatusUnauthorized {
		t.Fatalf("statuses: got %d and %d, want 401 for both", rrUnknown.Code, rrWrongPw.Code)
	}
	if rrUnknown.Body.String() != rrWrongPw.Body.String() {
		t.Errorf("bodies differ: %q vs %q", rrUnknown.Body.String(), rrWrongPw.Body.String())
	}
	if rrUnknown.Header().Get("WWW-Authenticate") != "Bearer" ||
		rrWrongPw.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Error("both responses should carry WWW-Authenticate: Bearer")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
