package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"kiwa/internal/domain"
	"kiwa/internal/repos"
)

// Seeded passwords are stored as bcrypt hashes, never plaintext.
func TestPasswordsSeededAreHashed(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	var hashes []string
	if err := db.Select(&hashes, `SELECT password_hash FROM users`); err != nil {
		t.Fatalf("select hashes: %v", err)
	}
	if len(hashes) == 0 {
		t.Fatal("no users seeded")
	}
	for _, h := range hashes {
		if strings.Contains(h, "Passw0rd!") {
			t.Fatalf("hash contains plaintext password")
		}
		if !strings.HasPrefix(h, "$2") {
			t.Fatalf("unexpected hash format: %s", h)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")); err != nil {
			t.Fatalf("seed hash does not validate known password: %v", err)
		}
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	env := newTestEnv(t, testConfig())
	s := newSession(t, env.app, "sid-login")

	resp := s.post(t, env.app, "/login", url.Values{"email": {"melina@kiwa.test"}, "password": {"Wrong0000!"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "Invalid email or password") {
		t.Fatalf("expected generic failure message; body=%s", body)
	}

	resp = s.post(t, env.app, "/login", url.Values{"email": {"melina@kiwa.test"}, "password": {"Passw0rd!"}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect after login, got %d", resp.StatusCode)
	}
	u, err := env.deps.Auth.CurrentUser("sid-login")
	if err != nil || u.Email != "melina@kiwa.test" {
		t.Fatalf("session not bound: %v %+v", err, u)
	}

	// 5 attempts per window; the two above count
	var last int
	for i := 0; i < 4; i++ {
		last = s.post(t, env.app, "/login", url.Values{"email": {"melina@kiwa.test"}, "password": {"Wrong0000!"}}).StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated attempts, got %d", last)
	}
}

func TestLogoutUnbindsSession(t *testing.T) {
	env := newTestEnv(t, testConfig())
	if err := repos.NewUserRepo(env.db).BindSession("sid-out", "u-melina"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	s := newSession(t, env.app, "sid-out")
	resp := s.post(t, env.app, "/logout", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	if u, err := env.deps.Auth.CurrentUser("sid-out"); err == nil && u != nil {
		t.Fatalf("session still bound to %s", u.Email)
	}
}

func TestAPIAuthLoginMeLogout(t *testing.T) {
	env := newTestEnv(t, testConfig())

	resp := jsonRequest(t, env.app, "GET", "/api/auth/me", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}

	resp = jsonRequest(t, env.app, "POST", "/api/auth/login", map[string]string{"email": "admin@kiwa.test", "password": "nope"}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad login, got %d", resp.StatusCode)
	}

	resp = jsonRequest(t, env.app, "POST", "/api/auth/login", map[string]string{"email": "admin@kiwa.test", "password": "Passw0rd!"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	sid := extractCookie(resp, "sid")
	if sid == "" {
		t.Fatal("login did not issue a session cookie")
	}
	var u domain.User
	decodeJSON(t, resp, &u)
	if u.Role != domain.RoleAdmin || u.Hash != "" {
		t.Fatalf("unexpected user payload: %+v", u)
	}

	resp = jsonRequest(t, env.app, "GET", "/api/auth/me", nil, sid)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for me, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); strings.Contains(body, "password") || !strings.Contains(body, "admin@kiwa.test") {
		t.Fatalf("unexpected me body: %s", body)
	}

	resp = jsonRequest(t, env.app, "POST", "/api/auth/logout", nil, sid)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for logout, got %d", resp.StatusCode)
	}
	resp = jsonRequest(t, env.app, "GET", "/api/auth/me", nil, sid)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}
