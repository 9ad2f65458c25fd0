package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv(TokenEnv, "")
	return NewStore(t.TempDir())
}

func TestStoreSetGetDelete(t *testing.T) {
	s := newTestStore(t)

	ti, err := s.Get()
	if err != nil || ti != nil {
		t.Fatalf("expected signed out, got %+v err=%v", ti, err)
	}

	if err := s.Set("Bearer opaque-token", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ti, err = s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ti.Token != "opaque-token" || ti.Source != "file" {
		t.Fatalf("unexpected token info: %+v", ti)
	}

	if err := s.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ti, _ := s.Get(); ti != nil {
		t.Fatalf("expected nil after delete")
	}
}

func TestStoreSetRejectsEmpty(t *testing.T) {
	s := newTestStore(t)
	for _, tok := range []string{"", "   ", "  bearer  ", "Bearer", "BEARER   "} {
		if err := s.Set(tok, nil); !errors.Is(err, ErrEmptyToken) {
			t.Fatalf("Set(%q) err=%v, want ErrEmptyToken", tok, err)
		}
		if sess, err := s.SignIn(tok); !errors.Is(err, ErrEmptyToken) || sess != nil {
			t.Fatalf("SignIn(%q) = %v, %v; want ErrEmptyToken", tok, sess, err)
		}
	}
	if got := stripBearer("  Bearer   abc "); got != "abc" {
		t.Fatalf("stripBearer=%q", got)
	}
	if got := stripBearer("bearertoken"); got != "bearertoken" {
		t.Fatalf("stripBearer=%q", got)
	}
}

func TestEnvOverride(t *testing.T) {
	s := NewStore(t.TempDir())
	t.Setenv(TokenEnv, "bearer from-env")

	sess, err := s.Session()
	if err != nil || sess == nil {
		t.Fatalf("Session: %v", err)
	}
	if sess.Token() != "from-env" || sess.Info().Source != "env" {
		t.Fatalf("unexpected session: %+v", sess.Info())
	}
	// env tokens are not ours to delete
	if err := sess.SignOut(); !errors.Is(err, ErrEnvToken) {
		t.Fatalf("SignOut err=%v, want ErrEnvToken", err)
	}
}

func TestSignInRefusedWhileEnvTokenSet(t *testing.T) {
	s := NewStore(t.TempDir())
	t.Setenv(TokenEnv, signed(t, jwt.MapClaims{"cognito:username": "alice"}))

	sess, err := s.SignIn(signed(t, jwt.MapClaims{"cognito:username": "bob"}))
	if !errors.Is(err, ErrEnvToken) || sess != nil {
		t.Fatalf("SignIn = %v, %v; want ErrEnvToken", sess, err)
	}
	// nothing was written behind the env token
	t.Setenv(TokenEnv, "")
	if ti, err := s.Get(); err != nil || ti != nil {
		t.Fatalf("credential stored: %+v err=%v", ti, err)
	}
}

func TestSignInReturnsSignedInUser(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SignIn(signed(t, jwt.MapClaims{"cognito:username": "alice"})); err != nil {
		t.Fatal(err)
	}
	sess, err := s.SignIn(signed(t, jwt.MapClaims{"cognito:username": "bob"}))
	if err != nil {
		t.Fatal(err)
	}
	if got := sess.CurrentUser().Name; got != "bob" {
		t.Fatalf("user=%q, want bob", got)
	}
}

func TestSignInDerivesUserAndExpiry(t *testing.T) {
	s := newTestStore(t)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signed(t, jwt.MapClaims{
		"sub":              "abc-123",
		"cognito:username": "idil",
		"email":            "idil@example.com",
		"exp":              exp.Unix(),
	})

	sess, err := s.SignIn(token)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	u := sess.CurrentUser()
	if u.Name != "idil" || u.Subject != "abc-123" {
		t.Fatalf("user=%+v", u)
	}
	info := sess.Info()
	if info.ExpiresAt == nil || !info.ExpiresAt.Equal(exp) {
		t.Fatalf("expires=%v, want %v", info.ExpiresAt, exp)
	}

	if err := sess.SignOut(); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if again, err := s.Session(); err != nil || again != nil {
		t.Fatalf("expected signed out, got %v err=%v", again, err)
	}
}

func TestSessionExpired(t *testing.T) {
	s := newTestStore(t)
	past := time.Now().Add(-time.Minute)
	if err := s.Set("opaque", &past); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Session(); !errors.Is(err, ErrExpired) {
		t.Fatalf("err=%v, want ErrExpired", err)
	}

	expired := signed(t, jwt.MapClaims{"sub": "x", "exp": past.Unix()})
	if _, err := s.SignIn(expired); !errors.Is(err, ErrExpired) {
		t.Fatalf("SignIn err=%v, want ErrExpired", err)
	}
}

func TestUserFromToken(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"cognito username wins", jwt.MapClaims{"cognito:username": "a", "email": "b@x"}, "a"},
		{"preferred username", jwt.MapClaims{"preferred_username": "p", "sub": "s"}, "p"},
		{"email", jwt.MapClaims{"email": "e@x", "sub": "s"}, "e@x"},
		{"sub fallback", jwt.MapClaims{"sub": "s"}, "s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UserFromToken(signed(t, tc.claims)).Name; got != tc.want {
				t.Fatalf("name=%q, want %q", got, tc.want)
			}
		})
	}
	if got := UserFromToken("not-a-jwt").Name; got != "user" {
		t.Fatalf("opaque name=%q", got)
	}
}
