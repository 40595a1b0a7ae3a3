package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("test-secret", time.Hour)
	tok, err := a.IssueJWT("7", "student")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := a.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Sub != "7" || claims.Role != "student" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	a := NewAuthService("secret-a", time.Hour)
	b := NewAuthService("secret-b", time.Hour)
	tok, err := a.IssueJWT("7", "student")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Parse(tok); err == nil {
		t.Error("token signed with another secret must not parse")
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret", time.Hour)
	tok, _ := a.IssueJWT("42", "student")

	var gotID int
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = StudentIDFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/exams", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotID != 42 {
		t.Errorf("subject = %d, want 42", gotID)
	}

	req = httptest.NewRequest("GET", "/exams", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", rec.Code)
	}
}
