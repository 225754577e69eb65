package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVisitor_AssignsIDOnFirstVisit(t *testing.T) {
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = VisitorFromCtx(r.Context())
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	Visitor(h).ServeHTTP(w, r)

	if got == "" {
		t.Fatal("no visitor id in context")
	}
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == VisitorCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("visitor cookie was not set")
	}
	if cookie.Value != got {
		t.Errorf("cookie %q does not match context id %q", cookie.Value, got)
	}
}

func TestVisitor_KeepsExistingID(t *testing.T) {
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = VisitorFromCtx(r.Context())
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: VisitorCookieName, Value: "existing-id"})
	Visitor(h).ServeHTTP(w, r)

	if got != "existing-id" {
		t.Errorf("visitor id = %q, want existing-id", got)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == VisitorCookieName {
			t.Error("cookie was reissued for a returning visitor")
		}
	}
}
