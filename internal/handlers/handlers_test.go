package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"green-roots/internal/handlers"

	"github.com/gorilla/sessions"
)

// submitRequest builds a logged-in POST /submit carrying the given body. The
// session cookie is minted the same way LoginSubmit does it.
func submitRequest(t *testing.T, store *sessions.CookieStore, body, contentType string) *http.Request {
	t.Helper()

	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, _ := store.Get(seed, "session")
	session.Values["user_id"] = 1
	session.Values["barangay_id"] = 1
	if err := session.Save(seed, rec); err != nil {
		t.Fatalf("session save: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSubmitTree_MalformedMultipartBody(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret"))
	h := &handlers.Handler{Store: store}

	req := submitRequest(t, store, "this is not multipart data", "multipart/form-data; boundary=broken")
	rec := httptest.NewRecorder()
	h.SubmitTree(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "Could not read the form") {
		t.Errorf("body = %q, want the generic form error", body)
	}
	if strings.Contains(body, "too large") {
		t.Error("a malformed body must not be reported as an oversized photo")
	}
}
