package obs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStatus struct {
	id      string
	playing bool
}

func (f fakeStatus) Selection() (string, bool) { return f.id, f.playing }

func TestHealthzReportsOK(t *testing.T) {
	srv := NewServer("127.0.0.1:0", nil)

	req, _ := http.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.httpSrv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestStatusReflectsProvider(t *testing.T) {
	srv := NewServer("127.0.0.1:0", fakeStatus{id: "abc123", playing: true})

	req, _ := http.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()
	srv.httpSrv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "abc123") {
		t.Fatalf("expected response to mention selection id, got %s", w.Body.String())
	}
}

func TestStatusWithNilProviderIsSafe(t *testing.T) {
	srv := NewServer("127.0.0.1:0", nil)

	req, _ := http.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()
	srv.httpSrv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 even with nil provider, got %d", w.Code)
	}
}
