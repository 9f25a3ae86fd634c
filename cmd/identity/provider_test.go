package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func newProviderServer(t *testing.T) *httptest.Server {
	t.Helper()

	session := func(refresh string) wireSession {
		return wireSession{
			UserID:       "u1",
			Claims:       map[string]string{"email": "nimal@example.com"},
			AccessToken:  "at-" + refresh,
			RefreshToken: refresh,
			ExpiresAt:    time.Now().Add(time.Hour),
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("grant_type") {
		case "password":
			_ = json.NewEncoder(w).Encode(session("rt-signin"))
		case "refresh_token":
			_ = json.NewEncoder(w).Encode(session("rt-rotated"))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// The refresh loop runs on a timer goroutine while sign-in and sign-out are
// driven by callers, so the refresh-token field sees concurrent access.
func TestHTTPProviderConcurrentTokenRotation(t *testing.T) {
	t.Parallel()

	srv := newProviderServer(t)
	p := NewHTTPProvider(HTTPProviderOptions{BaseURL: srv.URL})
	ctx := context.Background()

	if _, err := p.SignIn(ctx, Credentials{Email: "nimal@example.com", Password: "pw"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = p.SignIn(ctx, Credentials{Email: "nimal@example.com", Password: "pw"})
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = p.Refresh(ctx)
			}
		}()
	}
	wg.Wait()

	sess, err := p.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh after churn: %v", err)
	}
	if sess.RefreshToken != "rt-rotated" {
		t.Fatalf("refresh token=%q want=rt-rotated", sess.RefreshToken)
	}

	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := p.Refresh(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Refresh after SignOut: err=%v want ErrNoSession", err)
	}
}
