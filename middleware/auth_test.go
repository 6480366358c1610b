package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studyhub/auth"
	"studyhub/models"
)

// stubResolver resolves fixed session ids without a database.
type stubResolver struct {
	users map[int]*models.User
	err   error
}

func (s *stubResolver) Resolve(_ context.Context, sessionID int, _ auth.Identity) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user, ok := s.users[sessionID]; ok {
		return user, nil
	}
	return nil, auth.ErrSessionNotFound
}

func testGate(resolver SessionResolver, codec *auth.TokenCodec) *Gate {
	return &Gate{
		Resolver:  resolver,
		Transport: &auth.BearerTransport{Codec: codec},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func echoUserHandler(t *testing.T, wantUser *models.User, wantSession int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFrom(r.Context())
		if wantUser == nil {
			if user != nil {
				t.Errorf("expected anonymous request, got user %d", user.ID)
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		if user == nil {
			t.Errorf("expected user %d in context, got none", wantUser.ID)
		} else if user.ID != wantUser.ID {
			t.Errorf("user in context: got %d want %d", user.ID, wantUser.ID)
		}
		if sid, ok := SessionFrom(r.Context()); !ok || sid != wantSession {
			t.Errorf("session in context: got %d (%v) want %d", sid, ok, wantSession)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestWithUser(t *testing.T) {
	codec := auth.NewTokenCodec([]byte("gate-secret"), time.Hour)
	alice := &models.User{ID: 1, Username: "alice"}
	resolver := &stubResolver{users: map[int]*models.User{11: alice}}

	t.Run("valid credential attaches user", func(t *testing.T) {
		handler := testGate(resolver, codec).WithUser(echoUserHandler(t, alice, 11))
		token, _ := codec.Sign(11)

		req := httptest.NewRequest("GET", "/api/login", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("no credential passes through anonymously", func(t *testing.T) {
		handler := testGate(resolver, codec).WithUser(echoUserHandler(t, nil, 0))

		req := httptest.NewRequest("GET", "/api/login", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("invalid credential behaves like no credential", func(t *testing.T) {
		handler := testGate(resolver, codec).WithUser(echoUserHandler(t, nil, 0))

		req := httptest.NewRequest("GET", "/api/login", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("revoked session behaves like no credential", func(t *testing.T) {
		handler := testGate(resolver, codec).WithUser(echoUserHandler(t, nil, 0))
		token, _ := codec.Sign(999)

		req := httptest.NewRequest("GET", "/api/login", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("integrity fault is a server error", func(t *testing.T) {
		broken := &stubResolver{err: auth.ErrIntegrity}
		handler := testGate(broken, codec).WithUser(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("handler must not run on integrity faults")
		}))
		token, _ := codec.Sign(11)

		req := httptest.NewRequest("GET", "/api/login", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status: got %v want %v", rr.Code, http.StatusInternalServerError)
		}
	})
}

func TestRequireAuth(t *testing.T) {
	codec := auth.NewTokenCodec([]byte("gate-secret"), time.Hour)
	alice := &models.User{ID: 1, Username: "alice"}
	resolver := &stubResolver{users: map[int]*models.User{11: alice}}
	gate := testGate(resolver, codec)

	protected := gate.WithUser(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	t.Run("authenticated", func(t *testing.T) {
		token, _ := codec.Sign(11)
		req := httptest.NewRequest("GET", "/api/todos", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/todos", nil)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewTokenCodec([]byte("gate-secret"), -time.Hour)
		token, _ := expired.Sign(11)
		req := httptest.NewRequest("GET", "/api/todos", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})
}
