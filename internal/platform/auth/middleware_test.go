package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(captured *Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			if identity, ok := IdentityFromContext(r.Context()); ok {
				*captured = identity
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddleware(t *testing.T) {
	verifier := newVerifier(t)

	t.Run("valid token passes identity through", func(t *testing.T) {
		var identity Identity
		handler := Middleware(verifier)(okHandler(&identity))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(RoleOperator), testSecret))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
		}
		if identity.Subject != "user-42" || identity.Role != RoleOperator {
			t.Fatalf("unexpected identity: %+v", identity)
		}
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		handler := Middleware(verifier)(okHandler(nil))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		handler := Middleware(verifier)(okHandler(nil))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	verifier := newVerifier(t)

	t.Run("matching role passes", func(t *testing.T) {
		handler := Middleware(verifier)(RequireRole(RoleOperator)(okHandler(nil)))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(RoleOperator), testSecret))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("unexpected status %d", rec.Code)
		}
	})

	t.Run("mismatched role is forbidden", func(t *testing.T) {
		handler := Middleware(verifier)(RequireRole(RoleOperator)(okHandler(nil)))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(RoleSupplier), testSecret))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		handler := RequireRole(RoleOperator)(okHandler(nil))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
