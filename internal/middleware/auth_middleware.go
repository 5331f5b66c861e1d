package middleware

import (
	"context"
	"net/http"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/auth"
)

type contextKey string

// UserIDKey carries the authenticated user's id through the request context.
const UserIDKey contextKey = "userID"

// RoleKey carries the authenticated user's role through the request context.
const RoleKey contextKey = "role"

// UserIDFromContext extracts the authenticated user's id, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok
}

func requireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("token")
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ValidateJWT(cookie.Value)
			if err != nil || !allowed[claims.Role] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminAuthMiddleware(next http.Handler) http.Handler {
	return requireRole("admin")(next)
}

func InstructorAuthMiddleware(next http.Handler) http.Handler {
	return requireRole("instructor", "admin")(next)
}

func StudentAuthMiddleware(next http.Handler) http.Handler {
	return requireRole("student")(next)
}

// AuthMiddleware accepts any authenticated role.
func AuthMiddleware(next http.Handler) http.Handler {
	return requireRole("student", "instructor", "admin")(next)
}
