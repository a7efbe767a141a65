package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "credex/pkg/domain"
	"credex/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	Subject string
	Role    string
}

// RequireAuth validates the bearer token and injects the actor identity and
// role into the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			after, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, logger, http.StatusUnauthorized,
					"unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(after)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, logger, http.StatusUnauthorized,
					"unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithActorID(ctx, id.ActorID(claims.Subject))
			ctx = requestcontext.WithActorRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose role is not in the allowed
// set. Must run after RequireAuth.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.ActorRole(ctx)
			if !allowed[role] {
				logger.WarnContext(ctx, "forbidden - role not permitted",
					"role", role,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, logger, http.StatusForbidden,
					"forbidden", "Role not permitted for this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoleForWrites applies RequireRole to mutating requests only, so
// read-only roles like auditor can still fetch decisions and stats.
func RequireRoleForWrites(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := RequireRole(logger, roles...)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, logger *slog.Logger, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(`{"error":"` + code + `","error_description":"` + description + `"}`)); err != nil {
		logger.Error("failed to write error response", "error", err)
	}
}
