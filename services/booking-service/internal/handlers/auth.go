package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/clinicslots/libs/auth"
	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

type actorKey struct{}

// RequireStaff admits requests bearing an HS256 token for this provider with
// role doctor or admin, and records the actor on the request context.
func RequireStaff(jwtSecret, providerID string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
				httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid Authorization header")
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			claims, err := auth.ParseAndVerifyHS256(token, jwtSecret)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
				return
			}

			var actor model.Actor
			switch claims.Role {
			case auth.RoleDoctor:
				actor = model.ActorDoctor
			case auth.RoleAdmin:
				actor = model.ActorAdmin
			default:
				httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", "staff role required")
				return
			}
			if claims.ProviderID != providerID {
				httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", "token is for another provider")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
		})
	}
}

// actorFrom defaults to patient, the least privileged actor.
func actorFrom(ctx context.Context) model.Actor {
	if a, ok := ctx.Value(actorKey{}).(model.Actor); ok {
		return a
	}
	return model.ActorPatient
}
