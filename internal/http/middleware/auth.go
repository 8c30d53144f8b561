package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/auth"
	"github.com/siscert/api/internal/service"
)

type contextKey string

const (
	ContextKeyUserID contextKey = "user_id"
	ContextKeyLogin  contextKey = "login"
)

// Auth valida o JWT de acesso e injeta o id do usuário no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Token não informado")
				return
			}

			claims, err := jwtManager.ParseAndValidate(strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Token inválido ou expirado")
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Token inválido ou expirado")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
			ctx = context.WithValue(ctx, ContextKeyLogin, claims.Login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID recupera o id do usuário autenticado.
func GetUserID(ctx context.Context) (int64, bool) {
	val, ok := ctx.Value(ContextKeyUserID).(int64)
	return val, ok
}

// AccessLoader monta o AuthContext do usuário autenticado.
type AccessLoader interface {
	Load(ctx context.Context, userID int64) (acesso.AuthContext, error)
}

// LoadAccess carrega papel e vínculos do usuário e os anexa ao contexto.
// Deve rodar depois de Auth.
func LoadAccess(loader AccessLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Token não informado")
				return
			}

			ac, err := loader.Load(r.Context(), userID)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrUnauthenticated):
					writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
				case errors.Is(err, service.ErrAccountPending), errors.Is(err, service.ErrAccountBlocked):
					writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
				default:
					log.Error().Err(err).Int64("usuario_id", userID).Msg("falha ao carregar acesso")
					writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(acesso.WithContext(r.Context(), ac)))
		})
	}
}

// RequireAdmin garante papel admin. Deve rodar depois de LoadAccess.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := acesso.FromContext(r.Context())
		if !ok || !ac.IsAdmin() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", service.ErrForbidden.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
