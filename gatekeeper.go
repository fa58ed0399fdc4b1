package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// identityContextKey はコンテキスト内でログインユーザーを格納するためのキーです。
type identityContextKey struct{}

func withIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// identityFromContext はコンテキストからログインユーザーを取得します。未ログインなら nil。
func identityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// optionalAuth はIDトークンを"オプショナル"で検証するミドルウェアです。
// ヘッダーがない、または検証に失敗した場合も、非ログインユーザーとして処理を続けます。
func optionalAuth(idp IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || idp == nil {
				next.ServeHTTP(w, r)
				return
			}
			idToken, ok := bearerToken(header)
			if !ok {
				log.Warn().Msg("authorization header format is invalid, proceeding as anonymous")
				next.ServeHTTP(w, r)
				return
			}
			token, err := idp.VerifyIDToken(r.Context(), idToken)
			if err != nil {
				log.Warn().Err(err).Msg("failed to verify ID token, proceeding as anonymous")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identityFromToken(token))))
		})
	}
}

// requireIdentity はログインしていないリクエストを 401 で拒否します。
func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFromContext(r.Context()) == nil {
			writeError(w, ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin は管理者以外を 401 で拒否します。クライアントはログイン画面を表示します。
func (g *AuthGate) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, id := g.resolve(r)
		if state != StateAdmin {
			if id != nil {
				log.Info().Str("uid", id.UID).Msg("non-admin identity denied admin route")
			}
			writeError(w, ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
