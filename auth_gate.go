package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog/log"
)

// AuthState は閲覧者の認証状態です。
type AuthState string

const (
	StateUnauthenticated AuthState = "unauthenticated"
	StateAuthenticated   AuthState = "authenticated"
	StateAdmin           AuthState = "admin"
)

// Identity はIDトークンから得たログイン中のユーザーです。
type Identity struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

func identityFromToken(token *auth.Token) *Identity {
	id := &Identity{UID: token.UID}
	if token.Claims != nil {
		id.Email = strings.ToLower(asString(token.Claims["email"]))
		id.Name = asString(token.Claims["name"])
		id.Picture = asString(token.Claims["picture"])
	}
	return id
}

// IdentityProvider は Firebase Auth のうち利用する操作です。*auth.Client が満たします。
type IdentityProvider interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// AdminAuthorization は config/admin の内容です。
type AdminAuthorization struct {
	AuthorizedEmails []string  `json:"authorizedEmails"`
	BootstrapEmail   string    `json:"bootstrapEmail,omitempty"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
}

func decodeAdminAuthorization(raw map[string]interface{}) *AdminAuthorization {
	a := &AdminAuthorization{
		AuthorizedEmails: asStringList(raw["authorizedEmails"]),
		BootstrapEmail:   asString(raw["bootstrapEmail"]),
	}
	if t, ok := raw["createdAt"].(time.Time); ok {
		a.CreatedAt = t
	}
	return a
}

// allows はメールアドレスが許可リストにあるか、ブートストラップ用アドレスと一致するかを返します。
func (a *AdminAuthorization) allows(email string) bool {
	if a == nil {
		return false
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if a.BootstrapEmail != "" && strings.EqualFold(a.BootstrapEmail, email) {
		return true
	}
	for _, allowed := range a.AuthorizedEmails {
		if strings.EqualFold(strings.TrimSpace(allowed), email) {
			return true
		}
	}
	return false
}

// resolveAuthState は管理者セッションと許可リストの2つの情報源から状態を決めます。
func resolveAuthState(id *Identity, adminSession bool, authz *AdminAuthorization) AuthState {
	if adminSession {
		return StateAdmin
	}
	if id == nil {
		return StateUnauthenticated
	}
	if authz.allows(id.Email) {
		return StateAdmin
	}
	return StateAuthenticated
}

// AuthGate は管理画面へのアクセスを判定します。
type AuthGate struct {
	store    DocumentStore
	idp      IdentityProvider
	sessions *sessionSigner
	mail     *MailQueue
}

func newAuthGate(store DocumentStore, idp IdentityProvider, sessions *sessionSigner, mail *MailQueue) *AuthGate {
	return &AuthGate{store: store, idp: idp, sessions: sessions, mail: mail}
}

func (g *AuthGate) loadAuthorization(ctx context.Context) (*AdminAuthorization, error) {
	doc, err := g.store.Get(ctx, docAdmin)
	if err != nil {
		return nil, err
	}
	return decodeAdminAuthorization(doc.Data), nil
}

// checkIsAdmin は許可リストを確認します。読み込みに失敗した場合は管理者ではないとみなします。
func (g *AuthGate) checkIsAdmin(ctx context.Context, id *Identity) bool {
	if id == nil || id.Email == "" {
		return false
	}
	authz, err := g.loadAuthorization(ctx)
	if err != nil {
		if !isNotFound(err) {
			log.Warn().Err(err).Msg("failed to load admin authorization")
		}
		return false
	}
	return authz.allows(id.Email)
}

// needsInitialSetup は config/admin が存在しないときに true を返します。
// 読み込みエラーの場合は false（セットアップ画面を誤って出さない）。
func (g *AuthGate) needsInitialSetup(ctx context.Context) bool {
	_, err := g.store.Get(ctx, docAdmin)
	if err == nil {
		return false
	}
	if isNotFound(err) {
		return true
	}
	log.Warn().Err(err).Msg("failed to check initial setup state")
	return false
}

// resolve はリクエストの認証状態を返します。
func (g *AuthGate) resolve(r *http.Request) (AuthState, *Identity) {
	id := identityFromContext(r.Context())
	if g.sessions.adminSessionFromRequest(r) != nil {
		return StateAdmin, id
	}
	if id == nil {
		return StateUnauthenticated, nil
	}
	authz, err := g.loadAuthorization(r.Context())
	if err != nil {
		authz = nil
	}
	return resolveAuthState(id, false, authz), id
}

// listAuthorizedEmails は管理者リストを返します。
func (g *AuthGate) listAuthorizedEmails(ctx context.Context) ([]string, error) {
	authz, err := g.loadAuthorization(ctx)
	if err != nil {
		if isNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return authz.AuthorizedEmails, nil
}

// addAuthorizedEmail は管理者リストにメールアドレスを追加し、通知メールを依頼します。
// 通知の失敗は追加自体の失敗にはしません。
func (g *AuthGate) addAuthorizedEmail(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return newValidationError("email", "有効なメールアドレスを入力してください。")
	}
	err := g.store.Set(ctx, docAdmin, map[string]interface{}{
		"authorizedEmails": ArrayUnion(email),
	}, true)
	if err != nil {
		return fmt.Errorf("add authorized email: %w", err)
	}
	log.Info().Str("email", maskEmail(email)).Msg("authorized email added")

	if err := g.mail.sendAdminGrantNotice(ctx, email); err != nil {
		log.Warn().Err(err).Str("email", maskEmail(email)).Msg("failed to queue admin notification")
	}
	return nil
}

func (g *AuthGate) removeAuthorizedEmail(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return newValidationError("email", "メールアドレスを入力してください。")
	}
	err := g.store.Update(ctx, docAdmin, []FieldUpdate{
		{Path: "authorizedEmails", Value: ArrayRemove(email)},
	})
	if err != nil {
		return fmt.Errorf("remove authorized email: %w", err)
	}
	log.Info().Str("email", maskEmail(email)).Msg("authorized email removed")
	return nil
}

// logout は管理者セッションを破棄し、可能ならリフレッシュトークンも無効化します。
func (g *AuthGate) logout(ctx context.Context, w http.ResponseWriter, uid string) {
	clearSessionCookie(w, adminSessionCookie)
	clearSessionCookie(w, editorStateCookie)
	if uid == "" || g.idp == nil {
		return
	}
	if err := g.idp.RevokeRefreshTokens(ctx, uid); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("failed to revoke refresh tokens")
	}
}

// maskEmail は "a***e@e*****e.com" のように先頭と末尾以外を伏せます。
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return email
	}
	return maskPart(email[:at]) + "@" + maskPart(email[at+1:])
}

func maskPart(s string) string {
	r := []rune(s)
	switch {
	case len(r) == 0:
		return ""
	case len(r) <= 2:
		return string(r[0]) + "*"
	}
	return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
}
