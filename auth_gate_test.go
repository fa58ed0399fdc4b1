package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIDP はトークン文字列をそのまま UID として扱う IdentityProvider です。
type fakeIDP struct {
	tokens  map[string]*Identity
	revoked []string
}

func newFakeIDP() *fakeIDP {
	return &fakeIDP{tokens: map[string]*Identity{}}
}

func (f *fakeIDP) add(token string, id *Identity) {
	f.tokens[token] = id
}

func (f *fakeIDP) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	id, ok := f.tokens[idToken]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &auth.Token{UID: id.UID, Claims: map[string]interface{}{
		"email": id.Email, "name": id.Name, "picture": id.Picture,
	}}, nil
}

func (f *fakeIDP) RevokeRefreshTokens(ctx context.Context, uid string) error {
	f.revoked = append(f.revoked, uid)
	return nil
}

func TestAdminAuthorizationAllows(t *testing.T) {
	authz := &AdminAuthorization{
		AuthorizedEmails: []string{"Owner@Example.com ", "staff@example.com"},
		BootstrapEmail:   "boot@example.com",
	}
	assert.True(t, authz.allows("owner@example.com"))
	assert.True(t, authz.allows(" STAFF@example.com"))
	assert.True(t, authz.allows("boot@example.com"))
	assert.False(t, authz.allows("stranger@example.com"))
	assert.False(t, authz.allows(""))

	var missing *AdminAuthorization
	assert.False(t, missing.allows("owner@example.com"))
}

func TestResolveAuthState(t *testing.T) {
	authz := &AdminAuthorization{AuthorizedEmails: []string{"owner@example.com"}}
	owner := &Identity{UID: "1", Email: "owner@example.com"}
	guest := &Identity{UID: "2", Email: "guest@example.com"}

	assert.Equal(t, StateUnauthenticated, resolveAuthState(nil, false, authz))
	assert.Equal(t, StateAdmin, resolveAuthState(nil, true, nil))
	assert.Equal(t, StateAdmin, resolveAuthState(owner, false, authz))
	assert.Equal(t, StateAuthenticated, resolveAuthState(guest, false, authz))
	assert.Equal(t, StateAuthenticated, resolveAuthState(owner, false, nil))
}

func newTestGate(store DocumentStore) (*AuthGate, *fakeIDP) {
	idp := newFakeIDP()
	return newAuthGate(store, idp, newSessionSigner("test-secret"), nil), idp
}

func TestGateResolve(t *testing.T) {
	store := newMemStore()
	store.seed(docAdmin, map[string]interface{}{"authorizedEmails": []interface{}{"owner@example.com"}})
	gate, _ := newTestGate(store)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	state, id := gate.resolve(req)
	assert.Equal(t, StateUnauthenticated, state)
	assert.Nil(t, id)

	owner := &Identity{UID: "1", Email: "owner@example.com"}
	state, id = gate.resolve(req.WithContext(withIdentity(req.Context(), owner)))
	assert.Equal(t, StateAdmin, state)
	assert.Equal(t, owner, id)

	guest := &Identity{UID: "2", Email: "guest@example.com"}
	state, _ = gate.resolve(req.WithContext(withIdentity(req.Context(), guest)))
	assert.Equal(t, StateAuthenticated, state)

	token, _, err := gate.sessions.issueAdminSession("uid-1", "admin@admin.local")
	require.NoError(t, err)
	withCookie := httptest.NewRequest(http.MethodGet, "/", nil)
	withCookie.AddCookie(&http.Cookie{Name: adminSessionCookie, Value: token})
	state, _ = gate.resolve(withCookie)
	assert.Equal(t, StateAdmin, state)
}

func TestNeedsInitialSetup(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gate, _ := newTestGate(store)
	assert.True(t, gate.needsInitialSetup(ctx))

	store.fail("get", docAdmin, errors.New("unavailable"))
	assert.False(t, gate.needsInitialSetup(ctx))

	healthy := newMemStore()
	healthy.seed(docAdmin, map[string]interface{}{"authorizedEmails": []interface{}{}})
	gate, _ = newTestGate(healthy)
	assert.False(t, gate.needsInitialSetup(ctx))
}

func TestAuthorizedEmailList(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gate, _ := newTestGate(store)

	emails, err := gate.listAuthorizedEmails(ctx)
	require.NoError(t, err)
	assert.Empty(t, emails)

	var verr *ValidationError
	assert.ErrorAs(t, gate.addAuthorizedEmail(ctx, "not-an-email"), &verr)

	require.NoError(t, gate.addAuthorizedEmail(ctx, " Owner@Example.com "))
	require.NoError(t, gate.addAuthorizedEmail(ctx, "staff@example.com"))
	require.NoError(t, gate.addAuthorizedEmail(ctx, "owner@example.com"))

	emails, err = gate.listAuthorizedEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner@example.com", "staff@example.com"}, emails)
	assert.True(t, gate.checkIsAdmin(ctx, &Identity{Email: "staff@example.com"}))

	require.NoError(t, gate.removeAuthorizedEmail(ctx, "STAFF@example.com"))
	emails, err = gate.listAuthorizedEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner@example.com"}, emails)
	assert.False(t, gate.checkIsAdmin(ctx, &Identity{Email: "staff@example.com"}))
}

func TestAddAuthorizedEmailQueuesNotice(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mail := newMailQueue(store, MailConfig{}, "https://hack.example.com/")
	gate := newAuthGate(store, nil, newSessionSigner("test-secret"), mail)

	require.NoError(t, gate.addAuthorizedEmail(ctx, "owner@example.com"))

	docs, err := store.List(ctx, colMail, Query{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "owner@example.com", docs[0].Data["to"])
	assert.Contains(t, asString(asMap(docs[0].Data["message"])["html"]), "https://hack.example.com")
}

func TestLogoutRevokesTokens(t *testing.T) {
	gate, idp := newTestGate(newMemStore())
	rec := httptest.NewRecorder()
	gate.logout(context.Background(), rec, "uid-1")

	assert.Equal(t, []string{"uid-1"}, idp.revoked)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "o***r@e*********m", maskEmail("owner@example.com"))
	assert.Equal(t, "a*@e*********m", maskEmail("ab@example.com"))
	assert.Equal(t, "no-at-sign", maskEmail("no-at-sign"))
}

func TestOptionalAuth(t *testing.T) {
	idp := newFakeIDP()
	idp.add("good", &Identity{UID: "u1", Email: "User@Example.com", Name: "User"})

	var seen *Identity
	h := optionalAuth(idp)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = identityFromContext(r.Context())
	}))

	for _, header := range []string{"", "Bearer bad", "Basic good"} {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Nil(t, seen, header)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, "user@example.com", seen.Email)
}
