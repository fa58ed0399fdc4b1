package main

import (
	"context"
	"time"
)

// App はHTTPハンドラが使うサービスをまとめたものです。
// ローカルサーバーと Lambda で同じものを使います。
type App struct {
	cfg          *Config
	store        DocumentStore
	idp          IdentityProvider
	passwords    PasswordSigner
	sessions     *sessionSigner
	gate         *AuthGate
	sync         *ContentSynchronizer
	public       *PublicSite
	participants *ParticipantService
	images       *ImageProcessor
	cleaner      *Cleaner
	limiter      *ipRateLimiter
	// streaming はレスポンスを逐次送れる環境（ローカルサーバー）でのみ true。
	streaming bool
}

// appDeps は外部サービスとの接続です。テストでは偽物を渡します。
type appDeps struct {
	Store     DocumentStore
	IDP       IdentityProvider
	Passwords PasswordSigner
	Blobs     BlobStore
}

func newApp(cfg *Config, deps appDeps) *App {
	sessions := newSessionSigner(cfg.JWTSecret)
	cache := newContentCache(cfg.ContentCacheTTL)
	mail := newMailQueue(deps.Store, cfg.Mail, cfg.PublicSiteURL)
	return &App{
		cfg:          cfg,
		store:        deps.Store,
		idp:          deps.IDP,
		passwords:    deps.Passwords,
		sessions:     sessions,
		gate:         newAuthGate(deps.Store, deps.IDP, sessions, mail),
		sync:         newContentSynchronizer(deps.Store, cache),
		public:       newPublicSite(deps.Store, cache),
		participants: newParticipantService(deps.Store, mail),
		images:       newImageProcessor(deps.Blobs, cfg.ImageStorage),
		cleaner:      newCleaner(deps.Store, deps.Blobs),
		limiter:      newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

// bootstrap は設定を読み込み、Firebase に接続した App を作ります。
func bootstrap(ctx context.Context) (*App, *firebaseClients, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	setupLogger(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	clients, err := initClients(initCtx, cfg)
	if err != nil {
		return nil, nil, err
	}
	app := newApp(cfg, appDeps{
		Store:     newFirestoreStore(clients.Firestore, collectionPrefix),
		IDP:       clients.Auth,
		Passwords: newIdentityToolkitClient(cfg.FirebaseAPIKey),
		Blobs:     clients.blobStore(),
	})
	return app, clients, nil
}
