package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ビルドモードごとに config_local.go / config_prod.go で設定される
var (
	deploymentMode   string
	collectionPrefix string
)

const defaultJWTSecret = "your-default-secret-key-for-development-only"

// Config はアプリケーション全体の設定です。
type Config struct {
	CredentialsJSON string
	ProjectID       string
	FirebaseAPIKey  string
	StorageBucket   string
	JWTSecret       string
	ImageStorage    string // "inline" | "bucket"
	ContentCacheTTL time.Duration
	AllowedOrigins  []string
	PublicSiteURL   string
	LogLevel        string
	RateLimitRPS    int
	RateLimitBurst  int
	Mail            MailConfig
}

// MailConfig はSMTPによる直接送信の設定です。空なら mail/ ドキュメントの書き込みのみ行います。
type MailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func (m MailConfig) enabled() bool {
	return m.SMTPUsername != "" && m.SMTPPassword != ""
}

// loadConfig は環境変数から設定を読み込みます。.env はローカル開発でのみ使用。
func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		CredentialsJSON: strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")),
		ProjectID:       strings.TrimSpace(os.Getenv("FIREBASE_PROJECT_ID")),
		FirebaseAPIKey:  strings.TrimSpace(os.Getenv("FIREBASE_API_KEY")),
		StorageBucket:   strings.TrimSpace(os.Getenv("FIREBASE_STORAGE_BUCKET")),
		JWTSecret:       getEnvOrDefault("JWT_SECRET", defaultJWTSecret),
		ImageStorage:    getEnvOrDefault("IMAGE_STORAGE", "bucket"),
		PublicSiteURL:   getEnvOrDefault("PUBLIC_SITE_URL", "http://localhost:5173"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		AllowedOrigins:  splitList(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
		Mail: MailConfig{
			SMTPHost:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnvOrDefault("SMTP_PORT", "587"),
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
			FromName:     getEnvOrDefault("FROM_NAME", "Hackathon Office"),
		},
	}
	cfg.Mail.FromEmail = getEnvOrDefault("FROM_EMAIL", cfg.Mail.SMTPUsername)

	ttl, err := getEnvInt("CONTENT_CACHE_TTL", 60)
	if err != nil {
		return nil, err
	}
	cfg.ContentCacheTTL = time.Duration(ttl) * time.Second

	if cfg.RateLimitRPS, err = getEnvInt("RATE_LIMIT_RPS", 2); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}

	if cfg.ImageStorage != "inline" && cfg.ImageStorage != "bucket" {
		return nil, fmt.Errorf("IMAGE_STORAGE must be inline or bucket, got %q", cfg.ImageStorage)
	}
	if cfg.ProjectID == "" {
		cfg.ProjectID = projectIDFromCredentials(cfg.CredentialsJSON)
	}
	if cfg.StorageBucket == "" && cfg.ProjectID != "" {
		cfg.StorageBucket = cfg.ProjectID + ".firebasestorage.app"
	}
	return cfg, nil
}

// requireCredentials はFirebaseへ接続するビルドで必須の項目を検証します。
func (c *Config) requireCredentials() error {
	if c.CredentialsJSON == "" {
		return errors.New("環境変数 GOOGLE_APPLICATION_CREDENTIALS_JSON が設定されていません")
	}
	return nil
}

// projectIDFromCredentials はサービスアカウントキーの project_id を返します。
func projectIDFromCredentials(raw string) string {
	if raw == "" {
		return ""
	}
	var key struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal([]byte(raw), &key); err != nil {
		return ""
	}
	return key.ProjectID
}

// getEnvOrDefault は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

