package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// firebaseClients は Firestore、Auth、Storage のクライアントです。プロセス全体で共有します。
type firebaseClients struct {
	Firestore  *firestore.Client
	Auth       *auth.Client
	Bucket     *gcs.BucketHandle
	BucketName string
}

// initClients は Firebase Admin SDK を初期化します。
func initClients(ctx context.Context, cfg *Config) (*firebaseClients, error) {
	if err := cfg.requireCredentials(); err != nil {
		return nil, err
	}
	log.Info().Msg("initializing Firebase clients")

	authOption := option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, authOption)
	if err != nil {
		return nil, fmt.Errorf("Firebase Admin SDKの初期化に失敗しました: %w", err)
	}

	clients := &firebaseClients{BucketName: cfg.StorageBucket}
	if clients.Firestore, err = app.Firestore(ctx); err != nil {
		return nil, fmt.Errorf("Firestoreクライアントの取得に失敗しました: %w", err)
	}
	if clients.Auth, err = app.Auth(ctx); err != nil {
		return nil, fmt.Errorf("Authクライアントの取得に失敗しました: %w", err)
	}

	if cfg.StorageBucket != "" {
		storageClient, err := app.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("Storageクライアントの取得に失敗しました: %w", err)
		}
		if clients.Bucket, err = storageClient.Bucket(cfg.StorageBucket); err != nil {
			return nil, fmt.Errorf("バケット %s の取得に失敗しました: %w", cfg.StorageBucket, err)
		}
	} else {
		log.Warn().Msg("no storage bucket configured, images will be stored inline")
	}

	log.Info().Str("bucket", cfg.StorageBucket).Msg("Firebase clients initialized successfully")
	return clients, nil
}

// blobStore はバケットが設定されていれば BlobStore を返します。
func (c *firebaseClients) blobStore() BlobStore {
	if c.Bucket == nil {
		return nil
	}
	return newFirebaseBlobStore(c.Bucket, c.BucketName)
}

func (c *firebaseClients) Close() {
	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close Firestore client")
		}
	}
}
