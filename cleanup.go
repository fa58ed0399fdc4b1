package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	orphanedImageAge = 24 * time.Hour
	deliveredMailAge = 7 * 24 * time.Hour
)

// CleanupReport は定期クリーンアップの結果です。
type CleanupReport struct {
	ImagesDeleted int      `json:"imagesDeleted"`
	MailDeleted   int      `json:"mailDeleted"`
	Failures      []string `json:"failures,omitempty"`
}

// Cleaner は使われなくなったSNS画像と配信済みメールを削除します。
type Cleaner struct {
	store DocumentStore
	blobs BlobStore
	now   func() time.Time
}

func newCleaner(store DocumentStore, blobs BlobStore) *Cleaner {
	return &Cleaner{store: store, blobs: blobs, now: time.Now}
}

// Run はすべてのクリーンアップを実行します。片方が失敗しても、もう片方は実行します。
func (c *Cleaner) Run(ctx context.Context) (*CleanupReport, error) {
	log.Info().Msg("starting cleanup of orphaned images and delivered mail")
	report := &CleanupReport{}
	var errs []error

	n, err := c.cleanupOrphanedOGPImages(ctx)
	report.ImagesDeleted = n
	if err != nil {
		report.Failures = append(report.Failures, "images")
		errs = append(errs, err)
	}

	n, err = c.cleanupDeliveredMail(ctx)
	report.MailDeleted = n
	if err != nil {
		report.Failures = append(report.Failures, "mail")
		errs = append(errs, err)
	}

	log.Info().Int("images", report.ImagesDeleted).Int("mail", report.MailDeleted).Msg("cleanup finished")
	return report, errors.Join(errs...)
}

// cleanupOrphanedOGPImages は ogp/ 以下で24時間以上前に作られ、
// 現在の ogImage でもないオブジェクトを削除します。
func (c *Cleaner) cleanupOrphanedOGPImages(ctx context.Context) (int, error) {
	if c.blobs == nil {
		return 0, nil
	}
	current := ""
	if doc, err := c.store.Get(ctx, docOGP); err == nil {
		current = blobPathFromURL(asString(doc.Data["ogImage"]))
	} else if !isNotFound(err) {
		// 現在の画像がわからない状態では消さない
		return 0, fmt.Errorf("load ogp document: %w", err)
	}

	objects, err := c.blobs.List(ctx, ogpPrefix)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", ogpPrefix, err)
	}
	cutoff := c.now().Add(-orphanedImageAge)
	deleted := 0
	for _, obj := range objects {
		if obj.Path == current || !strings.HasPrefix(obj.Path, ogpPrefix) || obj.Created.After(cutoff) {
			continue
		}
		if err := c.blobs.Delete(ctx, obj.Path); err != nil {
			log.Error().Err(err).Str("object", obj.Path).Msg("failed to delete orphaned image")
			continue
		}
		deleted++
		log.Info().Str("object", obj.Path).Msg("deleted orphaned image")
	}
	return deleted, nil
}

// cleanupDeliveredMail は配信済み（delivery.state == SUCCESS）で7日以上前のメールを削除します。
func (c *Cleaner) cleanupDeliveredMail(ctx context.Context) (int, error) {
	docs, err := c.store.List(ctx, colMail, Query{OrderBy: "createdAt"})
	if err != nil {
		return 0, fmt.Errorf("list mail: %w", err)
	}
	cutoff := c.now().Add(-deliveredMailAge)
	deleted := 0
	for _, doc := range docs {
		if asString(asMap(doc.Data["delivery"])["state"]) != "SUCCESS" {
			continue
		}
		created, ok := doc.Data["createdAt"].(time.Time)
		if !ok || created.After(cutoff) {
			continue
		}
		if err := c.store.Delete(ctx, joinPath(colMail, doc.ID)); err != nil {
			log.Error().Err(err).Str("mail", doc.ID).Msg("failed to delete delivered mail")
			continue
		}
		deleted++
	}
	log.Info().Int("count", deleted).Msg("deleted delivered mail documents")
	return deleted, nil
}
