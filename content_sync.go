package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SaveResult は保存時の3つの書き込みそれぞれの結果です。
// 書き込みは独立しているため、一部だけ成功することがあります。
type SaveResult struct {
	Section     Section  `json:"section"`
	DataWritten bool     `json:"dataWritten"`
	TabsWritten bool     `json:"tabsWritten"`
	OGPWritten  bool     `json:"ogpWritten"`
	Failures    []string `json:"failures,omitempty"`
}

func (r *SaveResult) OK() bool {
	return len(r.Failures) == 0
}

// ContentSynchronizer は config/data、config/content、config/ogp の3つの投影を保存します。
type ContentSynchronizer struct {
	store DocumentStore
	cache *contentCache
}

func newContentSynchronizer(store DocumentStore, cache *contentCache) *ContentSynchronizer {
	return &ContentSynchronizer{store: store, cache: cache}
}

// Save は現在の文書を読み込み、指定セクションだけを edited の値で置き換えてから
// 全タブを再描画し、3つの文書にそれぞれマージ書き込みします。
// どれかが失敗しても残りの書き込みは続行し、失敗はログと戻り値で報告します。
func (s *ContentSynchronizer) Save(ctx context.Context, section Section, edited Content) (*SaveResult, error) {
	if section.savesImmediately() {
		return nil, fmt.Errorf("%w: %s is not part of the content document", ErrUnknownSection, section)
	}

	// 読み込みに失敗したまま書き込むと他のセクションが空で上書きされるため、ここで止める
	current, err := readContent(ctx, s.store)
	if err != nil {
		log.Error().Err(err).Str("section", string(section)).Msg("content save aborted, current document unreadable")
		return nil, err
	}
	merged := current.withSection(section, edited)
	merged.Updates = sortUpdatesDesc(merged.Updates)

	tabs := renderTabs(merged)
	tabsData := make(map[string]interface{}, len(tabs))
	for name, fragment := range tabs {
		tabsData[name] = string(fragment)
	}

	result := &SaveResult{Section: section}
	var errs []error

	if err := s.store.Set(ctx, docContentData, encodeContent(merged), true); err != nil {
		log.Error().Err(err).Str("doc", docContentData).Msg("content sync write failed")
		result.Failures = append(result.Failures, docContentData)
		errs = append(errs, fmt.Errorf("%s: %w", docContentData, err))
	} else {
		result.DataWritten = true
	}

	tabsDoc := map[string]interface{}{
		"hero":      encodeHero(merged.Hero),
		"tabs":      tabsData,
		"updatedAt": ServerTimestamp,
	}
	if err := s.store.Set(ctx, docContentTabs, tabsDoc, true); err != nil {
		log.Error().Err(err).Str("doc", docContentTabs).Msg("content sync write failed")
		result.Failures = append(result.Failures, docContentTabs)
		errs = append(errs, fmt.Errorf("%s: %w", docContentTabs, err))
	} else {
		result.TabsWritten = true
	}

	// social が空でも書き込む。残すと robots.txt が古い allowIndexing を使い続ける
	ogp := encodeSocial(merged.Social)
	ogp["updatedAt"] = ServerTimestamp
	if err := s.store.Set(ctx, docOGP, ogp, true); err != nil {
		log.Error().Err(err).Str("doc", docOGP).Msg("content sync write failed")
		result.Failures = append(result.Failures, docOGP)
		errs = append(errs, fmt.Errorf("%s: %w", docOGP, err))
	} else {
		result.OGPWritten = true
	}

	if result.DataWritten || result.TabsWritten || result.OGPWritten {
		s.cache.Invalidate()
	}
	if len(errs) > 0 {
		log.Warn().Strs("failed", result.Failures).Str("section", string(section)).
			Msg("content projections may be out of sync")
		return result, errors.Join(errs...)
	}
	log.Info().Str("section", string(section)).Msg("content saved")
	return result, nil
}

// Reset は config/data を空の文書で上書きします（マージしない）。全セクションが消えます。
func (s *ContentSynchronizer) Reset(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.store.Set(ctx, docContentData, encodeContent(defaultContent()), false); err != nil {
		log.Error().Err(err).Msg("content reset failed")
		return fmt.Errorf("reset content: %w", err)
	}
	s.cache.Invalidate()
	log.Warn().Msg("content document reset to defaults")
	return nil
}
