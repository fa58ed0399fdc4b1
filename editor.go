package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

// EditorState は管理画面のフォームエディタの状態です。
// 遷移はすべて値を返す純粋関数で、サーバー側では署名付き Cookie に保存されます。
type EditorState struct {
	Section           Section `json:"section"`
	HasUnsavedChanges bool    `json:"hasUnsavedChanges"`
}

func newEditorState() EditorState {
	return EditorState{Section: SectionHero}
}

// SelectSection は編集対象を切り替えます。
// 未保存の変更があり confirmDiscard が false なら ErrConfirmationRequired を返し、状態は変わりません。
func (s EditorState) SelectSection(target Section, confirmDiscard bool) (EditorState, error) {
	if s.HasUnsavedChanges && !confirmDiscard {
		return s, ErrConfirmationRequired
	}
	return EditorState{Section: target}, nil
}

// FieldEdited は入力があったことを記録します。即時保存の区分では何もしません。
func (s EditorState) FieldEdited() EditorState {
	if s.Section.savesImmediately() {
		return s
	}
	s.HasUnsavedChanges = true
	return s
}

// Saved は保存完了後の状態です。
func (s EditorState) Saved() EditorState {
	s.HasUnsavedChanges = false
	return s
}

const editorStateTTL = 12 * time.Hour

func (s *sessionSigner) encodeEditorState(state EditorState) (string, error) {
	return s.sign(jwt.MapClaims{
		"section": string(state.Section),
		"dirty":   state.HasUnsavedChanges,
		"exp":     s.now().Add(editorStateTTL).Unix(),
	})
}

// decodeEditorState は Cookie の値を復元します。壊れていれば初期状態。
func (s *sessionSigner) decodeEditorState(token string) EditorState {
	if token == "" {
		return newEditorState()
	}
	claims, err := s.parse(token)
	if err != nil {
		return newEditorState()
	}
	name, _ := claims["section"].(string)
	section, err := parseSection(name)
	if err != nil {
		return newEditorState()
	}
	dirty, _ := claims["dirty"].(bool)
	return EditorState{Section: section, HasUnsavedChanges: dirty}
}

func (s *sessionSigner) editorStateFromRequest(r *http.Request) EditorState {
	c, err := r.Cookie(editorStateCookie)
	if err != nil {
		return newEditorState()
	}
	return s.decodeEditorState(c.Value)
}

func (s *sessionSigner) writeEditorState(w http.ResponseWriter, state EditorState) {
	token, err := s.encodeEditorState(state)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode editor state")
		return
	}
	setSessionCookie(w, editorStateCookie, token, editorStateTTL)
}

// loadContent は表示用に config/data を読み込みます。読み込みに失敗した場合は空の文書を返します。
func loadContent(ctx context.Context, store DocumentStore) Content {
	c, err := readContent(ctx, store)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load content document, using defaults")
		return defaultContent()
	}
	return c
}

// readContent は書き込み前の読み込みです。文書がなければ空の文書、それ以外の失敗はエラーを返します。
func readContent(ctx context.Context, store DocumentStore) (Content, error) {
	doc, err := store.Get(ctx, docContentData)
	if err != nil {
		if isNotFound(err) {
			return defaultContent(), nil
		}
		return Content{}, fmt.Errorf("load %s: %w", docContentData, err)
	}
	return decodeContent(doc.Data), nil
}

// addRow はリスト系セクションに空の行を追加し、その場で config/data に書き込みます。
// 他の編集と違い、保存ボタンを待たずに反映されます。
func addRow(ctx context.Context, store DocumentStore, section Section) (Content, error) {
	if !section.isListSection() {
		return Content{}, fmt.Errorf("%w: %s has no rows", ErrUnknownSection, section)
	}
	current, err := readContent(ctx, store)
	if err != nil {
		return Content{}, err
	}
	next, err := current.appendZeroRow(section)
	if err != nil {
		return Content{}, err
	}
	data := encodeContent(next)
	patch := map[string]interface{}{
		string(section): data[string(section)],
		"updatedAt":     ServerTimestamp,
	}
	if err := store.Set(ctx, docContentData, patch, true); err != nil {
		log.Error().Err(err).Str("section", string(section)).Msg("failed to persist added row")
		return Content{}, fmt.Errorf("add row to %s: %w", section, err)
	}
	return next, nil
}
