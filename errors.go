package main

import (
	"errors"
	"fmt"
	"net/http"
)

// 共通のエラー値
var (
	ErrNotFound             = errors.New("document not found")
	ErrAlreadyRegistered    = errors.New("already registered")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrImageTooLarge        = errors.New("image exceeds size limit")
	ErrUnsupportedImage     = errors.New("unsupported image format")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("operation not allowed")
	ErrUnknownSection       = errors.New("unknown section")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDisabled      = errors.New("account disabled")
	ErrTooManyAttempts      = errors.New("too many attempts")
)

// ValidationError は入力検証エラーです。Message はそのまま利用者に表示されます。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// statusForError はエラーをHTTPステータスとクライアント向けメッセージに変換します。
func statusForError(err error) (int, string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, ErrUnknownSection):
		return http.StatusBadRequest, "不明なセクションです"
	case errors.Is(err, ErrConfirmationRequired):
		return http.StatusConflict, "未保存の変更があります。破棄してよろしいですか？"
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "IDまたはパスワードが正しくありません"
	case errors.Is(err, ErrAccountDisabled):
		return http.StatusUnauthorized, "アカウントが無効化されています"
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests, "ログイン試行回数が多すぎます。しばらく時間をおいてから再試行してください"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "ログインが必要です"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "この操作を行う権限がありません"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "データが見つかりません"
	case errors.Is(err, ErrAlreadyRegistered):
		return http.StatusConflict, "このメールアドレスは既に登録されています。"
	case errors.Is(err, ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "画像サイズは2MB以下にしてください。"
	case errors.Is(err, ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType, "対応していない画像形式です（JPEG, PNG, GIF, WebP）"
	default:
		return http.StatusInternalServerError, "処理に失敗しました。時間をおいて再度お試しください。"
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
