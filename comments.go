package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

const maxCommentLength = 1000

// Comment は participants/{email}/comments の1件です。追記のみで編集はありません。
type Comment struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"userEmail"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	Company   string    `json:"company,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func decodeComment(doc *Document) Comment {
	c := Comment{
		ID:        doc.ID,
		UserEmail: asString(doc.Data["userEmail"]),
		UserName:  asString(doc.Data["userName"]),
		Content:   asString(doc.Data["content"]),
		Company:   asString(doc.Data["company"]),
		Role:      asString(doc.Data["role"]),
	}
	if t, ok := doc.Data["createdAt"].(time.Time); ok {
		c.CreatedAt = t
	}
	return c
}

func decodeComments(docs []*Document) []Comment {
	out := make([]Comment, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeComment(doc))
	}
	return out
}

// AddComment はコメントを追加し、参加者の commentCount を1増やします。
// 投稿者が参加登録していれば、所属と役割を一緒に保存します。
func (s *ParticipantService) AddComment(ctx context.Context, id *Identity, targetEmail, content string) (*Comment, error) {
	if id == nil || id.Email == "" {
		return nil, ErrUnauthorized
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newValidationError("content", "コメントを入力してください。")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, newValidationError("content", fmt.Sprintf("コメントは%d文字以内で入力してください。", maxCommentLength))
	}
	if _, err := s.get(ctx, targetEmail); err != nil {
		return nil, err
	}

	comment := Comment{UserEmail: id.Email, UserName: s.displayName(ctx, id), Content: content}
	if p, err := s.get(ctx, id.Email); err == nil {
		comment.Company = p.Company
		comment.Role = p.Role
	}

	newID, err := s.store.Add(ctx, commentsCollection(targetEmail), map[string]interface{}{
		"userEmail": comment.UserEmail,
		"userName":  comment.UserName,
		"content":   comment.Content,
		"company":   comment.Company,
		"role":      comment.Role,
		"createdAt": ServerTimestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	comment.ID = newID

	// カウンタの更新に失敗してもコメント自体は残る
	if err := s.store.Update(ctx, participantPath(targetEmail), []FieldUpdate{
		{Path: "commentCount", Value: Increment(1)},
	}); err != nil {
		log.Warn().Err(err).Str("comment", newID).Msg("failed to increment comment count")
	}
	return &comment, nil
}

// ListComments は古い順のコメント一覧です。
func (s *ParticipantService) ListComments(ctx context.Context, targetEmail string) ([]Comment, error) {
	docs, err := s.store.List(ctx, commentsCollection(targetEmail), Query{OrderBy: "createdAt"})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return decodeComments(docs), nil
}

// CommentSubscription はコメントのリアルタイム購読です。
// 取得した側が必ず Close を呼ぶこと（defer sub.Close()）。
type CommentSubscription struct {
	sub *Subscription
}

// WatchComments はコメントの購読を開始します。最初の通知は現在の一覧です。
func (s *ParticipantService) WatchComments(ctx context.Context, targetEmail string) (*CommentSubscription, error) {
	if _, err := s.get(ctx, targetEmail); err != nil {
		return nil, err
	}
	sub, err := s.store.Watch(ctx, commentsCollection(targetEmail), Query{OrderBy: "createdAt"})
	if err != nil {
		return nil, fmt.Errorf("watch comments: %w", err)
	}
	return &CommentSubscription{sub: sub}, nil
}

// errSubscriptionClosed は購読が終了したことを表します。
var errSubscriptionClosed = io.EOF

// Next は次の一覧を待ちます。購読が閉じられると errSubscriptionClosed を返します。
func (c *CommentSubscription) Next(ctx context.Context) ([]Comment, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.sub.Done():
		return nil, errSubscriptionClosed
	case docs, ok := <-c.sub.Updates():
		if !ok {
			return nil, errSubscriptionClosed
		}
		return decodeComments(docs), nil
	}
}

func (c *CommentSubscription) Close() {
	c.sub.Close()
}

func isSubscriptionEnd(err error) bool {
	return errors.Is(err, errSubscriptionClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
