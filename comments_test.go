package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	svc := newParticipantService(newMemStore(), nil)
	owner := testIdentity("owner@example.com", "")
	commenter := testIdentity("commenter@example.com", "Commenter")
	registerParticipant(t, svc, owner)
	registerParticipant(t, svc, commenter)

	c, err := svc.AddComment(ctx, commenter, owner.Email, "  素晴らしいアイデアです  ")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "素晴らしいアイデアです", c.Content)
	assert.Equal(t, "山田 花子", c.UserName)
	assert.Equal(t, "Example株式会社", c.Company)
	assert.Equal(t, "エンジニア", c.Role)

	_, err = svc.AddComment(ctx, commenter, owner.Email, "二件目")
	require.NoError(t, err)

	comments, err := svc.ListComments(ctx, owner.Email)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "素晴らしいアイデアです", comments[0].Content)
	assert.Equal(t, "二件目", comments[1].Content)
	assert.False(t, comments[0].CreatedAt.IsZero())

	p, err := svc.get(ctx, owner.Email)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CommentCount)
}

func TestAddCommentValidation(t *testing.T) {
	ctx := context.Background()
	svc := newParticipantService(newMemStore(), nil)
	owner := testIdentity("owner@example.com", "")
	registerParticipant(t, svc, owner)
	guest := testIdentity("guest@example.com", "")

	_, err := svc.AddComment(ctx, nil, owner.Email, "hi")
	assert.ErrorIs(t, err, ErrUnauthorized)

	var verr *ValidationError
	_, err = svc.AddComment(ctx, guest, owner.Email, "   ")
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AddComment(ctx, guest, owner.Email, strings.Repeat("あ", maxCommentLength+1))
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AddComment(ctx, guest, "missing@example.com", "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := svc.AddComment(ctx, guest, owner.Email, strings.Repeat("あ", maxCommentLength))
	require.NoError(t, err)
	assert.Equal(t, "guest", c.UserName)
}

func TestWatchComments(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newMemStore()
	svc := newParticipantService(store, nil)
	owner := testIdentity("owner@example.com", "")
	registerParticipant(t, svc, owner)

	_, err := svc.WatchComments(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	sub, err := svc.WatchComments(ctx, owner.Email)
	require.NoError(t, err)

	initial, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, initial)

	_, err = svc.AddComment(ctx, owner, owner.Email, "最初のコメント")
	require.NoError(t, err)

	updated, err := sub.Next(ctx)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "最初のコメント", updated[0].Content)

	sub.Close()
	sub.Close()
	_, err = sub.Next(ctx)
	assert.True(t, isSubscriptionEnd(err))
	assert.Eventually(t, func() bool { return store.watcherCount() == 0 }, time.Second, 10*time.Millisecond)
}
