package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSection(t *testing.T) {
	s, err := parseSection(" Schedule ")
	require.NoError(t, err)
	assert.Equal(t, SectionSchedule, s)

	s, err = parseSection("admins")
	require.NoError(t, err)
	assert.True(t, s.savesImmediately())

	_, err = parseSection("calendar")
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestDecodeContentMissingDocument(t *testing.T) {
	c := decodeContent(nil)
	assert.NotNil(t, c.Schedule)
	assert.Empty(t, c.Schedule)
	assert.Empty(t, c.FAQ)
	assert.Equal(t, Social{}, c.Social)
}

func TestDecodeContentCoercesLooseValues(t *testing.T) {
	updatedAt := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	c := decodeContent(map[string]interface{}{
		"hero": map[string]interface{}{"title": "Hack", "ctaText": 42},
		"schedule": []interface{}{
			map[string]interface{}{"date": "2025.04.01", "title": "開会", "active": "true"},
			"not a map",
		},
		"social":    map[string]interface{}{"allowIndexing": int64(1)},
		"updatedAt": updatedAt,
	})

	assert.Equal(t, "Hack", c.Hero.Title)
	assert.Equal(t, "42", c.Hero.CTAText)
	require.Len(t, c.Schedule, 1)
	assert.True(t, c.Schedule[0].Active)
	assert.True(t, c.Social.AllowIndexing)
	assert.Equal(t, updatedAt, c.UpdatedAt)
}

func TestDecodeLegacyFAQ(t *testing.T) {
	c := decodeContent(map[string]interface{}{
		"faq": []interface{}{
			map[string]interface{}{"question": "参加費は？", "answer": "無料です。"},
			map[string]interface{}{"question": "持ち物は？"},
			map[string]interface{}{"answer": "回答のみ"},
			map[string]interface{}{"content": "### 新形式\n\n本文", "question": "無視される"},
		},
	})

	require.Len(t, c.FAQ, 4)
	assert.Equal(t, "### 参加費は？\n\n無料です。", c.FAQ[0].Content)
	assert.Equal(t, "### 持ち物は？", c.FAQ[1].Content)
	assert.Equal(t, "回答のみ", c.FAQ[2].Content)
	assert.Equal(t, "### 新形式\n\n本文", c.FAQ[3].Content)
}

func TestEncodeContentRoundTrip(t *testing.T) {
	c := defaultContent()
	c.Hero.Title = "Hack"
	c.Judges = []Judge{{Name: "審査員", Bio: "**bio**"}}
	c.Social = Social{OGTitle: "OG", AllowIndexing: true}

	raw := encodeContent(c)
	assert.Equal(t, ServerTimestamp, raw["updatedAt"])
	delete(raw, "updatedAt")

	assert.Equal(t, c, decodeContent(raw))
}

func TestWithSectionReplacesOnlyTarget(t *testing.T) {
	current := defaultContent()
	current.Hero.Title = "旧タイトル"
	current.Rules = []Rule{{Text: "既存"}}

	edited := Content{Hero: Hero{Title: "新タイトル"}}
	got := current.withSection(SectionHero, edited)

	assert.Equal(t, "新タイトル", got.Hero.Title)
	assert.Equal(t, []Rule{{Text: "既存"}}, got.Rules)
	assert.Equal(t, "旧タイトル", current.Hero.Title)
}

func TestAppendZeroRow(t *testing.T) {
	c := defaultContent()
	c.Prizes = []Prize{{Title: "最優秀賞"}}

	next, err := c.appendZeroRow(SectionPrizes)
	require.NoError(t, err)
	assert.Equal(t, []Prize{{Title: "最優秀賞"}, {}}, next.Prizes)
	assert.Len(t, c.Prizes, 1)

	_, err = c.appendZeroRow(SectionHero)
	assert.ErrorIs(t, err, ErrUnknownSection)
}
