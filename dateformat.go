package main

import (
	"sort"
	"strings"
	"time"
)

// 文書上の日付は "2025.04.01"、date 入力欄は "2025-04-01" 形式。
const (
	displayDateLayout = "2006.01.02"
	inputDateLayout   = "2006-01-02"
)

// toInputDate は表示形式の日付を date 入力欄の形式に変換します。
func toInputDate(display string) string {
	return strings.ReplaceAll(strings.TrimSpace(display), ".", "-")
}

// toDisplayDate は date 入力欄の値を表示形式に変換します。
func toDisplayDate(input string) string {
	return strings.ReplaceAll(strings.TrimSpace(input), "-", ".")
}

// parseDisplayDate は表示形式・入力形式のどちらでも受け付けます。
func parseDisplayDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{displayDateLayout, inputDateLayout, "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sortUpdatesDesc は更新情報を日付の新しい順に並べます。
// 日付として読めないものは末尾に元の順序のまま残します。
func sortUpdatesDesc(updates []Update) []Update {
	out := append([]Update(nil), updates...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := parseDisplayDate(out[i].Date)
		tj, okJ := parseDisplayDate(out[j].Date)
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})
	return out
}
