package main

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// フォームの入力名は "hero.title" や "schedule[2].date" の形式です。
var indexedFieldPattern = regexp.MustCompile(`^([a-z]+)\[(\d+)\]\.([A-Za-z]+)$`)

// formRows はリスト系セクションの入力を行番号ごとにまとめたものです。
type formRows map[int]map[string]string

func (rows formRows) ordered() []map[string]string {
	idx := make([]int, 0, len(rows))
	for i := range rows {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]map[string]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, rows[i])
	}
	return out
}

func collectRows(section Section, form url.Values) formRows {
	rows := formRows{}
	for key, values := range form {
		m := indexedFieldPattern.FindStringSubmatch(key)
		if m == nil || m[1] != string(section) {
			continue
		}
		i, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if rows[i] == nil {
			rows[i] = map[string]string{}
		}
		if len(values) > 0 {
			rows[i][m[3]] = values[len(values)-1]
		}
	}
	return rows
}

// formBool はチェックボックスの値を解釈します。未送信は false。
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes", "checked":
		return true
	}
	return false
}

// collectFormValues はフォームの入力から指定セクションの値を組み立てます。
// 他のセクションはゼロ値のままです。欠けた入力は空文字列や false になります。
func collectFormValues(section Section, form url.Values) Content {
	var c Content
	get := func(name string) string { return form.Get(string(section) + "." + name) }

	switch section {
	case SectionHero:
		c.Hero = Hero{Title: get("title"), Subtitle: get("subtitle"), CTAText: get("ctaText"), Notice: get("notice")}
	case SectionOverview:
		c.Overview = Overview{Title: get("title"), Description: get("description"), Theme: get("theme"), Tech: get("tech")}
	case SectionSocial:
		c.Social = Social{
			OGTitle:       get("ogTitle"),
			OGDescription: get("ogDescription"),
			OGImage:       get("ogImage"),
			AllowIndexing: formBool(get("allowIndexing")),
		}
	case SectionSchedule:
		c.Schedule = []ScheduleItem{}
		for _, row := range collectRows(section, form).ordered() {
			c.Schedule = append(c.Schedule, ScheduleItem{
				Date:        toDisplayDate(row["date"]),
				Title:       row["title"],
				Description: row["description"],
				Active:      formBool(row["active"]),
			})
		}
	case SectionJudges:
		c.Judges = []Judge{}
		for _, row := range collectRows(section, form).ordered() {
			c.Judges = append(c.Judges, Judge{Name: row["name"], Title: row["title"], Bio: row["bio"], Avatar: row["avatar"]})
		}
	case SectionUpdates:
		c.Updates = []Update{}
		for _, row := range collectRows(section, form).ordered() {
			c.Updates = append(c.Updates, Update{Tag: row["tag"], Text: row["text"], Date: toDisplayDate(row["date"])})
		}
	case SectionPrizes:
		c.Prizes = []Prize{}
		for _, row := range collectRows(section, form).ordered() {
			c.Prizes = append(c.Prizes, Prize{Title: row["title"], Description: row["description"]})
		}
	case SectionRules:
		c.Rules = []Rule{}
		for _, row := range collectRows(section, form).ordered() {
			c.Rules = append(c.Rules, Rule{Text: row["text"]})
		}
	case SectionProjects:
		c.Projects = []Project{}
		for _, row := range collectRows(section, form).ordered() {
			c.Projects = append(c.Projects, Project{Name: row["name"]})
		}
	case SectionFAQ:
		c.FAQ = []FAQItem{}
		for _, row := range collectRows(section, form).ordered() {
			c.FAQ = append(c.FAQ, FAQItem{Content: row["content"]})
		}
	}
	return c
}

var editorTemplates = template.Must(
	template.New("editor").Funcs(templateFuncs).ParseFS(templateFS, "templates/editor/*.tmpl"),
)

// editorFormView はフォームのテンプレートに渡すデータです。
type editorFormView struct {
	State        EditorState
	Content      Content
	Admins       []string
	Participants []ParticipantSummary
	Statuses     []statusOption
}

type statusOption struct {
	Value string
	Label string
}

func participantStatusOptions() []statusOption {
	out := make([]statusOption, 0, len(participantStatuses))
	for _, s := range participantStatuses {
		out = append(out, statusOption{Value: string(s), Label: s.Label()})
	}
	return out
}

// renderEditorForm は現在のセクションの編集フォームを描画します。
func renderEditorForm(view editorFormView) (template.HTML, error) {
	if view.Statuses == nil {
		view.Statuses = participantStatusOptions()
	}
	var buf bytes.Buffer
	name := "form-" + string(view.State.Section)
	if editorTemplates.Lookup(name) == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownSection, view.State.Section)
	}
	if err := editorTemplates.ExecuteTemplate(&buf, name, view); err != nil {
		return "", fmt.Errorf("render editor form %s: %w", view.State.Section, err)
	}
	return template.HTML(buf.String()), nil
}
