package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Section は管理画面で個別に編集されるコンテンツの区分です。
type Section string

const (
	SectionHero     Section = "hero"
	SectionOverview Section = "overview"
	SectionSchedule Section = "schedule"
	SectionJudges   Section = "judges"
	SectionUpdates  Section = "updates"
	SectionPrizes   Section = "prizes"
	SectionRules    Section = "rules"
	SectionProjects Section = "projects"
	SectionFAQ      Section = "faq"
	SectionSocial   Section = "social"
	// 以下は管理画面専用の区分で、コンテンツ文書には含まれません。操作のたびに即時保存されます。
	SectionAdmins       Section = "admins"
	SectionParticipants Section = "participants"
)

var contentSections = []Section{
	SectionHero, SectionOverview, SectionSchedule, SectionJudges, SectionUpdates,
	SectionPrizes, SectionRules, SectionProjects, SectionFAQ, SectionSocial,
}

// tabSections は公開ページのタブとして事前レンダリングされるセクションです。
var tabSections = []Section{
	SectionOverview, SectionSchedule, SectionJudges, SectionUpdates,
	SectionPrizes, SectionRules, SectionProjects, SectionFAQ,
}

func parseSection(name string) (Section, error) {
	s := Section(strings.ToLower(strings.TrimSpace(name)))
	if s.savesImmediately() {
		return s, nil
	}
	for _, known := range contentSections {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// savesImmediately は操作ごとに即時保存され、未保存フラグを使わない区分です。
func (s Section) savesImmediately() bool {
	return s == SectionAdmins || s == SectionParticipants
}

// isListSection は行の追加ができるセクションかどうかを返します。
func (s Section) isListSection() bool {
	switch s {
	case SectionSchedule, SectionJudges, SectionUpdates, SectionPrizes, SectionRules, SectionProjects, SectionFAQ:
		return true
	}
	return false
}

type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	CTAText  string `json:"ctaText"`
	Notice   string `json:"notice"`
}

type Overview struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Theme       string `json:"theme"`
	Tech        string `json:"tech"`
}

type ScheduleItem struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

type Judge struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Bio    string `json:"bio"`
	Avatar string `json:"avatar"`
}

type Update struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
	Date string `json:"date"`
}

type Prize struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Rule struct {
	Text string `json:"text"`
}

type Project struct {
	Name string `json:"name"`
}

// FAQItem は自由記述のMarkdownです。旧形式の question/answer は読み込み時に結合されます。
type FAQItem struct {
	Content string `json:"content"`
}

type Social struct {
	OGTitle       string `json:"ogTitle"`
	OGDescription string `json:"ogDescription"`
	OGImage       string `json:"ogImage"`
	AllowIndexing bool   `json:"allowIndexing"`
}

// Content は config/data に保存されるイベントコンテンツ全体です。
type Content struct {
	Hero      Hero           `json:"hero"`
	Overview  Overview       `json:"overview"`
	Schedule  []ScheduleItem `json:"schedule"`
	Judges    []Judge        `json:"judges"`
	Updates   []Update       `json:"updates"`
	Prizes    []Prize        `json:"prizes"`
	Rules     []Rule         `json:"rules"`
	Projects  []Project      `json:"projects"`
	FAQ       []FAQItem      `json:"faq"`
	Social    Social         `json:"social"`
	UpdatedAt time.Time      `json:"updatedAt,omitempty"`
}

// defaultContent はストアに何もない場合に使う空の文書です。
func defaultContent() Content {
	return Content{
		Schedule: []ScheduleItem{},
		Judges:   []Judge{},
		Updates:  []Update{},
		Prizes:   []Prize{},
		Rules:    []Rule{},
		Projects: []Project{},
		FAQ:      []FAQItem{},
	}
}

// withSection は src の指定セクションだけを c に上書きしたコピーを返します。
func (c Content) withSection(section Section, src Content) Content {
	switch section {
	case SectionHero:
		c.Hero = src.Hero
	case SectionOverview:
		c.Overview = src.Overview
	case SectionSchedule:
		c.Schedule = src.Schedule
	case SectionJudges:
		c.Judges = src.Judges
	case SectionUpdates:
		c.Updates = src.Updates
	case SectionPrizes:
		c.Prizes = src.Prizes
	case SectionRules:
		c.Rules = src.Rules
	case SectionProjects:
		c.Projects = src.Projects
	case SectionFAQ:
		c.FAQ = src.FAQ
	case SectionSocial:
		c.Social = src.Social
	}
	return c
}

// appendZeroRow はリスト系セクションに空の行を1つ追加します。
func (c Content) appendZeroRow(section Section) (Content, error) {
	switch section {
	case SectionSchedule:
		c.Schedule = append(append([]ScheduleItem{}, c.Schedule...), ScheduleItem{})
	case SectionJudges:
		c.Judges = append(append([]Judge{}, c.Judges...), Judge{})
	case SectionUpdates:
		c.Updates = append(append([]Update{}, c.Updates...), Update{})
	case SectionPrizes:
		c.Prizes = append(append([]Prize{}, c.Prizes...), Prize{})
	case SectionRules:
		c.Rules = append(append([]Rule{}, c.Rules...), Rule{})
	case SectionProjects:
		c.Projects = append(append([]Project{}, c.Projects...), Project{})
	case SectionFAQ:
		c.FAQ = append(append([]FAQItem{}, c.FAQ...), FAQItem{})
	default:
		return c, fmt.Errorf("%w: %s has no rows", ErrUnknownSection, section)
	}
	return c, nil
}

// decodeContent はストアの生データを型付きの Content に変換します。
// 欠けたフィールドはゼロ値、型の違う値は変換できれば変換し、できなければ捨てます。
func decodeContent(raw map[string]interface{}) Content {
	c := defaultContent()
	if raw == nil {
		return c
	}

	if m := asMap(raw["hero"]); m != nil {
		c.Hero = Hero{
			Title:    asString(m["title"]),
			Subtitle: asString(m["subtitle"]),
			CTAText:  asString(m["ctaText"]),
			Notice:   asString(m["notice"]),
		}
	}
	if m := asMap(raw["overview"]); m != nil {
		c.Overview = Overview{
			Title:       asString(m["title"]),
			Description: asString(m["description"]),
			Theme:       asString(m["theme"]),
			Tech:        asString(m["tech"]),
		}
	}
	for _, m := range asMapList(raw["schedule"]) {
		c.Schedule = append(c.Schedule, ScheduleItem{
			Date:        asString(m["date"]),
			Title:       asString(m["title"]),
			Description: asString(m["description"]),
			Active:      asBool(m["active"]),
		})
	}
	for _, m := range asMapList(raw["judges"]) {
		c.Judges = append(c.Judges, Judge{
			Name:   asString(m["name"]),
			Title:  asString(m["title"]),
			Bio:    asString(m["bio"]),
			Avatar: asString(m["avatar"]),
		})
	}
	for _, m := range asMapList(raw["updates"]) {
		c.Updates = append(c.Updates, Update{
			Tag:  asString(m["tag"]),
			Text: asString(m["text"]),
			Date: asString(m["date"]),
		})
	}
	for _, m := range asMapList(raw["prizes"]) {
		c.Prizes = append(c.Prizes, Prize{
			Title:       asString(m["title"]),
			Description: asString(m["description"]),
		})
	}
	for _, m := range asMapList(raw["rules"]) {
		c.Rules = append(c.Rules, Rule{Text: asString(m["text"])})
	}
	for _, m := range asMapList(raw["projects"]) {
		c.Projects = append(c.Projects, Project{Name: asString(m["name"])})
	}
	for _, m := range asMapList(raw["faq"]) {
		c.FAQ = append(c.FAQ, decodeFAQItem(m))
	}
	if m := asMap(raw["social"]); m != nil {
		c.Social = Social{
			OGTitle:       asString(m["ogTitle"]),
			OGDescription: asString(m["ogDescription"]),
			OGImage:       asString(m["ogImage"]),
			AllowIndexing: asBool(m["allowIndexing"]),
		}
	}
	if t, ok := raw["updatedAt"].(time.Time); ok {
		c.UpdatedAt = t
	}
	return c
}

func decodeFAQItem(m map[string]interface{}) FAQItem {
	if content := asString(m["content"]); content != "" {
		return FAQItem{Content: content}
	}
	q, a := asString(m["question"]), asString(m["answer"])
	switch {
	case q == "" && a == "":
		return FAQItem{}
	case q == "":
		return FAQItem{Content: a}
	case a == "":
		return FAQItem{Content: "### " + q}
	}
	return FAQItem{Content: "### " + q + "\n\n" + a}
}

// encodeContent はストアに書き込む形へ変換します。updatedAt はサーバー時刻。
func encodeContent(c Content) map[string]interface{} {
	schedule := make([]interface{}, 0, len(c.Schedule))
	for _, s := range c.Schedule {
		schedule = append(schedule, map[string]interface{}{
			"date": s.Date, "title": s.Title, "description": s.Description, "active": s.Active,
		})
	}
	judges := make([]interface{}, 0, len(c.Judges))
	for _, j := range c.Judges {
		judges = append(judges, map[string]interface{}{
			"name": j.Name, "title": j.Title, "bio": j.Bio, "avatar": j.Avatar,
		})
	}
	updates := make([]interface{}, 0, len(c.Updates))
	for _, u := range c.Updates {
		updates = append(updates, map[string]interface{}{"tag": u.Tag, "text": u.Text, "date": u.Date})
	}
	prizes := make([]interface{}, 0, len(c.Prizes))
	for _, p := range c.Prizes {
		prizes = append(prizes, map[string]interface{}{"title": p.Title, "description": p.Description})
	}
	rules := make([]interface{}, 0, len(c.Rules))
	for _, r := range c.Rules {
		rules = append(rules, map[string]interface{}{"text": r.Text})
	}
	projects := make([]interface{}, 0, len(c.Projects))
	for _, p := range c.Projects {
		projects = append(projects, map[string]interface{}{"name": p.Name})
	}
	faq := make([]interface{}, 0, len(c.FAQ))
	for _, f := range c.FAQ {
		faq = append(faq, map[string]interface{}{"content": f.Content})
	}

	return map[string]interface{}{
		"hero":      encodeHero(c.Hero),
		"overview":  map[string]interface{}{"title": c.Overview.Title, "description": c.Overview.Description, "theme": c.Overview.Theme, "tech": c.Overview.Tech},
		"schedule":  schedule,
		"judges":    judges,
		"updates":   updates,
		"prizes":    prizes,
		"rules":     rules,
		"projects":  projects,
		"faq":       faq,
		"social":    encodeSocial(c.Social),
		"updatedAt": ServerTimestamp,
	}
}

func encodeHero(h Hero) map[string]interface{} {
	return map[string]interface{}{"title": h.Title, "subtitle": h.Subtitle, "ctaText": h.CTAText, "notice": h.Notice}
}

func decodeHero(raw interface{}) Hero {
	m := asMap(raw)
	return Hero{
		Title:    asString(m["title"]),
		Subtitle: asString(m["subtitle"]),
		CTAText:  asString(m["ctaText"]),
		Notice:   asString(m["notice"]),
	}
}

func encodeSocial(s Social) map[string]interface{} {
	return map[string]interface{}{
		"ogTitle": s.OGTitle, "ogDescription": s.OGDescription, "ogImage": s.OGImage, "allowIndexing": s.AllowIndexing,
	}
}

// 以下はスキーマのないデータから値を取り出すためのヘルパーです。

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asMapList(v interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	switch list := v.(type) {
	case []interface{}:
		for _, item := range list {
			if m := asMap(item); m != nil {
				out = append(out, m)
			}
		}
	case []map[string]interface{}:
		out = append(out, list...)
	}
	return out
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case int64:
		return t != 0
	case int:
		return t != 0
	case float64:
		return t != 0
	}
	return false
}

func asInt(v interface{}) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	}
	return 0
}

func asStringList(v interface{}) []string {
	var out []string
	switch list := v.(type) {
	case []interface{}:
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, list...)
	}
	return out
}
