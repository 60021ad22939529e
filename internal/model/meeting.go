package model

import (
	"strings"
	"time"
)

// 字段名与前端以及模型的结构化输出保持一致（camelCase）

// FileRecord 上传文档的内存表示，创建后不可变
type FileRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"type"`
	Content   string `json:"content"` // data URI: data:<mime>;base64,<payload>
	SizeBytes int64  `json:"size"`
}

type Stakeholder struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Initials 取名字前两个单词的首字母
func (s Stakeholder) Initials() string {
	var b strings.Builder
	for _, word := range strings.Fields(s.Name) {
		if b.Len() >= 2 {
			break
		}
		r := []rune(word)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

type AgendaItem struct {
	ID              string `json:"id,omitempty"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes"`
	Presenter       string `json:"presenter,omitempty"`
}

type MeetingData struct {
	MeetingTitle string        `json:"meetingTitle"`
	Summary      string        `json:"summary"`
	Date         string        `json:"date,omitempty"`
	Stakeholders []Stakeholder `json:"stakeholders"`
	AgendaItems  []AgendaItem  `json:"agendaItems"`
}

// TotalDuration 总时长只从议程项计算，从不缓存
func (m *MeetingData) TotalDuration() int {
	total := 0
	for _, item := range m.AgendaItems {
		total += item.DurationMinutes
	}
	return total
}

// Clone 深拷贝，快照之间不共享切片
func (m *MeetingData) Clone() *MeetingData {
	if m == nil {
		return nil
	}
	c := *m
	c.Stakeholders = append([]Stakeholder(nil), m.Stakeholders...)
	c.AgendaItems = append([]AgendaItem(nil), m.AgendaItems...)
	if c.Stakeholders == nil {
		c.Stakeholders = []Stakeholder{}
	}
	if c.AgendaItems == nil {
		c.AgendaItems = []AgendaItem{}
	}
	return &c
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type ChatMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix 毫秒
}

// Turn 发送给对话服务的历史轮次
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Workspace 一个工作区的持久化形态
type Workspace struct {
	ID        string        `json:"id"`
	Files     []FileRecord  `json:"files"`
	Agenda    *MeetingData  `json:"agenda,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	// Version 每次修改递增，存储层据此丢弃过期的写入
	Version   uint64        `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
