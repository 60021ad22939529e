package service

import (
	"errors"
	"sync"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/model"

	"github.com/google/uuid"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrMessageNotFound = errors.New("message not found")
)

// Snapshot 工作区某一时刻的只读视图。发布后切片不会再被修改，调用方也不应修改
type Snapshot struct {
	ID         string
	Files      []model.FileRecord
	Agenda     *model.MeetingData
	Messages   []model.ChatMessage
	Generating bool
	Streaming  bool
	Version    uint64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Workspace 转换为持久化结构
func (s Snapshot) Workspace() *model.Workspace {
	return &model.Workspace{
		ID:        s.ID,
		Files:     s.Files,
		Agenda:    s.Agenda,
		Messages:  s.Messages,
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// ChatTurn BeginChat 的结果：请求内容和占位回复的 ID
type ChatTurn struct {
	Input     ChatInput
	MessageID string
}

// Controller 单个工作区的状态，所有修改串行执行并发布新快照
type Controller struct {
	id       string
	mu       sync.Mutex
	snap     Snapshot
	genToken uint64
}

func NewController(ws *model.Workspace) *Controller {
	now := time.Now()
	c := &Controller{
		snap: Snapshot{
			ID:        uuid.New().String(),
			Files:     []model.FileRecord{},
			Messages:  []model.ChatMessage{},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	c.id = c.snap.ID
	if ws == nil {
		return c
	}

	c.id = ws.ID
	c.snap.ID = ws.ID
	c.snap.Agenda = ws.Agenda.Clone()
	c.snap.Files = append(c.snap.Files, ws.Files...)
	c.snap.Messages = append(c.snap.Messages, ws.Messages...)
	c.snap.Version = ws.Version
	if !ws.CreatedAt.IsZero() {
		c.snap.CreatedAt = ws.CreatedAt
	}
	if !ws.UpdatedAt.IsZero() {
		c.snap.UpdatedAt = ws.UpdatedAt
	}

	// 进程重启前未完成的占位回复没有意义
	if n := len(c.snap.Messages); n > 0 {
		last := c.snap.Messages[n-1]
		if last.Role == model.RoleModel && last.Text == "" {
			c.snap.Messages = c.snap.Messages[:n-1]
		}
	}
	return c
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// publish 持锁调用
func (c *Controller) publish(next Snapshot) Snapshot {
	next.UpdatedAt = time.Now()
	next.Version = c.snap.Version + 1
	c.snap = next
	return next
}

func (c *Controller) AddFiles(files []model.FileRecord) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snap
	next.Files = make([]model.FileRecord, 0, len(c.snap.Files)+len(files))
	next.Files = append(next.Files, c.snap.Files...)
	next.Files = append(next.Files, files...)
	return c.publish(next)
}

func (c *Controller) RemoveFile(fileID string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := make([]model.FileRecord, 0, len(c.snap.Files))
	for _, f := range c.snap.Files {
		if f.ID != fileID {
			files = append(files, f)
		}
	}
	if len(files) == len(c.snap.Files) {
		return c.snap, ErrFileNotFound
	}

	next := c.snap
	next.Files = files
	return c.publish(next), nil
}

// SetAgenda 整体替换议程，同时使进行中的生成结果失效
func (c *Controller) SetAgenda(data *model.MeetingData) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.genToken++
	next := c.snap
	next.Agenda = data.Clone()
	return c.publish(next)
}

// ClearAgenda 清空议程和文件，对话记录保留
func (c *Controller) ClearAgenda() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.genToken++
	next := c.snap
	next.Agenda = nil
	next.Files = []model.FileRecord{}
	return c.publish(next)
}

func (c *Controller) UpdateAgendaItem(index int, item model.AgendaItem) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.Agenda == nil {
		return c.snap, ErrNoAgenda
	}
	if err := checkIndex(index, len(c.snap.Agenda.AgendaItems)); err != nil {
		return c.snap, err
	}
	if item.DurationMinutes < 0 {
		return c.snap, ErrInvalidDuration
	}

	next := c.snap
	next.Agenda = c.snap.Agenda.Clone()
	next.Agenda.AgendaItems[index] = item
	return c.publish(next), nil
}

func (c *Controller) AddStakeholder(s model.Stakeholder) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.Agenda == nil {
		return c.snap, ErrNoAgenda
	}

	next := c.snap
	next.Agenda = c.snap.Agenda.Clone()
	next.Agenda.Stakeholders = append(next.Agenda.Stakeholders, s)
	return c.publish(next), nil
}

func (c *Controller) RemoveStakeholder(index int) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.Agenda == nil {
		return c.snap, ErrNoAgenda
	}
	if err := checkIndex(index, len(c.snap.Agenda.Stakeholders)); err != nil {
		return c.snap, err
	}

	next := c.snap
	next.Agenda = c.snap.Agenda.Clone()
	next.Agenda.Stakeholders = append(next.Agenda.Stakeholders[:index], next.Agenda.Stakeholders[index+1:]...)
	return c.publish(next), nil
}

// BeginGeneration 返回本次生成的令牌和文件副本
func (c *Controller) BeginGeneration() (uint64, []model.FileRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.snap.Files) == 0 {
		return 0, nil, ErrNoFiles
	}
	if c.snap.Generating {
		return 0, nil, ErrBusy
	}

	c.genToken++
	next := c.snap
	next.Generating = true
	c.publish(next)

	return c.genToken, c.snap.Files, nil
}

// CommitGeneration 令牌已被 SetAgenda/ClearAgenda 推进时丢弃结果
func (c *Controller) CommitGeneration(token uint64, data *model.MeetingData) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snap
	next.Generating = false
	if token != c.genToken {
		return c.publish(next), ErrStaleGeneration
	}

	c.genToken++
	next.Agenda = data.Clone()
	return c.publish(next), nil
}

// AbortGeneration 生成失败，状态除忙碌标记外不变
func (c *Controller) AbortGeneration() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snap
	next.Generating = false
	return c.publish(next)
}

// AppendMessage 对话记录只追加
func (c *Controller) AppendMessage(msg model.ChatMessage) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appendLocked(msg)
}

func (c *Controller) appendLocked(msg model.ChatMessage) Snapshot {
	next := c.snap
	next.Messages = make([]model.ChatMessage, 0, len(c.snap.Messages)+1)
	next.Messages = append(next.Messages, c.snap.Messages...)
	next.Messages = append(next.Messages, msg)
	return c.publish(next)
}

// ReplaceLastMessage 用新消息替换最后一条，ID 必须一致
func (c *Controller) ReplaceLastMessage(msg model.ChatMessage) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaceLastLocked(msg)
}

func (c *Controller) replaceLastLocked(msg model.ChatMessage) (Snapshot, error) {
	n := len(c.snap.Messages)
	if n == 0 || c.snap.Messages[n-1].ID != msg.ID {
		return c.snap, ErrMessageNotFound
	}

	next := c.snap
	next.Messages = make([]model.ChatMessage, n)
	copy(next.Messages, c.snap.Messages)
	next.Messages[n-1] = msg
	return c.publish(next), nil
}

// BeginChat 记录用户消息并追加空的占位回复。历史不包含本轮消息
func (c *Controller) BeginChat(text string) (ChatTurn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.Streaming {
		return ChatTurn{}, ErrBusy
	}

	history := make([]model.Turn, 0, len(c.snap.Messages))
	for _, m := range c.snap.Messages {
		history = append(history, model.Turn{Role: m.Role, Text: m.Text})
	}
	input := ChatInput{
		History: history,
		Message: text,
		Files:   c.snap.Files,
		Agenda:  c.snap.Agenda.Clone(),
	}

	now := time.Now().UnixMilli()
	c.appendLocked(model.ChatMessage{ID: uuid.New().String(), Role: model.RoleUser, Text: text, Timestamp: now})

	placeholder := model.ChatMessage{ID: uuid.New().String(), Role: model.RoleModel, Timestamp: now}
	next := c.appendLocked(placeholder)
	next.Streaming = true
	c.snap = next

	return ChatTurn{Input: input, MessageID: placeholder.ID}, nil
}

// UpdateStreamingText 用累计文本替换占位回复
func (c *Controller) UpdateStreamingText(messageID, text string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.snap.Messages)
	if n == 0 {
		return c.snap, ErrMessageNotFound
	}
	msg := c.snap.Messages[n-1]
	if msg.ID != messageID {
		return c.snap, ErrMessageNotFound
	}
	msg.Text = text
	return c.replaceLastLocked(msg)
}

// FinishChat 结束本轮对话：出错时占位回复替换为致歉文本；没有任何内容时移除占位回复
func (c *Controller) FinishChat(messageID, text string, chatErr error) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.snap.Messages)
	hasPlaceholder := n > 0 && c.snap.Messages[n-1].ID == messageID

	next := c.snap
	switch {
	case !hasPlaceholder:
	case chatErr != nil:
		next.Messages = make([]model.ChatMessage, n)
		copy(next.Messages, c.snap.Messages)
		next.Messages[n-1] = model.ChatMessage{
			ID:        messageID,
			Role:      model.RoleModel,
			Text:      ChatErrorText,
			Timestamp: time.Now().UnixMilli(),
		}
	case text == "":
		next.Messages = append([]model.ChatMessage{}, c.snap.Messages[:n-1]...)
	default:
		next.Messages = make([]model.ChatMessage, n)
		copy(next.Messages, c.snap.Messages)
		next.Messages[n-1].Text = text
	}
	next.Streaming = false
	return c.publish(next)
}
