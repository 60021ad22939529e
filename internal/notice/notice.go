package notice

import (
	"sort"
	"strings"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/model"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeInfo    = "info"
)

// Center 工作区的临时提示，到期后自动消失
type Center struct {
	cache *cache.Cache
}

func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	return &Center{
		cache: cache.New(ttl, ttl),
	}
}

func key(workspaceID, noticeID string) string {
	return workspaceID + "/" + noticeID
}

// Push 记录一条提示并返回
func (c *Center) Push(workspaceID, noticeType, message string) model.Notice {
	n := model.Notice{
		ID:        uuid.New().String(),
		Type:      noticeType,
		Message:   message,
		CreatedAt: time.Now(),
	}
	c.cache.Set(key(workspaceID, n.ID), n, cache.DefaultExpiration)
	return n
}

func (c *Center) Success(workspaceID, message string) model.Notice {
	return c.Push(workspaceID, TypeSuccess, message)
}

func (c *Center) Info(workspaceID, message string) model.Notice {
	return c.Push(workspaceID, TypeInfo, message)
}

func (c *Center) Error(workspaceID, message string) model.Notice {
	return c.Push(workspaceID, TypeError, message)
}

// List 按创建时间返回未过期的提示
func (c *Center) List(workspaceID string) []model.Notice {
	prefix := workspaceID + "/"
	notices := make([]model.Notice, 0)
	for k, item := range c.cache.Items() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if n, ok := item.Object.(model.Notice); ok {
			notices = append(notices, n)
		}
	}
	sort.Slice(notices, func(i, j int) bool {
		return notices[i].CreatedAt.Before(notices[j].CreatedAt)
	})
	return notices
}

// Dismiss 返回提示是否存在
func (c *Center) Dismiss(workspaceID, noticeID string) bool {
	k := key(workspaceID, noticeID)
	if _, found := c.cache.Get(k); !found {
		return false
	}
	c.cache.Delete(k)
	return true
}

// Clear 删除工作区的全部提示
func (c *Center) Clear(workspaceID string) {
	prefix := workspaceID + "/"
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
		}
	}
}
