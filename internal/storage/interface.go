package storage

import (
	"github.com/tahsinmert/AgendaGenius/internal/config"
	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/pkg/logger"
)

// Storage 工作区持久化。读写都是副本，调用方修改返回值不会影响已保存的数据
type Storage interface {
	// 工作区管理
	CreateWorkspace(ws *model.Workspace) error
	GetWorkspace(workspaceID string) (*model.Workspace, error)
	UpdateWorkspace(ws *model.Workspace) error
	DeleteWorkspace(workspaceID string) error
	ListWorkspaces() ([]*model.Workspace, error)

	// 存储管理
	Init() error
	Close() error
	Backup() error
}

// New 按配置创建存储，磁盘存储初始化失败时退回内存存储
func New(cfg config.StorageConfig) Storage {
	var store Storage

	if cfg.Type == "disk" {
		store = NewDiskStorage(cfg.DataDir, cfg.CacheSize)
	} else {
		store = NewMemoryStorage()
	}

	if err := store.Init(); err != nil {
		logger.Errorf("Failed to initialize storage: %v", err)
		store = NewMemoryStorage()
		_ = store.Init()
	}

	return store
}

func cloneWorkspace(ws *model.Workspace) *model.Workspace {
	if ws == nil {
		return nil
	}
	c := *ws
	c.Files = append([]model.FileRecord{}, ws.Files...)
	c.Messages = append([]model.ChatMessage{}, ws.Messages...)
	c.Agenda = ws.Agenda.Clone()
	return &c
}
